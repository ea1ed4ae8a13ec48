package huffman

import (
	"io"
	"log/slog"
)

const (
	// DefaultUnitLen is the unit width, in bits, used when none is given.
	DefaultUnitLen = 8

	// MaxUnitLen is the widest unit the container header can describe.
	MaxUnitLen = 255

	// DefaultTreeSizeWidth is the default width, in bytes, of the size
	// field that precedes the encoded tree.
	DefaultTreeSizeWidth = 2

	// MaxTreeSizeWidth is the widest supported tree size field.
	MaxTreeSizeWidth = 8

	// DefaultChunkSize is the default number of bytes read per chunk.
	DefaultChunkSize = 1024

	// remainderSizeWidth is fixed by the container format.
	remainderSizeWidth = 1
)

// Options configures an Encoder or Decoder.
type Options struct {
	// UnitLen is the width of one unit in bits.  Ignored when decoding;
	// the container records it.
	UnitLen int

	// TreeSizeWidth is the width in bytes of the encoded tree's size
	// field.  The container does not record it, so both sides must agree.
	TreeSizeWidth int

	// ChunkSize is the number of bytes read from a source at a time.
	ChunkSize int

	// Logger receives debug-level progress records.  May be nil.
	Logger *slog.Logger
}

// DefaultOptions returns the Options used by EncodeBytes and DecodeBytes when
// the caller has no preference.
func DefaultOptions() Options {
	return Options{
		UnitLen:       DefaultUnitLen,
		TreeSizeWidth: DefaultTreeSizeWidth,
		ChunkSize:     DefaultChunkSize,
	}
}

// Validate checks the fields shared by encoding and decoding.  Zero values of
// TreeSizeWidth and ChunkSize are replaced by their defaults first.
func (opts *Options) Validate() error {
	if opts.TreeSizeWidth == 0 {
		opts.TreeSizeWidth = DefaultTreeSizeWidth
	}
	if opts.ChunkSize == 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.TreeSizeWidth < 1 || opts.TreeSizeWidth > MaxTreeSizeWidth {
		return configErrorf("tree size field width %d out of range [1, %d]", opts.TreeSizeWidth, MaxTreeSizeWidth)
	}
	if opts.ChunkSize < 1 {
		return configErrorf("chunk size %d must be positive", opts.ChunkSize)
	}
	return nil
}

func (opts *Options) validateForEncode() error {
	if err := opts.Validate(); err != nil {
		return err
	}
	return checkUnitLen(opts.UnitLen)
}

func (opts Options) logger() *slog.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func checkUnitLen(unitLen int) error {
	if unitLen < 1 || unitLen > MaxUnitLen {
		return configErrorf("unit length %d out of range [1, %d]", unitLen, MaxUnitLen)
	}
	return nil
}
