package huffman

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/chronos-tachyon/assert"
	"github.com/icza/bitio"
	"github.com/pkg/errors"
)

// Encoder builds a Huffman code over the units of one input and writes that
// input as a container.
//
// Encoding takes two passes over the ChunkSource: Init counts units and
// builds the tree, and WriteTo emits the header and payload.
//
type Encoder struct {
	opts      Options
	freq      *freqTable
	root      *Node
	table     codeTable
	remainder Code
}

// NewEncoder returns an Encoder for the given options.  ErrConfig is returned
// if the options are invalid.
func NewEncoder(opts Options) (*Encoder, error) {
	if err := opts.validateForEncode(); err != nil {
		return nil, err
	}
	return &Encoder{opts: opts}, nil
}

// Init reads src once, counting the occurrences of each unit, and derives the
// Huffman tree and code table from those counts.
func (e *Encoder) Init(src ChunkSource) error {
	freq, remainder, err := countUnits(src, e.opts.UnitLen)
	if err != nil {
		return err
	}

	root := buildTree(freq)
	e.freq = freq
	e.root = root
	e.table = deriveCodes(root)
	e.remainder = remainder

	e.opts.logger().Debug("counted units",
		"unitLen", e.opts.UnitLen,
		"units", freq.total(),
		"alphabet", freq.Len(),
		"remainderBits", remainder.Size(),
		"minCodeSize", e.table.minSize,
		"maxCodeSize", e.table.maxSize)
	return nil
}

// Encode returns the code assigned to a unit.  The second result is false if
// the unit never occurred in the input.
func (e *Encoder) Encode(unit Code) (Code, bool) {
	if unit.Size() != e.opts.UnitLen {
		return Code{}, false
	}
	hc, found := e.table.codes[unit.key()]
	return hc, found
}

// UnitLen is the width of one unit in bits.
func (e *Encoder) UnitLen() int {
	return e.opts.UnitLen
}

// MinSize is the bit length of the shortest code.
func (e *Encoder) MinSize() int {
	return e.table.minSize
}

// MaxSize is the bit length of the longest code.
func (e *Encoder) MaxSize() int {
	return e.table.maxSize
}

// Root returns the Huffman tree, or nil if the input held no complete unit.
func (e *Encoder) Root() *Node {
	return e.root
}

// Remainder returns the trailing input bits that did not form a whole unit.
func (e *Encoder) Remainder() Code {
	return e.remainder
}

// PayloadSize returns the length of the encoded payload in bits, excluding
// padding.
func (e *Encoder) PayloadSize() uint64 {
	var sum uint64
	for i, unit := range e.freq.units {
		hc := e.table.codes[unit.key()]
		sum += uint64(hc.Size()) * e.freq.counts[i]
	}
	return sum
}

// Header computes the container header.  ErrConfig is returned if the
// encoded tree does not fit in the configured tree size field.
func (e *Encoder) Header() (Header, []byte, error) {
	assert.Assertf(e.freq != nil, "Encoder.Header called before Init")

	h := Header{
		UnitLen:        e.opts.UnitLen,
		Remainder:      e.remainder,
		Tree:           EncodeTree(e.root, e.opts.UnitLen),
		PayloadPadding: CalcPadding(e.PayloadSize()),
	}
	raw, err := h.Pack(e.opts.TreeSizeWidth)
	if err != nil {
		return Header{}, nil, err
	}
	return h, raw, nil
}

// WriteTo makes the second pass over src and writes the complete container
// to w.  The header is computed, and validated, before anything is written.
func (e *Encoder) WriteTo(src ChunkSource, w io.Writer) (int64, error) {
	h, raw, err := e.Header()
	if err != nil {
		return 0, err
	}
	e.opts.logger().Debug("writing container",
		"treeBits", h.Tree.Size(),
		"payloadBits", e.PayloadSize(),
		"payloadPadding", h.PayloadPadding)

	cw := &countingWriter{w: w}
	bw := bufio.NewWriterSize(cw, e.opts.ChunkSize)
	if _, err := bw.Write(raw); err != nil {
		return cw.n, errors.Wrap(err, "write header")
	}

	out := bitio.NewWriter(bw)
	if err := out.WriteBits(0, uint8(h.PayloadPadding)); err != nil {
		return cw.n, errors.Wrap(err, "write payload")
	}

	var seen uint64
	remainder, err := scanUnits(src, e.opts.UnitLen, func(unit []byte) error {
		hc, found := e.table.codes[string(unit)]
		if !found {
			return errors.Errorf("unit %s not seen in first pass; input changed", MakeCode(e.opts.UnitLen, unit))
		}
		seen++
		return errors.Wrap(hc.writeTo(out), "write payload")
	})
	if err != nil {
		return cw.n, err
	}
	if seen != e.freq.total() || !remainder.Equal(e.remainder) {
		return cw.n, errors.Errorf("input changed between passes: %d units then %d", e.freq.total(), seen)
	}

	if err := out.Close(); err != nil {
		return cw.n, errors.Wrap(err, "write payload")
	}
	if err := bw.Flush(); err != nil {
		return cw.n, errors.Wrap(err, "write payload")
	}
	return cw.n, nil
}

// Dump writes a programmer-readable debugging dump of the Encoder's current
// state to the given writer.
func (e *Encoder) Dump(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString("Encoder{\n")
	fmt.Fprintf(&buf, "\tUnitLen() = %d\n", e.opts.UnitLen)
	fmt.Fprintf(&buf, "\tMinSize() = %d\n", e.table.minSize)
	fmt.Fprintf(&buf, "\tMaxSize() = %d\n", e.table.maxSize)
	fmt.Fprintf(&buf, "\tRemainder() = %s\n", e.remainder)
	if e.freq != nil {
		units := make(byUnit, len(e.freq.units))
		copy(units, e.freq.units)
		units.Sort()
		for _, unit := range units {
			fmt.Fprintf(&buf, "\tEncode(%s) = %s\n", unit, e.table.codes[unit.key()])
		}
	}
	buf.WriteString("}\n")
	return buf.WriteTo(w)
}

// Encode reads src twice and writes it to w as a container.
func Encode(src ChunkSource, w io.Writer, opts Options) error {
	e, err := NewEncoder(opts)
	if err != nil {
		return err
	}
	if err := e.Init(src); err != nil {
		return err
	}
	_, err = e.WriteTo(src, w)
	return err
}

// EncodeBytes encodes an in-memory input.
func EncodeBytes(data []byte, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	src := BytesSource{Data: data, ChunkSize: opts.ChunkSize}
	if err := Encode(src, &buf, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// type byUnit {{{

type byUnit []Code

func (list byUnit) Sort() {
	sort.Sort(list)
}

func (list byUnit) Len() int {
	return len(list)
}

func (list byUnit) Swap(i, j int) {
	list[i], list[j] = list[j], list[i]
}

func (list byUnit) Less(i, j int) bool {
	a, b := list[i], list[j]
	if a.size != b.size {
		return a.size < b.size
	}
	return bytes.Compare(a.data, b.data) < 0
}

var _ sort.Interface = byUnit(nil)

// }}}
