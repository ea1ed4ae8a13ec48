package huffman

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// ChunkSource produces the input of an encode or decode as a finite sequence
// of byte chunks.  Every call to Chunks starts over from the beginning; the
// Encoder relies on this to read its input twice.
type ChunkSource interface {
	Chunks() (ChunkIterator, error)
}

// ChunkIterator walks one pass over a ChunkSource.
type ChunkIterator interface {
	// Next returns the next chunk, or io.EOF when the source is
	// exhausted.  The chunk is only valid until the following call.
	Next() ([]byte, error)

	// Close releases the resources held by this pass.
	Close() error
}

// BytesSource is a ChunkSource over an in-memory byte slice.
type BytesSource struct {
	Data      []byte
	ChunkSize int
}

// Chunks implements ChunkSource.
func (s BytesSource) Chunks() (ChunkIterator, error) {
	size := s.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &bytesIterator{data: s.Data, size: size}, nil
}

type bytesIterator struct {
	data []byte
	size int
}

func (it *bytesIterator) Next() ([]byte, error) {
	if len(it.data) == 0 {
		return nil, io.EOF
	}
	n := it.size
	if n > len(it.data) {
		n = len(it.data)
	}
	chunk := it.data[:n]
	it.data = it.data[n:]
	return chunk, nil
}

func (it *bytesIterator) Close() error {
	it.data = nil
	return nil
}

// FileSource is a ChunkSource that opens the named file on every pass.  The
// file is closed by the iterator's Close.
type FileSource struct {
	Path      string
	ChunkSize int
}

// Chunks implements ChunkSource.
func (s FileSource) Chunks() (ChunkIterator, error) {
	size := s.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &readerIterator{r: f, closer: f, buf: make([]byte, size)}, nil
}

type readerIterator struct {
	r      io.Reader
	closer io.Closer
	buf    []byte
	done   bool
}

func (it *readerIterator) Next() ([]byte, error) {
	if it.done {
		return nil, io.EOF
	}
	n, err := io.ReadFull(it.r, it.buf)
	switch {
	case err == io.EOF:
		it.done = true
		return nil, io.EOF
	case err == io.ErrUnexpectedEOF:
		it.done = true
		return it.buf[:n], nil
	case err != nil:
		return nil, errors.Wrap(err, "read chunk")
	}
	return it.buf[:n], nil
}

func (it *readerIterator) Close() error {
	if it.closer == nil {
		return nil
	}
	err := it.closer.Close()
	it.closer = nil
	return errors.WithStack(err)
}

// chunkReader presents a ChunkIterator as an io.Reader and io.ByteReader.  It
// returns io.EOF unwrapped, as bitio expects.
type chunkReader struct {
	it  ChunkIterator
	buf []byte
	err error
}

func newChunkReader(it ChunkIterator) *chunkReader {
	return &chunkReader{it: it}
}

func (r *chunkReader) fill() bool {
	for len(r.buf) == 0 && r.err == nil {
		r.buf, r.err = r.it.Next()
	}
	return len(r.buf) != 0
}

func (r *chunkReader) ReadByte() (byte, error) {
	if !r.fill() {
		return 0, r.err
	}
	b := r.buf[0]
	r.buf = r.buf[1:]
	return b, nil
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if !r.fill() {
		return 0, r.err
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

var (
	_ ChunkSource   = BytesSource{}
	_ ChunkSource   = FileSource{}
	_ io.Reader     = (*chunkReader)(nil)
	_ io.ByteReader = (*chunkReader)(nil)
)
