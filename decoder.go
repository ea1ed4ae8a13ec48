package huffman

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/chronos-tachyon/assert"
	"github.com/icza/bitio"
	"github.com/pkg/errors"
)

// Decoder reconstructs the original input from a container.
type Decoder struct {
	opts   Options
	header Header
	root   *Node
}

// NewDecoder returns a Decoder for the given options.  Only TreeSizeWidth,
// ChunkSize and Logger are consulted; the unit length comes from the
// container.
func NewDecoder(opts Options) (*Decoder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{opts: opts}, nil
}

// Init reads the container header from r and rebuilds the Huffman tree,
// leaving r positioned at the first payload byte.
func (d *Decoder) Init(r io.Reader) error {
	h, err := ReadHeader(r, d.opts.TreeSizeWidth)
	if err != nil {
		return err
	}
	root, err := DecodeTree(h.Tree, h.UnitLen)
	if err != nil {
		return err
	}
	if root == nil && h.PayloadPadding != 0 {
		return malformedf("empty tree with %d bits of payload padding", h.PayloadPadding)
	}

	d.header = h
	d.root = root
	d.opts.logger().Debug("read header",
		"unitLen", h.UnitLen,
		"remainderBits", h.Remainder.Size(),
		"treeBits", h.Tree.Size(),
		"payloadPadding", h.PayloadPadding)
	return nil
}

// Header returns the header read by Init.
func (d *Decoder) Header() Header {
	return d.header
}

// Root returns the tree rebuilt by Init, or nil if the container's alphabet
// is empty.
func (d *Decoder) Root() *Node {
	return d.root
}

// DecodePayload reads the rest of r after Init, walking the tree one bit at
// a time, and writes the decoded units followed by the remainder to w.
//
// Decoded bytes are flushed to w as they accumulate.  If the payload turns
// out to be truncated or inconsistent, ErrMalformed is returned and whatever
// was already written stays written.
//
func (d *Decoder) DecodePayload(r io.Reader, w io.Writer) (int64, error) {
	assert.Assertf(d.header.UnitLen != 0, "Decoder.DecodePayload called before Init")

	cw := &countingWriter{w: w}
	bw := bufio.NewWriterSize(cw, d.opts.ChunkSize)
	out := bitio.NewWriter(bw)
	in := bitio.NewReader(r)

	fail := func(err error) (int64, error) {
		// Best effort: keep what was decoded so far.
		_ = bw.Flush()
		return cw.n, err
	}

	if _, err := in.ReadBits(uint8(d.header.PayloadPadding)); err != nil {
		if err == io.EOF {
			if d.header.PayloadPadding == 0 {
				return d.finish(out, bw, cw, 0)
			}
			return fail(malformedf("payload missing, expected %d bits of padding", d.header.PayloadPadding))
		}
		return fail(errors.Wrap(err, "read payload"))
	}

	// A lone leaf has no branch above it; give it one so that the walk
	// below needs no special case.  Its code is "0".
	root := d.root
	if root != nil && root.IsLeaf() {
		root = &Node{left: root}
	}

	var units uint64
	var offset uint64
	node := root
	for {
		bit, err := in.ReadBool()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fail(errors.Wrap(err, "read payload"))
		}
		if root == nil {
			return fail(malformedf("payload present but tree is empty"))
		}

		if bit {
			node = node.right
		} else {
			node = node.left
		}
		if node == nil {
			return fail(malformedf("payload bit %d leads outside the tree", offset))
		}
		offset++

		if node.IsLeaf() {
			if err := node.value.writeTo(out); err != nil {
				return fail(errors.Wrap(err, "write output"))
			}
			units++
			node = root
		}
	}

	if node != root {
		return fail(malformedf("payload ends in the middle of a code after %d units", units))
	}
	return d.finish(out, bw, cw, units)
}

func (d *Decoder) finish(out *bitio.Writer, bw *bufio.Writer, cw *countingWriter, units uint64) (int64, error) {
	if err := d.header.Remainder.writeTo(out); err != nil {
		return cw.n, errors.Wrap(err, "write output")
	}

	bits := units*uint64(d.header.UnitLen) + uint64(d.header.Remainder.Size())
	if CalcPadding(bits) != 0 {
		_ = bw.Flush()
		return cw.n, malformedf("decoded %d bits, not a whole number of bytes", bits)
	}

	if err := out.Close(); err != nil {
		return cw.n, errors.Wrap(err, "write output")
	}
	if err := bw.Flush(); err != nil {
		return cw.n, errors.Wrap(err, "write output")
	}
	d.opts.logger().Debug("decoded payload", "units", units, "bytes", cw.n)
	return cw.n, nil
}

// Decode reads a container from src and writes the decoded input to w.
func (d *Decoder) Decode(src ChunkSource, w io.Writer) (err error) {
	it, err := src.Chunks()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := it.Close(); err == nil {
			err = closeErr
		}
	}()

	r := newChunkReader(it)
	if err := d.Init(r); err != nil {
		return err
	}
	_, err = d.DecodePayload(r, w)
	return err
}

// Dump writes a programmer-readable debugging dump of the Decoder's current
// state to the given writer: one line per leaf, giving its code and unit.
func (d *Decoder) Dump(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString("Decoder{\n")
	fmt.Fprintf(&buf, "\tUnitLen() = %d\n", d.header.UnitLen)
	fmt.Fprintf(&buf, "\tRemainder() = %s\n", d.header.Remainder)
	fmt.Fprintf(&buf, "\tPayloadPadding() = %d\n", d.header.PayloadPadding)
	if d.root != nil && d.root.IsLeaf() {
		fmt.Fprintf(&buf, "\tDecode(\"0\") = %s\n", d.root.value)
	} else if d.root != nil {
		type stackItem struct {
			n    *Node
			path Code
		}
		stack := []stackItem{{n: d.root}}
		for len(stack) != 0 {
			last := len(stack) - 1
			item := stack[last]
			stack = stack[:last]
			if item.n.IsLeaf() {
				fmt.Fprintf(&buf, "\tDecode(%s) = %s\n", item.path, item.n.value)
				continue
			}
			stack = append(stack,
				stackItem{item.n.right, extendPath(item.path, true)},
				stackItem{item.n.left, extendPath(item.path, false)})
		}
	}
	buf.WriteString("}\n")
	return buf.WriteTo(w)
}

// Decode reads a container from src and writes the decoded input to w.
func Decode(src ChunkSource, w io.Writer, opts Options) error {
	d, err := NewDecoder(opts)
	if err != nil {
		return err
	}
	return d.Decode(src, w)
}

// DecodeBytes decodes an in-memory container.
func DecodeBytes(data []byte, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	src := BytesSource{Data: data, ChunkSize: opts.ChunkSize}
	if err := Decode(src, &buf, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Inspect reads only the header and tree of the container in src.
func Inspect(src ChunkSource, opts Options) (d *Decoder, err error) {
	d, err = NewDecoder(opts)
	if err != nil {
		return nil, err
	}
	it, err := src.Chunks()
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := it.Close(); err == nil {
			err = closeErr
		}
	}()
	if err := d.Init(newChunkReader(it)); err != nil {
		return nil, err
	}
	return d, nil
}
