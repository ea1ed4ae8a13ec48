package huffman

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/icza/bitio"
	"github.com/pkg/errors"
)

// Container layout:
//
//	unit_len                      1 byte
//	remainder field               PackField(remainder, 1)
//	tree field                    PackField(EncodeTree(root), TreeSizeWidth)
//	payload padding               1 byte
//	payload                       to EOF
//
// The payload is the concatenation of every unit's code, preceded by
// "payload padding" zero bits so that it ends on a byte boundary.

// CalcPadding returns the number of zero bits needed to round bitLen up to a
// multiple of 8.
func CalcPadding(bitLen uint64) int {
	return int((8 - bitLen%8) % 8)
}

// maxFieldLen returns the largest byte length a size field of the given width
// can describe.
func maxFieldLen(width int) uint64 {
	if width >= 8 {
		return math.MaxUint64
	}
	return uint64(1)<<(8*uint(width)) - 1
}

// PackField encodes a variable-length bit string as a big-endian byte length
// of the given width, one byte of padding count, and the bits themselves,
// left-padded with zero bits to a whole number of bytes.
//
// ErrConfig is returned if the padded length does not fit in the size field.
func PackField(bits Code, width int) ([]byte, error) {
	if width < 1 || width > MaxTreeSizeWidth {
		return nil, configErrorf("size field width %d out of range [1, %d]", width, MaxTreeSizeWidth)
	}

	pad := CalcPadding(uint64(bits.Size()))
	byteLen := uint64(bytesFor(bits.Size()))
	if byteLen > maxFieldLen(width) {
		need := (log2uint64(byteLen) + 7) / 8
		return nil, configErrorf("field of %d bytes needs a %d-byte size field, only %d available", byteLen, need, width)
	}

	var buf bytes.Buffer
	buf.Grow(width + 1 + int(byteLen))
	for i := width - 1; i >= 0; i-- {
		buf.WriteByte(byte(byteLen >> (8 * uint(i))))
	}
	buf.WriteByte(byte(pad))

	w := bitio.NewWriter(&buf)
	if err := w.WriteBits(0, uint8(pad)); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := bits.writeTo(w); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := w.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

// UnpackField is the inverse of PackField.
func UnpackField(r io.Reader, width int) (Code, error) {
	if width < 1 || width > MaxTreeSizeWidth {
		return Code{}, configErrorf("size field width %d out of range [1, %d]", width, MaxTreeSizeWidth)
	}

	head := make([]byte, width+1)
	if err := readFull(r, head, "field header"); err != nil {
		return Code{}, err
	}
	var byteLen uint64
	for _, b := range head[:width] {
		byteLen = byteLen<<8 | uint64(b)
	}
	pad := int(head[width])
	if pad > 7 {
		return Code{}, malformedf("field padding of %d bits", pad)
	}
	if byteLen > math.MaxInt64 {
		return Code{}, malformedf("field length %d", byteLen)
	}
	if byteLen == 0 && pad != 0 {
		return Code{}, malformedf("empty field with %d bits of padding", pad)
	}

	var body bytes.Buffer
	n, err := io.CopyN(&body, r, int64(byteLen))
	if err == io.EOF {
		return Code{}, malformedf("field truncated: %d of %d bytes", n, byteLen)
	}
	if err != nil {
		return Code{}, errors.Wrap(err, "read field")
	}

	data := body.Bytes()
	return MakeCode(len(data)*8, data).Slice(pad, len(data)*8), nil
}

// Header holds everything in a container that precedes the payload.
type Header struct {
	UnitLen        int
	Remainder      Code
	Tree           Code
	PayloadPadding int
}

// Pack returns the encoded header.
func (h Header) Pack(treeSizeWidth int) ([]byte, error) {
	if err := checkUnitLen(h.UnitLen); err != nil {
		return nil, err
	}
	if h.Remainder.Size() >= h.UnitLen {
		return nil, configErrorf("remainder of %d bits is not shorter than a unit (%d bits)", h.Remainder.Size(), h.UnitLen)
	}

	remainder, err := PackField(h.Remainder, remainderSizeWidth)
	if err != nil {
		return nil, errors.Wrap(err, "remainder")
	}
	tree, err := PackField(h.Tree, treeSizeWidth)
	if err != nil {
		return nil, errors.Wrap(err, "tree")
	}

	out := make([]byte, 0, 2+len(remainder)+len(tree))
	out = append(out, byte(h.UnitLen))
	out = append(out, remainder...)
	out = append(out, tree...)
	out = append(out, byte(h.PayloadPadding))
	return out, nil
}

// ReadHeader reads and validates a container header, leaving r positioned at
// the first payload byte.
func ReadHeader(r io.Reader, treeSizeWidth int) (Header, error) {
	var h Header

	var one [1]byte
	if err := readFull(r, one[:], "unit length"); err != nil {
		return h, err
	}
	h.UnitLen = int(one[0])
	if h.UnitLen == 0 {
		return h, malformedf("unit length 0")
	}

	var err error
	if h.Remainder, err = UnpackField(r, remainderSizeWidth); err != nil {
		return h, errors.Wrap(err, "remainder")
	}
	if h.Remainder.Size() >= h.UnitLen {
		return h, malformedf("remainder of %d bits is not shorter than a unit (%d bits)", h.Remainder.Size(), h.UnitLen)
	}

	if h.Tree, err = UnpackField(r, treeSizeWidth); err != nil {
		return h, errors.Wrap(err, "tree")
	}

	if err := readFull(r, one[:], "payload padding"); err != nil {
		return h, err
	}
	h.PayloadPadding = int(one[0])
	if h.PayloadPadding > 7 {
		return h, malformedf("payload padding of %d bits", h.PayloadPadding)
	}
	return h, nil
}

// String returns a one-line summary of the header.
func (h Header) String() string {
	return fmt.Sprintf("(unit length %d bits, %d-bit remainder, %d-bit tree, %d bits of payload padding)",
		h.UnitLen, h.Remainder.Size(), h.Tree.Size(), h.PayloadPadding)
}

func readFull(r io.Reader, p []byte, what string) error {
	_, err := io.ReadFull(r, p)
	switch err {
	case nil:
		return nil
	case io.EOF, io.ErrUnexpectedEOF:
		return malformedf("truncated reading %s", what)
	default:
		return errors.Wrapf(err, "read %s", what)
	}
}
