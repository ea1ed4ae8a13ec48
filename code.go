package huffman

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/icza/bitio"
	"github.com/pkg/errors"
)

// Code represents a sequence of bits of arbitrary length.  It is used both
// for unit values (exactly UnitLen bits) and for the variable-length codes
// assigned to them.
//
// The first bit is the most significant bit of the first byte.  Unused bits
// in the final byte are always zero, so two Codes of the same Size hold equal
// data iff they represent the same bits.
//
type Code struct {
	size int
	data []byte
}

// MakeCode constructs a Code holding the first size bits of data.  The data
// is copied.
func MakeCode(size int, data []byte) Code {
	n := bytesFor(size)
	if n > len(data) {
		panic(errors.Errorf("MakeCode: %d bits do not fit in %d bytes", size, len(data)))
	}
	out := make([]byte, n)
	copy(out, data[:n])
	if r := size % 8; r != 0 {
		out[n-1] &= 0xff << (8 - r)
	}
	return Code{size: size, data: out}
}

// ParseCode parses a string of '0' and '1' characters into a Code.
func ParseCode(str string) (Code, error) {
	var c Code
	for i, ch := range str {
		switch ch {
		case '0':
			c.AppendBit(false)
		case '1':
			c.AppendBit(true)
		default:
			return Code{}, errors.Errorf("invalid character %q at offset %d in bit string", ch, i)
		}
	}
	return c, nil
}

// Size returns the number of bits in the Code.
func (c Code) Size() int {
	return c.size
}

// Bit returns the i'th bit of the Code.
func (c Code) Bit(i int) bool {
	return c.data[i>>3]&(0x80>>(i&7)) != 0
}

// Bytes returns the bits packed into bytes, first bit in the most significant
// position, with the final byte zero-filled.  The returned slice must not be
// modified.
func (c Code) Bytes() []byte {
	return c.data
}

// AppendBit appends a single bit to the Code.
func (c *Code) AppendBit(bit bool) {
	if c.size&7 == 0 {
		c.data = append(c.data, 0)
	}
	if bit {
		c.data[c.size>>3] |= 0x80 >> (c.size & 7)
	}
	c.size++
}

// AppendCode appends all bits of other to the Code.
func (c *Code) AppendCode(other Code) {
	if c.size&7 == 0 {
		c.data = append(c.data, other.data...)
		c.size += other.size
		return
	}
	for i := 0; i < other.size; i++ {
		c.AppendBit(other.Bit(i))
	}
}

// Slice returns the bits in the half-open range [i, j) as a new Code.
func (c Code) Slice(i, j int) Code {
	if i&7 == 0 {
		return MakeCode(j-i, c.data[i>>3:])
	}
	var out Code
	out.data = make([]byte, 0, bytesFor(j-i))
	for ; i < j; i++ {
		out.AppendBit(c.Bit(i))
	}
	return out
}

// Clone returns a deep copy of the Code.
func (c Code) Clone() Code {
	return MakeCode(c.size, c.data)
}

// Equal returns true iff both Codes hold the same bits.
func (c Code) Equal(other Code) bool {
	return c.size == other.size && bytes.Equal(c.data, other.data)
}

// HasPrefix returns true iff prefix is a prefix of c.
func (c Code) HasPrefix(prefix Code) bool {
	if prefix.size > c.size {
		return false
	}
	return c.Slice(0, prefix.size).Equal(prefix)
}

// String returns the string representation of this Code.
func (c Code) String() string {
	return strconv.Quote(c.bitString())
}

func (c Code) bitString() string {
	var buf strings.Builder
	buf.Grow(c.size)
	for i := 0; i < c.size; i++ {
		if c.Bit(i) {
			buf.WriteByte('1')
		} else {
			buf.WriteByte('0')
		}
	}
	return buf.String()
}

// key returns a string suitable for use as a map key.  Only Codes of equal
// Size may be compared this way.
func (c Code) key() string {
	return string(c.data)
}

// writeTo emits every bit of the Code to w.
func (c Code) writeTo(w *bitio.Writer) error {
	full := c.size >> 3
	for i := 0; i < full; i++ {
		if err := w.WriteByte(c.data[i]); err != nil {
			return err
		}
	}
	if r := c.size & 7; r != 0 {
		return w.WriteBits(uint64(c.data[full]>>(8-r)), uint8(r))
	}
	return nil
}

// putBits stores the low k bits of v, most significant first, into buf
// starting at bit offset off.  The destination bits must be zero.
func putBits(buf []byte, off int, v uint64, k int) {
	for i := 0; i < k; i++ {
		if (v>>(k-1-i))&1 != 0 {
			pos := off + i
			buf[pos>>3] |= 0x80 >> (pos & 7)
		}
	}
}
