package huffman

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalcPadding(t *testing.T) {
	expect := []int{0, 7, 6, 5, 4, 3, 2, 1, 0, 7}
	for x, want := range expect {
		if got := CalcPadding(uint64(x)); got != want {
			t.Errorf("CalcPadding(%d): expected %d, got %d", x, want, got)
		}
	}
}

func TestCalcPadding_Idempotent(t *testing.T) {
	for x := uint64(0); x < 4096; x++ {
		if got := CalcPadding(uint64(CalcPadding(x)) + x); got != 0 {
			t.Fatalf("CalcPadding(CalcPadding(%d) + %d) = %d", x, x, got)
		}
	}
}

func TestPackField(t *testing.T) {
	type testRow struct {
		bits   string
		width  int
		expect []byte
	}

	testData := [...]testRow{
		{bits: "", width: 1, expect: []byte{0x00, 0x00}},
		{bits: "11", width: 1, expect: []byte{0x01, 0x06, 0x03}},
		{bits: "01110", width: 2, expect: []byte{0x00, 0x01, 0x03, 0x0e}},
		{bits: "10101010", width: 2, expect: []byte{0x00, 0x01, 0x00, 0xaa}},
		{bits: "110101010", width: 3, expect: []byte{0x00, 0x00, 0x02, 0x07, 0x01, 0xaa}},
	}
	for _, row := range testData {
		t.Run(row.bits, func(t *testing.T) {
			bits := mustParseCode(row.bits)
			actual, err := PackField(bits, row.width)
			require.NoError(t, err)
			require.Equal(t, row.expect, actual)

			unpacked, err := UnpackField(bytes.NewReader(actual), row.width)
			require.NoError(t, err)
			require.True(t, bits.Equal(unpacked), "unpacked %s, expected %s", unpacked, bits)
		})
	}
}

func TestPackField_Overflow(t *testing.T) {
	var bits Code
	for i := 0; i < 256*8; i++ {
		bits.AppendBit(i%3 == 0)
	}

	_, err := PackField(bits, 1)
	require.ErrorIs(t, err, ErrConfig)
	require.Contains(t, err.Error(), "needs a 2-byte size field, only 1 available")

	_, err = PackField(bits, 2)
	require.NoError(t, err)
}

func TestPackField_BadWidth(t *testing.T) {
	_, err := PackField(Code{}, 0)
	require.ErrorIs(t, err, ErrConfig)
	_, err = PackField(Code{}, MaxTreeSizeWidth+1)
	require.ErrorIs(t, err, ErrConfig)
}

func TestUnpackField_Malformed(t *testing.T) {
	testData := map[string][]byte{
		"truncated header":  {0x00},
		"truncated body":    {0x02, 0x00, 0xff},
		"padding too large": {0x01, 0x08, 0xff},
		"padded empty":      {0x00, 0x03},
	}
	for name, raw := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := UnpackField(bytes.NewReader(raw), 1)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestHeader_PackAndRead(t *testing.T) {
	h := Header{
		UnitLen:        3,
		Remainder:      mustParseCode("11"),
		Tree:           mustParseCode("011011010"),
		PayloadPadding: 6,
	}
	raw, err := h.Pack(2)
	require.NoError(t, err)
	require.Equal(t, []byte{0x03, 0x01, 0x06, 0x03, 0x00, 0x02, 0x07, 0x00, 0xda, 0x06}, raw)

	r := bytes.NewReader(append(raw, 0x01))
	actual, err := ReadHeader(r, 2)
	require.NoError(t, err)
	require.Equal(t, h.UnitLen, actual.UnitLen)
	require.Equal(t, h.PayloadPadding, actual.PayloadPadding)
	require.True(t, h.Remainder.Equal(actual.Remainder))
	require.True(t, h.Tree.Equal(actual.Tree))
	require.Equal(t, 1, r.Len(), "ReadHeader must stop at the payload")
	require.Equal(t, "(unit length 3 bits, 2-bit remainder, 9-bit tree, 6 bits of payload padding)", actual.String())
}

func TestHeader_PackRejectsLongRemainder(t *testing.T) {
	h := Header{UnitLen: 4, Remainder: mustParseCode("1010")}
	_, err := h.Pack(2)
	require.ErrorIs(t, err, ErrConfig)

	h = Header{UnitLen: 0}
	_, err = h.Pack(2)
	require.ErrorIs(t, err, ErrConfig)
}

func TestReadHeader_Malformed(t *testing.T) {
	testData := map[string][]byte{
		"empty":             {},
		"zero unit length":  {0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		"remainder too big": {0x02, 0x01, 0x00, 0xc0, 0x00, 0x00, 0x00, 0x00},
		"missing padding":   {0x08, 0x00, 0x00, 0x00, 0x00, 0x00},
		"padding too large": {0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x08},
		"truncated tree":    {0x08, 0x00, 0x00, 0x00, 0x05, 0x00, 0x01},
	}
	for name, raw := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := ReadHeader(bytes.NewReader(raw), 2)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}
