package huffman

import (
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeTestData(n int, seed int64) []byte {
	b := make([]byte, n)
	r := rand.New(rand.NewSource(seed))
	if n > 0 {
		_, _ = r.Read(b)
	}
	return b
}

// makeSkewedData returns low-entropy data drawn from a small alphabet.
func makeSkewedData(n int, seed int64) []byte {
	const alphabet = "eeeeeeeeeetttttttaaaaaaoooooiiiiinnnnsssshhrrdl \n"
	b := make([]byte, n)
	r := rand.New(rand.NewSource(seed))
	for i := range b {
		b[i] = alphabet[r.Intn(len(alphabet))]
	}
	return b
}

func roundTrip(t *testing.T, input []byte, opts Options) []byte {
	t.Helper()
	encoded, err := EncodeBytes(input, opts)
	require.NoError(t, err)
	decoded, err := DecodeBytes(encoded, opts)
	require.NoError(t, err)
	if !bytes.Equal(input, decoded) {
		t.Fatalf("round trip mismatch: %d bytes in, %d bytes out", len(input), len(decoded))
	}
	return encoded
}

func TestRoundTrip(t *testing.T) {
	inputs := map[string][]byte{
		"empty":       {},
		"single byte": {0x5a},
		"two bytes":   {0x00, 0xff},
		"text":        []byte("the quick brown fox jumps over the lazy dog"),
		"random":      makeTestData(10000, 1),
		"skewed":      makeSkewedData(10000, 2),
		"repeated":    bytes.Repeat([]byte{0xaa}, 1024),
	}
	for _, unitLen := range []int{1, 2, 3, 4, 5, 7, 8, 9, 13, 16, 24, 64, 255} {
		for name, input := range inputs {
			t.Run(fmt.Sprintf("%s/u%d", name, unitLen), func(t *testing.T) {
				opts := DefaultOptions()
				opts.UnitLen = unitLen
				opts.TreeSizeWidth = 3
				opts.ChunkSize = 7
				roundTrip(t, input, opts)
			})
		}
	}
}

func TestRoundTrip_Large(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping multi-megabyte round trip in short mode")
	}

	skewed := makeSkewedData(3<<20, 3)
	for _, unitLen := range []int{4, 8, 16} {
		t.Run(fmt.Sprintf("skewed/u%d", unitLen), func(t *testing.T) {
			opts := DefaultOptions()
			opts.UnitLen = unitLen
			encoded := roundTrip(t, skewed, opts)
			require.Less(t, len(encoded), len(skewed))
		})
	}

	t.Run("random/u8", func(t *testing.T) {
		opts := DefaultOptions()
		opts.UnitLen = 8
		roundTrip(t, makeTestData(1<<20, 4), opts)
	})
}

func TestRoundTrip_ChunkSizes(t *testing.T) {
	input := makeSkewedData(4099, 5)
	for _, chunkSize := range []int{1, 2, 3, 8, 1000, 4099, 1 << 16} {
		opts := DefaultOptions()
		opts.UnitLen = 5
		opts.ChunkSize = chunkSize
		roundTrip(t, input, opts)
	}
}

func TestDecoder_Dump(t *testing.T) {
	encoded, err := EncodeBytes(makeTestInput(), DefaultOptions())
	require.NoError(t, err)

	d, err := Inspect(BytesSource{Data: encoded}, DefaultOptions())
	require.NoError(t, err)

	expectDump := strings.Join([]string{
		"Decoder{\n",
		"\tUnitLen() = 8\n",
		"\tRemainder() = \"\"\n",
		"\tPayloadPadding() = 0\n",
		"\tDecode(\"0\") = \"01100110\"\n",
		"\tDecode(\"100\") = \"01100011\"\n",
		"\tDecode(\"101\") = \"01100100\"\n",
		"\tDecode(\"1100\") = \"01100001\"\n",
		"\tDecode(\"1101\") = \"01100010\"\n",
		"\tDecode(\"111\") = \"01100101\"\n",
		"}\n",
	}, "")

	var buf strings.Builder
	_, _ = d.Dump(&buf)
	actualDump := buf.String()

	if expectDump != actualDump {
		t.Errorf("wrong output:\n\texpect: %s\n\tactual: %s", expectDump, actualDump)
	}
}

func TestDecoder_DumpSingleLeaf(t *testing.T) {
	encoded, err := EncodeBytes([]byte{0xaa, 0xaa, 0xaa}, Options{UnitLen: 8})
	require.NoError(t, err)

	d, err := Inspect(BytesSource{Data: encoded}, Options{})
	require.NoError(t, err)
	require.True(t, d.Root().IsLeaf())

	var buf strings.Builder
	_, _ = d.Dump(&buf)
	require.Contains(t, buf.String(), "\tDecode(\"0\") = \"10101010\"\n")
	require.Contains(t, buf.String(), "\tPayloadPadding() = 5\n")
}

func TestDecode_Malformed(t *testing.T) {
	opts := DefaultOptions()
	opts.UnitLen = 4
	base, err := EncodeBytes([]byte{0x12, 0x34}, opts)
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x1b}, base[len(base)-2:])

	single, err := EncodeBytes(bytes.Repeat([]byte{0xaa}, 16), DefaultOptions())
	require.NoError(t, err)

	threeBit := DefaultOptions()
	threeBit.UnitLen = 3
	remainder, err := EncodeBytes([]byte{0xab}, threeBit)
	require.NoError(t, err)
	require.Equal(t, []byte{0x06, 0x01}, remainder[len(remainder)-2:])

	mutate := func(raw []byte, fn func(b []byte) []byte) []byte {
		return fn(append([]byte(nil), raw...))
	}

	testData := map[string][]byte{
		"truncated header": base[:5],
		"code cut short": mutate(base, func(b []byte) []byte {
			b[len(b)-2] = 1
			return b
		}),
		"padding without payload": mutate(base, func(b []byte) []byte {
			b[len(b)-2] = 3
			return b[:len(b)-1]
		}),
		"partial byte of output": mutate(remainder, func(b []byte) []byte {
			b[len(b)-2] = 7
			return b
		}),
		"one bit at a single leaf": mutate(single, func(b []byte) []byte {
			b[len(b)-1] = 0x01
			return b
		}),
		"payload without tree": {0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff},
		"padding without tree": {0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x03},
	}
	for name, raw := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeBytes(raw, opts)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecode_KeepsPartialOutput(t *testing.T) {
	opts := DefaultOptions()
	opts.UnitLen = 4
	raw, err := EncodeBytes([]byte{0x12, 0x34}, opts)
	require.NoError(t, err)
	raw[len(raw)-2] = 1 // payload becomes "0011011": 0001 0100 0010, then half a code

	var buf bytes.Buffer
	err = Decode(BytesSource{Data: raw}, &buf, opts)
	require.ErrorIs(t, err, ErrMalformed)
	require.Equal(t, []byte{0x14}, buf.Bytes())
}

func TestNewDecoder_BadOptions(t *testing.T) {
	_, err := NewDecoder(Options{TreeSizeWidth: -1})
	require.ErrorIs(t, err, ErrConfig)

	_, err = DecodeBytes([]byte{0x08}, Options{ChunkSize: -1})
	require.ErrorIs(t, err, ErrConfig)
}

func TestDecode_WidthMismatch(t *testing.T) {
	encoded, err := EncodeBytes([]byte("mismatch"), DefaultOptions())
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.TreeSizeWidth = 3
	_, err = DecodeBytes(encoded, opts)
	require.ErrorIs(t, err, ErrMalformed)
}
