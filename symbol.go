package huffman

import (
	"io"

	"github.com/icza/bitio"
	"github.com/pkg/errors"
)

// freqTable counts occurrences of each distinct unit.  Units are kept in
// order of first occurrence, which fixes tie-breaking during tree
// construction.
type freqTable struct {
	unitLen int
	index   map[string]int
	units   []Code
	counts  []uint64
}

func newFreqTable(unitLen int) *freqTable {
	return &freqTable{
		unitLen: unitLen,
		index:   make(map[string]int),
	}
}

func (t *freqTable) add(unit []byte) {
	if i, found := t.index[string(unit)]; found {
		t.counts[i]++
		return
	}
	t.index[string(unit)] = len(t.units)
	t.units = append(t.units, MakeCode(t.unitLen, unit))
	t.counts = append(t.counts, 1)
}

// Len returns the size of the alphabet.
func (t *freqTable) Len() int {
	return len(t.units)
}

// total returns the number of complete units seen.
func (t *freqTable) total() uint64 {
	var sum uint64
	for _, count := range t.counts {
		sum += count
	}
	return sum
}

// scanUnits splits one pass over src into consecutive unitLen-bit units and
// calls fn for each.  The slice passed to fn is reused between calls.  The
// trailing bits that do not form a complete unit are returned as the
// remainder.
func scanUnits(src ChunkSource, unitLen int, fn func(unit []byte) error) (remainder Code, err error) {
	it, err := src.Chunks()
	if err != nil {
		return Code{}, err
	}
	defer func() {
		if closeErr := it.Close(); err == nil {
			err = closeErr
		}
	}()

	r := bitio.NewReader(newChunkReader(it))
	unit := make([]byte, bytesFor(unitLen))
	var pos int
	for {
		for i := range unit {
			unit[i] = 0
		}

		filled := 0
		for filled < unitLen {
			// Never read across an input byte boundary, so that
			// io.EOF can only arrive with nothing consumed.
			k := 8 - pos&7
			if k > unitLen-filled {
				k = unitLen - filled
			}
			v, err := r.ReadBits(uint8(k))
			if err == io.EOF {
				return MakeCode(filled, unit), nil
			}
			if err != nil {
				return Code{}, errors.Wrap(err, "scan units")
			}
			putBits(unit, filled, v, k)
			filled += k
			pos += k
		}

		if err := fn(unit); err != nil {
			return Code{}, err
		}
	}
}

// countUnits performs the frequency-counting pass.
func countUnits(src ChunkSource, unitLen int) (*freqTable, Code, error) {
	t := newFreqTable(unitLen)
	remainder, err := scanUnits(src, unitLen, func(unit []byte) error {
		t.add(unit)
		return nil
	})
	if err != nil {
		return nil, Code{}, err
	}
	return t, remainder, nil
}
