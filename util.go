package huffman

import (
	mathbits "math/bits"
)

// log2uint64 returns the number of bits needed to represent x, treating 0 as
// if it were 1.
func log2uint64(x uint64) uint64 {
	if x == 0 {
		x = 1
	}
	return uint64(64 - mathbits.LeadingZeros64(x))
}

// bytesFor returns the number of bytes needed to hold the given number of
// bits.
func bytesFor(bits int) int {
	return (bits + 7) >> 3
}
