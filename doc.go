// Package huffman implements a Huffman compressor whose alphabet is made of
// fixed-width bit units rather than bytes.  A unit may be anywhere from 1 to
// 255 bits wide and need not line up with byte boundaries.
//
// Encoding counts units, builds a Huffman tree, and writes a self-describing
// container: the unit width, the trailing bits that do not form a whole unit,
// the serialized tree, and the bit-packed payload.  Decoding walks the tree
// bit by bit to restore the original bytes exactly.
//
// References:
//
//     <https://en.wikipedia.org/wiki/Huffman_coding>
//
package huffman
