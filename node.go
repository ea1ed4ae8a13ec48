package huffman

import (
	"container/heap"
	"math"

	"github.com/chronos-tachyon/assert"
)

// Node is a node of a Huffman tree.  A leaf carries a unit value and its
// occurrence count; a branch carries the summed count of its two children
// and owns them exclusively.
type Node struct {
	value Code
	count uint64
	seq   uint64
	left  *Node
	right *Node
	leaf  bool
}

// NewLeaf constructs a leaf node.
func NewLeaf(value Code, count uint64) *Node {
	return &Node{value: value, count: count, leaf: true}
}

// NewBranch constructs an internal node whose count is the sum of its
// children's counts, saturating at math.MaxUint64.
func NewBranch(left, right *Node) *Node {
	assert.Assertf(left != nil && right != nil, "NewBranch: nil child")
	count := left.count + right.count
	if count < left.count {
		count = math.MaxUint64
	}
	return &Node{count: count, left: left, right: right}
}

// IsLeaf returns true iff this node carries a unit value.
func (n *Node) IsLeaf() bool {
	return n.leaf
}

// Value returns the unit carried by a leaf.
func (n *Node) Value() Code {
	return n.value
}

// Count returns the occurrence count of this node.  Trees reconstructed by
// DecodeTree carry no counts.
func (n *Node) Count() uint64 {
	return n.count
}

// Left returns the child reached by a 0 bit.
func (n *Node) Left() *Node {
	return n.left
}

// Right returns the child reached by a 1 bit.
func (n *Node) Right() *Node {
	return n.right
}

// buildTree builds a Huffman tree from t.  It returns nil for an empty
// alphabet, and the lone leaf itself for an alphabet of one.
//
// Ties between equal counts go to the node that entered the queue first:
// leaves in order of first occurrence, then branches in order of creation.
//
func buildTree(t *freqTable) *Node {
	nodes := make([]*Node, 0, t.Len())
	var seq uint64
	for i, unit := range t.units {
		n := NewLeaf(unit, t.counts[i])
		n.seq = seq
		seq++
		nodes = append(nodes, n)
	}
	if len(nodes) == 0 {
		return nil
	}

	h := nodeHeap{nodes}
	h.Init()
	for h.Len() > 1 {
		a := heap.Pop(&h).(*Node)
		b := heap.Pop(&h).(*Node)
		n := NewBranch(a, b)
		n.seq = seq
		seq++
		heap.Push(&h, n)
	}
	return heap.Pop(&h).(*Node)
}

// type nodeHeap {{{

type nodeHeap struct {
	list []*Node
}

func (h *nodeHeap) Init() {
	heap.Init(h)
}

func (h *nodeHeap) Len() int {
	return len(h.list)
}

func (h *nodeHeap) Swap(i, j int) {
	h.list[i], h.list[j] = h.list[j], h.list[i]
}

func (h *nodeHeap) Less(i, j int) bool {
	a, b := h.list[i], h.list[j]
	if a.count != b.count {
		return a.count < b.count
	}
	return a.seq < b.seq
}

func (h *nodeHeap) Push(x interface{}) {
	h.list = append(h.list, x.(*Node))
}

func (h *nodeHeap) Pop() interface{} {
	last := len(h.list) - 1
	x := h.list[last]
	h.list[last] = nil
	h.list = h.list[:last]
	return x
}

var _ heap.Interface = (*nodeHeap)(nil)

// }}}
