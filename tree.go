package huffman

import (
	"github.com/chronos-tachyon/assert"
)

// EncodeTree serializes a tree in pre-order: a 1 bit followed by the unit
// value for each leaf, a 0 bit followed by the left and then the right
// subtree for each branch.  A nil tree encodes to zero bits.
func EncodeTree(root *Node, unitLen int) Code {
	var out Code
	if root == nil {
		return out
	}

	stack := []*Node{root}
	for len(stack) != 0 {
		last := len(stack) - 1
		n := stack[last]
		stack[last] = nil
		stack = stack[:last]

		if n.IsLeaf() {
			assert.Assertf(n.value.Size() == unitLen, "leaf holds %d bits, expected %d", n.value.Size(), unitLen)
			out.AppendBit(true)
			out.AppendCode(n.value)
			continue
		}
		out.AppendBit(false)
		stack = append(stack, n.right, n.left)
	}
	return out
}

// DecodeTree is the inverse of EncodeTree.  Every bit must be consumed: the
// tree must end exactly where bits does, or ErrMalformed is returned.
func DecodeTree(bits Code, unitLen int) (*Node, error) {
	if bits.Size() == 0 {
		return nil, nil
	}

	var root *Node
	var pos int

	// open holds branches that are still waiting for their right child
	// (or for both children, if left is nil).
	var open []*Node

	for {
		if pos >= bits.Size() {
			return nil, malformedf("tree ends after %d bits with %d unfinished branches", pos, len(open))
		}
		isLeaf := bits.Bit(pos)
		pos++

		var n *Node
		if isLeaf {
			if pos+unitLen > bits.Size() {
				return nil, malformedf("tree leaf at offset %d needs %d bits, only %d remain", pos-1, unitLen, bits.Size()-pos)
			}
			n = NewLeaf(bits.Slice(pos, pos+unitLen), 0)
			pos += unitLen
		} else {
			n = &Node{}
		}

		if root == nil {
			root = n
		} else {
			last := len(open) - 1
			parent := open[last]
			if parent.left == nil {
				parent.left = n
			} else {
				parent.right = n
				open[last] = nil
				open = open[:last]
			}
		}

		if !isLeaf {
			open = append(open, n)
		}
		if len(open) == 0 {
			break
		}
	}

	if pos != bits.Size() {
		return nil, malformedf("tree has %d trailing bits", bits.Size()-pos)
	}
	return root, nil
}

// codeTable maps each unit (by key) to its code.
type codeTable struct {
	codes   map[string]Code
	minSize int
	maxSize int
}

// deriveCodes walks the tree and assigns each leaf the path that reaches it,
// 0 for left and 1 for right.  A tree consisting of a single leaf gets the
// code "0".
func deriveCodes(root *Node) codeTable {
	table := codeTable{codes: make(map[string]Code)}
	if root == nil {
		return table
	}
	if root.IsLeaf() {
		var zero Code
		zero.AppendBit(false)
		table.codes[root.value.key()] = zero
		table.minSize, table.maxSize = 1, 1
		return table
	}

	// We use stackItem.x to keep track of where we are in the tree walk:
	//   x=0 → We just arrived at stackItem for the first time
	//   x=1 → We have already processed the left child
	//   x=2 → We have already processed both children
	//
	// Only branches are ever pushed, so the stack depth equals the code
	// length of the deepest leaf seen so far.

	type stackItem struct {
		n    *Node
		path Code
		x    byte
	}

	stack := []stackItem{{n: root}}
	var hasMinMax bool

	processChild := func(child *Node, path Code) {
		if !child.IsLeaf() {
			stack = append(stack, stackItem{n: child, path: path})
			return
		}

		table.codes[child.value.key()] = path
		size := path.Size()
		if !hasMinMax {
			hasMinMax = true
			table.minSize = size
			table.maxSize = size
		} else if table.minSize > size {
			table.minSize = size
		} else if table.maxSize < size {
			table.maxSize = size
		}
	}

	for len(stack) != 0 {
		top := &stack[len(stack)-1]
		x := top.x
		top.x++
		switch x {
		case 0:
			processChild(top.n.left, extendPath(top.path, false))
		case 1:
			processChild(top.n.right, extendPath(top.path, true))
		case 2:
			stack = stack[:len(stack)-1]
		}
	}
	return table
}

func extendPath(path Code, bit bool) Code {
	out := path.Clone()
	out.AppendBit(bit)
	return out
}
