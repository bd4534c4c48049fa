package mpt

import (
	"github.com/nspcc-dev/starkroot/pkg/util"
)

// BinaryNode represents a branching point of the trie, Left child follows
// 0 bit of the key and Right follows 1.
type BinaryNode struct {
	BaseNode
	Left  Node
	Right Node
}

var _ Node = (*BinaryNode)(nil)

// NewBinaryNode returns a new binary node with the given children.
func NewBinaryNode(left, right Node) *BinaryNode {
	return &BinaryNode{Left: left, Right: right}
}

// newBinaryFromBit places a and b under a new binary node, a goes left if
// abit is 0.
func newBinaryFromBit(abit byte, a, b Node) *BinaryNode {
	if abit == 0 {
		return NewBinaryNode(a, b)
	}
	return NewBinaryNode(b, a)
}

// Type implements Node interface.
func (b *BinaryNode) Type() NodeType { return BinaryT }

// Hash implements Node interface.
func (b *BinaryNode) Hash() util.Felt {
	return b.getHash(b)
}

func (b *BinaryNode) child(bit byte) Node {
	if bit == 0 {
		return b.Left
	}
	return b.Right
}

func (b *BinaryNode) setChild(bit byte, n Node) {
	if bit == 0 {
		b.Left = n
	} else {
		b.Right = n
	}
}
