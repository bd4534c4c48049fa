package mpt

import (
	"github.com/nspcc-dev/starkroot/pkg/util"
)

// IndexNode is a reference to a node that is stored and not loaded into
// memory yet. It's resolved on the first traversal.
type IndexNode struct {
	BaseNode
}

var _ Node = (*IndexNode)(nil)

// NewIndexNode returns index node with the specified index and hash.
func NewIndexNode(idx uint64, h util.Felt) *IndexNode {
	var n = new(IndexNode)
	n.setStored(idx, h)
	return n
}

// Type implements Node interface.
func (n *IndexNode) Type() NodeType { return IndexT }

// Hash implements Node interface.
func (n *IndexNode) Hash() util.Felt {
	return n.hash
}
