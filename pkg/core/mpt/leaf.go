package mpt

import (
	"github.com/nspcc-dev/starkroot/pkg/util"
)

// LeafNode represents a trie leaf. Path is the compressed part of the key
// leading to this leaf from its parent, an empty Path makes it a LeafBinary,
// otherwise it's a LeafEdge. Key is the full path of the leaf used to store
// its value.
type LeafNode struct {
	BaseNode
	Path  BitPath
	Key   BitPath
	Value util.Felt
}

var _ Node = (*LeafNode)(nil)

// NewLeafNode returns leaf node with the specified path, key and value.
func NewLeafNode(path, key BitPath, value util.Felt) *LeafNode {
	return &LeafNode{Path: path, Key: key, Value: value}
}

// Type implements Node interface.
func (n *LeafNode) Type() NodeType {
	if n.Path.IsEmpty() {
		return LeafBinaryT
	}
	return LeafEdgeT
}

// Hash implements Node interface.
func (n *LeafNode) Hash() util.Felt {
	return n.getHash(n)
}
