package mpt

import (
	"github.com/nspcc-dev/starkroot/pkg/util"
)

// EdgeNode represents a compressed path leading to a binary node. Paths
// leading to leaves are kept in LeafNode.
type EdgeNode struct {
	BaseNode
	Path  BitPath
	Child Node
}

var _ Node = (*EdgeNode)(nil)

// NewEdgeNode returns edge node with the specified path and child.
func NewEdgeNode(path BitPath, child Node) *EdgeNode {
	if path.IsEmpty() {
		panic("edge node with empty path")
	}
	return &EdgeNode{Path: path, Child: child}
}

// Type implements Node interface.
func (e *EdgeNode) Type() NodeType { return EdgeT }

// Hash implements Node interface.
func (e *EdgeNode) Hash() util.Felt {
	return e.getHash(e)
}
