package mpt

import (
	"fmt"

	"github.com/nspcc-dev/starkroot/pkg/crypto/hash"
	"github.com/nspcc-dev/starkroot/pkg/util"
)

// LeafBinaryHash is a hash of a leaf without compressed path, it's the value
// itself.
func LeafBinaryHash(value util.Felt) util.Felt {
	return value
}

// LeafEdgeHash is a hash of a leaf reached via the compressed path:
// H(value, path) + len(path).
func LeafEdgeHash(value util.Felt, path BitPath) util.Felt {
	return hash.PedersenWithLength(value, path.Felt(), uint64(path.Len()))
}

// BinaryHash is a hash of a binary node: H(left, right).
func BinaryHash(left, right util.Felt) util.Felt {
	return hash.Pedersen(left, right)
}

// EdgeHash is a hash of an edge node: H(child, path) + len(path).
func EdgeHash(child util.Felt, path BitPath) util.Felt {
	return hash.PedersenWithLength(child, path.Felt(), uint64(path.Len()))
}

func hashNode(n Node) util.Felt {
	switch n := n.(type) {
	case *LeafNode:
		if n.Path.IsEmpty() {
			return LeafBinaryHash(n.Value)
		}
		return LeafEdgeHash(n.Value, n.Path)
	case *BinaryNode:
		return BinaryHash(n.Left.Hash(), n.Right.Hash())
	case *EdgeNode:
		return EdgeHash(n.Child.Hash(), n.Path)
	default:
		panic(fmt.Sprintf("can't hash %s node", n.Type()))
	}
}
