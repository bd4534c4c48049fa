package mpt

import (
	"errors"

	"github.com/nspcc-dev/starkroot/pkg/util"
)

// CommitUpdate is a set of nodes created or changed since the last commit.
// Nodes are keyed by their types and hashes, equal subtries are stored once.
type CommitUpdate struct {
	// Root refers to the root node, it's nil for an empty trie.
	Root *Child
	// RootHash is the root hash of the trie.
	RootHash util.Felt
	// Nodes contains all the new nodes.
	Nodes map[NodeKey]UpdateNode
	// Leaves contains values of all the new or changed leaves.
	Leaves map[BitPath]util.Felt
}

// Update hashes all nodes that were not committed yet and returns them.
func (t *Trie) Update() *CommitUpdate {
	u := &CommitUpdate{
		Nodes:  make(map[NodeKey]UpdateNode),
		Leaves: make(map[BitPath]util.Felt),
	}
	if t.root == nil {
		return u
	}
	root := t.collect(t.root, u)
	u.Root = &root
	u.RootHash = root.Hash
	return u
}

func (t *Trie) collect(n Node, u *CommitUpdate) Child {
	h := n.Hash()
	if idx, ok := n.Index(); ok {
		return IndexChild(idx, h)
	}
	var un UpdateNode
	switch n := n.(type) {
	case *LeafNode:
		un = UpdateNode{Type: n.Type(), Path: n.Path}
		u.Leaves[n.Key] = n.Value
	case *BinaryNode:
		un = UpdateNode{
			Type:  BinaryT,
			Left:  t.collect(n.Left, u),
			Right: t.collect(n.Right, u),
		}
	case *EdgeNode:
		un = UpdateNode{
			Type:  EdgeT,
			Child: t.collect(n.Child, u),
			Path:  n.Path,
		}
	default:
		panic("invalid trie node type")
	}
	u.Nodes[NodeKey{Type: un.Type, Hash: h}] = un
	return HashChild(un.Type, h)
}

// Commit stores all the changes made to t since the last commit and returns
// the root hash along with the storage index of the root node (NoIndex for
// an empty trie). Repeated commits without changes return the same result
// and store nothing.
func (t *Trie) Commit() (util.Felt, uint64, error) {
	if t.store == nil {
		return util.Felt{}, NoIndex, errors.New("trie has no store attached")
	}
	res, err := t.store.Apply(t.Update())
	if err != nil {
		return util.Felt{}, NoIndex, err
	}
	if t.root != nil {
		markCommitted(t.root, res.Indices)
	}
	return res.Root, res.RootIndex, nil
}

func markCommitted(n Node, indices map[NodeKey]uint64) {
	if _, ok := n.Index(); ok {
		return
	}
	var base *BaseNode
	switch n := n.(type) {
	case *LeafNode:
		base = &n.BaseNode
	case *BinaryNode:
		markCommitted(n.Left, indices)
		markCommitted(n.Right, indices)
		base = &n.BaseNode
	case *EdgeNode:
		markCommitted(n.Child, indices)
		base = &n.BaseNode
	default:
		panic("invalid trie node type")
	}
	base.setIndex(indices[NodeKey{Type: n.Type(), Hash: n.Hash()}])
}
