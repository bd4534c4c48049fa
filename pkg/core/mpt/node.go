package mpt

import (
	"fmt"

	"github.com/nspcc-dev/starkroot/pkg/io"
	"github.com/nspcc-dev/starkroot/pkg/util"
)

// NodeType represents node type.
type NodeType byte

// Node types definitions.
const (
	BinaryT     NodeType = 0x00
	EdgeT       NodeType = 0x01
	LeafBinaryT NodeType = 0x02
	LeafEdgeT   NodeType = 0x03
	// IndexT is an in-memory reference to a stored subtree, it's never
	// stored itself.
	IndexT NodeType = 0x04
)

// NoIndex is returned as a root index of an empty trie.
const NoIndex = ^uint64(0)

// String implements fmt.Stringer.
func (t NodeType) String() string {
	switch t {
	case BinaryT:
		return "Binary"
	case EdgeT:
		return "Edge"
	case LeafBinaryT:
		return "LeafBinary"
	case LeafEdgeT:
		return "LeafEdge"
	case IndexT:
		return "Index"
	default:
		return fmt.Sprintf("NodeType(%d)", byte(t))
	}
}

// Node represents common interface of all in-memory trie nodes.
type Node interface {
	Hash() util.Felt
	Type() NodeType
	// Index returns the storage index of a committed node.
	Index() (uint64, bool)
}

// NodeKey identifies a node's content. Leaf hashes may coincide with inner
// node hashes, so the type is a part of the key.
type NodeKey struct {
	Type NodeType
	Hash util.Felt
}

// Compare orders keys by hash and then by type.
func (k NodeKey) Compare(other NodeKey) int {
	if c := k.Hash.Compare(other.Hash); c != 0 {
		return c
	}
	switch {
	case k.Type < other.Type:
		return -1
	case k.Type > other.Type:
		return 1
	}
	return 0
}

// Child is a reference to a node in CommitUpdate. It's either a key of
// another node from the same update or an index of a node that is already
// stored.
type Child struct {
	Type     NodeType
	Hash     util.Felt
	Index    uint64
	HasIndex bool
}

// HashChild returns a reference to a node by its type and hash.
func HashChild(typ NodeType, h util.Felt) Child {
	return Child{Type: typ, Hash: h}
}

// Key returns the content key of the referenced node.
func (c Child) Key() NodeKey {
	return NodeKey{Type: c.Type, Hash: c.Hash}
}

// IndexChild returns a reference to an already stored node.
func IndexChild(idx uint64, h util.Felt) Child {
	return Child{Hash: h, Index: idx, HasIndex: true}
}

// String implements fmt.Stringer.
func (c Child) String() string {
	if c.HasIndex {
		return fmt.Sprintf("#%d", c.Index)
	}
	return c.Hash.String()
}

// UpdateNode is a new node produced by commit which children are not yet
// resolved to storage indices. Left and Right are only set for Binary,
// Child is only set for Edge, Path is only set for Edge and LeafEdge.
type UpdateNode struct {
	Type  NodeType
	Left  Child
	Right Child
	Child Child
	Path  BitPath
}

// StoredNode is a node as it's kept in the storage, all references are
// storage indices. Fields usage is the same as for UpdateNode.
type StoredNode struct {
	Type  NodeType
	Left  uint64
	Right uint64
	Child uint64
	Path  BitPath
}

// EncodeBinary implements io.Serializable.
func (n StoredNode) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(n.Type))
	switch n.Type {
	case BinaryT:
		w.WriteVarUint(n.Left)
		w.WriteVarUint(n.Right)
	case EdgeT:
		w.WriteVarUint(n.Child)
		n.Path.EncodeBinary(w)
	case LeafEdgeT:
		n.Path.EncodeBinary(w)
	case LeafBinaryT:
	default:
		w.Err = fmt.Errorf("invalid node type: %x", byte(n.Type))
	}
}

// DecodeBinary implements io.Serializable.
func (n *StoredNode) DecodeBinary(r *io.BinReader) {
	var typ = NodeType(r.ReadB())
	if r.Err != nil {
		return
	}
	*n = StoredNode{Type: typ}
	switch typ {
	case BinaryT:
		n.Left = r.ReadVarUint()
		n.Right = r.ReadVarUint()
	case EdgeT:
		n.Child = r.ReadVarUint()
		n.Path.DecodeBinary(r)
		if r.Err == nil && n.Path.IsEmpty() {
			r.Err = fmt.Errorf("empty edge path")
		}
	case LeafEdgeT:
		n.Path.DecodeBinary(r)
		if r.Err == nil && n.Path.IsEmpty() {
			r.Err = fmt.Errorf("empty leaf edge path")
		}
	case LeafBinaryT:
	default:
		r.Err = fmt.Errorf("invalid node type: %x", byte(typ))
	}
}

// Bytes returns serialized StoredNode.
func (n StoredNode) Bytes() []byte {
	w := io.NewBufBinWriter()
	n.EncodeBinary(w.BinWriter)
	if w.Err != nil {
		panic(w.Err)
	}
	return w.Bytes()
}
