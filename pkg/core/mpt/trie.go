package mpt

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/starkroot/pkg/util"
)

var (
	// ErrNotFound is returned when requested trie item is missing.
	ErrNotFound = errors.New("item not found")
	// ErrInvalidKeyLength is returned for keys (paths) of unexpected width.
	ErrInvalidKeyLength = errors.New("invalid key length")
	// ErrInvalidKey is returned for keys having non-zero bits that can't be
	// represented in the trie path.
	ErrInvalidKey = errors.New("invalid key")
	// ErrUnresolvedChildReference is returned on commit when a node refers
	// to a child that is neither a part of the commit nor stored.
	ErrUnresolvedChildReference = errors.New("unresolved child reference")
)

// Config is a Trie configuration.
type Config struct {
	// Store is a persistent node storage, it's needed for Commit and for
	// tries opened from some stored root.
	Store *StoredTrie
	// Depth is the length of every key path, MaxPathLen is used if zero.
	Depth int
}

// Trie is an insert-only binary Merkle-Patricia trie with path compression.
// It's not safe for concurrent use.
type Trie struct {
	store *StoredTrie
	depth int

	root Node
}

// NewTrie returns a new trie with the given root (nil for an empty one).
func NewTrie(root Node, cfg Config) *Trie {
	depth := cfg.Depth
	if depth <= 0 || depth > MaxPathLen {
		depth = MaxPathLen
	}
	return &Trie{
		store: cfg.Store,
		depth: depth,
		root:  root,
	}
}

// NewTrieFromIndex opens a trie rooted at the stored node with the given
// index, NoIndex means an empty trie.
func NewTrieFromIndex(rootIndex uint64, cfg Config) (*Trie, error) {
	if rootIndex == NoIndex {
		return NewTrie(nil, cfg), nil
	}
	if cfg.Store == nil {
		return nil, errors.New("no store to open the trie from")
	}
	h, _, err := cfg.Store.Node(rootIndex)
	if err != nil {
		return nil, err
	}
	return NewTrie(NewIndexNode(rootIndex, h), cfg), nil
}

// Depth returns the path length of the trie.
func (t *Trie) Depth() int {
	return t.depth
}

// StateRoot returns the root hash of t, it's zero for an empty trie.
func (t *Trie) StateRoot() util.Felt {
	if t.root == nil {
		return util.Felt{}
	}
	return t.root.Hash()
}

// Put puts a key-value pair in t overwriting the value if the key is already
// present.
func (t *Trie) Put(key BitPath, value util.Felt) error {
	if key.Len() != t.depth {
		return fmt.Errorf("%w: %d bits, expected %d", ErrInvalidKeyLength, key.Len(), t.depth)
	}
	r, err := t.putIntoNode(t.root, key, 0, value)
	if err != nil {
		return err
	}
	t.root = r
	return nil
}

// putIntoNode puts the value with the given key into the subtrie rooted at
// curr, pos is the number of key bits consumed before reaching curr.
func (t *Trie) putIntoNode(curr Node, key BitPath, pos int, value util.Felt) (Node, error) {
	switch n := curr.(type) {
	case nil:
		return NewLeafNode(key.Suffix(pos), key, value), nil
	case *LeafNode:
		return t.putIntoLeaf(n, key, pos, value), nil
	case *BinaryNode:
		return t.putIntoBinary(n, key, pos, value)
	case *EdgeNode:
		return t.putIntoEdge(n, key, pos, value)
	case *IndexNode:
		r, err := t.resolve(n, key.Slice(0, pos))
		if err != nil {
			return nil, err
		}
		return t.putIntoNode(r, key, pos, value)
	default:
		panic("invalid trie node type")
	}
}

func (t *Trie) putIntoLeaf(curr *LeafNode, key BitPath, pos int, value util.Felt) Node {
	if curr.Key == key {
		if curr.Value != value {
			curr.Value = value
			curr.invalidateCache()
		}
		return curr
	}
	path := key.Suffix(pos)
	lcp := path.CommonPrefixLen(curr.Path)
	old := NewLeafNode(curr.Path.Suffix(lcp+1), curr.Key, curr.Value)
	leaf := NewLeafNode(path.Suffix(lcp+1), key, value)
	return wrapInEdge(path.Slice(0, lcp), newBinaryFromBit(path.Bit(lcp), leaf, old))
}

func (t *Trie) putIntoBinary(curr *BinaryNode, key BitPath, pos int, value util.Felt) (Node, error) {
	bit := key.Bit(pos)
	r, err := t.putIntoNode(curr.child(bit), key, pos+1, value)
	if err != nil {
		return nil, err
	}
	curr.setChild(bit, r)
	curr.invalidateCache()
	return curr, nil
}

func (t *Trie) putIntoEdge(curr *EdgeNode, key BitPath, pos int, value util.Felt) (Node, error) {
	path := key.Suffix(pos)
	lcp := path.CommonPrefixLen(curr.Path)
	if lcp == curr.Path.Len() {
		r, err := t.putIntoNode(curr.Child, key, pos+lcp, value)
		if err != nil {
			return nil, err
		}
		curr.Child = r
		curr.invalidateCache()
		return curr, nil
	}
	var rest = curr.Child
	if lcp+1 < curr.Path.Len() {
		rest = NewEdgeNode(curr.Path.Suffix(lcp+1), curr.Child)
	}
	leaf := NewLeafNode(path.Suffix(lcp+1), key, value)
	return wrapInEdge(path.Slice(0, lcp), newBinaryFromBit(path.Bit(lcp), leaf, rest)), nil
}

// wrapInEdge puts an edge with the given path on top of n if path is not
// empty.
func wrapInEdge(path BitPath, n Node) Node {
	if path.IsEmpty() {
		return n
	}
	return NewEdgeNode(path, n)
}

// Get returns the value for the provided key in t.
func (t *Trie) Get(key BitPath) (util.Felt, error) {
	if key.Len() != t.depth {
		return util.Felt{}, fmt.Errorf("%w: %d bits, expected %d", ErrInvalidKeyLength, key.Len(), t.depth)
	}
	r, v, err := t.getWithPath(t.root, key, 0)
	if err != nil {
		return util.Felt{}, err
	}
	t.root = r
	return v, nil
}

// getWithPath returns the value for the key in a subtrie rooted at curr. It
// also returns the current node with all index nodes along the path replaced
// by their resolved counterparts.
func (t *Trie) getWithPath(curr Node, key BitPath, pos int) (Node, util.Felt, error) {
	switch n := curr.(type) {
	case *LeafNode:
		if n.Key == key {
			return n, n.Value, nil
		}
	case *BinaryNode:
		bit := key.Bit(pos)
		r, v, err := t.getWithPath(n.child(bit), key, pos+1)
		if err != nil {
			return nil, util.Felt{}, err
		}
		n.setChild(bit, r)
		return n, v, nil
	case *EdgeNode:
		if key.Suffix(pos).CommonPrefixLen(n.Path) == n.Path.Len() {
			r, v, err := t.getWithPath(n.Child, key, pos+n.Path.Len())
			if err != nil {
				return nil, util.Felt{}, err
			}
			n.Child = r
			return n, v, nil
		}
	case *IndexNode:
		r, err := t.resolve(n, key.Slice(0, pos))
		if err != nil {
			return nil, util.Felt{}, err
		}
		return t.getWithPath(r, key, pos)
	case nil:
	default:
		panic("invalid trie node type")
	}
	return nil, util.Felt{}, fmt.Errorf("%w: key %s", ErrNotFound, key.Felt())
}

// resolve loads the node referenced by n from the store, prefix is the path
// leading to it.
func (t *Trie) resolve(n *IndexNode, prefix BitPath) (Node, error) {
	if t.store == nil {
		return nil, errors.New("can't resolve stored node without a store")
	}
	h, sn, err := t.store.Node(n.index)
	if err != nil {
		return nil, err
	}
	var res Node
	switch sn.Type {
	case BinaryT:
		l, err := t.indexNode(sn.Left)
		if err != nil {
			return nil, err
		}
		r, err := t.indexNode(sn.Right)
		if err != nil {
			return nil, err
		}
		b := NewBinaryNode(l, r)
		b.setStored(n.index, h)
		res = b
	case EdgeT:
		c, err := t.indexNode(sn.Child)
		if err != nil {
			return nil, err
		}
		e := NewEdgeNode(sn.Path, c)
		e.setStored(n.index, h)
		res = e
	case LeafBinaryT, LeafEdgeT:
		if prefix.Len()+sn.Path.Len() != t.depth {
			return nil, fmt.Errorf("%w: stored leaf #%d at depth %d", ErrInvalidKeyLength, n.index, prefix.Len()+sn.Path.Len())
		}
		key := prefix.Append(sn.Path)
		v, err := t.store.Value(key)
		if err != nil {
			return nil, err
		}
		l := NewLeafNode(sn.Path, key, v)
		l.setStored(n.index, h)
		res = l
	default:
		return nil, fmt.Errorf("invalid stored node type %s", sn.Type)
	}
	return res, nil
}

func (t *Trie) indexNode(idx uint64) (*IndexNode, error) {
	h, _, err := t.store.Node(idx)
	if err != nil {
		return nil, err
	}
	return NewIndexNode(idx, h), nil
}
