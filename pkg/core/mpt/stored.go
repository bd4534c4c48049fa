package mpt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/starkroot/pkg/core/storage"
	"github.com/nspcc-dev/starkroot/pkg/io"
	"github.com/nspcc-dev/starkroot/pkg/util"
)

// DefaultNodeCacheSize is the default number of decoded nodes kept in
// StoredTrie cache.
const DefaultNodeCacheSize = 4096

// ErrCorruptedStorage is returned by StoredTrie.Check for stored data that
// can't be produced by Apply.
var ErrCorruptedStorage = errors.New("corrupted trie storage")

// StorageError is returned when the underlying store fails or returns
// malformed data.
type StorageError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("trie storage: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying store error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// StoredTrie is an append-only persistent trie representation. Each node is
// stored once under a unique index along with its hash, leaf values are
// stored separately by the full leaf path. Indices are assigned
// sequentially and never reused. Everything is kept in the given
// storage.Store under the scope, so several tries may share one store.
type StoredTrie struct {
	store storage.Store
	scope []byte
	next  uint64
	cache *lru.Cache
}

type storedEntry struct {
	hash util.Felt
	node StoredNode
}

// CommitResult is the outcome of StoredTrie.Apply.
type CommitResult struct {
	// Root is the root hash of the committed trie.
	Root util.Felt
	// RootIndex is the storage index of the root, NoIndex for an empty trie.
	RootIndex uint64
	// Indices maps every node of the update to its storage index.
	Indices map[NodeKey]uint64
	// Added is the number of newly stored nodes.
	Added int
}

// NewStoredTrie opens a stored trie in the given scope of the store.
// Non-positive cacheSize means DefaultNodeCacheSize. Scope can't be longer
// than storage.MaxScopeLen.
func NewStoredTrie(store storage.Store, scope []byte, cacheSize int) (*StoredTrie, error) {
	if len(scope) > storage.MaxScopeLen {
		return nil, fmt.Errorf("trie scope is too long: %d bytes", len(scope))
	}
	if cacheSize <= 0 {
		cacheSize = DefaultNodeCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	s := &StoredTrie{
		store: store,
		scope: scope,
		cache: cache,
	}
	b, err := store.Get(s.nextIndexKey())
	switch {
	case err == nil:
		if len(b) != 8 {
			return nil, &StorageError{Op: "load next index", Err: fmt.Errorf("bad length %d", len(b))}
		}
		s.next = binary.BigEndian.Uint64(b)
	case errors.Is(err, storage.ErrKeyNotFound):
	default:
		return nil, &StorageError{Op: "load next index", Err: err}
	}
	return s, nil
}

func (s *StoredTrie) nextIndexKey() []byte {
	return storage.AppendKey(storage.SYSTrieNextIndex, s.scope, nil)
}

func (s *StoredTrie) nodeKey(idx uint64) []byte {
	return storage.AppendIndexKey(storage.DataTrieNode, s.scope, idx)
}

func (s *StoredTrie) hashKey(k NodeKey) []byte {
	suffix := make([]byte, 0, 1+util.FeltSize)
	suffix = append(suffix, byte(k.Type))
	return storage.AppendKey(storage.DataTrieHash, s.scope, append(suffix, k.Hash[:]...))
}

func (s *StoredTrie) leafKey(key BitPath) []byte {
	return storage.AppendKey(storage.DataTrieLeaf, s.scope, key.Bytes())
}

// Len returns the number of stored nodes which is also the next index to be
// assigned.
func (s *StoredTrie) Len() uint64 {
	return s.next
}

// Node returns the hash and the node stored under the given index.
func (s *StoredTrie) Node(idx uint64) (util.Felt, StoredNode, error) {
	if e, ok := s.cache.Get(idx); ok {
		entry := e.(storedEntry)
		return entry.hash, entry.node, nil
	}
	data, err := s.store.Get(s.nodeKey(idx))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return util.Felt{}, StoredNode{}, fmt.Errorf("%w: node #%d", ErrNotFound, idx)
		}
		return util.Felt{}, StoredNode{}, &StorageError{Op: "get node", Err: err}
	}
	entry, err := decodeEntry(idx, data)
	if err != nil {
		return util.Felt{}, StoredNode{}, err
	}
	s.cache.Add(idx, entry)
	return entry.hash, entry.node, nil
}

func decodeEntry(idx uint64, data []byte) (storedEntry, error) {
	var entry storedEntry
	if len(data) < util.FeltSize {
		return entry, &StorageError{Op: "decode node", Err: fmt.Errorf("node #%d is too short", idx)}
	}
	copy(entry.hash[:], data)
	r := io.NewBinReaderFromBuf(data[util.FeltSize:])
	entry.node.DecodeBinary(r)
	if r.Err != nil {
		return entry, &StorageError{Op: "decode node", Err: fmt.Errorf("node #%d: %w", idx, r.Err)}
	}
	return entry, nil
}

// Check walks over all nodes stored in the trie scope and makes sure they're
// numbered sequentially, can be found by their hashes and refer to stored
// nodes only. It returns ErrCorruptedStorage for the first problem found.
func (s *StoredTrie) Check() error {
	var (
		prefix  = storage.AppendKey(storage.DataTrieNode, s.scope, nil)
		last    = NoIndex
		entries []storedEntry
		err     error
	)
	indexOf := func(k []byte) (uint64, bool) {
		if len(k) != len(prefix)+8 {
			return 0, false
		}
		return binary.BigEndian.Uint64(k[len(prefix):]), true
	}
	s.store.Seek(storage.SeekRange{Prefix: prefix, Backwards: true}, func(k, _ []byte) bool {
		if idx, ok := indexOf(k); ok {
			last = idx
		}
		return false
	})
	if (s.next == 0) != (last == NoIndex) || s.next != 0 && last != s.next-1 {
		return fmt.Errorf("%w: last node is #%d, next index is %d", ErrCorruptedStorage, int64(last), s.next)
	}
	s.store.Seek(storage.SeekRange{Prefix: prefix}, func(k, v []byte) bool {
		idx, ok := indexOf(k)
		if !ok {
			err = fmt.Errorf("%w: bad node key %x", ErrCorruptedStorage, k)
			return false
		}
		if idx != uint64(len(entries)) {
			err = fmt.Errorf("%w: node #%d is missing", ErrCorruptedStorage, len(entries))
			return false
		}
		var e storedEntry
		if e, err = decodeEntry(idx, v); err != nil {
			err = fmt.Errorf("%w: %w", ErrCorruptedStorage, err)
			return false
		}
		entries = append(entries, e)
		return true
	})
	if err != nil {
		return err
	}
	for i, e := range entries {
		idx := uint64(i)
		stored, err := s.Index(NodeKey{Type: e.node.Type, Hash: e.hash})
		if err != nil {
			return fmt.Errorf("%w: node #%d: %w", ErrCorruptedStorage, idx, err)
		}
		if stored != idx {
			return fmt.Errorf("%w: node #%d is indexed as #%d", ErrCorruptedStorage, idx, stored)
		}
		var children []uint64
		switch e.node.Type {
		case BinaryT:
			children = []uint64{e.node.Left, e.node.Right}
		case EdgeT:
			children = []uint64{e.node.Child}
		}
		for _, c := range children {
			if c >= s.next || c == idx {
				return fmt.Errorf("%w: node #%d refers to #%d", ErrCorruptedStorage, idx, c)
			}
		}
	}
	return nil
}

// Index returns the storage index of the node with the given type and hash.
func (s *StoredTrie) Index(k NodeKey) (uint64, error) {
	b, err := s.store.Get(s.hashKey(k))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return 0, fmt.Errorf("%w: %s node %s", ErrNotFound, k.Type, k.Hash)
		}
		return 0, &StorageError{Op: "get index", Err: err}
	}
	if len(b) != 8 {
		return 0, &StorageError{Op: "get index", Err: fmt.Errorf("bad index length %d", len(b))}
	}
	return binary.BigEndian.Uint64(b), nil
}

// Value returns the value stored for the leaf with the given full path.
func (s *StoredTrie) Value(key BitPath) (util.Felt, error) {
	b, err := s.store.Get(s.leafKey(key))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return util.Felt{}, fmt.Errorf("%w: leaf %s", ErrNotFound, key.Felt())
		}
		return util.Felt{}, &StorageError{Op: "get leaf", Err: err}
	}
	v, err := util.FeltDecodeBytesBE(b)
	if err != nil {
		return util.Felt{}, &StorageError{Op: "decode leaf", Err: err}
	}
	return v, nil
}

// Apply stores the given update. Nodes that are already stored keep their
// indices, new ones get the next free indices in the order of their keys.
// Child references are resolved against both the update and the storage,
// nothing is written if any of them can't be resolved.
func (s *StoredTrie) Apply(u *CommitUpdate) (*CommitResult, error) {
	var (
		res = &CommitResult{
			Root:      u.RootHash,
			RootIndex: NoIndex,
			Indices:   make(map[NodeKey]uint64, len(u.Nodes)),
		}
		keys  = make([]NodeKey, 0, len(u.Nodes))
		fresh []NodeKey
		next  = s.next
	)
	for k := range u.Nodes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Compare(keys[j]) < 0
	})
	for _, k := range keys {
		idx, err := s.Index(k)
		if err == nil {
			res.Indices[k] = idx
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		res.Indices[k] = next
		next++
		fresh = append(fresh, k)
	}

	resolve := func(c Child) (uint64, error) {
		if c.HasIndex {
			return c.Index, nil
		}
		if idx, ok := res.Indices[c.Key()]; ok {
			return idx, nil
		}
		idx, err := s.Index(c.Key())
		if errors.Is(err, ErrNotFound) {
			return 0, fmt.Errorf("%w: %s %s", ErrUnresolvedChildReference, c.Type, c.Hash)
		}
		return idx, err
	}

	var (
		batch   = make(map[string][]byte, 2*len(fresh)+len(u.Leaves)+1)
		entries = make(map[uint64]storedEntry, len(fresh))
		err     error
	)
	for _, k := range fresh {
		un := u.Nodes[k]
		sn := StoredNode{Type: un.Type}
		switch un.Type {
		case BinaryT:
			if sn.Left, err = resolve(un.Left); err != nil {
				return nil, err
			}
			if sn.Right, err = resolve(un.Right); err != nil {
				return nil, err
			}
		case EdgeT:
			if sn.Child, err = resolve(un.Child); err != nil {
				return nil, err
			}
			sn.Path = un.Path
		case LeafEdgeT:
			sn.Path = un.Path
		case LeafBinaryT:
		default:
			return nil, fmt.Errorf("invalid node type %s of %s", un.Type, k.Hash)
		}
		if un.Type != k.Type {
			return nil, fmt.Errorf("node %s is keyed as %s, but it's %s", k.Hash, k.Type, un.Type)
		}
		idx := res.Indices[k]
		val := make([]byte, util.FeltSize, util.FeltSize+1+8+8)
		copy(val, k.Hash[:])
		batch[string(s.nodeKey(idx))] = append(val, sn.Bytes()...)
		batch[string(s.hashKey(k))] = binary.BigEndian.AppendUint64(nil, idx)
		entries[idx] = storedEntry{hash: k.Hash, node: sn}
	}
	if u.Root != nil {
		if res.RootIndex, err = resolve(*u.Root); err != nil {
			return nil, err
		}
	}
	for k, v := range u.Leaves {
		batch[string(s.leafKey(k))] = v.BytesBE()
	}
	if next != s.next {
		batch[string(s.nextIndexKey())] = binary.BigEndian.AppendUint64(nil, next)
	}
	if len(batch) != 0 {
		if err := s.store.PutChangeSet(batch); err != nil {
			return nil, &StorageError{Op: "persist", Err: err}
		}
	}
	s.next = next
	for idx, e := range entries {
		s.cache.Add(idx, e)
	}
	res.Added = len(fresh)
	return res, nil
}
