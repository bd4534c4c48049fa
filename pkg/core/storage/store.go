package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/nspcc-dev/starkroot/pkg/core/storage/dbconfig"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// KeyPrefix constants.
const (
	// DataTrieNode is used for stored trie nodes identified by their index.
	DataTrieNode KeyPrefix = 0x03
	// DataTrieHash maps node hashes to indices.
	DataTrieHash KeyPrefix = 0x04
	// DataTrieLeaf maps full leaf paths to leaf values.
	DataTrieLeaf KeyPrefix = 0x05
	// SYSTrieNextIndex holds the next free node index of a trie.
	SYSTrieNextIndex KeyPrefix = 0xc0
)

// MaxScopeLen is the maximum length of a key scope.
const MaxScopeLen = 0xff

// SeekRange represents options for Store.Seek operation.
type SeekRange struct {
	// Prefix denotes the Seek's lookup key.
	// Empty Prefix means seeking through all keys in the DB starting from
	// the Start if specified.
	Prefix []byte
	// Start denotes value appended to the Prefix to start Seek from.
	// Seeking starting from some key includes this key to the result;
	// if no matching key was found then next suitable key is picked up.
	// Start may be empty. Empty Start means seeking through all keys in
	// the DB with matching Prefix.
	Start []byte
	// Backwards denotes whether Seek direction should be reversed, i.e.
	// whether seeking should be performed in a descending way.
	// Backwards can be safely combined with Prefix and Start.
	Backwards bool
}

// ErrKeyNotFound is an error returned by Store implementations
// when a certain key is not found.
var ErrKeyNotFound = errors.New("key not found")

type (
	// Store is the underlying KV backend for trie data.
	Store interface {
		Get([]byte) ([]byte, error)
		// PutChangeSet allows to push prepared changeset to the Store
		// atomically. nil values denote deletion.
		PutChangeSet(puts map[string][]byte) error
		// Seek can guarantee that provided key (k) and value (v) are the only valid until the next call to f.
		// Seek continues iteration until false is returned from f.
		// Key and value slices should not be modified.
		// Seek can guarantee that key-value items are sorted by key in ascending way.
		Seek(rng SeekRange, f func(k, v []byte) bool)
		Close() error
	}

	// KeyPrefix is a constant byte added as a prefix for each key
	// stored.
	KeyPrefix uint8

	// KeyValue represents key-value pair.
	KeyValue struct {
		Key   []byte
		Value []byte
	}
)

// Bytes returns the bytes representation of KeyPrefix.
func (k KeyPrefix) Bytes() []byte {
	return []byte{byte(k)}
}

// AppendKey builds a DB key from the prefix, scope and the suffix given.
// Scope is length-prefixed, so keys of different scopes never overlap. It
// panics if the scope is longer than MaxScopeLen.
func AppendKey(k KeyPrefix, scope []byte, suffix []byte) []byte {
	if len(scope) > MaxScopeLen {
		panic(fmt.Sprintf("key scope is too long: %d", len(scope)))
	}
	key := make([]byte, 2, 2+len(scope)+len(suffix))
	key[0] = byte(k)
	key[1] = byte(len(scope))
	key = append(key, scope...)
	return append(key, suffix...)
}

// AppendIndexKey is the same as AppendKey but with a big-endian encoded
// index as a suffix, so that keys are sorted by the index.
func AppendIndexKey(k KeyPrefix, scope []byte, index uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], index)
	return AppendKey(k, scope, b[:])
}

func seekRangeToPrefixes(sr SeekRange) *util.Range {
	var (
		rang  *util.Range
		start = make([]byte, len(sr.Prefix)+len(sr.Start))
	)
	copy(start, sr.Prefix)
	copy(start[len(sr.Prefix):], sr.Start)

	if !sr.Backwards {
		rang = util.BytesPrefix(sr.Prefix)
		rang.Start = start
	} else {
		rang = util.BytesPrefix(start)
		rang.Start = sr.Prefix
	}
	return rang
}

// NewStore creates storage with preselected in configuration database type.
func NewStore(cfg dbconfig.DBConfiguration) (Store, error) {
	var store Store
	var err error
	switch cfg.Type {
	case dbconfig.LevelDB:
		store, err = NewLevelDBStore(cfg.LevelDBOptions)
	case dbconfig.InMemoryDB, "":
		store = NewMemoryStore()
	case dbconfig.BoltDB:
		store, err = NewBoltDBStore(cfg.BoltDBOptions)
	default:
		return nil, fmt.Errorf("unknown storage: %s", cfg.Type)
	}
	return store, err
}
