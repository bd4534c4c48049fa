/*
Package stacktrie computes binary Merkle-Patricia trie roots from sorted
key-value sequences without building the trie or touching any storage. It
produces the same roots as mpt.Trie and serves as an independent check of it.
*/
package stacktrie

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nspcc-dev/starkroot/pkg/core/mpt"
	"github.com/nspcc-dev/starkroot/pkg/util"
)

var (
	// ErrOutOfOrder is returned when keys are not inserted in strictly
	// ascending order.
	ErrOutOfOrder = errors.New("stack trie: keys must be inserted in ascending order")
	// ErrFinalized is returned when Update is called after Hash.
	ErrFinalized = errors.New("stack trie: already finalized")
)

// Pair is a single trie entry.
type Pair struct {
	Key   mpt.BitPath
	Value util.Felt
}

// StackTrie accepts pairs in sorted key order and computes the root hash
// once all of them are added.
type StackTrie struct {
	depth     int
	pairs     []Pair
	finalized bool
	root      util.Felt
}

// New returns an empty StackTrie for keys of the given depth (mpt.MaxPathLen
// if zero).
func New(depth int) *StackTrie {
	if depth <= 0 || depth > mpt.MaxPathLen {
		depth = mpt.MaxPathLen
	}
	return &StackTrie{depth: depth}
}

// Update adds a pair, keys must be strictly ascending.
func (st *StackTrie) Update(key mpt.BitPath, value util.Felt) error {
	if st.finalized {
		return ErrFinalized
	}
	if key.Len() != st.depth {
		return fmt.Errorf("%w: %d bits, expected %d", mpt.ErrInvalidKeyLength, key.Len(), st.depth)
	}
	if n := len(st.pairs); n > 0 && !less(st.pairs[n-1].Key, key) {
		return ErrOutOfOrder
	}
	st.pairs = append(st.pairs, Pair{Key: key, Value: value})
	return nil
}

// Len returns the number of pairs added.
func (st *StackTrie) Len() int {
	return len(st.pairs)
}

// Hash finalizes the trie and returns its root, zero for an empty trie.
func (st *StackTrie) Hash() util.Felt {
	if !st.finalized {
		if len(st.pairs) != 0 {
			st.root = subtrie(st.pairs, 0)
		}
		st.pairs = nil
		st.finalized = true
	}
	return st.root
}

// Root computes the root of an arbitrary ordered set of pairs, later pairs
// win for duplicate keys.
func Root(pairs []Pair, depth int) (util.Felt, error) {
	sorted := make([]Pair, len(pairs))
	copy(sorted, pairs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i].Key, sorted[j].Key)
	})

	st := New(depth)
	for i := range sorted {
		if i+1 < len(sorted) && sorted[i+1].Key == sorted[i].Key {
			continue
		}
		if err := st.Update(sorted[i].Key, sorted[i].Value); err != nil {
			return util.Felt{}, err
		}
	}
	return st.Hash(), nil
}

func less(a, b mpt.BitPath) bool {
	n := a.CommonPrefixLen(b)
	return n < a.Len() && n < b.Len() && a.Bit(n) < b.Bit(n)
}

// subtrie returns the hash of the node at pos covering all pairs given, they
// all share first pos bits.
func subtrie(pairs []Pair, pos int) util.Felt {
	first := pairs[0].Key
	if len(pairs) == 1 {
		rest := first.Suffix(pos)
		if rest.IsEmpty() {
			return mpt.LeafBinaryHash(pairs[0].Value)
		}
		return mpt.LeafEdgeHash(pairs[0].Value, rest)
	}
	last := pairs[len(pairs)-1].Key
	common := first.Suffix(pos).CommonPrefixLen(last.Suffix(pos))
	split := pos + common
	i := sort.Search(len(pairs), func(i int) bool {
		return pairs[i].Key.Bit(split) == 1
	})
	b := mpt.BinaryHash(subtrie(pairs[:i], split+1), subtrie(pairs[i:], split+1))
	if common == 0 {
		return b
	}
	return mpt.EdgeHash(b, first.Slice(pos, split))
}
