package mpt

import (
	"sort"

	"github.com/nspcc-dev/starkroot/pkg/util"
)

// Batch is a batch of trie updates.
type Batch struct {
	kv []keyValue
}

type keyValue struct {
	key   BitPath
	value util.Felt
}

// MapToBatch creates a batch from the given key-value map, keys are sorted
// for the trie to be traversed in order.
func MapToBatch(m map[BitPath]util.Felt) Batch {
	var b Batch
	for k, v := range m {
		b.Add(k, v)
	}
	b.Sort()
	return b
}

// Add adds a key-value pair to the batch.
func (b *Batch) Add(key BitPath, value util.Felt) {
	b.kv = append(b.kv, keyValue{key: key, value: value})
}

// Len returns the number of pairs in the batch.
func (b *Batch) Len() int {
	return len(b.kv)
}

// Sort sorts the batch by key, relative order of equal keys is preserved so
// later puts still win.
func (b *Batch) Sort() {
	sort.SliceStable(b.kv, func(i, j int) bool {
		return b.kv[i].key.Uint256().Lt(b.kv[j].key.Uint256())
	})
}

// PutBatch puts a batch to a trie. It is not atomic and returns the number
// of elements processed. If an error is returned, the trie may be in the
// inconsistent state in case of storage failures.
func (t *Trie) PutBatch(b Batch) (int, error) {
	for i := range b.kv {
		if err := t.Put(b.kv[i].key, b.kv[i].value); err != nil {
			return i, err
		}
	}
	return len(b.kv), nil
}
