package mpt

import (
	"github.com/nspcc-dev/starkroot/pkg/util"
)

// BaseNode implements basic things every node needs like caching hash and
// storage index. It's a basic node building block intended to be included
// into all node types.
type BaseNode struct {
	hash      util.Felt
	hashValid bool

	index   uint64
	indexed bool
}

// getHash returns a hash of this BaseNode computing it if needed.
func (b *BaseNode) getHash(n Node) util.Felt {
	if !b.hashValid {
		b.hash = hashNode(n)
		b.hashValid = true
	}
	return b.hash
}

// setStored marks node as the one coming from the storage with the given
// index and hash.
func (b *BaseNode) setStored(idx uint64, h util.Felt) {
	b.hash = h
	b.hashValid = true
	b.index = idx
	b.indexed = true
}

// setIndex marks node as committed under the given index.
func (b *BaseNode) setIndex(idx uint64) {
	b.index = idx
	b.indexed = true
}

// Index returns the storage index of the node if it's committed.
func (b *BaseNode) Index() (uint64, bool) {
	return b.index, b.indexed
}

// invalidateCache sets all cache fields to invalid state.
func (b *BaseNode) invalidateCache() {
	b.hashValid = false
	b.indexed = false
}
