/*
Package accumulator keeps the latest known value of every key per namespace
(contract) while state diffs are being merged in block order.
*/
package accumulator

import (
	"sort"
	"sync"

	"github.com/nspcc-dev/starkroot/pkg/util"
)

// KeyValue is a single storage entry.
type KeyValue struct {
	Key   util.Felt `json:"key"`
	Value util.Felt `json:"value"`
}

type namespace struct {
	lock sync.RWMutex
	kv   map[util.Felt]util.Felt
}

// Store accumulates key-value pairs per namespace, later writes win. Every
// namespace has its own lock so merging diffs for different namespaces
// doesn't contend.
type Store struct {
	lock sync.RWMutex
	nss  map[util.Felt]*namespace
}

// New returns an empty Store.
func New() *Store {
	return &Store{nss: make(map[util.Felt]*namespace)}
}

func (s *Store) get(ns util.Felt, create bool) *namespace {
	s.lock.RLock()
	n := s.nss[ns]
	s.lock.RUnlock()
	if n != nil || !create {
		return n
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if n = s.nss[ns]; n == nil {
		n = &namespace{kv: make(map[util.Felt]util.Felt)}
		s.nss[ns] = n
	}
	return n
}

// Extend merges pairs into the namespace, pairs are applied in order so the
// last one wins for duplicate keys.
func (s *Store) Extend(ns util.Felt, pairs []KeyValue) {
	n := s.get(ns, true)
	n.lock.Lock()
	for _, p := range pairs {
		n.kv[p.Key] = p.Value
	}
	n.lock.Unlock()
}

// Snapshot returns all pairs of the namespace sorted by key.
func (s *Store) Snapshot(ns util.Felt) []KeyValue {
	n := s.get(ns, false)
	if n == nil {
		return nil
	}
	n.lock.RLock()
	res := make([]KeyValue, 0, len(n.kv))
	for k, v := range n.kv {
		res = append(res, KeyValue{Key: k, Value: v})
	}
	n.lock.RUnlock()
	sort.Slice(res, func(i, j int) bool {
		return res[i].Key.Compare(res[j].Key) < 0
	})
	return res
}

// Get returns the current value of the key in the namespace.
func (s *Store) Get(ns util.Felt, key util.Felt) (util.Felt, bool) {
	n := s.get(ns, false)
	if n == nil {
		return util.Felt{}, false
	}
	n.lock.RLock()
	defer n.lock.RUnlock()
	v, ok := n.kv[key]
	return v, ok
}

// Len returns the number of keys in the namespace.
func (s *Store) Len(ns util.Felt) int {
	n := s.get(ns, false)
	if n == nil {
		return 0
	}
	n.lock.RLock()
	defer n.lock.RUnlock()
	return len(n.kv)
}

// Namespaces returns all known namespaces in ascending order.
func (s *Store) Namespaces() []util.Felt {
	s.lock.RLock()
	res := make([]util.Felt, 0, len(s.nss))
	for ns := range s.nss {
		res = append(res, ns)
	}
	s.lock.RUnlock()
	sort.Slice(res, func(i, j int) bool {
		return res[i].Compare(res[j]) < 0
	})
	return res
}
