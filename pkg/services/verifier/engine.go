package verifier

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nspcc-dev/starkroot/pkg/config"
	"github.com/nspcc-dev/starkroot/pkg/core/accumulator"
	"github.com/nspcc-dev/starkroot/pkg/core/mpt"
	"github.com/nspcc-dev/starkroot/pkg/core/stacktrie"
	"github.com/nspcc-dev/starkroot/pkg/core/storage"
	"github.com/nspcc-dev/starkroot/pkg/util"
)

// engine computes contract storage roots. Root is called after the block
// diff is merged into the accumulated snapshot, every engine instance is
// called for the given contract from one goroutine at a time.
type engine interface {
	Name() string
	Root(contract util.Felt, snapshot, diff []accumulator.KeyValue) (util.Felt, error)
}

// checker is implemented by engines keeping persistent state which can be
// verified after the run.
type checker interface {
	check() error
}

func newEngine(name string, enc mpt.PathEncoder, store storage.Store) (engine, error) {
	switch name {
	case config.EngineTrie:
		return &trieEngine{enc: enc}, nil
	case config.EngineIncremental:
		if store == nil {
			return nil, errors.New("incremental engine needs a store")
		}
		return &incrementalEngine{
			enc:   enc,
			store: store,
			tries: make(map[util.Felt]*contractTrie),
		}, nil
	case config.EngineStack:
		return &stackEngine{enc: enc}, nil
	default:
		return nil, fmt.Errorf("unknown engine %q", name)
	}
}

// toPairs converts storage entries into trie pairs. Zero values mean empty
// slots, they're not a part of the trie.
func toPairs(enc mpt.PathEncoder, kvs []accumulator.KeyValue) ([]stacktrie.Pair, error) {
	res := make([]stacktrie.Pair, 0, len(kvs))
	for _, kv := range kvs {
		if kv.Value.IsZero() {
			continue
		}
		p, err := enc.EncodeFelt(kv.Key)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", kv.Key.StringShort(), err)
		}
		res = append(res, stacktrie.Pair{Key: p, Value: kv.Value})
	}
	return res, nil
}

// trieEngine builds a new trie over a scratch in-memory store every time.
type trieEngine struct {
	enc mpt.PathEncoder
}

func (e *trieEngine) Name() string { return config.EngineTrie }

func (e *trieEngine) Root(_ util.Felt, snapshot, _ []accumulator.KeyValue) (util.Felt, error) {
	pairs, err := toPairs(e.enc, snapshot)
	if err != nil {
		return util.Felt{}, err
	}
	st, err := mpt.NewStoredTrie(storage.NewMemoryStore(), nil, 0)
	if err != nil {
		return util.Felt{}, err
	}
	var b mpt.Batch
	for _, p := range pairs {
		b.Add(p.Key, p.Value)
	}
	tr := mpt.NewTrie(nil, mpt.Config{Store: st})
	if _, err = tr.PutBatch(b); err != nil {
		return util.Felt{}, err
	}
	root, _, err := tr.Commit()
	return root, err
}

// stackEngine computes roots without any trie or storage.
type stackEngine struct {
	enc mpt.PathEncoder
}

func (e *stackEngine) Name() string { return config.EngineStack }

func (e *stackEngine) Root(_ util.Felt, snapshot, _ []accumulator.KeyValue) (util.Felt, error) {
	pairs, err := toPairs(e.enc, snapshot)
	if err != nil {
		return util.Felt{}, err
	}
	return stacktrie.Root(pairs, mpt.MaxPathLen)
}

// incrementalEngine keeps a stored trie per contract and applies only block
// diffs to it. Tries can't delete, so a diff clearing some existing slot
// makes the contract trie rebuilt from the snapshot.
type incrementalEngine struct {
	enc   mpt.PathEncoder
	store storage.Store

	lock  sync.Mutex
	tries map[util.Felt]*contractTrie
}

type contractTrie struct {
	st   *mpt.StoredTrie
	root uint64
}

func (e *incrementalEngine) Name() string { return config.EngineIncremental }

// check makes sure storage of every contract trie is consistent.
func (e *incrementalEngine) check() error {
	e.lock.Lock()
	defer e.lock.Unlock()
	for c, ct := range e.tries {
		if err := ct.st.Check(); err != nil {
			return fmt.Errorf("contract %s: %w", c.StringShort(), err)
		}
	}
	return nil
}

func (e *incrementalEngine) contract(c util.Felt) (*contractTrie, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	ct, ok := e.tries[c]
	if ok {
		return ct, nil
	}
	scope := c.BytesBE()
	st, err := mpt.NewStoredTrie(e.store, scope, 0)
	if err != nil {
		return nil, err
	}
	ct = &contractTrie{st: st, root: mpt.NoIndex}
	e.tries[c] = ct
	return ct, nil
}

func (e *incrementalEngine) Root(c util.Felt, snapshot, diff []accumulator.KeyValue) (util.Felt, error) {
	ct, err := e.contract(c)
	if err != nil {
		return util.Felt{}, err
	}
	tr, err := mpt.NewTrieFromIndex(ct.root, mpt.Config{Store: ct.st})
	if err != nil {
		return util.Felt{}, err
	}

	var rebuild bool
	for _, kv := range diff {
		p, err := e.enc.EncodeFelt(kv.Key)
		if err != nil {
			return util.Felt{}, fmt.Errorf("key %s: %w", kv.Key.StringShort(), err)
		}
		if !kv.Value.IsZero() {
			if err = tr.Put(p, kv.Value); err != nil {
				return util.Felt{}, err
			}
			continue
		}
		_, err = tr.Get(p)
		if err == nil {
			rebuild = true
			break
		}
		if !errors.Is(err, mpt.ErrNotFound) {
			return util.Felt{}, err
		}
	}
	if rebuild {
		pairs, err := toPairs(e.enc, snapshot)
		if err != nil {
			return util.Felt{}, err
		}
		tr = mpt.NewTrie(nil, mpt.Config{Store: ct.st})
		for _, p := range pairs {
			if err = tr.Put(p.Key, p.Value); err != nil {
				return util.Felt{}, err
			}
		}
	}

	root, idx, err := tr.Commit()
	if err != nil {
		return util.Felt{}, err
	}
	ct.root = idx
	return root, nil
}
