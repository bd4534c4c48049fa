package verifier

import (
	"fmt"

	"github.com/nspcc-dev/starkroot/pkg/core/accumulator"
	"github.com/nspcc-dev/starkroot/pkg/core/mpt"
	"github.com/nspcc-dev/starkroot/pkg/core/storage"
	"github.com/nspcc-dev/starkroot/pkg/util"
)

// ComputeRoot computes the storage root of the given pairs (later pairs win
// for duplicate keys) with every engine and returns it if all of them agree.
func ComputeRoot(kvs []accumulator.KeyValue, engines []string, truncate bool) (util.Felt, error) {
	if len(engines) == 0 {
		return util.Felt{}, fmt.Errorf("no engines specified")
	}
	var (
		acc   = accumulator.New()
		enc   = mpt.PathEncoder{Truncate: truncate}
		ns    util.Felt
		root  util.Felt
		first string
	)
	acc.Extend(ns, kvs)
	snapshot := acc.Snapshot(ns)
	for i, name := range engines {
		e, err := newEngine(name, enc, storage.NewMemoryStore())
		if err != nil {
			return util.Felt{}, err
		}
		r, err := e.Root(ns, snapshot, snapshot)
		if err != nil {
			return util.Felt{}, fmt.Errorf("%s engine: %w", name, err)
		}
		if i == 0 {
			root, first = r, name
			continue
		}
		if !r.Equals(root) {
			return util.Felt{}, fmt.Errorf("%w: %s %s, %s %s", ErrRootMismatch, first, root, name, r)
		}
	}
	return root, nil
}
