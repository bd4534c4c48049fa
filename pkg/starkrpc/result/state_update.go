/*
Package result contains result types of Starknet JSON-RPC methods.
*/
package result

import (
	"github.com/nspcc-dev/starkroot/pkg/util"
)

type (
	// StateUpdate is a result of starknet_getStateUpdate call. Only the parts
	// relevant for storage trie verification are decoded.
	StateUpdate struct {
		BlockHash util.Felt `json:"block_hash"`
		NewRoot   util.Felt `json:"new_root"`
		OldRoot   util.Felt `json:"old_root"`
		StateDiff StateDiff `json:"state_diff"`
	}

	// StateDiff is a set of state changes made by a block.
	StateDiff struct {
		StorageDiffs []ContractStorageDiff `json:"storage_diffs"`
	}

	// ContractStorageDiff lists storage changes of a single contract.
	ContractStorageDiff struct {
		Address        util.Felt      `json:"address"`
		StorageEntries []StorageEntry `json:"storage_entries"`
	}

	// StorageEntry is a single storage slot write.
	StorageEntry struct {
		Key   util.Felt `json:"key"`
		Value util.Felt `json:"value"`
	}
)

// StorageDiff returns storage entries written to the given contract by the
// block, entries of repeated diffs are concatenated in order. Nil is returned
// if the contract is not touched.
func (s *StateUpdate) StorageDiff(addr util.Felt) []StorageEntry {
	var res []StorageEntry
	for i := range s.StateDiff.StorageDiffs {
		if s.StateDiff.StorageDiffs[i].Address.Equals(addr) {
			res = append(res, s.StateDiff.StorageDiffs[i].StorageEntries...)
		}
	}
	return res
}
