/*
Package mpt implements a binary Merkle-Patricia trie with path compression
over 251-bit keys hashed with the Starknet Pedersen hash.

Tries are insert-only. Changes are kept in memory until Commit which
hashes new nodes, assigns them sequential storage indices (reusing the ones
of already stored equal nodes) and persists them via StoredTrie.
*/
package mpt
