package hash

import (
	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	pedersenhash "github.com/consensys/gnark-crypto/ecc/stark-curve/pedersen-hash"
	"github.com/nspcc-dev/starkroot/pkg/util"
)

// Pedersen computes the Starknet Pedersen hash of two field elements.
func Pedersen(a, b util.Felt) util.Felt {
	ea, eb := a.Element(), b.Element()
	res := pedersenhash.Pedersen(&ea, &eb)
	return util.FeltFromElement(&res)
}

// PedersenArray hashes a sequence of elements the way Starknet does it for
// arrays: elements are folded left starting from zero and the length is
// hashed in last.
func PedersenArray(elems ...util.Felt) util.Felt {
	es := make([]*fp.Element, len(elems))
	for i := range elems {
		e := elems[i].Element()
		es[i] = &e
	}
	res := pedersenhash.PedersenArray(es...)
	return util.FeltFromElement(&res)
}

// PedersenWithLength returns Pedersen(a, b) + n, it's the common digest
// shape for compressed paths in Starknet tries.
func PedersenWithLength(a, b util.Felt, n uint64) util.Felt {
	ea, eb := a.Element(), b.Element()
	res := pedersenhash.Pedersen(&ea, &eb)

	var l fp.Element
	l.SetUint64(n)
	res.Add(&res, &l)
	return util.FeltFromElement(&res)
}
