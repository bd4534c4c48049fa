/*
Package starkrpc contains a set of types used for JSON-RPC communication with
Starknet nodes. It defines basic request/response types, errors and the
block identifier parameter shared by most methods.
*/
package starkrpc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nspcc-dev/starkroot/pkg/util"
)

const (
	// JSONRPCVersion is the only JSON-RPC protocol version supported.
	JSONRPCVersion = "2.0"
)

type (
	// Request represents JSON-RPC request. Starknet nodes accept both
	// positional and named parameters, the client always uses positional ones.
	Request struct {
		// JSONRPC is the protocol version, only valid when it contains JSONRPCVersion.
		JSONRPC string `json:"jsonrpc"`
		// Method is the method being called.
		Method string `json:"method"`
		// Params is a set of method-specific positional parameters.
		Params []interface{} `json:"params"`
		// ID is an identifier associated with this request.
		ID uint64 `json:"id"`
	}

	// Header is a generic JSON-RPC 2.0 response header (ID and JSON-RPC version).
	Header struct {
		ID      json.RawMessage `json:"id"`
		JSONRPC string          `json:"jsonrpc"`
	}

	// HeaderAndError adds an Error (that can be empty) to the Header.
	HeaderAndError struct {
		Header
		Error *Error `json:"error,omitempty"`
	}

	// Response represents a standard raw JSON-RPC 2.0 response with the
	// result left undecoded.
	Response struct {
		HeaderAndError
		Result json.RawMessage `json:"result,omitempty"`
	}
)

// BlockTag is a symbolic block reference.
type BlockTag string

// Supported block tags.
const (
	LatestBlock  BlockTag = "latest"
	PendingBlock BlockTag = "pending"
)

// BlockID identifies a block by number, hash or tag. Exactly one of them
// must be set.
type BlockID struct {
	Number *uint64
	Hash   *util.Felt
	Tag    BlockTag
}

type blockIDAux struct {
	Number *uint64    `json:"block_number,omitempty"`
	Hash   *util.Felt `json:"block_hash,omitempty"`
}

// BlockNumber returns BlockID referring to the block with the given number.
func BlockNumber(n uint64) BlockID {
	return BlockID{Number: &n}
}

// BlockHash returns BlockID referring to the block with the given hash.
func BlockHash(h util.Felt) BlockID {
	return BlockID{Hash: &h}
}

// MarshalJSON implements the json.Marshaler interface.
func (b BlockID) MarshalJSON() ([]byte, error) {
	var set int
	if b.Number != nil {
		set++
	}
	if b.Hash != nil {
		set++
	}
	if b.Tag != "" {
		set++
	}
	if set != 1 {
		return nil, errors.New("block id must have exactly one of number, hash or tag")
	}
	if b.Tag != "" {
		return json.Marshal(string(b.Tag))
	}
	return json.Marshal(blockIDAux{Number: b.Number, Hash: b.Hash})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (b *BlockID) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		switch BlockTag(tag) {
		case LatestBlock, PendingBlock:
			*b = BlockID{Tag: BlockTag(tag)}
			return nil
		default:
			return fmt.Errorf("unknown block tag %q", tag)
		}
	}
	var aux blockIDAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if (aux.Number == nil) == (aux.Hash == nil) {
		return errors.New("block id must have exactly one of number or hash")
	}
	*b = BlockID{Number: aux.Number, Hash: aux.Hash}
	return nil
}

// String implements the fmt.Stringer interface.
func (b BlockID) String() string {
	switch {
	case b.Number != nil:
		return fmt.Sprintf("#%d", *b.Number)
	case b.Hash != nil:
		return b.Hash.StringShort()
	default:
		return string(b.Tag)
	}
}
