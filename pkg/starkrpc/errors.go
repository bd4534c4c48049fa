package starkrpc

import (
	"encoding/json"
	"fmt"
)

// Error represents JSON-RPC error. It implements error interface and can be
// compared with errors.Is, only codes are compared then.
type Error struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Standard JSON-RPC 2.0 and Starknet-specific error codes.
const (
	InternalServerErrorCode = -32603
	BadRequestCode          = -32600
	MethodNotFoundCode      = -32601
	InvalidParamsCode       = -32602

	ContractNotFoundCode = 20
	BlockNotFoundCode    = 24
)

var (
	// ErrMethodNotFound is returned by nodes that don't implement the method.
	ErrMethodNotFound = NewError(MethodNotFoundCode, "Method not found")
	// ErrInvalidParams is returned on malformed method parameters.
	ErrInvalidParams = NewError(InvalidParamsCode, "Invalid params")
	// ErrBlockNotFound is returned for unknown blocks.
	ErrBlockNotFound = NewError(BlockNotFoundCode, "Block not found")
	// ErrContractNotFound is returned for unknown contracts.
	ErrContractNotFound = NewError(ContractNotFoundCode, "Contract not found")
)

// NewError is an Error constructor.
func NewError(code int64, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Data) == 0 {
		return fmt.Sprintf("%s (%d)", e.Message, e.Code)
	}
	return fmt.Sprintf("%s (%d) - %s", e.Message, e.Code, string(e.Data))
}

// Is denotes whether the error matches the target one.
func (e *Error) Is(target error) bool {
	clTarget, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == clTarget.Code
}
