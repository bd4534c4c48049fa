package util

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/holiman/uint256"
)

// FeltSize is the size of Felt in bytes.
const FeltSize = fp.Bytes

// Felt is an element of the Stark prime field stored as a 32 byte big-endian
// integer. Values obtained via the constructors are always canonical (less
// than the field modulus).
type Felt [FeltSize]byte

// FeltDecodeString decodes a hex string (with or without 0x prefix, any
// number of leading zeroes up to 64 digits) into a Felt.
func FeltDecodeString(s string) (Felt, error) {
	var f Felt

	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) == 0 {
		return f, fmt.Errorf("empty felt string")
	}
	if len(s) > FeltSize*2 {
		return f, fmt.Errorf("felt string is too long: %d digits", len(s))
	}
	if len(s)%2 != 0 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return f, err
	}
	copy(f[FeltSize-len(b):], b)
	return f, f.check()
}

// FeltDecodeBytesBE decodes a 32 byte big-endian slice into a Felt.
func FeltDecodeBytesBE(b []byte) (Felt, error) {
	var f Felt
	if len(b) != FeltSize {
		return f, fmt.Errorf("expected []byte of size %d got %d", FeltSize, len(b))
	}
	copy(f[:], b)
	return f, f.check()
}

// FeltFromUint64 returns a Felt holding v.
func FeltFromUint64(v uint64) Felt {
	var e fp.Element
	e.SetUint64(v)
	return FeltFromElement(&e)
}

// FeltFromElement converts a field element to Felt.
func FeltFromElement(e *fp.Element) Felt {
	return Felt(e.Bytes())
}

// FeltFromUint256 converts u to Felt reducing it modulo the field prime.
func FeltFromUint256(u *uint256.Int) Felt {
	var (
		e fp.Element
		b = u.Bytes32()
	)
	e.SetBytes(b[:])
	return FeltFromElement(&e)
}

func (f *Felt) check() error {
	if _, err := fp.BigEndian.Element((*[FeltSize]byte)(f)); err != nil {
		return fmt.Errorf("felt %s exceeds field modulus", f.String())
	}
	return nil
}

// Element returns f as a field element. Non-canonical values are reduced.
func (f Felt) Element() fp.Element {
	var e fp.Element
	e.SetBytes(f[:])
	return e
}

// Uint256 returns f as a 256-bit unsigned integer.
func (f Felt) Uint256() *uint256.Int {
	return new(uint256.Int).SetBytes32(f[:])
}

// BytesBE returns a copy of the big-endian representation of f.
func (f Felt) BytesBE() []byte {
	b := make([]byte, FeltSize)
	copy(b, f[:])
	return b
}

// IsZero returns true if f is zero.
func (f Felt) IsZero() bool {
	return f == Felt{}
}

// Equals returns true if both Felt values are the same.
func (f Felt) Equals(other Felt) bool {
	return f == other
}

// Compare performs three-way comparison of two Felts.
func (f Felt) Compare(other Felt) int {
	return bytes.Compare(f[:], other[:])
}

// String implements the stringer interface, the result is 0x-prefixed and
// zero-padded to 64 hex digits.
func (f Felt) String() string {
	return "0x" + hex.EncodeToString(f[:])
}

// StringShort returns minimal 0x-prefixed hex representation of f.
func (f Felt) StringShort() string {
	s := strings.TrimLeft(hex.EncodeToString(f[:]), "0")
	if s == "" {
		s = "0"
	}
	return "0x" + s
}

// UnmarshalJSON implements the json unmarshaller interface.
func (f *Felt) UnmarshalJSON(data []byte) (err error) {
	var js string
	if err = json.Unmarshal(data, &js); err != nil {
		return err
	}
	*f, err = FeltDecodeString(js)
	return err
}

// MarshalJSON implements the json marshaller interface.
func (f Felt) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalYAML implements the YAML Unmarshaler interface.
func (f *Felt) UnmarshalYAML(unmarshal func(any) error) (err error) {
	var s string
	if err = unmarshal(&s); err != nil {
		return err
	}
	*f, err = FeltDecodeString(s)
	return err
}

// MarshalYAML implements the YAML Marshaler interface.
func (f Felt) MarshalYAML() (any, error) {
	return f.String(), nil
}
