package mpt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/starkroot/pkg/io"
	"github.com/nspcc-dev/starkroot/pkg/util"
)

const (
	// KeyBits is the width of keys accepted by PathEncoder.
	KeyBits = 256
	// DroppedBits is the number of high-order key bits not used for routing.
	DroppedBits = 5
	// MaxPathLen is the trie depth, every key path is exactly that long.
	MaxPathLen = KeyBits - DroppedBits

	bitPathBytes = (MaxPathLen + 7) / 8
)

// BitPath is an immutable sequence of up to MaxPathLen bits stored MSB-first.
// Bits past the length are always zero, so BitPath values can be compared
// with == and used as map keys.
type BitPath struct {
	bits [bitPathBytes]byte
	len  uint8
}

// NewBitPath creates a path of n bits taken from the left-aligned b.
func NewBitPath(b []byte, n int) BitPath {
	if n < 0 || n > MaxPathLen || n > len(b)*8 {
		panic(fmt.Sprintf("invalid bit path length %d", n))
	}
	var p = BitPath{len: uint8(n)}
	copy(p.bits[:], b[:(n+7)/8])
	p.clearTail()
	return p
}

// BitPathFromString parses a string of '0' and '1' characters.
func BitPathFromString(s string) (BitPath, error) {
	var p BitPath
	if len(s) > MaxPathLen {
		return p, fmt.Errorf("%w: %d bits", ErrInvalidKeyLength, len(s))
	}
	for i, c := range s {
		switch c {
		case '0':
		case '1':
			p.bits[i/8] |= 0x80 >> (i % 8)
		default:
			return p, fmt.Errorf("invalid bit %q at %d", c, i)
		}
	}
	p.len = uint8(len(s))
	return p, nil
}

func (p *BitPath) clearTail() {
	n := int(p.len)
	if n%8 != 0 {
		p.bits[n/8] &= 0xff << (8 - n%8)
		n += 8 - n%8
	}
	for i := n / 8; i < bitPathBytes; i++ {
		p.bits[i] = 0
	}
}

// Len returns the number of bits in p.
func (p BitPath) Len() int {
	return int(p.len)
}

// IsEmpty returns true if p has no bits.
func (p BitPath) IsEmpty() bool {
	return p.len == 0
}

// Bit returns i-th bit of p (0 or 1).
func (p BitPath) Bit(i int) byte {
	if i < 0 || i >= int(p.len) {
		panic(fmt.Sprintf("bit index %d out of range [0, %d)", i, p.len))
	}
	return (p.bits[i/8] >> (7 - i%8)) & 1
}

// Slice returns bits of p in [from, to) range.
func (p BitPath) Slice(from, to int) BitPath {
	if from < 0 || to > int(p.len) || from > to {
		panic(fmt.Sprintf("invalid slice [%d:%d] of %d bits", from, to, p.len))
	}
	var r = BitPath{len: uint8(to - from)}
	if from%8 == 0 {
		copy(r.bits[:], p.bits[from/8:])
	} else {
		shift := uint(from % 8)
		for i, j := 0, from/8; j < bitPathBytes; i, j = i+1, j+1 {
			r.bits[i] = p.bits[j] << shift
			if j+1 < bitPathBytes {
				r.bits[i] |= p.bits[j+1] >> (8 - shift)
			}
		}
	}
	r.clearTail()
	return r
}

// Suffix returns bits of p starting from the given position.
func (p BitPath) Suffix(from int) BitPath {
	return p.Slice(from, int(p.len))
}

// Append returns a concatenation of p and q.
func (p BitPath) Append(q BitPath) BitPath {
	if int(p.len)+int(q.len) > MaxPathLen {
		panic(fmt.Sprintf("bit path overflow: %d + %d", p.len, q.len))
	}
	var r = p
	for i := 0; i < int(q.len); i++ {
		r = r.AppendBit(q.Bit(i))
	}
	return r
}

// AppendBit returns p with a single bit appended.
func (p BitPath) AppendBit(b byte) BitPath {
	if int(p.len) >= MaxPathLen {
		panic("bit path overflow")
	}
	if b != 0 {
		p.bits[p.len/8] |= 0x80 >> (p.len % 8)
	}
	p.len++
	return p
}

// CommonPrefixLen returns the length of the longest common prefix of p and q.
func (p BitPath) CommonPrefixLen(q BitPath) int {
	n := int(p.len)
	if int(q.len) < n {
		n = int(q.len)
	}
	for i := 0; i < n; i += 8 {
		x := p.bits[i/8] ^ q.bits[i/8]
		if x == 0 {
			continue
		}
		for j := 0; j < 8; j++ {
			if x&(0x80>>j) != 0 {
				if i+j < n {
					return i + j
				}
				return n
			}
		}
	}
	return n
}

// Uint256 returns p bits as a big-endian unsigned integer.
func (p BitPath) Uint256() *uint256.Int {
	var b [32]byte
	copy(b[:], p.bits[:])
	u := new(uint256.Int).SetBytes32(b[:])
	return u.Rsh(u, uint(KeyBits-int(p.len)))
}

// Felt returns p bits as a big-endian field element. Paths are never longer
// than MaxPathLen bits, so the value is always canonical.
func (p BitPath) Felt() util.Felt {
	return util.FeltFromUint256(p.Uint256())
}

// Bytes returns a compact unambiguous representation of p which is suitable
// for use as a DB key.
func (p BitPath) Bytes() []byte {
	n := (int(p.len) + 7) / 8
	b := make([]byte, 1+n)
	b[0] = p.len
	copy(b[1:], p.bits[:n])
	return b
}

// String returns p as a string of 0 and 1.
func (p BitPath) String() string {
	var sb strings.Builder
	sb.Grow(int(p.len))
	for i := 0; i < int(p.len); i++ {
		sb.WriteByte('0' + p.Bit(i))
	}
	return sb.String()
}

// EncodeBinary implements io.Serializable.
func (p BitPath) EncodeBinary(w *io.BinWriter) {
	w.WriteB(p.len)
	w.WriteBytes(p.bits[:(int(p.len)+7)/8])
}

// DecodeBinary implements io.Serializable.
func (p *BitPath) DecodeBinary(r *io.BinReader) {
	n := r.ReadB()
	if r.Err != nil {
		return
	}
	if n > MaxPathLen {
		r.Err = fmt.Errorf("%w: %d bits", ErrInvalidKeyLength, n)
		return
	}
	var np = BitPath{len: n}
	r.ReadBytes(np.bits[:(int(n)+7)/8])
	if r.Err != nil {
		return
	}
	var raw = np.bits
	np.clearTail()
	if raw != np.bits {
		r.Err = errors.New("non-zero bits past bit path end")
		return
	}
	*p = np
}

// PathEncoder converts fixed width keys into trie paths by dropping
// DroppedBits high-order bits.
type PathEncoder struct {
	// Truncate makes Encode silently discard non-zero dropped bits instead
	// of failing with ErrInvalidKey.
	Truncate bool
}

// Encode converts a 256-bit key into a MaxPathLen-bit path.
func (e PathEncoder) Encode(key *uint256.Int) (BitPath, error) {
	if !e.Truncate && key.BitLen() > MaxPathLen {
		return BitPath{}, fmt.Errorf("%w: %s", ErrInvalidKey, key.Hex())
	}
	shifted := new(uint256.Int).Lsh(key, DroppedBits)
	b := shifted.Bytes32()
	return NewBitPath(b[:], MaxPathLen), nil
}

// EncodeBytes converts a 32-byte big-endian key into a path.
func (e PathEncoder) EncodeBytes(key []byte) (BitPath, error) {
	if len(key) != KeyBits/8 {
		return BitPath{}, fmt.Errorf("%w: %d bytes", ErrInvalidKeyLength, len(key))
	}
	return e.Encode(new(uint256.Int).SetBytes32(key))
}

// EncodeFelt converts a field element key into a path.
func (e PathEncoder) EncodeFelt(key util.Felt) (BitPath, error) {
	return e.Encode(key.Uint256())
}
