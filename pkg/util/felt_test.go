package util

import (
	"encoding/json"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeltDecodeString(t *testing.T) {
	t.Run("short", func(t *testing.T) {
		f, err := FeltDecodeString("0x2a")
		require.NoError(t, err)
		assert.Equal(t, byte(0x2a), f[FeltSize-1])
		assert.Equal(t, FeltFromUint64(42), f)
	})
	t.Run("odd length", func(t *testing.T) {
		f, err := FeltDecodeString("0x123")
		require.NoError(t, err)
		assert.Equal(t, FeltFromUint64(0x123), f)
	})
	t.Run("no prefix", func(t *testing.T) {
		f, err := FeltDecodeString("ff")
		require.NoError(t, err)
		assert.Equal(t, FeltFromUint64(0xff), f)
	})
	t.Run("full", func(t *testing.T) {
		s := "0x03d937c035c878245caf64531a5756109c53068da139362728feb561405371cb"
		f, err := FeltDecodeString(s)
		require.NoError(t, err)
		assert.Equal(t, s, f.String())
	})
	t.Run("empty", func(t *testing.T) {
		_, err := FeltDecodeString("0x")
		require.Error(t, err)
	})
	t.Run("too long", func(t *testing.T) {
		_, err := FeltDecodeString("0x1" + "0000000000000000000000000000000000000000000000000000000000000000")
		require.Error(t, err)
	})
	t.Run("bad hex", func(t *testing.T) {
		_, err := FeltDecodeString("0xzz")
		require.Error(t, err)
	})
	t.Run("modulus", func(t *testing.T) {
		_, err := FeltDecodeString("0x" + fp.Modulus().Text(16))
		require.Error(t, err)
	})
}

func TestFeltDecodeBytesBE(t *testing.T) {
	_, err := FeltDecodeBytesBE([]byte{1, 2, 3})
	require.Error(t, err)

	b := make([]byte, FeltSize)
	b[FeltSize-1] = 7
	f, err := FeltDecodeBytesBE(b)
	require.NoError(t, err)
	assert.Equal(t, FeltFromUint64(7), f)
	assert.Equal(t, b, f.BytesBE())
}

func TestFeltConversions(t *testing.T) {
	f := FeltFromUint64(0x1234)
	e := f.Element()
	assert.Equal(t, "1234", e.Text(16))
	assert.Equal(t, f, FeltFromElement(&e))
	assert.Equal(t, uint64(0x1234), f.Uint256().Uint64())
	assert.Equal(t, f, FeltFromUint256(f.Uint256()))
	assert.Equal(t, "0x1234", f.StringShort())
	assert.Equal(t, "0x0", Felt{}.StringShort())
}

func TestFeltCompare(t *testing.T) {
	a, b := FeltFromUint64(1), FeltFromUint64(2)
	assert.True(t, Felt{}.IsZero())
	assert.False(t, a.IsZero())
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.True(t, a.Equals(FeltFromUint64(1)))
}

func TestFeltMarshalJSON(t *testing.T) {
	f := FeltFromUint64(42)
	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Equal(t, `"0x000000000000000000000000000000000000000000000000000000000000002a"`, string(data))

	var actual Felt
	require.NoError(t, json.Unmarshal([]byte(`"0x2a"`), &actual))
	assert.Equal(t, f, actual)

	require.Error(t, json.Unmarshal([]byte(`42`), &actual))
}
