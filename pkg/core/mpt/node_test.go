package mpt

import (
	"testing"

	"github.com/nspcc-dev/starkroot/pkg/io"
	"github.com/stretchr/testify/require"
)

func TestStoredNodeSerializable(t *testing.T) {
	nodes := []StoredNode{
		{Type: BinaryT, Left: 1, Right: 0xfffffffffff},
		{Type: EdgeT, Child: 7, Path: mustPath(t, "0101")},
		{Type: LeafBinaryT},
		{Type: LeafEdgeT, Path: mustPath(t, "1")},
	}
	for _, n := range nodes {
		t.Run(n.Type.String(), func(t *testing.T) {
			var actual StoredNode
			r := io.NewBinReaderFromBuf(n.Bytes())
			actual.DecodeBinary(r)
			require.NoError(t, r.Err)
			require.Equal(t, n, actual)
		})
	}
}

func TestStoredNodeEncoding(t *testing.T) {
	require.Equal(t, []byte{byte(BinaryT), 1, 0xfd, 0x00, 0x01}, StoredNode{Type: BinaryT, Left: 1, Right: 0x100}.Bytes())
	require.Equal(t, []byte{byte(EdgeT), 7, 2, 0x40}, StoredNode{Type: EdgeT, Child: 7, Path: mustPath(t, "01")}.Bytes())
	require.Equal(t, []byte{byte(LeafBinaryT)}, StoredNode{Type: LeafBinaryT}.Bytes())
}

func TestStoredNodeDecodeInvalid(t *testing.T) {
	check := func(t *testing.T, data []byte) {
		var n StoredNode
		r := io.NewBinReaderFromBuf(data)
		n.DecodeBinary(r)
		require.Error(t, r.Err)
	}
	t.Run("bad type", func(t *testing.T) { check(t, []byte{byte(IndexT)}) })
	t.Run("empty edge", func(t *testing.T) { check(t, append([]byte{byte(EdgeT)}, make([]byte, 9)...)) })
	t.Run("empty leaf edge", func(t *testing.T) { check(t, []byte{byte(LeafEdgeT), 0}) })
	t.Run("truncated", func(t *testing.T) { check(t, []byte{byte(BinaryT), 1, 0xfd, 2}) })
	t.Run("empty", func(t *testing.T) { check(t, nil) })

	require.Panics(t, func() { _ = StoredNode{Type: IndexT}.Bytes() })
}

func TestNodeTypeString(t *testing.T) {
	require.Equal(t, "Binary", BinaryT.String())
	require.Equal(t, "LeafEdge", LeafEdgeT.String())
	require.Equal(t, "NodeType(9)", NodeType(9).String())
}

func TestChildString(t *testing.T) {
	require.Equal(t, "#5", IndexChild(5, felt(1)).String())
	require.Equal(t, felt(1).String(), HashChild(LeafBinaryT, felt(1)).String())
}
