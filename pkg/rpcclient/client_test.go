package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/nspcc-dev/starkroot/pkg/starkrpc"
	"github.com/nspcc-dev/starkroot/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestGetEndpoint(t *testing.T) {
	host := "http://localhost:1234"
	u, err := url.Parse(host)
	require.NoError(t, err)
	client := Client{
		endpoint: u,
	}
	require.Equal(t, host, client.Endpoint())
}

func TestNewBadEndpoint(t *testing.T) {
	_, err := New("ws://localhost:1234", Options{})
	require.Error(t, err)
	_, err = New(":bad", Options{})
	require.Error(t, err)
}

type rpcHandler func(req starkrpc.Request) string

func initTestServer(t *testing.T, h rpcHandler) *Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req starkrpc.Request
		require.NoError(t, json.Unmarshal(data, &req))
		require.Equal(t, starkrpc.JSONRPCVersion, req.JSONRPC)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(h(req)))
	}))
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, Options{})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestGetStateUpdate(t *testing.T) {
	c := initTestServer(t, func(req starkrpc.Request) string {
		require.Equal(t, "starknet_getStateUpdate", req.Method)
		require.Len(t, req.Params, 1)
		require.Equal(t, map[string]interface{}{"block_number": float64(5)}, req.Params[0])
		return `{"jsonrpc":"2.0","id":1,"result":{"block_hash":"0x5","new_root":"0x6","old_root":"0x7",
			"state_diff":{"storage_diffs":[{"address":"0x1","storage_entries":[{"key":"0x2","value":"0x3"}]}]}}}`
	})
	su, err := c.GetStateUpdate(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, util.FeltFromUint64(6), su.NewRoot)
	entries := su.StorageDiff(util.FeltFromUint64(1))
	require.Len(t, entries, 1)
	require.Equal(t, util.FeltFromUint64(3), entries[0].Value)
}

func TestRequestErrors(t *testing.T) {
	t.Run("rpc error", func(t *testing.T) {
		c := initTestServer(t, func(req starkrpc.Request) string {
			return `{"jsonrpc":"2.0","id":1,"error":{"code":24,"message":"Block not found"}}`
		})
		_, err := c.GetStateUpdate(context.Background(), 1)
		require.ErrorIs(t, err, starkrpc.ErrBlockNotFound)
	})
	t.Run("no result", func(t *testing.T) {
		c := initTestServer(t, func(req starkrpc.Request) string {
			return `{"jsonrpc":"2.0","id":1}`
		})
		_, err := c.BlockNumber(context.Background())
		require.Error(t, err)
	})
	t.Run("http status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()
		c, err := New(srv.URL, Options{})
		require.NoError(t, err)
		_, err = c.BlockNumber(context.Background())
		require.EqualError(t, err, "HTTP 502/Bad Gateway")
	})
	t.Run("canceled", func(t *testing.T) {
		c := initTestServer(t, func(req starkrpc.Request) string {
			return `{"jsonrpc":"2.0","id":1,"result":1}`
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.BlockNumber(ctx)
		require.True(t, errors.Is(err, context.Canceled))
	})
}

func TestBlockNumberAndChainID(t *testing.T) {
	c := initTestServer(t, func(req starkrpc.Request) string {
		switch req.Method {
		case "starknet_blockNumber":
			return `{"jsonrpc":"2.0","id":1,"result":123}`
		case "starknet_chainId":
			return `{"jsonrpc":"2.0","id":2,"result":"0x534e5f4d41494e"}`
		}
		return `{"jsonrpc":"2.0","id":3,"error":{"code":-32601,"message":"Method not found"}}`
	})
	n, err := c.BlockNumber(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 123, n)

	id, err := c.ChainID(context.Background())
	require.NoError(t, err)
	require.Equal(t, "0x534e5f4d41494e", id.StringShort())
}

func TestGetStorageAt(t *testing.T) {
	c := initTestServer(t, func(req starkrpc.Request) string {
		require.Equal(t, "starknet_getStorageAt", req.Method)
		require.Len(t, req.Params, 3)
		return `{"jsonrpc":"2.0","id":1,"result":"0x2a"}`
	})
	v, err := c.GetStorageAt(context.Background(), util.FeltFromUint64(1), util.FeltFromUint64(2), 10)
	require.NoError(t, err)
	require.Equal(t, util.FeltFromUint64(0x2a), v)
}

func TestRequestIDs(t *testing.T) {
	var ids []uint64
	c := initTestServer(t, func(req starkrpc.Request) string {
		ids = append(ids, req.ID)
		return `{"jsonrpc":"2.0","id":1,"result":1}`
	})
	for i := 0; i < 3; i++ {
		_, err := c.BlockNumber(context.Background())
		require.NoError(t, err)
	}
	require.Equal(t, []uint64{1, 2, 3}, ids)
}

func TestRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()
	c, err := New(srv.URL, Options{RequestTimeout: 50 * time.Millisecond})
	require.NoError(t, err)
	_, err = c.BlockNumber(context.Background())
	require.Error(t, err)
}
