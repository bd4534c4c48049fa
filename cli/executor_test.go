package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nspcc-dev/starkroot/cli/app"
	"github.com/nspcc-dev/starkroot/pkg/starkrpc"
	"github.com/nspcc-dev/starkroot/pkg/starkrpc/result"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

// executor represents context for a test instance.
// It can be safely used in multiple tests, but not in parallel.
type executor struct {
	// CLI is a cli application to test.
	CLI *cli.App
	// Out contains command output.
	Out *bytes.Buffer
	// Err contains command errors.
	Err *bytes.Buffer
}

func newExecutor(t *testing.T) *executor {
	e := &executor{
		CLI: app.New(),
		Out: bytes.NewBuffer(nil),
		Err: bytes.NewBuffer(nil),
	}
	e.CLI.Writer = e.Out
	e.CLI.ErrWriter = e.Err
	return e
}

func (e *executor) checkNextLine(t *testing.T, expected string) {
	line, err := e.Out.ReadString('\n')
	require.NoError(t, err)
	require.Regexp(t, expected, strings.TrimSuffix(line, "\n"))
}

func (e *executor) checkEOF(t *testing.T) {
	_, err := e.Out.ReadString('\n')
	require.ErrorIs(t, err, io.EOF)
}

// RunWithError runs command and checks that it fails with the given exit
// code.
func (e *executor) RunWithError(t *testing.T, code int, args ...string) error {
	err := e.run(args...)
	require.Error(t, err)
	var ec cli.ExitCoder
	require.ErrorAs(t, err, &ec)
	require.Equal(t, code, ec.ExitCode(), err.Error())
	return err
}

// Run runs command and checks that there were no errors.
func (e *executor) Run(t *testing.T, args ...string) {
	require.NoError(t, e.run(args...))
}

func (e *executor) run(args ...string) error {
	e.Out.Reset()
	e.Err.Reset()
	e.CLI.ExitErrHandler = func(*cli.Context, error) {}
	return e.CLI.Run(args)
}

// testNode is a minimal Starknet JSON-RPC node serving a fixed set of state
// updates.
type testNode struct {
	height  uint64
	updates map[uint64]result.StateUpdate
}

func (n *testNode) start(t *testing.T) string {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req starkrpc.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := starkrpc.Response{HeaderAndError: starkrpc.HeaderAndError{
			Header: starkrpc.Header{ID: json.RawMessage(fmt.Sprint(req.ID)), JSONRPC: starkrpc.JSONRPCVersion},
		}}
		var (
			res interface{}
			err error
		)
		switch req.Method {
		case "starknet_blockNumber":
			res = n.height
		case "starknet_getStateUpdate":
			var id starkrpc.BlockID
			data, _ := json.Marshal(req.Params[0])
			require.NoError(t, json.Unmarshal(data, &id))
			require.NotNil(t, id.Number)
			su, ok := n.updates[*id.Number]
			if !ok {
				su = result.StateUpdate{}
			}
			res = su
		default:
			resp.Error = starkrpc.ErrMethodNotFound
		}
		if res != nil {
			resp.Result, err = json.Marshal(res)
			require.NoError(t, err)
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func writeFile(t *testing.T, name, content string) string {
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}
