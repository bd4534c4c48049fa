package main

import (
	"fmt"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/nspcc-dev/starkroot/pkg/core/mpt"
	"github.com/nspcc-dev/starkroot/pkg/crypto/hash"
	"github.com/nspcc-dev/starkroot/pkg/starkrpc/result"
	"github.com/nspcc-dev/starkroot/pkg/util"
)

var (
	testContract  = util.FeltFromUint64(0xa)
	otherContract = util.FeltFromUint64(0xb)
)

func singleLeafRoot(key, value uint64) util.Felt {
	return hash.PedersenWithLength(util.FeltFromUint64(value), util.FeltFromUint64(key), mpt.MaxPathLen)
}

func newTestNode() *testNode {
	return &testNode{
		height: 3,
		updates: map[uint64]result.StateUpdate{
			1: {StateDiff: result.StateDiff{StorageDiffs: []result.ContractStorageDiff{{
				Address: testContract,
				StorageEntries: []result.StorageEntry{
					{Key: util.FeltFromUint64(1), Value: util.FeltFromUint64(0x2a)},
				},
			}}}},
		},
	}
}

func testConfigFile(t *testing.T, endpoint string) string {
	logPath := filepath.Join(t.TempDir(), "starkroot.log")
	return writeFile(t, "starkroot.yml", fmt.Sprintf(`ApplicationConfiguration:
  LogPath: %s
  LogLevel: debug
Verifier:
  RPCEndpoint: %s
  Contracts:
    - "0xa"
  RetryAttempts: 2
  RetryDelay: 1ms
`, logPath, endpoint))
}

func TestVerify(t *testing.T) {
	endpoint := newTestNode().start(t)
	cfgFile := testConfigFile(t, endpoint)
	e := newExecutor(t)

	t.Run("whole chain", func(t *testing.T) {
		e.Run(t, "starkroot", "verify", "--config-file", cfgFile)
		e.checkNextLine(t, "^"+regexp.QuoteMeta(fmt.Sprintf("%s: %s", testContract, singleLeafRoot(1, 0x2a)))+"$")
		e.checkEOF(t)
	})

	t.Run("contracts from flags", func(t *testing.T) {
		e.Run(t, "starkroot", "verify", "--config-file", cfgFile,
			"-c", testContract.StringShort(), "-c", otherContract.StringShort(), "--engines", "trie, stack")
		e.checkNextLine(t, regexp.QuoteMeta(singleLeafRoot(1, 0x2a).String()))
		e.checkNextLine(t, "^"+regexp.QuoteMeta(otherContract.String())+": no storage changes$")
		e.checkEOF(t)
	})

	t.Run("range before changes", func(t *testing.T) {
		e.Run(t, "starkroot", "verify", "--config-file", cfgFile, "--start", "0", "--end", "1")
		e.checkNextLine(t, "no storage changes")
		e.checkEOF(t)
	})

	t.Run("endpoint flag", func(t *testing.T) {
		e.Run(t, "starkroot", "verify", "--config-file", cfgFile, "-r", endpoint, "--start", "1", "--end", "2")
		e.checkNextLine(t, regexp.QuoteMeta(singleLeafRoot(1, 0x2a).String()))
	})
}

func TestVerifyErrors(t *testing.T) {
	endpoint := newTestNode().start(t)
	cfgFile := testConfigFile(t, endpoint)
	e := newExecutor(t)

	t.Run("missing config", func(t *testing.T) {
		e.RunWithError(t, 1, "starkroot", "verify", "--config-path", t.TempDir())
	})
	t.Run("bad contract", func(t *testing.T) {
		e.RunWithError(t, 1, "starkroot", "verify", "--config-file", cfgFile, "-c", "0xzz")
	})
	t.Run("bad engine", func(t *testing.T) {
		e.RunWithError(t, 1, "starkroot", "verify", "--config-file", cfgFile, "-e", "trie,magic")
	})
	t.Run("bad range", func(t *testing.T) {
		e.RunWithError(t, 1, "starkroot", "verify", "--config-file", cfgFile, "--start", "5", "--end", "2")
	})
	t.Run("start above height", func(t *testing.T) {
		e.RunWithError(t, 1, "starkroot", "verify", "--config-file", cfgFile, "--start", "10")
	})
	t.Run("extra arguments", func(t *testing.T) {
		e.RunWithError(t, 1, "starkroot", "verify", "--config-file", cfgFile, "something")
	})
	t.Run("node is down", func(t *testing.T) {
		e.RunWithError(t, 1, "starkroot", "verify", "--config-file", cfgFile, "-r", "http://127.0.0.1:1", "--end", "2")
	})
}

func TestRoot(t *testing.T) {
	e := newExecutor(t)

	t.Run("single leaf", func(t *testing.T) {
		in := writeFile(t, "pairs.json", `[{"key": "0x1", "value": "0x2a"}]`)
		e.Run(t, "starkroot", "root", "-i", in)
		e.checkNextLine(t, "^"+singleLeafRoot(1, 0x2a).String()+"$")
		e.checkEOF(t)
	})

	t.Run("empty", func(t *testing.T) {
		in := writeFile(t, "pairs.json", `[]`)
		e.Run(t, "starkroot", "root", "-i", in, "-e", "stack")
		e.checkNextLine(t, "^"+util.Felt{}.String()+"$")
	})

	t.Run("truncation", func(t *testing.T) {
		in := writeFile(t, "pairs.json", `[{"key": "0x0800000000000000000000000000000000000000000000000000000000000000", "value": "0x5"}]`)
		e.RunWithError(t, 1, "starkroot", "root", "-i", in)
		e.Run(t, "starkroot", "root", "-i", in, "--key-truncation")
		e.checkNextLine(t, "^"+singleLeafRoot(0, 5).String()+"$")
	})

	t.Run("errors", func(t *testing.T) {
		e.RunWithError(t, 1, "starkroot", "root")
		e.RunWithError(t, 1, "starkroot", "root", "-i", filepath.Join(t.TempDir(), "missing.json"))
		e.RunWithError(t, 1, "starkroot", "root", "-i", writeFile(t, "bad.json", `{"key": 1}`))
		e.RunWithError(t, 1, "starkroot", "root", "-i", writeFile(t, "pairs.json", `[]`), "-e", "magic")
	})
}
