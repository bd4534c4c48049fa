package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/nspcc-dev/starkroot/pkg/util"
)

// Root computation engines.
const (
	// EngineTrie rebuilds a fresh trie from the accumulated pairs.
	EngineTrie = "trie"
	// EngineIncremental keeps one stored trie per contract and only inserts
	// the pairs changed by the block.
	EngineIncremental = "incremental"
	// EngineStack computes the root from sorted pairs without any storage.
	EngineStack = "stack"
)

// AllEngines returns the list of all known root computation engines.
func AllEngines() []string {
	return []string{EngineTrie, EngineIncremental, EngineStack}
}

// Verifier is the configuration of the storage root verification loop.
type Verifier struct {
	// RPCEndpoint is a Starknet JSON-RPC node address.
	RPCEndpoint string `yaml:"RPCEndpoint"`
	// Contracts to compute storage roots for.
	Contracts []util.Felt `yaml:"Contracts"`
	// StartBlock is the first block to process. It should include the
	// contract deployment for the roots to be meaningful.
	StartBlock uint64 `yaml:"StartBlock"`
	// EndBlock is the first block not processed, zero means the chain
	// height at startup.
	EndBlock uint64 `yaml:"EndBlock"`

	RetryAttempts  int           `yaml:"RetryAttempts"`
	RetryDelay     time.Duration `yaml:"RetryDelay"`
	RequestTimeout time.Duration `yaml:"RequestTimeout"`

	// KeyTruncation allows storage keys wider than 251 bits, their high
	// bits are dropped then. Such keys are rejected otherwise.
	KeyTruncation bool `yaml:"KeyTruncation"`
	// Engines lists root computation engines to use, their results must
	// match.
	Engines []string `yaml:"Engines"`
}

// Validate checks Verifier configuration for internal consistency. The
// endpoint and contract list are checked separately by CheckTarget since
// they can also be provided from the command line.
func (v *Verifier) Validate() error {
	if v.EndBlock != 0 && v.EndBlock <= v.StartBlock {
		return fmt.Errorf("empty block range [%d, %d)", v.StartBlock, v.EndBlock)
	}
	if v.RetryAttempts < 0 {
		return fmt.Errorf("negative RetryAttempts: %d", v.RetryAttempts)
	}
	if v.RetryDelay < 0 || v.RequestTimeout < 0 {
		return errors.New("negative durations are not allowed")
	}
	if len(v.Engines) == 0 {
		return errors.New("no engines specified")
	}
	seen := make(map[string]bool, len(v.Engines))
	for _, e := range v.Engines {
		switch e {
		case EngineTrie, EngineIncremental, EngineStack:
		default:
			return fmt.Errorf("unknown engine %q", e)
		}
		if seen[e] {
			return fmt.Errorf("duplicate engine %q", e)
		}
		seen[e] = true
	}
	return nil
}

// CheckTarget ensures there is something to verify.
func (v *Verifier) CheckTarget() error {
	if v.RPCEndpoint == "" {
		return errors.New("no RPC endpoint specified")
	}
	if len(v.Contracts) == 0 {
		return errors.New("no contracts specified")
	}
	return nil
}
