/*
Package verifier implements the storage root verification loop. It walks a
block range, accumulates storage diffs of the watched contracts and computes
their storage roots with several independent engines after every block
changing them. Any disagreement between engines stops the loop.
*/
package verifier

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/nspcc-dev/starkroot/pkg/config"
	"github.com/nspcc-dev/starkroot/pkg/core/accumulator"
	"github.com/nspcc-dev/starkroot/pkg/core/mpt"
	"github.com/nspcc-dev/starkroot/pkg/core/storage"
	"github.com/nspcc-dev/starkroot/pkg/starkrpc/result"
	"github.com/nspcc-dev/starkroot/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrRootMismatch is returned when root computation engines disagree.
var ErrRootMismatch = errors.New("storage root mismatch")

// DataSource provides state updates by block number.
type DataSource interface {
	GetStateUpdate(ctx context.Context, block uint64) (*result.StateUpdate, error)
}

// Service is the verification loop.
type Service struct {
	cfg     config.Verifier
	src     DataSource
	rep     Reporter
	log     *zap.Logger
	acc     *accumulator.Store
	engines []engine
	workers int

	rootsLock sync.RWMutex
	roots     map[util.Felt]util.Felt
}

// New creates a verification service. The store is used by the incremental
// engine only, nil Reporter means NewLogReporter.
func New(cfg config.Verifier, src DataSource, store storage.Store, rep Reporter, log *zap.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Contracts) == 0 {
		return nil, errors.New("no contracts to verify")
	}
	if cfg.EndBlock == 0 {
		return nil, errors.New("end block is not set")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if rep == nil {
		rep = NewLogReporter(log, cfg.EndBlock-cfg.StartBlock)
	}
	var (
		enc = mpt.PathEncoder{Truncate: cfg.KeyTruncation}
		s   = &Service{
			cfg:     cfg,
			src:     src,
			rep:     rep,
			log:     log,
			acc:     accumulator.New(),
			workers: runtime.GOMAXPROCS(0),
			roots:   make(map[util.Felt]util.Felt),
		}
	)
	for _, name := range cfg.Engines {
		e, err := newEngine(name, enc, store)
		if err != nil {
			return nil, err
		}
		s.engines = append(s.engines, e)
	}
	return s, nil
}

// Run processes the configured block range. It stops at the first failure
// and returns it, ErrRootMismatch is returned if engines disagree on some
// root.
func (s *Service) Run(ctx context.Context) error {
	s.log.Info("starting verification",
		zap.Uint64("start", s.cfg.StartBlock),
		zap.Uint64("end", s.cfg.EndBlock),
		zap.Int("contracts", len(s.cfg.Contracts)),
		zap.Strings("engines", s.cfg.Engines))
	for _, c := range s.cfg.Contracts {
		s.log.Info("checking contract", zap.Stringer("contract", c))
	}

	var processed uint64
	for i := s.cfg.StartBlock; i < s.cfg.EndBlock; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.processBlock(ctx, i); err != nil {
			return err
		}
		processed++
	}
	for _, e := range s.engines {
		if c, ok := e.(checker); ok {
			if err := c.check(); err != nil {
				return fmt.Errorf("%s engine: %w", e.Name(), err)
			}
		}
	}
	s.rep.Done(processed)
	return nil
}

func (s *Service) processBlock(ctx context.Context, index uint64) error {
	su, err := s.src.GetStateUpdate(ctx, index)
	if err != nil {
		return fmt.Errorf("failed to get state update for block %d: %w", index, err)
	}

	var (
		touched []util.Felt
		diffs   = make(map[util.Felt][]accumulator.KeyValue)
	)
	for _, c := range s.cfg.Contracts {
		entries := su.StorageDiff(c)
		if len(entries) == 0 {
			continue
		}
		if _, ok := diffs[c]; ok {
			continue
		}
		kvs := make([]accumulator.KeyValue, len(entries))
		for j := range entries {
			kvs[j] = accumulator.KeyValue{Key: entries[j].Key, Value: entries[j].Value}
			s.rep.Pair(c, kvs[j])
		}
		s.acc.Extend(c, kvs)
		diffs[c] = kvs
		touched = append(touched, c)
	}
	s.rep.Block(index, len(touched))
	if len(touched) == 0 {
		return nil
	}
	return s.computeRoots(ctx, index, touched, diffs)
}

func (s *Service) computeRoots(ctx context.Context, index uint64, touched []util.Felt, diffs map[util.Felt][]accumulator.KeyValue) error {
	var (
		roots   = make([][]util.Felt, len(touched))
		g, gctx = errgroup.WithContext(ctx)
	)
	g.SetLimit(s.workers)
	for ci := range touched {
		var (
			ci       = ci
			c        = touched[ci]
			snapshot = s.acc.Snapshot(c)
		)
		roots[ci] = make([]util.Felt, len(s.engines))
		for ei := range s.engines {
			ei := ei
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				e := s.engines[ei]
				r, err := e.Root(c, snapshot, diffs[c])
				if err != nil {
					return fmt.Errorf("block %d, contract %s, %s engine: %w", index, c.StringShort(), e.Name(), err)
				}
				roots[ci][ei] = r
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for ci, c := range touched {
		for ei, e := range s.engines {
			s.rep.Root(index, c, e.Name(), roots[ci][ei])
		}
		for ei := 1; ei < len(s.engines); ei++ {
			if !roots[ci][ei].Equals(roots[ci][0]) {
				rootMismatches.Inc()
				return fmt.Errorf("%w: block %d, contract %s: %s %s, %s %s", ErrRootMismatch,
					index, c.StringShort(),
					s.engines[0].Name(), roots[ci][0],
					s.engines[ei].Name(), roots[ci][ei])
			}
		}
		s.rootsLock.Lock()
		s.roots[c] = roots[ci][0]
		s.rootsLock.Unlock()
	}
	return nil
}

// Root returns the last computed storage root of the contract.
func (s *Service) Root(contract util.Felt) (util.Felt, bool) {
	s.rootsLock.RLock()
	defer s.rootsLock.RUnlock()
	r, ok := s.roots[contract]
	return r, ok
}

// Roots returns last computed roots of all contracts changed so far.
func (s *Service) Roots() map[util.Felt]util.Felt {
	s.rootsLock.RLock()
	defer s.rootsLock.RUnlock()
	res := make(map[util.Felt]util.Felt, len(s.roots))
	for k, v := range s.roots {
		res[k] = v
	}
	return res
}

// Accumulator returns the storage accumulated so far.
func (s *Service) Accumulator() *accumulator.Store {
	return s.acc
}
