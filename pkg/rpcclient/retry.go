package rpcclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nspcc-dev/starkroot/pkg/starkrpc/result"
	"go.uber.org/zap"
)

const (
	// DefaultRetryAttempts is the number of state update fetch attempts made
	// before giving up.
	DefaultRetryAttempts = 15
	// DefaultRetryDelay is the pause between two fetch attempts.
	DefaultRetryDelay = 5 * time.Second
)

// ErrFetchExhausted is returned by Retrying when every attempt to fetch the
// data has failed. The last fetch error is wrapped along with it.
var ErrFetchExhausted = errors.New("data source: retries exhausted")

// StateUpdater is something able to return state updates by block number.
type StateUpdater interface {
	GetStateUpdate(ctx context.Context, block uint64) (*result.StateUpdate, error)
}

// RetryOptions configures Retrying, zero values are replaced by defaults.
type RetryOptions struct {
	Attempts int
	Delay    time.Duration
}

// Retrying is a StateUpdater making a bounded number of attempts with a
// constant delay between them.
type Retrying struct {
	src  StateUpdater
	opts RetryOptions
	log  *zap.Logger
}

// NewRetrying wraps src into Retrying.
func NewRetrying(src StateUpdater, opts RetryOptions, log *zap.Logger) *Retrying {
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultRetryAttempts
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultRetryDelay
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Retrying{src: src, opts: opts, log: log}
}

// GetStateUpdate implements StateUpdater. Context cancellation stops retries
// immediately and the context error is returned as is.
func (r *Retrying) GetStateUpdate(ctx context.Context, block uint64) (*result.StateUpdate, error) {
	var (
		attempt int
		b       = backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(r.opts.Delay), uint64(r.opts.Attempts-1)),
			ctx)
	)
	su, err := backoff.RetryNotifyWithData(func() (*result.StateUpdate, error) {
		attempt++
		su, err := r.src.GetStateUpdate(ctx, block)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, err
		}
		if su == nil {
			return nil, errors.New("empty state update")
		}
		return su, nil
	}, b, func(err error, next time.Duration) {
		r.log.Warn("failed to fetch state update, retrying",
			zap.Uint64("block", block),
			zap.Int("attempt", attempt),
			zap.Duration("next", next),
			zap.Error(err))
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: block %d, %d attempts: %w", ErrFetchExhausted, block, attempt, err)
	}
	return su, nil
}
