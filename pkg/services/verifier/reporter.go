package verifier

import (
	"time"

	"github.com/nspcc-dev/starkroot/pkg/core/accumulator"
	"github.com/nspcc-dev/starkroot/pkg/util"
	"go.uber.org/zap"
)

// Reporter receives verification progress. It's informational only, Service
// results don't depend on it.
type Reporter interface {
	// Block is called for every processed block with the number of watched
	// contracts it has changed.
	Block(index uint64, touched int)
	// Pair is called for every storage write to a watched contract.
	Pair(contract util.Felt, kv accumulator.KeyValue)
	// Root is called for every computed storage root.
	Root(index uint64, contract util.Felt, engine string, root util.Felt)
	// Done is called once the whole range is processed.
	Done(processed uint64)
}

// LogReporter is a Reporter logging progress with zap and exporting it via
// Prometheus metrics.
type LogReporter struct {
	log   *zap.Logger
	total uint64
	done  uint64
	start time.Time
}

// NewLogReporter creates a LogReporter for the range of total blocks.
func NewLogReporter(log *zap.Logger, total uint64) *LogReporter {
	return &LogReporter{
		log:   log,
		total: total,
		start: time.Now(),
	}
}

// Block implements Reporter.
func (r *LogReporter) Block(index uint64, touched int) {
	r.done++
	updateBlockMetrics(index, touched != 0)
	if touched == 0 {
		r.log.Debug("block processed",
			zap.Uint64("block", index),
			zap.Uint64("done", r.done),
			zap.Uint64("total", r.total))
		return
	}
	r.log.Info("block changes watched storage",
		zap.Uint64("block", index),
		zap.Int("contracts", touched),
		zap.Uint64("done", r.done),
		zap.Uint64("total", r.total))
}

// Pair implements Reporter.
func (r *LogReporter) Pair(contract util.Felt, kv accumulator.KeyValue) {
	storagePairs.Inc()
	r.log.Debug("storage write",
		zap.String("contract", contract.StringShort()),
		zap.String("key", kv.Key.StringShort()),
		zap.String("value", kv.Value.StringShort()))
}

// Root implements Reporter.
func (r *LogReporter) Root(index uint64, contract util.Felt, engine string, root util.Felt) {
	addRootMetric(engine)
	r.log.Info("storage root",
		zap.Uint64("block", index),
		zap.String("contract", contract.StringShort()),
		zap.String("engine", engine),
		zap.Stringer("root", root))
}

// Done implements Reporter.
func (r *LogReporter) Done(processed uint64) {
	r.log.Info("verification finished",
		zap.Uint64("blocks", processed),
		zap.Duration("took", time.Since(r.start)))
}
