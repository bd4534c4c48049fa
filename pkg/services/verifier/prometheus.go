package verifier

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring service.
var (
	//currentBlock prometheus metric.
	currentBlock = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Index of the last processed block",
			Name:      "current_block",
			Namespace: "starkroot",
		},
	)
	//processedBlocks prometheus metric.
	processedBlocks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of processed blocks",
			Name:      "processed_blocks_total",
			Namespace: "starkroot",
		},
	)
	//touchedBlocks prometheus metric.
	touchedBlocks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of blocks changing storage of watched contracts",
			Name:      "touched_blocks_total",
			Namespace: "starkroot",
		},
	)
	//storagePairs prometheus metric.
	storagePairs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of storage writes seen for watched contracts",
			Name:      "storage_pairs_total",
			Namespace: "starkroot",
		},
	)
	//rootComputations prometheus metric.
	rootComputations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Help:      "Number of storage roots computed",
			Name:      "roots_total",
			Namespace: "starkroot",
		},
		[]string{"engine"},
	)
	//rootMismatches prometheus metric.
	rootMismatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of storage root disagreements between engines",
			Name:      "root_mismatches_total",
			Namespace: "starkroot",
		},
	)
)

func init() {
	prometheus.MustRegister(
		currentBlock,
		processedBlocks,
		touchedBlocks,
		storagePairs,
		rootComputations,
		rootMismatches,
	)
}

func updateBlockMetrics(index uint64, touched bool) {
	currentBlock.Set(float64(index))
	processedBlocks.Inc()
	if touched {
		touchedBlocks.Inc()
	}
}

func addRootMetric(engine string) {
	rootComputations.WithLabelValues(engine).Inc()
}
