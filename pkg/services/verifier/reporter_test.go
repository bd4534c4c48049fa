package verifier

import (
	"testing"

	"github.com/nspcc-dev/starkroot/pkg/config"
	"github.com/nspcc-dev/starkroot/pkg/core/accumulator"
	"github.com/nspcc-dev/starkroot/pkg/util"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogReporter(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := NewLogReporter(zap.New(core), 2)

	pairsBefore := testutil.ToFloat64(storagePairs)
	rootsBefore := testutil.ToFloat64(rootComputations.WithLabelValues(config.EngineStack))

	r.Block(10, 0)
	r.Pair(contractA, accumulator.KeyValue{Key: util.FeltFromUint64(1), Value: util.FeltFromUint64(2)})
	r.Block(11, 1)
	r.Root(11, contractA, config.EngineStack, util.FeltFromUint64(3))
	r.Done(2)

	require.Equal(t, 1, logs.FilterMessage("block processed").Len())
	require.Equal(t, 1, logs.FilterMessage("block changes watched storage").Len())
	require.Equal(t, 1, logs.FilterMessage("storage write").Len())
	require.Equal(t, 1, logs.FilterMessage("verification finished").Len())

	roots := logs.FilterMessage("storage root").All()
	require.Len(t, roots, 1)
	require.Equal(t, config.EngineStack, roots[0].ContextMap()["engine"])

	require.Equal(t, float64(11), testutil.ToFloat64(currentBlock))
	require.Equal(t, pairsBefore+1, testutil.ToFloat64(storagePairs))
	require.Equal(t, rootsBefore+1, testutil.ToFloat64(rootComputations.WithLabelValues(config.EngineStack)))
}
