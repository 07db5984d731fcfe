package router_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/vk/reactgrid/internal/router"
	"github.com/vk/reactgrid/internal/sm"
	"github.com/vk/reactgrid/internal/testutil"
)

// sumOf adds up every data point of the named int64 sum.
func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetricsObserver_CountsAlongsideOtherObservers(t *testing.T) {
	// --- Arrange ---
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := router.NewMetricsObserver(mp)
	require.NoError(t, err)

	logs := &testutil.SafeBuffer{}
	rec := &testutil.Recorder{}
	r, _ := testutil.StartRouter(t, logs, router.WithObserver(router.NewCompositeObserver(metrics, rec)))
	testutil.LoadModule(t, r, "src", testutil.NewSource("out", "lost"))
	testutil.LoadModule(t, r, "sink", testutil.NewSink("in").Failing(sm.Failure("nope")))
	require.NoError(t, r.Subscribe(router.Route{Output: "out"}, router.Endpoint{Module: "sink", Handler: "in"}))

	// --- Act ---
	_, err = r.Invoke(context.Background(), "src", "send", sm.Empty)
	require.NoError(t, err)
	testutil.Quiesce(t, r)

	// --- Assert ---
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	assert.Equal(t, int64(2), sumOf(t, rm, "reactgrid.invocations"))
	assert.Equal(t, int64(1), sumOf(t, rm, "reactgrid.invocation.failures"))
	assert.Equal(t, int64(1), sumOf(t, rm, "reactgrid.emissions"))
	assert.Equal(t, int64(1), sumOf(t, rm, "reactgrid.drops"))

	assert.Len(t, rec.Publishes(), 2, "the composite still feeds the recorder")
}
