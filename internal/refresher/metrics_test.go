package refresher_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/cloudstatus/cloudstatus/internal/refresher"
	"github.com/cloudstatus/cloudstatus/internal/status"
)

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				sums[m.Name] += dp.Value
			}
		}
	}
	return sums
}

func TestMetrics_RecordsCyclesAndProviders(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := refresher.NewMetrics()
	require.NoError(t, err)

	r := refresher.New(refresher.Options{
		Config:  refresher.Config{Now: fixedNow},
		Logger:  zerolog.Nop(),
		Source:  status.NewMockSource(),
		Store:   status.NewStore(),
		Metrics: metrics,
	})

	_, err = r.RunCycle(context.Background(), refresher.TriggerManual)
	require.NoError(t, err)
	_, err = r.RunCycle(context.Background(), refresher.TriggerScheduled)
	require.NoError(t, err)

	sums := collectSums(t, reader)
	assert.Equal(t, int64(2), sums["status.refresh.cycle.total"])
	assert.Equal(t, int64(10), sums["status.refresh.provider.result"])
	assert.Zero(t, sums["status.refresh.cycle.skipped"])
}
