package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/shipshape/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "shipshape-test",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, mp)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("shipshape/test"))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestNewMeterProvider_Enabled(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping collector-backed test in short mode")
	}

	ctx := context.Background()
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		ExportInterval:    time.Second,
		ServiceName:       "shipshape-test",
		Insecure:          true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.True(t, mp.IsEnabled())

	counter, err := telemetry.NewCounter(mp.Meter("shipshape/test"), "test_total", "test", "{n}")
	require.NoError(t, err)
	counter.Inc(ctx)

	// The grpc exporter dials lazily, so shutdown may fail without a collector.
	_ = mp.Shutdown(ctx)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	ctx := context.Background()

	counter, err := telemetry.NewCounter(meter, "writes_total", "Slot writes", "{writes}")
	require.NoError(t, err)
	counter.Inc(ctx, telemetry.AttrSlotKey.String("shipshape:trailers"))
	counter.Inc(ctx, telemetry.AttrSlotKey.String("shipshape:trailers"))

	hist, err := telemetry.NewHistogram(meter, "write_seconds", "Slot write time", "s", telemetry.SlotDurationBuckets)
	require.NoError(t, err)
	hist.RecordDuration(ctx, 2*time.Millisecond)

	gauge, err := telemetry.NewGauge(meter, "backlog", "Unreleased shipments", "{shipments}")
	require.NoError(t, err)
	gauge.Record(ctx, 5, attribute.String("yard", "north"))

	metrics := collect(t, reader)

	sum, ok := metrics["writes_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	h, ok := metrics["write_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, h.DataPoints, 1)
	assert.Equal(t, uint64(1), h.DataPoints[0].Count)
	assert.Equal(t, telemetry.SlotDurationBuckets, h.DataPoints[0].Bounds)

	g, ok := metrics["backlog"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, g.DataPoints, 1)
	assert.Equal(t, int64(5), g.DataPoints[0].Value)
}
