package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shipshape/backend/internal/domain/shared/valueobject"
	"github.com/shipshape/backend/internal/domain/warehouse"
	"github.com/shipshape/backend/internal/infrastructure/kvstore"
	"github.com/shipshape/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const trailersKey = "shipshape:trailers"

func sampleTrailers() []warehouse.Trailer {
	w := decimal.RequireFromString("1250.5")
	return []warehouse.Trailer{
		{
			ID:                "T1",
			Name:              "North dock",
			Status:            warehouse.TrailerStatusArrived,
			Company:           "Acme",
			ArrivalDate:       valueobject.NewTimestamp(time.Date(2024, 3, 4, 8, 30, 0, 0, time.UTC)),
			StorageExpiryDate: valueobject.ParseTimestamp("not a date"),
			Weight:            &w,
			CustomField1:      "bay 4",
		},
		{ID: "T2", Status: warehouse.TrailerStatusScheduled},
	}
}

func TestBinding_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := kvstore.NewMemoryBackend()

	first, err := Bind(ctx, backend.NewContext("run-1"), trailersKey, []warehouse.Trailer{})
	require.NoError(t, err)
	assert.Empty(t, first.Value())

	want := sampleTrailers()
	first.Save(ctx, want)
	require.NoError(t, first.Close())

	second, err := Bind(ctx, backend.NewContext("run-2"), trailersKey, []warehouse.Trailer{})
	require.NoError(t, err)
	defer second.Close()

	if diff := cmp.Diff(want, second.Value()); diff != "" {
		t.Errorf("rehydrated trailers mismatch (-want +got):\n%s", diff)
	}
}

func TestBinding_Defaults(t *testing.T) {
	ctx := context.Background()
	defaults := []warehouse.Trailer{{ID: "seed", Status: warehouse.TrailerStatusScheduled}}

	tests := []struct {
		name string
		raw  *string
	}{
		{name: "absent slot"},
		{name: "corrupt payload", raw: ptr(`{"version":1,"items":[{"id":`)},
		{name: "newer schema", raw: ptr(`{"version":9,"items":[]}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := kvstore.NewMemoryStore()
			if tt.raw != nil {
				require.NoError(t, store.Set(ctx, trailersKey, *tt.raw))
			}

			core, logs := observer.New(zapcore.WarnLevel)
			b, err := Bind(ctx, store, trailersKey, defaults, WithLogger(zap.New(core)))
			require.NoError(t, err)
			defer b.Close()

			assert.Equal(t, defaults, b.Value())
			if tt.raw != nil {
				assert.Equal(t, 1, logs.Len(), "bad payloads are logged at warn")
			} else {
				assert.Equal(t, 0, logs.Len())
			}
		})
	}
}

func TestBinding_LegacyBareArray(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, trailersKey,
		`[{"id":"T9","name":"Old","status":"Docked"},{"id":"T10","status":"In-Transit"}]`))

	b, err := Bind(ctx, store, trailersKey, []warehouse.Trailer{})
	require.NoError(t, err)
	defer b.Close()

	got := b.Value()
	require.Len(t, got, 2)
	assert.Equal(t, warehouse.TrailerStatusArrived, got[0].Status)
	assert.Equal(t, warehouse.TrailerStatusScheduled, got[1].Status)

	// the next write upgrades the slot to the envelope
	b.Save(ctx, got)
	raw, _, err := store.Get(ctx, trailersKey)
	require.NoError(t, err)
	assert.Contains(t, raw, `"version":1`)
}

func TestBinding_CrossContextSync(t *testing.T) {
	ctx := context.Background()
	backend := kvstore.NewMemoryBackend()

	tabA, err := Bind(ctx, backend.NewContext("tab-a"), trailersKey, []warehouse.Trailer{})
	require.NoError(t, err)
	defer tabA.Close()
	tabB, err := Bind(ctx, backend.NewContext("tab-b"), trailersKey, []warehouse.Trailer{})
	require.NoError(t, err)
	defer tabB.Close()

	var fromA, fromB [][]warehouse.Trailer
	tabA.OnChange(func(items []warehouse.Trailer) { fromA = append(fromA, items) })
	tabB.OnChange(func(items []warehouse.Trailer) { fromB = append(fromB, items) })

	tabA.Save(ctx, sampleTrailers())

	assert.Empty(t, fromA, "a context does not hear its own writes")
	require.Len(t, fromB, 1)
	if diff := cmp.Diff(sampleTrailers(), fromB[0]); diff != "" {
		t.Errorf("synced trailers mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, tabB.Value(), 2)
}

func TestBinding_ExternalRemovalAndCorruption(t *testing.T) {
	ctx := context.Background()
	backend := kvstore.NewMemoryBackend()
	writer := backend.NewContext("writer")
	defaults := []warehouse.Trailer{{ID: "seed"}}

	b, err := Bind(ctx, backend.NewContext("reader"), trailersKey, defaults)
	require.NoError(t, err)
	defer b.Close()

	var got [][]warehouse.Trailer
	b.OnChange(func(items []warehouse.Trailer) { got = append(got, items) })

	require.NoError(t, writer.Set(ctx, trailersKey, `{"version":1,"items":[{"id":"T1","status":"Empty"}]}`))
	require.NoError(t, writer.Remove(ctx, trailersKey))
	require.NoError(t, writer.Set(ctx, trailersKey, `garbage`))
	require.NoError(t, writer.Set(ctx, "shipshape:other", `[]`))

	require.Len(t, got, 3)
	assert.Equal(t, "T1", got[0][0].ID)
	assert.Equal(t, defaults, got[1])
	assert.Equal(t, defaults, got[2])
}

func TestBinding_ExternalLogsCarryOrigin(t *testing.T) {
	ctx := context.Background()
	backend := kvstore.NewMemoryBackend()
	writer := backend.NewContext("tab-writer")

	core, logs := observer.New(zapcore.InfoLevel)
	b, err := Bind(ctx, backend.NewContext("tab-reader"), trailersKey, []warehouse.Trailer{},
		WithLogger(zap.New(core)))
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, writer.Set(ctx, trailersKey, `not json`))
	require.NoError(t, writer.Remove(ctx, trailersKey))

	corrupt := logs.FilterMessage("Corrupt slot payload, using defaults").All()
	require.Len(t, corrupt, 1)
	assert.Equal(t, "tab-writer", corrupt[0].ContextMap()["origin"])
	assert.Equal(t, trailersKey, corrupt[0].ContextMap()["slot"])

	removed := logs.FilterMessage("Slot removed by another context, using defaults").All()
	require.Len(t, removed, 1)
	assert.Equal(t, "tab-writer", removed[0].ContextMap()["origin"])
}

// writeDuringGet lets another context write the slot right after Get has
// read it, before Bind returns.
type writeDuringGet struct {
	kvstore.Store
	other kvstore.Store
	value string
	once  sync.Once
}

func (s *writeDuringGet) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.Store.Get(ctx, key)
	s.once.Do(func() { _ = s.other.Set(ctx, key, s.value) })
	return v, ok, err
}

func TestBinding_WriteWhileBinding(t *testing.T) {
	ctx := context.Background()
	backend := kvstore.NewMemoryBackend()
	writer := backend.NewContext("tab-writer")
	require.NoError(t, writer.Set(ctx, trailersKey, `{"version":1,"items":[{"id":"OLD"}]}`))

	b, err := Bind(ctx, &writeDuringGet{
		Store: backend.NewContext("tab-reader"),
		other: writer,
		value: `{"version":1,"items":[{"id":"NEW"}]}`,
	}, trailersKey, []warehouse.Trailer{})
	require.NoError(t, err)
	defer b.Close()

	got := b.Value()
	require.Len(t, got, 1)
	assert.Equal(t, "NEW", got[0].ID, "a write racing the initial read is not lost")
}

func TestBinding_Refresh(t *testing.T) {
	ctx := context.Background()
	backend := kvstore.NewMemoryBackend()
	defaults := []warehouse.Trailer{{ID: "seed"}}
	reader := backend.NewContext("reader")

	b, err := Bind(ctx, reader, trailersKey, defaults)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, backend.NewContext("writer").Set(ctx, trailersKey, `[{"id":"T1"}]`))
	got := b.Refresh(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "T1", got[0].ID)

	require.NoError(t, reader.Remove(ctx, trailersKey))
	assert.Equal(t, defaults, b.Refresh(ctx))

	require.NoError(t, reader.Close())
	assert.Equal(t, defaults, b.Refresh(ctx), "a failed read keeps the last known collection")
}

func TestBinding_CloseStopsDelivery(t *testing.T) {
	ctx := context.Background()
	backend := kvstore.NewMemoryBackend()
	writer := backend.NewContext("writer")

	b, err := Bind(ctx, backend.NewContext("reader"), trailersKey, []warehouse.Trailer{})
	require.NoError(t, err)

	calls := 0
	b.OnChange(func([]warehouse.Trailer) { calls++ })
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	require.NoError(t, writer.Set(ctx, trailersKey, `[]`))
	assert.Equal(t, 0, calls)
}

func TestBinding_SaveFailureIsAbsorbed(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(ctx)
	metrics, err := telemetry.NewStoreMetrics(telemetry.StoreMetricsConfig{Meter: provider.Meter("test")})
	require.NoError(t, err)

	core, logs := observer.New(zapcore.ErrorLevel)
	b, err := Bind(ctx, store, trailersKey, []warehouse.Trailer{},
		WithLogger(zap.New(core)), WithMetrics(metrics))
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, store.Close())
	assert.NotPanics(t, func() { b.Save(ctx, sampleTrailers()) })
	assert.Equal(t, 1, logs.FilterMessage("Failed to write slot").Len())
	assert.Empty(t, b.Value(), "value only moves on a successful write")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	assert.True(t, hasMetric(rm, "shipshape_persistence_failures_total"))
}

func hasMetric(rm metricdata.ResourceMetrics, name string) bool {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return true
			}
		}
	}
	return false
}

func ptr(s string) *string { return &s }
