package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appwarehouse "github.com/shipshape/backend/internal/application/warehouse"
	"github.com/shipshape/backend/internal/domain/warehouse"
	"github.com/shipshape/backend/internal/infrastructure/event"
	"github.com/shipshape/backend/internal/infrastructure/kvstore"
	"github.com/shipshape/backend/tests/testutil"
)

func openRecordStore(t *testing.T, slots kvstore.Store) *appwarehouse.BoundStore {
	t.Helper()
	store, err := appwarehouse.OpenStore(context.Background(), slots, testutil.DefaultSlotPrefix, appwarehouse.StoreConfig{
		EventBus: event.NewInMemoryEventBus(zap.NewNop()),
		IDs:      testutil.NewSequenceIDs(slots.ContextID()),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// exerciseCrossContextSync runs the shared scenario: a write in one context
// shows up in the other as an external replacement and survives a reopen.
func exerciseCrossContextSync(t *testing.T, open func(contextID string) kvstore.Store) {
	ctx := context.Background()
	a := openRecordStore(t, open("ctx-a"))
	b := openRecordStore(t, open("ctx-b"))

	var (
		mu     sync.Mutex
		events []appwarehouse.ChangeEvent
	)
	unsubscribe := b.Subscribe(func(e appwarehouse.ChangeEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})
	defer unsubscribe()

	_, err := a.AddTrailer(ctx, warehouse.NewTrailerInput{ID: "T1", Company: "Acme"})
	require.NoError(t, err)
	sh, err := a.AddShipment(ctx, warehouse.NewShipmentInput{TrailerID: "T1", StsJob: 7})
	require.NoError(t, err)

	testutil.RequireEventually(t, func() bool {
		_, ok := b.GetShipmentByID(sh.ID)
		return ok
	}, 10*time.Second, 25*time.Millisecond, "shipment never reached the second context")

	trailer, ok := b.GetTrailerByID("T1")
	require.True(t, ok)
	assert.Equal(t, "Acme", trailer.Company)

	mu.Lock()
	require.NotEmpty(t, events)
	for _, e := range events {
		assert.Equal(t, warehouse.OriginExternal, e.Origin)
		assert.Equal(t, warehouse.ActionReplaced, e.Action)
	}
	mu.Unlock()

	// the receiving context does not echo the change back
	time.Sleep(200 * time.Millisecond)
	assert.Len(t, a.Trailers(), 1)

	require.True(t, b.DeleteTrailer(ctx, "T1"))
	testutil.RequireEventually(t, func() bool {
		return len(a.Trailers()) == 0 && len(a.Shipments()) == 0
	}, 10*time.Second, 25*time.Millisecond, "cascade delete never reached the first context")

	_, err = a.AddTrailer(ctx, warehouse.NewTrailerInput{ID: "T2"})
	require.NoError(t, err)
	reopened := openRecordStore(t, open("ctx-c"))
	_, ok = reopened.GetTrailerByID("T2")
	assert.True(t, ok, "a new context rehydrates from the slots")
}

func TestPostgresSlots_CrossContextSync(t *testing.T) {
	dsn := StartPostgres(t)
	exerciseCrossContextSync(t, func(id string) kvstore.Store {
		return OpenPostgresSlots(t, dsn, id)
	})
}

func TestRedisSlots_CrossContextSync(t *testing.T) {
	addr := StartRedis(t)
	exerciseCrossContextSync(t, func(id string) kvstore.Store {
		return OpenRedisSlots(t, addr, id)
	})
}

func TestPostgresSlots_RoundTrip(t *testing.T) {
	dsn := StartPostgres(t)
	ctx := context.Background()
	slots := OpenPostgresSlots(t, dsn, "ctx-a")

	_, ok, err := slots.Get(ctx, "shipshape:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, slots.Set(ctx, "shipshape:trailers", `{"version":1,"items":[]}`))
	require.NoError(t, slots.Set(ctx, "shipshape:trailers", `{"version":1,"items":[{"id":"T1"}]}`))
	value, ok, err := slots.Get(ctx, "shipshape:trailers")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"version":1,"items":[{"id":"T1"}]}`, value)

	require.NoError(t, slots.Remove(ctx, "shipshape:trailers"))
	require.NoError(t, slots.Remove(ctx, "shipshape:trailers"), "removing a missing slot is not an error")
	_, ok, err = slots.Get(ctx, "shipshape:trailers")
	require.NoError(t, err)
	assert.False(t, ok)
}
