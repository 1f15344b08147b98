// Package testutil provides common test utilities for the ShipShape backend:
// a controllable clock, predictable ids, ready-made record stores over
// in-memory slots, and HTTP helpers.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appwarehouse "github.com/shipshape/backend/internal/application/warehouse"
	"github.com/shipshape/backend/internal/infrastructure/event"
	"github.com/shipshape/backend/internal/infrastructure/kvstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// DefaultSlotPrefix is the slot prefix used by test stores
const DefaultSlotPrefix = "shipshape:"

// FakeClock is a manually driven shared.Clock
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock returns a clock stopped at t
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

// Now returns the current fake time
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// SequenceIDs is a shared.IDGenerator returning prefix-1, prefix-2, ...
type SequenceIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceIDs creates a generator with the given prefix
func NewSequenceIDs(prefix string) *SequenceIDs {
	return &SequenceIDs{prefix: prefix}
}

// NewID returns the next id
func (g *SequenceIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// ReferenceTime is a fixed Monday used as the default test clock
var ReferenceTime = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

// TestStore bundles a store with the collaborators tests want to drive
type TestStore struct {
	*appwarehouse.BoundStore
	Slots kvstore.Store
	Clock *FakeClock
	IDs   *SequenceIDs
	Bus   *event.InMemoryEventBus
}

// NewTestStore opens a store over a fresh in-memory slot space
func NewTestStore(t *testing.T) *TestStore {
	t.Helper()
	return NewTestStoreOn(t, kvstore.NewMemoryBackend(), "tab-1")
}

// NewTestStoreOn opens a store as context contextID of backend. Several
// stores on one backend behave like browser tabs sharing local storage.
func NewTestStoreOn(t *testing.T, backend *kvstore.MemoryBackend, contextID string) *TestStore {
	t.Helper()

	slots := backend.NewContext(contextID)
	clock := NewFakeClock(ReferenceTime)
	ids := NewSequenceIDs(contextID)
	bus := event.NewInMemoryEventBus(zap.NewNop())

	store, err := appwarehouse.OpenStore(context.Background(), slots, DefaultSlotPrefix, appwarehouse.StoreConfig{
		Clock:    clock,
		IDs:      ids,
		EventBus: bus,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
		_ = slots.Close()
	})

	return &TestStore{BoundStore: store, Slots: slots, Clock: clock, IDs: ids, Bus: bus}
}

// RequireEventually retries condition until it holds or the timeout passes
func RequireEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}

	require.Fail(t, "Condition not met within timeout", msgAndArgs...)
}
