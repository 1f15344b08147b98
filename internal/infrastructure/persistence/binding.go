package persistence

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shipshape/backend/internal/infrastructure/kvstore"
	"github.com/shipshape/backend/internal/infrastructure/logger"
	"github.com/shipshape/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Option configures a Binding
type Option func(*options)

type options struct {
	logger  *zap.Logger
	metrics *telemetry.StoreMetrics
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records slot writes, failures and external changes
func WithMetrics(m *telemetry.StoreMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// Binding ties one collection to one slot. It rehydrates once at Bind, writes
// whole collections on Save and hands collections written by other contexts
// to the OnChange consumer.
type Binding[T any] struct {
	store    kvstore.Store
	key      string
	defaults []T
	logger   *zap.Logger
	metrics  *telemetry.StoreMetrics

	mu       sync.RWMutex
	value    []T
	handlers []func([]T)
	changes  int
	stop     func()
	closed   bool
}

// Bind reads the slot at key and subscribes to its changes. An absent,
// corrupt or newer-versioned slot yields defaults.
func Bind[T any](ctx context.Context, store kvstore.Store, key string, defaults []T, opts ...Option) (*Binding[T], error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	b := &Binding[T]{
		store:    store,
		key:      key,
		defaults: nonNil(slices.Clone(defaults)),
		logger:   o.logger.With(zap.String("slot", key)),
		metrics:  o.metrics,
	}

	stop, err := store.Watch(ctx, b.handleChange)
	if err != nil {
		return nil, fmt.Errorf("failed to watch slot %q: %w", key, err)
	}
	b.stop = stop

	b.mu.RLock()
	seen := b.changes
	b.mu.RUnlock()

	items, ok, err := b.read(ctx)
	if err != nil {
		stop()
		return nil, err
	}

	// A change delivered while reading is at least as new as what was read.
	b.mu.Lock()
	if b.changes == seen {
		b.value = items
	}
	n := len(b.value)
	b.mu.Unlock()

	b.logger.Debug("Slot bound",
		zap.Bool("found", ok),
		zap.Int("items", n))
	return b, nil
}

// Refresh rereads the slot and returns what it holds now. A failed read
// keeps the last known collection.
func (b *Binding[T]) Refresh(ctx context.Context) []T {
	items, _, err := b.read(ctx)
	if err != nil {
		b.logger.Error("Failed to reread slot", zap.Error(err))
		return b.Value()
	}
	b.mu.Lock()
	b.value = items
	b.mu.Unlock()
	return slices.Clone(items)
}

func (b *Binding[T]) read(ctx context.Context) ([]T, bool, error) {
	raw, ok, err := b.store.Get(ctx, b.key)
	if err != nil {
		b.recordFailure(ctx, "read")
		return nil, false, fmt.Errorf("failed to read slot %q: %w", b.key, err)
	}
	if !ok {
		return b.defaultValue(), false, nil
	}
	return b.decode(ctx, raw), true, nil
}

// Key returns the bound slot key
func (b *Binding[T]) Key() string {
	return b.key
}

// Value returns a copy of the current collection
func (b *Binding[T]) Value() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.value)
}

// Save writes items to the slot. Failures are logged and counted, never
// returned. A change from another context that lands during the write is
// left to Refresh to order.
func (b *Binding[T]) Save(ctx context.Context, items []T) {
	raw, err := Encode(items)
	if err != nil {
		b.logger.Error("Failed to encode collection", zap.Error(err))
		b.recordFailure(ctx, "encode")
		return
	}

	b.mu.RLock()
	seen := b.changes
	b.mu.RUnlock()

	start := time.Now()
	if err := b.store.Set(ctx, b.key, raw); err != nil {
		b.logger.Error("Failed to write slot", zap.Error(err))
		b.recordFailure(ctx, "write")
		return
	}
	if b.metrics != nil {
		b.metrics.RecordSlotWrite(ctx, b.key, time.Since(start))
	}

	b.mu.Lock()
	if b.changes == seen {
		b.value = nonNil(slices.Clone(items))
	}
	b.mu.Unlock()
}

// OnChange registers fn to receive collections written by other contexts
func (b *Binding[T]) OnChange(fn func(items []T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, fn)
}

// Close stops following the slot
func (b *Binding[T]) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.handlers = nil
	if b.stop != nil {
		b.stop()
	}
	return nil
}

func (b *Binding[T]) handleChange(c kvstore.Change) {
	if c.Key != b.key {
		return
	}
	ctx, _ := logger.WithOrigin(context.Background(), b.logger, c.Origin)

	var items []T
	if c.Removed {
		b.log(ctx).Info("Slot removed by another context, using defaults")
		items = b.defaultValue()
	} else {
		items = b.decode(ctx, c.Value)
	}
	if b.metrics != nil {
		b.metrics.RecordExternalChange(ctx, b.key)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.value = items
	b.changes++
	handlers := slices.Clone(b.handlers)
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(slices.Clone(items))
	}
}

func (b *Binding[T]) decode(ctx context.Context, raw string) []T {
	items, err := Decode[T](raw)
	if err == nil {
		return items
	}
	if errors.Is(err, ErrUnsupportedVersion) {
		b.log(ctx).Warn("Slot written by a newer version, using defaults", zap.Error(err))
	} else {
		b.log(ctx).Warn("Corrupt slot payload, using defaults", zap.Error(err))
	}
	b.recordFailure(ctx, "decode")
	return b.defaultValue()
}

// log prefers the origin-tagged logger carried by ctx
func (b *Binding[T]) log(ctx context.Context) *zap.Logger {
	if logger.GetOrigin(ctx) != "" {
		return logger.FromContext(ctx)
	}
	return b.logger
}

func (b *Binding[T]) defaultValue() []T {
	return slices.Clone(b.defaults)
}

func (b *Binding[T]) recordFailure(ctx context.Context, op string) {
	if b.metrics != nil {
		b.metrics.RecordPersistenceFailure(ctx, b.key, op)
	}
}
