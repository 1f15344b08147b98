package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// StoreMetrics tracks record store mutations and slot persistence health.
type StoreMetrics struct {
	logger *zap.Logger

	mutationsTotal       *Counter
	persistenceFailures  *Counter
	slotWriteDuration    *Histogram
	unreleasedShipments  *Gauge
	pendingAssignment    *Gauge
	externalChangesTotal *Counter
}

// StoreMetricsConfig holds configuration for store metrics.
type StoreMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewStoreMetrics creates a new StoreMetrics instance.
func NewStoreMetrics(cfg StoreMetricsConfig) (*StoreMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &StoreMetrics{logger: logger}
	var err error

	if sm.mutationsTotal, err = NewCounter(cfg.Meter,
		"shipshape_store_mutations_total",
		"Total number of successful record store mutations",
		"{mutations}"); err != nil {
		return nil, err
	}
	if sm.externalChangesTotal, err = NewCounter(cfg.Meter,
		"shipshape_slot_external_changes_total",
		"Total number of slot changes received from other contexts",
		"{changes}"); err != nil {
		return nil, err
	}
	if sm.persistenceFailures, err = NewCounter(cfg.Meter,
		"shipshape_persistence_failures_total",
		"Total number of absorbed slot read, write or decode failures",
		"{failures}"); err != nil {
		return nil, err
	}
	if sm.slotWriteDuration, err = NewHistogram(cfg.Meter,
		"shipshape_slot_write_duration_seconds",
		"Duration of whole-collection slot writes",
		"s",
		SlotDurationBuckets); err != nil {
		return nil, err
	}
	if sm.unreleasedShipments, err = NewGauge(cfg.Meter,
		"shipshape_unreleased_shipments",
		"Current number of shipments not yet released",
		"{shipments}"); err != nil {
		return nil, err
	}
	if sm.pendingAssignment, err = NewGauge(cfg.Meter,
		"shipshape_pending_assignment_shipments",
		"Current number of shipments without a warehouse location",
		"{shipments}"); err != nil {
		return nil, err
	}

	sm.logger.Debug("store metrics registered")
	return sm, nil
}

// RecordMutation counts one store mutation.
func (sm *StoreMetrics) RecordMutation(ctx context.Context, collection, action, origin string) {
	sm.mutationsTotal.Inc(ctx,
		AttrCollection.String(collection),
		AttrAction.String(action),
		AttrOrigin.String(origin),
	)
}

// RecordExternalChange counts one change delivered from another context.
func (sm *StoreMetrics) RecordExternalChange(ctx context.Context, key string) {
	sm.externalChangesTotal.Inc(ctx, AttrSlotKey.String(key))
}

// RecordPersistenceFailure counts one absorbed persistence failure. op is
// read, write or decode.
func (sm *StoreMetrics) RecordPersistenceFailure(ctx context.Context, key, op string) {
	sm.persistenceFailures.Inc(ctx, AttrSlotKey.String(key), AttrSlotOp.String(op))
}

// RecordSlotWrite records how long a slot write took.
func (sm *StoreMetrics) RecordSlotWrite(ctx context.Context, key string, d time.Duration) {
	sm.slotWriteDuration.RecordDuration(ctx, d, AttrSlotKey.String(key))
}

// RecordShipmentBacklog records the unreleased and pending-assignment counts.
func (sm *StoreMetrics) RecordShipmentBacklog(ctx context.Context, unreleased, pending int) {
	sm.unreleasedShipments.Record(ctx, int64(unreleased))
	sm.pendingAssignment.Record(ctx, int64(pending))
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewStoreMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
