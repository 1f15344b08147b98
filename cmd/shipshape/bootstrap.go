package main

import (
	"context"
	"fmt"

	appwarehouse "github.com/shipshape/backend/internal/application/warehouse"
	"github.com/shipshape/backend/internal/infrastructure/config"
	"github.com/shipshape/backend/internal/infrastructure/event"
	"github.com/shipshape/backend/internal/infrastructure/kvstore"
	"github.com/shipshape/backend/internal/infrastructure/persistence"
	"github.com/shipshape/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// storeStack is a record store together with the slot store under it
type storeStack struct {
	Slots kvstore.Store
	Store *appwarehouse.BoundStore
}

// Close unbinds the collections, then closes the slot store
func (s *storeStack) Close() error {
	if err := s.Store.Close(); err != nil {
		_ = s.Slots.Close()
		return err
	}
	return s.Slots.Close()
}

// openStore opens the configured slot backend and binds the record store to
// it. metrics may be nil.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger, metrics *telemetry.StoreMetrics) (*storeStack, error) {
	slots, err := kvstore.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open %s slot store: %w", cfg.Storage.Driver, err)
	}

	opts := []persistence.Option{persistence.WithLogger(log)}
	if metrics != nil {
		opts = append(opts, persistence.WithMetrics(metrics))
	}

	store, err := appwarehouse.OpenStore(ctx, slots, cfg.Storage.KeyPrefix, appwarehouse.StoreConfig{
		EventBus: event.NewInMemoryEventBus(log),
		Logger:   log,
	}, opts...)
	if err != nil {
		_ = slots.Close()
		return nil, fmt.Errorf("open record store: %w", err)
	}
	if metrics != nil {
		store.SetMetrics(metrics)
	}

	log.Info("Record store bound",
		zap.String("driver", cfg.Storage.Driver),
		zap.String("key_prefix", cfg.Storage.KeyPrefix))
	return &storeStack{Slots: slots, Store: store}, nil
}
