package warehouse

import (
	"context"
	"errors"
	"fmt"

	"github.com/shipshape/backend/internal/domain/warehouse"
	"github.com/shipshape/backend/internal/infrastructure/kvstore"
	"github.com/shipshape/backend/internal/infrastructure/persistence"
)

// SlotKey returns the slot a collection is stored under
func SlotKey(prefix string, c warehouse.Collection) string {
	return prefix + string(c)
}

// BoundStore is a Store together with the slot bindings feeding it
type BoundStore struct {
	*Store
	trailers    *persistence.Binding[warehouse.Trailer]
	shipments   *persistence.Binding[warehouse.Shipment]
	quizReports *persistence.Binding[warehouse.QuizReport]
}

// OpenStore binds the three collections to slots in kv under prefix and
// builds a Store over them. Empty collections are the defaults.
// cfg's binding fields are ignored.
func OpenStore(ctx context.Context, kv kvstore.Store, prefix string, cfg StoreConfig, opts ...persistence.Option) (*BoundStore, error) {
	trailers, err := persistence.Bind(ctx, kv, SlotKey(prefix, warehouse.CollectionTrailers), []warehouse.Trailer{}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to bind trailers: %w", err)
	}
	shipments, err := persistence.Bind(ctx, kv, SlotKey(prefix, warehouse.CollectionShipments), []warehouse.Shipment{}, opts...)
	if err != nil {
		_ = trailers.Close()
		return nil, fmt.Errorf("failed to bind shipments: %w", err)
	}
	quizReports, err := persistence.Bind(ctx, kv, SlotKey(prefix, warehouse.CollectionQuizReports), []warehouse.QuizReport{}, opts...)
	if err != nil {
		_ = trailers.Close()
		_ = shipments.Close()
		return nil, fmt.Errorf("failed to bind quiz reports: %w", err)
	}

	cfg.Trailers = trailers
	cfg.Shipments = shipments
	cfg.QuizReports = quizReports
	store, err := NewStore(cfg)
	if err != nil {
		_ = trailers.Close()
		_ = shipments.Close()
		_ = quizReports.Close()
		return nil, err
	}

	return &BoundStore{
		Store:       store,
		trailers:    trailers,
		shipments:   shipments,
		quizReports: quizReports,
	}, nil
}

// Close stops following the slots. The slot store itself stays open.
func (b *BoundStore) Close() error {
	return errors.Join(
		b.trailers.Close(),
		b.shipments.Close(),
		b.quizReports.Close(),
	)
}
