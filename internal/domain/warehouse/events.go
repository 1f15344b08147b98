package warehouse

import (
	"time"

	"github.com/shipshape/backend/internal/domain/shared"
)

// Collection names one of the bound record collections
type Collection string

const (
	CollectionTrailers    Collection = "trailers"
	CollectionShipments   Collection = "shipments"
	CollectionQuizReports Collection = "quizReports"
)

// AllCollections returns every collection in slot order
func AllCollections() []Collection {
	return []Collection{CollectionTrailers, CollectionShipments, CollectionQuizReports}
}

// Origin tells whether a change was made through this store or arrived from
// another execution context sharing the same slots
type Origin string

const (
	OriginLocal    Origin = "local"
	OriginExternal Origin = "external"
)

// Action describes the mutation behind a change event
type Action string

const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionDeleted  Action = "deleted"
	ActionPrinted  Action = "printed"
	ActionReplaced Action = "replaced"
)

// Aggregate type constant
const AggregateTypeWarehouse = "Warehouse"

// Event type constants
const (
	EventTypeTrailersChanged    = "TrailersChanged"
	EventTypeShipmentsChanged   = "ShipmentsChanged"
	EventTypeQuizReportsChanged = "QuizReportsChanged"
)

// EventTypeFor returns the event type raised when collection c changes
func EventTypeFor(c Collection) string {
	switch c {
	case CollectionTrailers:
		return EventTypeTrailersChanged
	case CollectionShipments:
		return EventTypeShipmentsChanged
	default:
		return EventTypeQuizReportsChanged
	}
}

// CollectionChangedEvent is raised after every successful mutation of a collection
type CollectionChangedEvent struct {
	shared.BaseDomainEvent
	Collection Collection `json:"collection"`
	Origin     Origin     `json:"origin"`
	Action     Action     `json:"action"`
	RecordID   string     `json:"record_id,omitempty"`
	Count      int        `json:"count"`
}

// NewCollectionChangedEvent creates a new CollectionChangedEvent
func NewCollectionChangedEvent(c Collection, origin Origin, action Action, recordID string, count int, at time.Time) *CollectionChangedEvent {
	return &CollectionChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFor(c), AggregateTypeWarehouse, recordID, at),
		Collection:      c,
		Origin:          origin,
		Action:          action,
		RecordID:        recordID,
		Count:           count,
	}
}
