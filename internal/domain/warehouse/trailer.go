// Package warehouse holds the trailer, shipment and quiz report records that
// ShipShape tracks, together with their patch types and merge rules.
package warehouse

import (
	"encoding/json"
	"strings"

	"github.com/shipshape/backend/internal/domain/shared"
	"github.com/shipshape/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// TrailerStatus represents where a trailer is in its yard lifecycle
type TrailerStatus string

const (
	TrailerStatusScheduled  TrailerStatus = "Scheduled"
	TrailerStatusArrived    TrailerStatus = "Arrived"
	TrailerStatusLoading    TrailerStatus = "Loading"
	TrailerStatusOffloading TrailerStatus = "Offloading"
	TrailerStatusEmpty      TrailerStatus = "Empty"
)

// DefaultTrailerStatus is applied when a trailer is created without a status
const DefaultTrailerStatus = TrailerStatusScheduled

// legacyTrailerStatuses maps the older Docked/In-Transit/Unloading set onto the
// canonical statuses.
var legacyTrailerStatuses = map[string]TrailerStatus{
	"docked":     TrailerStatusArrived,
	"in-transit": TrailerStatusScheduled,
	"in transit": TrailerStatusScheduled,
	"unloading":  TrailerStatusOffloading,
}

// AllTrailerStatuses returns the canonical statuses in lifecycle order
func AllTrailerStatuses() []TrailerStatus {
	return []TrailerStatus{
		TrailerStatusScheduled,
		TrailerStatusArrived,
		TrailerStatusLoading,
		TrailerStatusOffloading,
		TrailerStatusEmpty,
	}
}

// IsValid checks if the status is one of the canonical statuses
func (s TrailerStatus) IsValid() bool {
	switch s {
	case TrailerStatusScheduled, TrailerStatusArrived, TrailerStatusLoading,
		TrailerStatusOffloading, TrailerStatusEmpty:
		return true
	}
	return false
}

// String returns the string representation of TrailerStatus
func (s TrailerStatus) String() string {
	return string(s)
}

// ParseTrailerStatus resolves canonical and legacy spellings, case-insensitively
func ParseTrailerStatus(s string) (TrailerStatus, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, st := range AllTrailerStatuses() {
		if strings.ToLower(string(st)) == key {
			return st, true
		}
	}
	if st, ok := legacyTrailerStatuses[key]; ok {
		return st, true
	}
	return "", false
}

// UnmarshalJSON accepts legacy statuses; unknown values fall back to the default
func (s *TrailerStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st, ok := ParseTrailerStatus(raw)
	if !ok {
		st = DefaultTrailerStatus
	}
	*s = st
	return nil
}

// Trailer is a physical transport unit tracked through arrival, storage and departure
type Trailer struct {
	ID                string                `json:"id"`
	Name              string                `json:"name"`
	Status            TrailerStatus         `json:"status"`
	Company           string                `json:"company,omitempty"`
	ArrivalDate       valueobject.Timestamp `json:"arrivalDate,omitzero"`
	StorageExpiryDate valueobject.Timestamp `json:"storageExpiryDate,omitzero"`
	Weight            *decimal.Decimal      `json:"weight,omitempty"`
	CustomField1      string                `json:"customField1,omitempty"`
	CustomField2      string                `json:"customField2,omitempty"`
}

// NewTrailerInput carries the caller-validated fields of a new trailer
type NewTrailerInput struct {
	ID                string
	Name              string
	Status            TrailerStatus
	Company           string
	ArrivalDate       valueobject.Timestamp
	StorageExpiryDate valueobject.Timestamp
	Weight            *decimal.Decimal
	CustomField1      string
	CustomField2      string
}

// NewTrailer builds a trailer from input, defaulting the status
func NewTrailer(in NewTrailerInput) (Trailer, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return Trailer{}, shared.NewDomainError("INVALID_INPUT", "Trailer ID cannot be empty")
	}
	status := in.Status
	if status == "" {
		status = DefaultTrailerStatus
	}
	if !status.IsValid() {
		return Trailer{}, shared.NewDomainError("INVALID_INPUT", "Unknown trailer status: "+string(status))
	}

	return Trailer{
		ID:                id,
		Name:              in.Name,
		Status:            status,
		Company:           in.Company,
		ArrivalDate:       in.ArrivalDate,
		StorageExpiryDate: in.StorageExpiryDate,
		Weight:            cloneDecimal(in.Weight),
		CustomField1:      in.CustomField1,
		CustomField2:      in.CustomField2,
	}, nil
}

// DisplayName returns the trailer name, or its id when unnamed
func (t Trailer) DisplayName() string {
	if strings.TrimSpace(t.Name) == "" {
		return t.ID
	}
	return t.Name
}

// Clone returns a deep copy
func (t Trailer) Clone() Trailer {
	t.Weight = cloneDecimal(t.Weight)
	return t
}

// TrailerPatch lists every mutable trailer field. The id is immutable.
type TrailerPatch struct {
	Name              *string                                `json:"name,omitempty"`
	Status            *TrailerStatus                         `json:"status,omitempty"`
	Company           shared.Nullable[string]                `json:"company,omitzero"`
	ArrivalDate       shared.Nullable[valueobject.Timestamp] `json:"arrivalDate,omitzero"`
	StorageExpiryDate shared.Nullable[valueobject.Timestamp] `json:"storageExpiryDate,omitzero"`
	Weight            shared.Nullable[decimal.Decimal]       `json:"weight,omitzero"`
	CustomField1      shared.Nullable[string]                `json:"customField1,omitzero"`
	CustomField2      shared.Nullable[string]                `json:"customField2,omitzero"`
}

// Apply merges the patch into t. Unset fields are left unchanged.
func (p TrailerPatch) Apply(t *Trailer) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Status != nil && p.Status.IsValid() {
		t.Status = *p.Status
	}
	p.Company.Apply(&t.Company)
	p.ArrivalDate.Apply(&t.ArrivalDate)
	p.StorageExpiryDate.Apply(&t.StorageExpiryDate)
	p.Weight.ApplyTo(&t.Weight)
	p.CustomField1.Apply(&t.CustomField1)
	p.CustomField2.Apply(&t.CustomField2)
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
