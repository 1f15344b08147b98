package warehouse

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shipshape/backend/internal/domain/shared"
	"github.com/shipshape/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PendingAssignment is the location name used when a shipment has no slot yet
const PendingAssignment = "Pending Assignment"

// Location is a named warehouse slot holding part of a shipment
type Location struct {
	Name    string `json:"name"`
	Pallets *int   `json:"pallets,omitempty"`
}

// PendingLocations returns the sentinel location list
func PendingLocations() []Location {
	return []Location{{Name: PendingAssignment}}
}

// NormalizeLocations copies locs, dropping blank names. An empty result is
// replaced by the pending-assignment sentinel.
func NormalizeLocations(locs []Location) []Location {
	out := make([]Location, 0, len(locs))
	for _, l := range locs {
		name := strings.TrimSpace(l.Name)
		if name == "" {
			continue
		}
		loc := Location{Name: name}
		if l.Pallets != nil {
			p := *l.Pallets
			loc.Pallets = &p
		}
		out = append(out, loc)
	}
	if len(out) == 0 {
		return PendingLocations()
	}
	return out
}

// Shipment is a consignment of goods belonging to exactly one trailer
type Shipment struct {
	ID                    string                `json:"id"`
	TrailerID             string                `json:"trailerId"`
	StsJob                int                   `json:"stsJob"`
	CustomerJobNumber     string                `json:"customerJobNumber,omitempty"`
	MRN                   string                `json:"mrn,omitempty"`
	Quantity              int                   `json:"quantity"`
	Importer              string                `json:"importer"`
	Exporter              string                `json:"exporter"`
	Weight                *decimal.Decimal      `json:"weight,omitempty"`
	PalletSpace           *int                  `json:"palletSpace,omitempty"`
	Locations             []Location            `json:"locations"`
	ReleaseDocumentName   string                `json:"releaseDocumentName,omitempty"`
	ClearanceDocumentName string                `json:"clearanceDocumentName,omitempty"`
	Released              bool                  `json:"released"`
	Cleared               bool                  `json:"cleared"`
	ReleasedAt            valueobject.Timestamp `json:"releasedAt,omitzero"`
	ClearanceDate         valueobject.Timestamp `json:"clearanceDate,omitzero"`
	EmptyPalletRequired   int                   `json:"emptyPalletRequired"`
	CreatedAt             valueobject.Timestamp `json:"createdAt,omitzero"`
}

// NewShipmentInput carries the caller-validated fields of a new shipment
type NewShipmentInput struct {
	TrailerID             string
	StsJob                int
	CustomerJobNumber     string
	MRN                   string
	Quantity              int
	Importer              string
	Exporter              string
	Weight                *decimal.Decimal
	PalletSpace           *int
	Locations             []Location
	ReleaseDocumentName   string
	ClearanceDocumentName string
	EmptyPalletRequired   int
}

// NewShipment builds a shipment with a fresh id. Released and cleared start false.
func NewShipment(id string, in NewShipmentInput, now time.Time) (Shipment, error) {
	if strings.TrimSpace(in.TrailerID) == "" {
		return Shipment{}, shared.NewDomainError("INVALID_INPUT", "Shipment must belong to a trailer")
	}
	if in.EmptyPalletRequired < 0 {
		return Shipment{}, shared.NewDomainError("INVALID_INPUT", "Empty pallet count cannot be negative")
	}

	return Shipment{
		ID:                    id,
		TrailerID:             in.TrailerID,
		StsJob:                in.StsJob,
		CustomerJobNumber:     in.CustomerJobNumber,
		MRN:                   in.MRN,
		Quantity:              in.Quantity,
		Importer:              in.Importer,
		Exporter:              in.Exporter,
		Weight:                cloneDecimal(in.Weight),
		PalletSpace:           cloneInt(in.PalletSpace),
		Locations:             NormalizeLocations(in.Locations),
		ReleaseDocumentName:   in.ReleaseDocumentName,
		ClearanceDocumentName: in.ClearanceDocumentName,
		EmptyPalletRequired:   in.EmptyPalletRequired,
		CreatedAt:             valueobject.NewTimestamp(now),
	}, nil
}

// IsPendingAssignment reports whether the shipment only holds the sentinel location
func (s Shipment) IsPendingAssignment() bool {
	if len(s.Locations) == 0 {
		return true
	}
	return len(s.Locations) == 1 && s.Locations[0].Name == PendingAssignment
}

// TotalPallets sums the pallet counts of all locations
func (s Shipment) TotalPallets() int {
	total := 0
	for _, l := range s.Locations {
		if l.Pallets != nil {
			total += *l.Pallets
		}
	}
	return total
}

// MatchesCode reports whether a scanned code identifies this shipment
func (s Shipment) MatchesCode(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	if strconv.Itoa(s.StsJob) == code || s.ID == code {
		return true
	}
	return strings.EqualFold(s.CustomerJobNumber, code) || strings.EqualFold(s.MRN, code)
}

// MarkPrinted stamps ReleasedAt on the first print; later prints keep it
func (s *Shipment) MarkPrinted(now time.Time) bool {
	if !s.ReleasedAt.IsZero() {
		return false
	}
	s.ReleasedAt = valueobject.NewTimestamp(now)
	return true
}

// Clone returns a deep copy
func (s Shipment) Clone() Shipment {
	s.Weight = cloneDecimal(s.Weight)
	s.PalletSpace = cloneInt(s.PalletSpace)
	s.Locations = cloneLocations(s.Locations)
	return s
}

// ShipmentPatch lists every mutable shipment field. Id and trailer are fixed.
type ShipmentPatch struct {
	StsJob                *int                                   `json:"stsJob,omitempty"`
	CustomerJobNumber     shared.Nullable[string]                `json:"customerJobNumber,omitzero"`
	MRN                   shared.Nullable[string]                `json:"mrn,omitzero"`
	Quantity              *int                                   `json:"quantity,omitempty"`
	Importer              *string                                `json:"importer,omitempty"`
	Exporter              *string                                `json:"exporter,omitempty"`
	Weight                shared.Nullable[decimal.Decimal]       `json:"weight,omitzero"`
	PalletSpace           shared.Nullable[int]                   `json:"palletSpace,omitzero"`
	Locations             shared.Nullable[[]Location]            `json:"locations,omitzero"`
	ReleaseDocumentName   shared.Nullable[string]                `json:"releaseDocumentName,omitzero"`
	ClearanceDocumentName shared.Nullable[string]                `json:"clearanceDocumentName,omitzero"`
	Released              *bool                                  `json:"released,omitempty"`
	Cleared               *bool                                  `json:"cleared,omitempty"`
	ReleasedAt            shared.Nullable[valueobject.Timestamp] `json:"releasedAt,omitzero"`
	ClearanceDate         shared.Nullable[valueobject.Timestamp] `json:"clearanceDate,omitzero"`
	EmptyPalletRequired   *int                                   `json:"emptyPalletRequired,omitempty"`
}

// Apply merges the patch into s. Locations replace the whole list. When cleared
// or released become true without an explicit date, and the record has none
// yet, the date is stamped with now.
func (p ShipmentPatch) Apply(s *Shipment, now time.Time) {
	if p.StsJob != nil {
		s.StsJob = *p.StsJob
	}
	p.CustomerJobNumber.Apply(&s.CustomerJobNumber)
	p.MRN.Apply(&s.MRN)
	if p.Quantity != nil {
		s.Quantity = *p.Quantity
	}
	if p.Importer != nil {
		s.Importer = *p.Importer
	}
	if p.Exporter != nil {
		s.Exporter = *p.Exporter
	}
	p.Weight.ApplyTo(&s.Weight)
	p.PalletSpace.ApplyTo(&s.PalletSpace)
	if p.Locations.IsSet() {
		locs, _ := p.Locations.Get()
		s.Locations = NormalizeLocations(locs)
	}
	p.ReleaseDocumentName.Apply(&s.ReleaseDocumentName)
	p.ClearanceDocumentName.Apply(&s.ClearanceDocumentName)
	if p.EmptyPalletRequired != nil && *p.EmptyPalletRequired >= 0 {
		s.EmptyPalletRequired = *p.EmptyPalletRequired
	}

	p.ClearanceDate.Apply(&s.ClearanceDate)
	if p.Cleared != nil {
		s.Cleared = *p.Cleared
		if *p.Cleared && !p.ClearanceDate.IsSet() && s.ClearanceDate.IsZero() {
			s.ClearanceDate = valueobject.NewTimestamp(now)
		}
	}

	p.ReleasedAt.Apply(&s.ReleasedAt)
	if p.Released != nil {
		s.Released = *p.Released
		if *p.Released && !p.ReleasedAt.IsSet() && s.ReleasedAt.IsZero() {
			s.ReleasedAt = valueobject.NewTimestamp(now)
		}
	}
}

func cloneLocations(locs []Location) []Location {
	if locs == nil {
		return nil
	}
	out := slices.Clone(locs)
	for i := range out {
		out[i].Pallets = cloneInt(out[i].Pallets)
	}
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
