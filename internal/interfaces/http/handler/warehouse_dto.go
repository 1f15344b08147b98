package handler

import (
	"time"

	"github.com/shipshape/backend/internal/domain/shared"
	"github.com/shipshape/backend/internal/domain/shared/valueobject"
	"github.com/shipshape/backend/internal/domain/warehouse"
	"github.com/shipshape/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// CreateTrailerRequest represents a request to register a trailer
type CreateTrailerRequest struct {
	ID                string           `json:"id" binding:"required,max=64" example:"TRL-1042"`
	Name              string           `json:"name" binding:"max=100" example:"Blue Krone"`
	Status            string           `json:"status" binding:"max=32" example:"Scheduled"`
	Company           string           `json:"company" binding:"max=100" example:"Acme Haulage"`
	ArrivalDate       string           `json:"arrivalDate" binding:"omitempty,date" example:"2024-03-04"`
	StorageExpiryDate string           `json:"storageExpiryDate" binding:"omitempty,date" example:"2024-03-18"`
	Weight            *decimal.Decimal `json:"weight" binding:"omitempty,gt=0" swaggertype:"number" example:"18500.5"`
	CustomField1      string           `json:"customField1" binding:"max=200"`
	CustomField2      string           `json:"customField2" binding:"max=200"`
}

// toInput maps the request onto the domain input. Legacy status spellings are
// accepted the same way UpdateStatus accepts them.
func (r CreateTrailerRequest) toInput() (warehouse.NewTrailerInput, []dto.ValidationDetail) {
	var details []dto.ValidationDetail
	var status warehouse.TrailerStatus
	if r.Status != "" {
		st, ok := warehouse.ParseTrailerStatus(r.Status)
		if !ok {
			details = append(details, dto.ValidationDetail{Field: "status", Message: "Unknown trailer status"})
		}
		status = st
	}

	return warehouse.NewTrailerInput{
		ID:                r.ID,
		Name:              r.Name,
		Status:            status,
		Company:           r.Company,
		ArrivalDate:       valueobject.ParseTimestamp(r.ArrivalDate),
		StorageExpiryDate: valueobject.ParseTimestamp(r.StorageExpiryDate),
		Weight:            r.Weight,
		CustomField1:      r.CustomField1,
		CustomField2:      r.CustomField2,
	}, details
}

// UpdateTrailerRequest represents a partial trailer update. Absent keys are
// left unchanged; an explicit null clears a nullable field.
type UpdateTrailerRequest struct {
	Name              *string                          `json:"name" binding:"omitempty,max=100"`
	Status            *string                          `json:"status"`
	Company           shared.Nullable[string]          `json:"company"`
	ArrivalDate       shared.Nullable[string]          `json:"arrivalDate"`
	StorageExpiryDate shared.Nullable[string]          `json:"storageExpiryDate"`
	Weight            shared.Nullable[decimal.Decimal] `json:"weight" swaggertype:"number"`
	CustomField1      shared.Nullable[string]          `json:"customField1"`
	CustomField2      shared.Nullable[string]          `json:"customField2"`
}

func (r UpdateTrailerRequest) toPatch() (warehouse.TrailerPatch, []dto.ValidationDetail) {
	var details []dto.ValidationDetail
	patch := warehouse.TrailerPatch{
		Name:         r.Name,
		Company:      r.Company,
		CustomField1: r.CustomField1,
		CustomField2: r.CustomField2,
	}

	if r.Status != nil {
		st, ok := warehouse.ParseTrailerStatus(*r.Status)
		if !ok {
			details = append(details, dto.ValidationDetail{Field: "status", Message: "Unknown trailer status"})
		}
		patch.Status = &st
	}

	var ok bool
	if patch.ArrivalDate, ok = parseNullableDate(r.ArrivalDate); !ok {
		details = append(details, dto.ValidationDetail{Field: "arrivalDate", Message: "Invalid date"})
	}
	if patch.StorageExpiryDate, ok = parseNullableDate(r.StorageExpiryDate); !ok {
		details = append(details, dto.ValidationDetail{Field: "storageExpiryDate", Message: "Invalid date"})
	}

	if w, set := r.Weight.Get(); set && !w.IsPositive() {
		details = append(details, dto.ValidationDetail{Field: "weight", Message: "Must be greater than 0"})
	}
	patch.Weight = r.Weight

	return patch, details
}

// UpdateTrailerStatusRequest sets a trailer status. Legacy spellings such as
// "Docked" are accepted.
type UpdateTrailerStatusRequest struct {
	Status string `json:"status" binding:"required" example:"Arrived"`
}

// LocationRequest is one warehouse location of a shipment
type LocationRequest struct {
	Name    string `json:"name" binding:"required,max=50" example:"A1-03"`
	Pallets *int   `json:"pallets" binding:"omitempty,gte=0" example:"4"`
}

func toLocations(in []LocationRequest) []warehouse.Location {
	if in == nil {
		return nil
	}
	out := make([]warehouse.Location, 0, len(in))
	for _, l := range in {
		out = append(out, warehouse.Location{Name: l.Name, Pallets: l.Pallets})
	}
	return out
}

// CreateShipmentRequest represents a request to book a shipment onto a trailer
type CreateShipmentRequest struct {
	TrailerID             string            `json:"trailerId" binding:"required,max=64" example:"TRL-1042"`
	StsJob                int               `json:"stsJob" binding:"required,gt=0" example:"48213"`
	CustomerJobNumber     string            `json:"customerJobNumber" binding:"max=50"`
	MRN                   string            `json:"mrn" binding:"max=50" example:"24GB1234567890ABC1"`
	Quantity              *int              `json:"quantity" binding:"omitempty,gt=0" example:"24"`
	Importer              string            `json:"importer" binding:"max=100"`
	Exporter              string            `json:"exporter" binding:"max=100"`
	Weight                *decimal.Decimal  `json:"weight" binding:"omitempty,gt=0" swaggertype:"number"`
	PalletSpace           *int              `json:"palletSpace" binding:"omitempty,gte=0"`
	Locations             []LocationRequest `json:"locations" binding:"omitempty,max=50,dive"`
	ReleaseDocumentName   string            `json:"releaseDocumentName" binding:"max=200"`
	ClearanceDocumentName string            `json:"clearanceDocumentName" binding:"max=200"`
	EmptyPalletRequired   int               `json:"emptyPalletRequired" binding:"gte=0"`
}

func (r CreateShipmentRequest) toInput() warehouse.NewShipmentInput {
	return warehouse.NewShipmentInput{
		TrailerID:             r.TrailerID,
		StsJob:                r.StsJob,
		CustomerJobNumber:     r.CustomerJobNumber,
		MRN:                   r.MRN,
		Quantity:              derefInt(r.Quantity),
		Importer:              r.Importer,
		Exporter:              r.Exporter,
		Weight:                r.Weight,
		PalletSpace:           r.PalletSpace,
		Locations:             toLocations(r.Locations),
		ReleaseDocumentName:   r.ReleaseDocumentName,
		ClearanceDocumentName: r.ClearanceDocumentName,
		EmptyPalletRequired:   r.EmptyPalletRequired,
	}
}

// UpdateShipmentRequest represents a partial shipment update. Locations,
// when present, replace the whole list.
type UpdateShipmentRequest struct {
	StsJob                *int                             `json:"stsJob" binding:"omitempty,gt=0"`
	CustomerJobNumber     shared.Nullable[string]          `json:"customerJobNumber"`
	MRN                   shared.Nullable[string]          `json:"mrn"`
	Quantity              *int                             `json:"quantity" binding:"omitempty,gt=0"`
	Importer              *string                          `json:"importer" binding:"omitempty,max=100"`
	Exporter              *string                          `json:"exporter" binding:"omitempty,max=100"`
	Weight                shared.Nullable[decimal.Decimal] `json:"weight" swaggertype:"number"`
	PalletSpace           shared.Nullable[int]             `json:"palletSpace"`
	Locations             *[]LocationRequest               `json:"locations" binding:"omitempty,max=50,dive"`
	ReleaseDocumentName   shared.Nullable[string]          `json:"releaseDocumentName"`
	ClearanceDocumentName shared.Nullable[string]          `json:"clearanceDocumentName"`
	Released              *bool                            `json:"released"`
	Cleared               *bool                            `json:"cleared"`
	ReleasedAt            shared.Nullable[string]          `json:"releasedAt"`
	ClearanceDate         shared.Nullable[string]          `json:"clearanceDate"`
	EmptyPalletRequired   *int                             `json:"emptyPalletRequired" binding:"omitempty,gte=0"`
}

func (r UpdateShipmentRequest) toPatch() (warehouse.ShipmentPatch, []dto.ValidationDetail) {
	var details []dto.ValidationDetail
	patch := warehouse.ShipmentPatch{
		StsJob:                r.StsJob,
		CustomerJobNumber:     r.CustomerJobNumber,
		MRN:                   r.MRN,
		Quantity:              r.Quantity,
		Importer:              r.Importer,
		Exporter:              r.Exporter,
		Weight:                r.Weight,
		PalletSpace:           r.PalletSpace,
		ReleaseDocumentName:   r.ReleaseDocumentName,
		ClearanceDocumentName: r.ClearanceDocumentName,
		Released:              r.Released,
		Cleared:               r.Cleared,
		EmptyPalletRequired:   r.EmptyPalletRequired,
	}
	if r.Locations != nil {
		patch.Locations = shared.NewNullable(toLocations(*r.Locations))
	}

	var ok bool
	if patch.ReleasedAt, ok = parseNullableDate(r.ReleasedAt); !ok {
		details = append(details, dto.ValidationDetail{Field: "releasedAt", Message: "Invalid date"})
	}
	if patch.ClearanceDate, ok = parseNullableDate(r.ClearanceDate); !ok {
		details = append(details, dto.ValidationDetail{Field: "clearanceDate", Message: "Invalid date"})
	}
	if w, set := r.Weight.Get(); set && !w.IsPositive() {
		details = append(details, dto.ValidationDetail{Field: "weight", Message: "Must be greater than 0"})
	}
	if p, set := r.PalletSpace.Get(); set && p < 0 {
		details = append(details, dto.ValidationDetail{Field: "palletSpace", Message: "Must be greater than or equal to 0"})
	}
	return patch, details
}

// parseNullableDate converts a nullable date string. It reports false for a
// non-null value that does not parse.
func parseNullableDate(n shared.Nullable[string]) (shared.Nullable[valueobject.Timestamp], bool) {
	if !n.IsSet() {
		return shared.Nullable[valueobject.Timestamp]{}, true
	}
	s, ok := n.Get()
	if !ok {
		return shared.Null[valueobject.Timestamp](), true
	}
	ts := valueobject.ParseTimestamp(s)
	if !ts.IsValid() {
		return shared.Nullable[valueobject.Timestamp]{}, false
	}
	return shared.NewNullable(ts), true
}

// checkStorageWindow rejects a storage expiry before the arrival date
func checkStorageWindow(arrival, expiry valueobject.Timestamp) []dto.ValidationDetail {
	a, okA := arrival.Time()
	e, okE := expiry.Time()
	if okA && okE && e.Before(truncateDay(a)) {
		return []dto.ValidationDetail{{Field: "storageExpiryDate", Message: "Must not be before arrivalDate"}}
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
