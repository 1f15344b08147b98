// Package report derives the printable yard reports from a consistent store
// snapshot. Every query is a pure function of the snapshot it reads.
package report

import (
	"cmp"
	"slices"
	"strings"
	"time"

	appwarehouse "github.com/shipshape/backend/internal/application/warehouse"
	"github.com/shipshape/backend/internal/domain/shared"
	"github.com/shipshape/backend/internal/domain/shared/valueobject"
	"github.com/shipshape/backend/internal/domain/warehouse"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UnassignedCompany groups trailers with a blank company
const UnassignedCompany = "Unassigned"

// SnapshotSource supplies consistent copies of the record collections
type SnapshotSource interface {
	Snapshot() appwarehouse.Snapshot
}

// ReportService provides the derived report queries
type ReportService struct {
	source SnapshotSource
	clock  shared.Clock
	logger *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(source SnapshotSource, clock shared.Clock, logger *zap.Logger) *ReportService {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		source: source,
		clock:  clock,
		logger: logger,
	}
}

// Now returns the service clock time
func (s *ReportService) Now() time.Time {
	return s.clock.Now()
}

// ===================== Shipment Reports =====================

// ShipmentRow is a shipment joined to its trailer for display
type ShipmentRow struct {
	warehouse.Shipment
	TrailerName string `json:"trailerName"`
	Company     string `json:"company"`
}

// UnreleasedShipments returns shipments not yet released, in insertion order
func (s *ReportService) UnreleasedShipments() []ShipmentRow {
	snap := s.source.Snapshot()
	return joinShipments(snap, func(sh warehouse.Shipment) bool { return !sh.Released })
}

// ReleasedBetween returns shipments whose releasedAt lies in [start, end].
// Shipments without a valid release time are skipped.
func (s *ReportService) ReleasedBetween(start, end time.Time) []ShipmentRow {
	snap := s.source.Snapshot()
	return joinShipments(snap, func(sh warehouse.Shipment) bool {
		return sh.ReleasedAt.Within(start, end)
	})
}

// ReleasedInWeek returns the shipments released in the week containing t
func (s *ReportService) ReleasedInWeek(t time.Time) (WeekPeriod, []ShipmentRow) {
	start, end := WeekRange(t)
	return WeekPeriod{Start: start, End: end}, s.ReleasedBetween(start, end)
}

// PendingAssignment returns shipments still waiting for a warehouse location
func (s *ReportService) PendingAssignment() []ShipmentRow {
	snap := s.source.Snapshot()
	return joinShipments(snap, warehouse.Shipment.IsPendingAssignment)
}

// OverdueShipment is a shipment held past its trailer's storage expiry
type OverdueShipment struct {
	ShipmentRow
	StorageExpiryDate valueobject.Timestamp `json:"storageExpiryDate"`
	DaysOverdue       int                   `json:"daysOverdue"`
}

// OverdueReleases returns shipments released after their trailer's storage
// expiry, and unreleased shipments whose expiry has passed at now.
func (s *ReportService) OverdueReleases(now time.Time) []OverdueShipment {
	snap := s.source.Snapshot()
	trailers := snap.TrailerIndex()

	out := make([]OverdueShipment, 0)
	skipped := 0
	for _, sh := range snap.Shipments {
		t, ok := trailers[sh.TrailerID]
		if !ok {
			continue
		}
		expiry, valid := t.StorageExpiryDate.Time()
		if !valid {
			if !t.StorageExpiryDate.IsZero() {
				skipped++
			}
			continue
		}

		var heldUntil time.Time
		switch {
		case sh.ReleasedAt.IsValid():
			heldUntil, _ = sh.ReleasedAt.Time()
		case !sh.Released:
			heldUntil = now
		default:
			continue
		}
		if !heldUntil.After(expiry) {
			continue
		}
		out = append(out, OverdueShipment{
			ShipmentRow:       newShipmentRow(sh, t, true),
			StorageExpiryDate: t.StorageExpiryDate,
			DaysOverdue:       int(heldUntil.Sub(expiry).Hours() / 24),
		})
	}
	if skipped > 0 {
		s.logger.Debug("Skipped trailers with invalid storage expiry",
			zap.Int("count", skipped))
	}
	return out
}

// ===================== Trailer Reports =====================

// ArrivalsBetween returns trailers whose arrivalDate lies in [start, end]
func (s *ReportService) ArrivalsBetween(start, end time.Time) []warehouse.Trailer {
	snap := s.source.Snapshot()
	out := make([]warehouse.Trailer, 0)
	for _, t := range snap.Trailers {
		if t.ArrivalDate.Within(start, end) {
			out = append(out, t)
		}
	}
	return out
}

// StorageExpiringWithin returns trailers whose storage expiry falls in
// [now, now+d], soonest first
func (s *ReportService) StorageExpiringWithin(now time.Time, d time.Duration) []warehouse.Trailer {
	snap := s.source.Snapshot()
	out := make([]warehouse.Trailer, 0)
	for _, t := range snap.Trailers {
		if t.StorageExpiryDate.Within(now, now.Add(d)) {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b warehouse.Trailer) int {
		at, _ := a.StorageExpiryDate.Time()
		bt, _ := b.StorageExpiryDate.Time()
		return at.Compare(bt)
	})
	return out
}

// WeekActivity counts arrivals and releases within one Monday-to-Sunday week
type WeekActivity struct {
	WeekStart time.Time `json:"weekStart"`
	WeekEnd   time.Time `json:"weekEnd"`
	Arrivals  int       `json:"arrivals"`
	Releases  int       `json:"releases"`
}

// WeeklyActivity returns one bucket per week for the given number of weeks,
// beginning with the week that contains start
func (s *ReportService) WeeklyActivity(start time.Time, weeks int) []WeekActivity {
	if weeks <= 0 {
		return []WeekActivity{}
	}
	snap := s.source.Snapshot()

	out := make([]WeekActivity, 0, weeks)
	weekStart, _ := WeekRange(start)
	for range weeks {
		weekEnd := weekStart.AddDate(0, 0, 7).Add(-time.Nanosecond)
		bucket := WeekActivity{WeekStart: weekStart, WeekEnd: weekEnd}
		for _, t := range snap.Trailers {
			if t.ArrivalDate.Within(weekStart, weekEnd) {
				bucket.Arrivals++
			}
		}
		for _, sh := range snap.Shipments {
			if sh.ReleasedAt.Within(weekStart, weekEnd) {
				bucket.Releases++
			}
		}
		out = append(out, bucket)
		weekStart = weekStart.AddDate(0, 0, 7)
	}
	return out
}

// CompanySummary aggregates trailers and their shipments per haulier company
type CompanySummary struct {
	Company         string          `json:"company"`
	TrailerCount    int             `json:"trailerCount"`
	ShipmentCount   int             `json:"shipmentCount"`
	TotalQuantity   int             `json:"totalQuantity"`
	TotalWeight     decimal.Decimal `json:"totalWeight"`
	UnreleasedCount int             `json:"unreleasedCount"`
}

// CompanySummaries returns one summary per company, sorted by company name.
// Shipment weights are summed; a trailer weight counts only when none of its
// shipments carries one.
func (s *ReportService) CompanySummaries() []CompanySummary {
	snap := s.source.Snapshot()

	byCompany := make(map[string]*CompanySummary)
	get := func(company string) *CompanySummary {
		if strings.TrimSpace(company) == "" {
			company = UnassignedCompany
		}
		cs, ok := byCompany[company]
		if !ok {
			cs = &CompanySummary{Company: company, TotalWeight: decimal.Zero}
			byCompany[company] = cs
		}
		return cs
	}

	shipmentWeight := make(map[string]bool)
	for _, sh := range snap.Shipments {
		if sh.Weight != nil {
			shipmentWeight[sh.TrailerID] = true
		}
	}

	trailers := snap.TrailerIndex()
	for _, t := range snap.Trailers {
		cs := get(t.Company)
		cs.TrailerCount++
		if t.Weight != nil && !shipmentWeight[t.ID] {
			cs.TotalWeight = cs.TotalWeight.Add(*t.Weight)
		}
	}
	for _, sh := range snap.Shipments {
		cs := get(trailers[sh.TrailerID].Company)
		cs.ShipmentCount++
		cs.TotalQuantity += sh.Quantity
		if sh.Weight != nil {
			cs.TotalWeight = cs.TotalWeight.Add(*sh.Weight)
		}
		if !sh.Released {
			cs.UnreleasedCount++
		}
	}

	out := make([]CompanySummary, 0, len(byCompany))
	for _, cs := range byCompany {
		out = append(out, *cs)
	}
	slices.SortFunc(out, func(a, b CompanySummary) int {
		return cmp.Compare(a.Company, b.Company)
	})
	return out
}

// ===================== Helpers =====================

func joinShipments(snap appwarehouse.Snapshot, keep func(warehouse.Shipment) bool) []ShipmentRow {
	trailers := snap.TrailerIndex()
	out := make([]ShipmentRow, 0)
	for _, sh := range snap.Shipments {
		if !keep(sh) {
			continue
		}
		t, ok := trailers[sh.TrailerID]
		out = append(out, newShipmentRow(sh, t, ok))
	}
	return out
}

func newShipmentRow(sh warehouse.Shipment, t warehouse.Trailer, found bool) ShipmentRow {
	row := ShipmentRow{Shipment: sh}
	if found {
		row.TrailerName = t.DisplayName()
		row.Company = t.Company
	}
	return row
}
