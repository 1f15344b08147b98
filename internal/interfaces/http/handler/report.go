package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shipshape/backend/internal/application/report"
	"github.com/shipshape/backend/internal/domain/shared/valueobject"
	"github.com/shipshape/backend/internal/domain/warehouse"
	"github.com/shipshape/backend/internal/interfaces/http/dto"
)

// ReportDefaults holds the fallbacks for optional report parameters
type ReportDefaults struct {
	ExpiryWarningDays int
	ActivityWeeks     int
}

// ReportHandler handles report-related API endpoints
type ReportHandler struct {
	BaseHandler
	reports  *report.ReportService
	defaults ReportDefaults
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports *report.ReportService, defaults ReportDefaults) *ReportHandler {
	if defaults.ActivityWeeks <= 0 {
		defaults.ActivityWeeks = 8
	}
	return &ReportHandler{reports: reports, defaults: defaults}
}

// WeeklyReportResponse lists the arrivals and releases of one week
type WeeklyReportResponse struct {
	Period   report.WeekPeriod    `json:"period"`
	Label    string               `json:"label" example:"04/03/2024 - 10/03/2024"`
	Arrivals []warehouse.Trailer  `json:"arrivals"`
	Released []report.ShipmentRow `json:"released"`
}

// Unreleased godoc
// @Summary      Shipments not yet released
// @Tags         reports
// @Router       /reports/unreleased [get]
func (h *ReportHandler) Unreleased(c *gin.Context) {
	List(c, h.reports.UnreleasedShipments())
}

// Weekly godoc
// @Summary      Arrivals and releases of the week containing date
// @Tags         reports
// @Param        date  query  string  false  "Any day of the week, defaults to today"
// @Router       /reports/weekly [get]
func (h *ReportHandler) Weekly(c *gin.Context) {
	at, ok := h.dateParam(c, "date")
	if !ok {
		return
	}
	start, end := report.WeekRange(at)
	h.Success(c, WeeklyReportResponse{
		Period:   report.WeekPeriod{Start: start, End: end},
		Label:    report.FormatDate(&start) + " - " + report.FormatDate(&end),
		Arrivals: h.reports.ArrivalsBetween(start, end),
		Released: h.reports.ReleasedBetween(start, end),
	})
}

// Activity godoc
// @Summary      Weekly arrival and release counts ending with the week of date
// @Tags         reports
// @Param        weeks  query  int     false  "Number of weeks (1-52)"
// @Param        date   query  string  false  "Any day of the last week, defaults to today"
// @Router       /reports/activity [get]
func (h *ReportHandler) Activity(c *gin.Context) {
	weeks, ok := h.intParam(c, "weeks", h.defaults.ActivityWeeks, 1, 52)
	if !ok {
		return
	}
	at, ok := h.dateParam(c, "date")
	if !ok {
		return
	}
	List(c, h.reports.WeeklyActivity(at.AddDate(0, 0, -7*(weeks-1)), weeks))
}

// Companies godoc
// @Summary      Per-company trailer and shipment totals
// @Tags         reports
// @Router       /reports/companies [get]
func (h *ReportHandler) Companies(c *gin.Context) {
	List(c, h.reports.CompanySummaries())
}

// Overdue godoc
// @Summary      Shipments held past their trailer's storage expiry
// @Tags         reports
// @Router       /reports/overdue [get]
func (h *ReportHandler) Overdue(c *gin.Context) {
	List(c, h.reports.OverdueReleases(h.reports.Now()))
}

// Expiring godoc
// @Summary      Trailers whose storage expires within the given days
// @Tags         reports
// @Param        days  query  int  false  "Look-ahead window in days"
// @Router       /reports/expiring [get]
func (h *ReportHandler) Expiring(c *gin.Context) {
	days, ok := h.intParam(c, "days", h.defaults.ExpiryWarningDays, 0, 365)
	if !ok {
		return
	}
	List(c, h.reports.StorageExpiringWithin(h.reports.Now(), time.Duration(days)*24*time.Hour))
}

// Pending godoc
// @Summary      Shipments waiting for a warehouse location
// @Tags         reports
// @Router       /reports/pending [get]
func (h *ReportHandler) Pending(c *gin.Context) {
	List(c, h.reports.PendingAssignment())
}

func (h *ReportHandler) dateParam(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return h.reports.Now(), true
	}
	t, ok := valueobject.ParseTimestamp(raw).Time()
	if !ok {
		h.ValidationError(c, dto.ValidationDetail{Field: name, Message: "Invalid date"})
		return time.Time{}, false
	}
	return t, true
}

func (h *ReportHandler) intParam(c *gin.Context, name string, def, lo, hi int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		h.ValidationError(c, dto.ValidationDetail{
			Field:   name,
			Message: "Must be a number between " + strconv.Itoa(lo) + " and " + strconv.Itoa(hi),
		})
		return 0, false
	}
	return n, true
}
