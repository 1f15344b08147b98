package warehouse

import (
	"slices"
	"strings"
	"time"

	"github.com/shipshape/backend/internal/domain/shared"
	"github.com/shipshape/backend/internal/domain/shared/valueobject"
)

// QuizItem pairs an unreleased shipment with one of its locations for a
// stock-verification pass. Fields are copied so the pairing survives later
// edits or deletion of the shipment.
type QuizItem struct {
	ShipmentID   string `json:"shipmentId"`
	StsJob       int    `json:"stsJob"`
	TrailerID    string `json:"trailerId"`
	TrailerName  string `json:"trailerName"`
	Importer     string `json:"importer"`
	LocationName string `json:"locationName"`
	Pallets      *int   `json:"pallets,omitempty"`
}

// Key identifies the shipment/location pairing
func (q QuizItem) Key() string {
	return q.ShipmentID + "|" + q.LocationName
}

// AnsweredQuizItem is a QuizItem with the operator's yes/no answer
type AnsweredQuizItem struct {
	QuizItem
	Answer bool   `json:"answer"`
	Note   string `json:"note,omitempty"`
}

// QuizReport is an immutable record of one completed verification pass
type QuizReport struct {
	ID          string                `json:"id"`
	CompletedBy string                `json:"completedBy"`
	CompletedAt valueobject.Timestamp `json:"completedAt"`
	Items       []AnsweredQuizItem    `json:"items"`
}

// NewQuizReport builds a report from answered items
func NewQuizReport(id, completedBy string, completedAt time.Time, items []AnsweredQuizItem) (QuizReport, error) {
	if strings.TrimSpace(completedBy) == "" {
		return QuizReport{}, shared.NewDomainError("INVALID_INPUT", "Quiz must record who completed it")
	}
	if len(items) == 0 {
		return QuizReport{}, shared.NewDomainError("INVALID_INPUT", "Quiz report must contain at least one answer")
	}
	return QuizReport{
		ID:          id,
		CompletedBy: strings.TrimSpace(completedBy),
		CompletedAt: valueobject.NewTimestamp(completedAt),
		Items:       cloneAnswers(items),
	}, nil
}

// Discrepancies returns the items answered "no"
func (r QuizReport) Discrepancies() []AnsweredQuizItem {
	out := make([]AnsweredQuizItem, 0)
	for _, it := range r.Items {
		if !it.Answer {
			out = append(out, it)
		}
	}
	return out
}

// Clone returns a deep copy
func (r QuizReport) Clone() QuizReport {
	r.Items = cloneAnswers(r.Items)
	return r
}

func cloneAnswers(items []AnsweredQuizItem) []AnsweredQuizItem {
	if items == nil {
		return nil
	}
	out := slices.Clone(items)
	for i := range out {
		out[i].Pallets = cloneInt(out[i].Pallets)
	}
	return out
}
