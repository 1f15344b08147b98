// Package quiz runs stock-verification passes: it samples shipment/location
// pairs for an operator to confirm and records the answers as a QuizReport.
package quiz

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	appwarehouse "github.com/shipshape/backend/internal/application/warehouse"
	"github.com/shipshape/backend/internal/domain/shared"
	"github.com/shipshape/backend/internal/domain/warehouse"
	"go.uber.org/zap"
)

// DefaultQuizSize is used when Generate is asked for a non-positive count
const DefaultQuizSize = 10

// ReportStore is the part of the record store the quiz needs
type ReportStore interface {
	Snapshot() appwarehouse.Snapshot
	AddQuizReport(ctx context.Context, r warehouse.QuizReport) (warehouse.QuizReport, error)
}

// Answer is the operator's response for one generated item
type Answer struct {
	ShipmentID   string `json:"shipmentId" binding:"required"`
	LocationName string `json:"locationName" binding:"required"`
	Answer       bool   `json:"answer"`
	Note         string `json:"note,omitempty" binding:"max=500"`
}

// QuizService generates and completes verification passes
type QuizService struct {
	store  ReportStore
	clock  shared.Clock
	ids    shared.IDGenerator
	logger *zap.Logger

	// rng is not safe for concurrent use
	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a QuizService
type Option func(*QuizService)

// WithRand sets the random source used to sample items
func WithRand(src rand.Source) Option {
	return func(s *QuizService) {
		s.rng = rand.New(src)
	}
}

// WithClock sets the clock stamped on completed reports
func WithClock(c shared.Clock) Option {
	return func(s *QuizService) {
		s.clock = c
	}
}

// WithIDGenerator sets the report id generator
func WithIDGenerator(g shared.IDGenerator) Option {
	return func(s *QuizService) {
		s.ids = g
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *QuizService) {
		s.logger = l
	}
}

// NewQuizService creates a new QuizService
func NewQuizService(store ReportStore, opts ...Option) *QuizService {
	s := &QuizService{
		store:  store,
		clock:  shared.SystemClock{},
		ids:    shared.UUIDGenerator{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// Generate picks up to count distinct shipment/location pairs from the
// unreleased shipments. Shipments still pending assignment have no location
// to check and are skipped.
func (s *QuizService) Generate(count int) []warehouse.QuizItem {
	if count <= 0 {
		count = DefaultQuizSize
	}
	pool := candidates(s.store.Snapshot())

	s.rngMu.Lock()
	s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	s.rngMu.Unlock()

	if len(pool) > count {
		pool = pool[:count]
	}
	return pool
}

// Complete validates answers against the current records and stores the
// resulting report. Every answer must name an unreleased shipment and one
// of its locations, at most once.
func (s *QuizService) Complete(ctx context.Context, completedBy string, answers []Answer) (warehouse.QuizReport, error) {
	items := make(map[string]warehouse.QuizItem)
	for _, it := range candidates(s.store.Snapshot()) {
		items[it.Key()] = it
	}

	answered := make([]warehouse.AnsweredQuizItem, 0, len(answers))
	seen := make(map[string]bool, len(answers))
	for _, a := range answers {
		key := warehouse.QuizItem{ShipmentID: a.ShipmentID, LocationName: a.LocationName}.Key()
		it, ok := items[key]
		if !ok {
			return warehouse.QuizReport{}, shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("No quiz item for shipment %s at %s", a.ShipmentID, a.LocationName))
		}
		if seen[key] {
			return warehouse.QuizReport{}, shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("Shipment %s at %s answered twice", a.ShipmentID, a.LocationName))
		}
		seen[key] = true
		answered = append(answered, warehouse.AnsweredQuizItem{QuizItem: it, Answer: a.Answer, Note: a.Note})
	}

	report, err := warehouse.NewQuizReport(s.ids.NewID(), completedBy, s.clock.Now(), answered)
	if err != nil {
		return warehouse.QuizReport{}, err
	}
	stored, err := s.store.AddQuizReport(ctx, report)
	if err != nil {
		return warehouse.QuizReport{}, fmt.Errorf("failed to store quiz report: %w", err)
	}

	if d := len(stored.Discrepancies()); d > 0 {
		s.logger.Info("Quiz completed with discrepancies",
			zap.String("report_id", stored.ID),
			zap.String("completed_by", stored.CompletedBy),
			zap.Int("discrepancies", d))
	}
	return stored, nil
}

// Discrepancies returns the items of r answered "no"
func Discrepancies(r warehouse.QuizReport) []warehouse.AnsweredQuizItem {
	return r.Discrepancies()
}

func candidates(snap appwarehouse.Snapshot) []warehouse.QuizItem {
	trailers := snap.TrailerIndex()
	out := make([]warehouse.QuizItem, 0)
	for _, sh := range snap.Shipments {
		if sh.Released || sh.IsPendingAssignment() {
			continue
		}
		t := trailers[sh.TrailerID]
		for _, loc := range sh.Locations {
			if loc.Name == warehouse.PendingAssignment {
				continue
			}
			out = append(out, warehouse.QuizItem{
				ShipmentID:   sh.ID,
				StsJob:       sh.StsJob,
				TrailerID:    sh.TrailerID,
				TrailerName:  t.DisplayName(),
				Importer:     sh.Importer,
				LocationName: loc.Name,
				Pallets:      loc.Pallets,
			})
		}
	}
	return out
}
