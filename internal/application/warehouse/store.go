// Package warehouse provides the record store: the authoritative in-memory
// trailer, shipment and quiz report collections, each bound to a durable slot.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/shipshape/backend/internal/domain/shared"
	"github.com/shipshape/backend/internal/domain/shared/valueobject"
	"github.com/shipshape/backend/internal/domain/warehouse"
	"github.com/shipshape/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ChangeEvent is delivered to subscribers after every successful mutation
type ChangeEvent = warehouse.CollectionChangedEvent

// StoreConfig wires a Store. Bindings may be nil for a purely in-memory store.
type StoreConfig struct {
	Trailers    warehouse.CollectionBinding[warehouse.Trailer]
	Shipments   warehouse.CollectionBinding[warehouse.Shipment]
	QuizReports warehouse.CollectionBinding[warehouse.QuizReport]
	Clock       shared.Clock
	IDs         shared.IDGenerator
	EventBus    shared.EventBus
	Logger      *zap.Logger
}

// Store holds the three record collections. Mutations update memory under mu,
// write the affected collections to their bindings with only writeMu held,
// and notify subscribers through the event bus once both are released.
// Replace* never takes writeMu, so a binding that delivers another store's
// write synchronously cannot deadlock two stores against each other. An
// external change that arrives while a local write is in flight is deferred
// and settled by rereading the slot before writeMu is released, so memory
// always ends up holding what the slot holds.
type Store struct {
	trailersBinding    warehouse.CollectionBinding[warehouse.Trailer]
	shipmentsBinding   warehouse.CollectionBinding[warehouse.Shipment]
	quizReportsBinding warehouse.CollectionBinding[warehouse.QuizReport]
	clock              shared.Clock
	ids                shared.IDGenerator
	eventBus           shared.EventBus
	logger             *zap.Logger
	metrics            *telemetry.StoreMetrics

	writeMu     sync.Mutex
	mu          sync.RWMutex
	writing     bool
	stale       map[warehouse.Collection]bool
	trailers    []warehouse.Trailer
	shipments   []warehouse.Shipment
	quizReports []warehouse.QuizReport
}

// NewStore rehydrates the collections from their bindings and starts
// following changes written by other contexts
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.EventBus == nil {
		return nil, errors.New("warehouse store: event bus is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = shared.SystemClock{}
	}
	if cfg.IDs == nil {
		cfg.IDs = shared.UUIDGenerator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &Store{
		trailersBinding:    cfg.Trailers,
		shipmentsBinding:   cfg.Shipments,
		quizReportsBinding: cfg.QuizReports,
		clock:              cfg.Clock,
		ids:                cfg.IDs,
		eventBus:           cfg.EventBus,
		logger:             cfg.Logger.Named("store"),
		stale:              map[warehouse.Collection]bool{},
		trailers:           []warehouse.Trailer{},
		shipments:          []warehouse.Shipment{},
		quizReports:        []warehouse.QuizReport{},
	}

	if b := cfg.Trailers; b != nil {
		s.trailers = s.uniqueTrailers(b.Value())
		b.OnChange(func(items []warehouse.Trailer) {
			s.ReplaceTrailers(context.Background(), items)
		})
	}
	if b := cfg.Shipments; b != nil {
		s.shipments = s.uniqueShipments(b.Value())
		b.OnChange(func(items []warehouse.Shipment) {
			s.ReplaceShipments(context.Background(), items)
		})
	}
	if b := cfg.QuizReports; b != nil {
		s.quizReports = s.uniqueQuizReports(b.Value())
		b.OnChange(func(items []warehouse.QuizReport) {
			s.ReplaceQuizReports(context.Background(), items)
		})
	}

	s.logger.Info("Record store ready",
		zap.Int("trailers", len(s.trailers)),
		zap.Int("shipments", len(s.shipments)),
		zap.Int("quiz_reports", len(s.quizReports)))
	return s, nil
}

// SetMetrics sets the metrics recorder; nil disables recording
func (s *Store) SetMetrics(m *telemetry.StoreMetrics) {
	s.metrics = m
}

// Subscribe registers fn for change events. The returned function
// unsubscribes and may be called more than once.
func (s *Store) Subscribe(fn func(ChangeEvent)) func() {
	handler := &shared.EventHandlerFunc{
		Fn: func(_ context.Context, event shared.DomainEvent) error {
			if e, ok := event.(*warehouse.CollectionChangedEvent); ok {
				fn(*e)
			}
			return nil
		},
		Types: []string{
			warehouse.EventTypeTrailersChanged,
			warehouse.EventTypeShipmentsChanged,
			warehouse.EventTypeQuizReportsChanged,
		},
	}
	s.eventBus.Subscribe(handler)

	var once sync.Once
	return func() {
		once.Do(func() { s.eventBus.Unsubscribe(handler) })
	}
}

// ===================== Trailers =====================

// AddTrailer inserts a trailer. A duplicate id is refused with ErrAlreadyExists
// and leaves the collection untouched.
func (s *Store) AddTrailer(ctx context.Context, in warehouse.NewTrailerInput) (warehouse.Trailer, error) {
	t, err := warehouse.NewTrailer(in)
	if err != nil {
		return warehouse.Trailer{}, err
	}

	s.writeMu.Lock()
	s.mu.Lock()
	if s.trailerIndex(t.ID) >= 0 {
		s.mu.Unlock()
		s.writeMu.Unlock()
		return warehouse.Trailer{}, shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("Trailer %s already exists", t.ID))
	}
	s.trailers = append(s.trailers, t)
	w := pendingWrite{trailers: cloneTrailers(s.trailers)}
	s.writing = true
	s.mu.Unlock()
	count := s.persist(ctx, w)

	s.publish(ctx, warehouse.CollectionTrailers, warehouse.OriginLocal, warehouse.ActionCreated, t.ID, count)
	return t.Clone(), nil
}

// UpdateTrailerStatus sets the status of trailer id. It reports false when the
// trailer does not exist or the status is not canonical.
func (s *Store) UpdateTrailerStatus(ctx context.Context, id string, status warehouse.TrailerStatus) bool {
	if !status.IsValid() {
		return false
	}
	_, ok := s.UpdateTrailer(ctx, id, warehouse.TrailerPatch{Status: &status})
	return ok
}

// UpdateTrailer merges patch into trailer id. It is a no-op returning false
// when the trailer does not exist.
func (s *Store) UpdateTrailer(ctx context.Context, id string, patch warehouse.TrailerPatch) (warehouse.Trailer, bool) {
	s.writeMu.Lock()
	s.mu.Lock()
	i := s.trailerIndex(id)
	if i < 0 {
		s.mu.Unlock()
		s.writeMu.Unlock()
		return warehouse.Trailer{}, false
	}
	patch.Apply(&s.trailers[i])
	updated := s.trailers[i].Clone()
	w := pendingWrite{trailers: cloneTrailers(s.trailers)}
	s.writing = true
	s.mu.Unlock()
	count := s.persist(ctx, w)

	s.publish(ctx, warehouse.CollectionTrailers, warehouse.OriginLocal, warehouse.ActionUpdated, id, count)
	return updated, true
}

// DeleteTrailer removes trailer id and every shipment belonging to it
func (s *Store) DeleteTrailer(ctx context.Context, id string) bool {
	s.writeMu.Lock()
	s.mu.Lock()
	i := s.trailerIndex(id)
	if i < 0 {
		s.mu.Unlock()
		s.writeMu.Unlock()
		return false
	}
	s.trailers = slices.Delete(s.trailers, i, i+1)
	before := len(s.shipments)
	s.shipments = slices.DeleteFunc(s.shipments, func(sh warehouse.Shipment) bool {
		return sh.TrailerID == id
	})
	cascaded := before - len(s.shipments)

	w := pendingWrite{trailers: cloneTrailers(s.trailers)}
	if cascaded > 0 {
		w.shipments = cloneShipments(s.shipments)
	}
	trailerCount, shipmentCount := len(s.trailers), len(s.shipments)
	s.writing = true
	s.mu.Unlock()
	s.persist(ctx, w)

	s.logger.Debug("Trailer deleted",
		zap.String("trailer_id", id),
		zap.Int("cascaded_shipments", cascaded))

	s.publish(ctx, warehouse.CollectionTrailers, warehouse.OriginLocal, warehouse.ActionDeleted, id, trailerCount)
	if cascaded > 0 {
		s.publish(ctx, warehouse.CollectionShipments, warehouse.OriginLocal, warehouse.ActionDeleted, "", shipmentCount)
	}
	return true
}

// GetTrailerByID returns the trailer with the given id
func (s *Store) GetTrailerByID(id string) (warehouse.Trailer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.trailerIndex(id); i >= 0 {
		return s.trailers[i].Clone(), true
	}
	return warehouse.Trailer{}, false
}

// Trailers returns a copy of all trailers in insertion order
func (s *Store) Trailers() []warehouse.Trailer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTrailers(s.trailers)
}

// ReplaceTrailers installs a collection written by another context. It is not
// written back to the slot.
func (s *Store) ReplaceTrailers(ctx context.Context, items []warehouse.Trailer) {
	items = s.uniqueTrailers(items)
	s.mu.Lock()
	if s.writing {
		s.stale[warehouse.CollectionTrailers] = true
		s.mu.Unlock()
		return
	}
	s.trailers = items
	count := len(items)
	s.mu.Unlock()

	s.publish(ctx, warehouse.CollectionTrailers, warehouse.OriginExternal, warehouse.ActionReplaced, "", count)
}

// ===================== Shipments =====================

// AddShipment appends a shipment with a fresh id. The trailer must exist.
func (s *Store) AddShipment(ctx context.Context, in warehouse.NewShipmentInput) (warehouse.Shipment, error) {
	sh, err := warehouse.NewShipment(s.ids.NewID(), in, s.clock.Now())
	if err != nil {
		return warehouse.Shipment{}, err
	}

	s.writeMu.Lock()
	s.mu.Lock()
	if s.trailerIndex(sh.TrailerID) < 0 {
		s.mu.Unlock()
		s.writeMu.Unlock()
		return warehouse.Shipment{}, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Trailer %s does not exist", sh.TrailerID))
	}
	s.shipments = append(s.shipments, sh)
	w := pendingWrite{shipments: cloneShipments(s.shipments)}
	s.writing = true
	s.mu.Unlock()
	count := s.persist(ctx, w)

	s.publish(ctx, warehouse.CollectionShipments, warehouse.OriginLocal, warehouse.ActionCreated, sh.ID, count)
	return sh.Clone(), nil
}

// UpdateShipment merges patch into shipment id. Setting cleared or released
// stamps the matching date with the current time when neither the patch nor
// the record carries one.
func (s *Store) UpdateShipment(ctx context.Context, id string, patch warehouse.ShipmentPatch) (warehouse.Shipment, bool) {
	now := s.clock.Now()

	s.writeMu.Lock()
	s.mu.Lock()
	i := s.shipmentIndex(id)
	if i < 0 {
		s.mu.Unlock()
		s.writeMu.Unlock()
		return warehouse.Shipment{}, false
	}
	patch.Apply(&s.shipments[i], now)
	updated := s.shipments[i].Clone()
	w := pendingWrite{shipments: cloneShipments(s.shipments)}
	s.writing = true
	s.mu.Unlock()
	count := s.persist(ctx, w)

	s.publish(ctx, warehouse.CollectionShipments, warehouse.OriginLocal, warehouse.ActionUpdated, id, count)
	return updated, true
}

// MarkShipmentAsPrinted stamps releasedAt on the first print. Later prints
// leave the timestamp and the slot untouched.
func (s *Store) MarkShipmentAsPrinted(ctx context.Context, id string) (warehouse.Shipment, bool) {
	now := s.clock.Now()

	s.writeMu.Lock()
	s.mu.Lock()
	i := s.shipmentIndex(id)
	if i < 0 {
		s.mu.Unlock()
		s.writeMu.Unlock()
		return warehouse.Shipment{}, false
	}
	changed := s.shipments[i].MarkPrinted(now)
	printed := s.shipments[i].Clone()
	if !changed {
		s.mu.Unlock()
		s.writeMu.Unlock()
		return printed, true
	}
	w := pendingWrite{shipments: cloneShipments(s.shipments)}
	s.writing = true
	s.mu.Unlock()
	count := s.persist(ctx, w)

	s.publish(ctx, warehouse.CollectionShipments, warehouse.OriginLocal, warehouse.ActionPrinted, id, count)
	return printed, true
}

// DeleteShipment removes shipment id
func (s *Store) DeleteShipment(ctx context.Context, id string) bool {
	s.writeMu.Lock()
	s.mu.Lock()
	i := s.shipmentIndex(id)
	if i < 0 {
		s.mu.Unlock()
		s.writeMu.Unlock()
		return false
	}
	s.shipments = slices.Delete(s.shipments, i, i+1)
	w := pendingWrite{shipments: cloneShipments(s.shipments)}
	s.writing = true
	s.mu.Unlock()
	count := s.persist(ctx, w)

	s.publish(ctx, warehouse.CollectionShipments, warehouse.OriginLocal, warehouse.ActionDeleted, id, count)
	return true
}

// GetShipmentByID returns the shipment with the given id
func (s *Store) GetShipmentByID(id string) (warehouse.Shipment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.shipmentIndex(id); i >= 0 {
		return s.shipments[i].Clone(), true
	}
	return warehouse.Shipment{}, false
}

// GetShipmentsByTrailerID returns the trailer's shipments in insertion order
func (s *Store) GetShipmentsByTrailerID(trailerID string) []warehouse.Shipment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]warehouse.Shipment, 0)
	for _, sh := range s.shipments {
		if sh.TrailerID == trailerID {
			out = append(out, sh.Clone())
		}
	}
	return out
}

// LookupShipmentByCode finds the first shipment a scanned code refers to
func (s *Store) LookupShipmentByCode(code string) (warehouse.Shipment, bool) {
	code = strings.TrimSpace(code)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sh := range s.shipments {
		if sh.MatchesCode(code) {
			return sh.Clone(), true
		}
	}
	return warehouse.Shipment{}, false
}

// Shipments returns a copy of all shipments in insertion order
func (s *Store) Shipments() []warehouse.Shipment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneShipments(s.shipments)
}

// ReplaceShipments installs a collection written by another context. It is
// not written back to the slot.
func (s *Store) ReplaceShipments(ctx context.Context, items []warehouse.Shipment) {
	items = s.uniqueShipments(items)
	s.mu.Lock()
	if s.writing {
		s.stale[warehouse.CollectionShipments] = true
		s.mu.Unlock()
		return
	}
	s.shipments = items
	count := len(items)
	s.mu.Unlock()

	s.publish(ctx, warehouse.CollectionShipments, warehouse.OriginExternal, warehouse.ActionReplaced, "", count)
}

// ===================== Quiz reports =====================

// AddQuizReport appends a completed report. A missing id is generated and a
// missing completion time is stamped.
func (s *Store) AddQuizReport(ctx context.Context, r warehouse.QuizReport) (warehouse.QuizReport, error) {
	r = r.Clone()
	if r.ID == "" {
		r.ID = s.ids.NewID()
	}
	if r.CompletedAt.IsZero() {
		r.CompletedAt = valueobject.NewTimestamp(s.clock.Now())
	}

	s.writeMu.Lock()
	s.mu.Lock()
	if s.quizReportIndex(r.ID) >= 0 {
		s.mu.Unlock()
		s.writeMu.Unlock()
		return warehouse.QuizReport{}, shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("Quiz report %s already exists", r.ID))
	}
	s.quizReports = append(s.quizReports, r)
	w := pendingWrite{quizReports: cloneQuizReports(s.quizReports)}
	s.writing = true
	s.mu.Unlock()
	count := s.persist(ctx, w)

	s.publish(ctx, warehouse.CollectionQuizReports, warehouse.OriginLocal, warehouse.ActionCreated, r.ID, count)
	return r.Clone(), nil
}

// GetQuizReportByID returns the report with the given id
func (s *Store) GetQuizReportByID(id string) (warehouse.QuizReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.quizReportIndex(id); i >= 0 {
		return s.quizReports[i].Clone(), true
	}
	return warehouse.QuizReport{}, false
}

// QuizReports returns a copy of all reports in completion order
func (s *Store) QuizReports() []warehouse.QuizReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneQuizReports(s.quizReports)
}

// DeleteQuizReport removes report id
func (s *Store) DeleteQuizReport(ctx context.Context, id string) bool {
	s.writeMu.Lock()
	s.mu.Lock()
	i := s.quizReportIndex(id)
	if i < 0 {
		s.mu.Unlock()
		s.writeMu.Unlock()
		return false
	}
	s.quizReports = slices.Delete(s.quizReports, i, i+1)
	w := pendingWrite{quizReports: cloneQuizReports(s.quizReports)}
	s.writing = true
	s.mu.Unlock()
	count := s.persist(ctx, w)

	s.publish(ctx, warehouse.CollectionQuizReports, warehouse.OriginLocal, warehouse.ActionDeleted, id, count)
	return true
}

// ReplaceQuizReports installs a collection written by another context. It is
// not written back to the slot.
func (s *Store) ReplaceQuizReports(ctx context.Context, items []warehouse.QuizReport) {
	items = s.uniqueQuizReports(items)
	s.mu.Lock()
	if s.writing {
		s.stale[warehouse.CollectionQuizReports] = true
		s.mu.Unlock()
		return
	}
	s.quizReports = items
	count := len(items)
	s.mu.Unlock()

	s.publish(ctx, warehouse.CollectionQuizReports, warehouse.OriginExternal, warehouse.ActionReplaced, "", count)
}

// ===================== Internals =====================

// pendingWrite holds the collections a mutation changed, captured under mu.
// A nil slice means the collection was not touched.
type pendingWrite struct {
	trailers    []warehouse.Trailer
	shipments   []warehouse.Shipment
	quizReports []warehouse.QuizReport
}

// persist saves w to the bindings and releases writeMu, which the caller
// must hold with writing set. It returns the length of the last collection
// written.
func (s *Store) persist(ctx context.Context, w pendingWrite) int {
	count := 0
	if w.trailers != nil {
		count = len(w.trailers)
		if s.trailersBinding != nil {
			s.trailersBinding.Save(ctx, w.trailers)
		}
	}
	if w.shipments != nil {
		count = len(w.shipments)
		if s.shipmentsBinding != nil {
			s.shipmentsBinding.Save(ctx, w.shipments)
		}
	}
	if w.quizReports != nil {
		count = len(w.quizReports)
		if s.quizReportsBinding != nil {
			s.quizReportsBinding.Save(ctx, w.quizReports)
		}
	}

	reloaded := s.settle(ctx)
	s.writeMu.Unlock()

	for _, r := range reloaded {
		s.publish(ctx, r.collection, warehouse.OriginExternal, warehouse.ActionReplaced, "", r.count)
	}
	return count
}

type reloadedCollection struct {
	collection warehouse.Collection
	count      int
}

// settle installs the current slot value of every collection that received
// an external change during the write, then clears writing. Changes that
// arrive while rereading are deferred again and picked up by the next pass.
func (s *Store) settle(ctx context.Context) []reloadedCollection {
	var reloaded []reloadedCollection
	for {
		s.mu.Lock()
		stale := s.stale
		if len(stale) == 0 {
			s.writing = false
			s.mu.Unlock()
			return reloaded
		}
		s.stale = map[warehouse.Collection]bool{}
		s.mu.Unlock()

		for _, c := range warehouse.AllCollections() {
			if !stale[c] {
				continue
			}
			if n, ok := s.reload(ctx, c); ok {
				reloaded = append(reloaded, reloadedCollection{collection: c, count: n})
			}
		}
	}
}

// reload rereads collection c from its binding and installs it
func (s *Store) reload(ctx context.Context, c warehouse.Collection) (int, bool) {
	switch c {
	case warehouse.CollectionTrailers:
		if s.trailersBinding == nil {
			return 0, false
		}
		items := s.uniqueTrailers(s.trailersBinding.Refresh(ctx))
		s.mu.Lock()
		defer s.mu.Unlock()
		s.trailers = items
		return len(items), true
	case warehouse.CollectionShipments:
		if s.shipmentsBinding == nil {
			return 0, false
		}
		items := s.uniqueShipments(s.shipmentsBinding.Refresh(ctx))
		s.mu.Lock()
		defer s.mu.Unlock()
		s.shipments = items
		return len(items), true
	default:
		if s.quizReportsBinding == nil {
			return 0, false
		}
		items := s.uniqueQuizReports(s.quizReportsBinding.Refresh(ctx))
		s.mu.Lock()
		defer s.mu.Unlock()
		s.quizReports = items
		return len(items), true
	}
}

// publish notifies subscribers. Delivery is not tied to the caller's
// cancellation since the mutation has already happened.
func (s *Store) publish(ctx context.Context, c warehouse.Collection, origin warehouse.Origin, action warehouse.Action, recordID string, count int) {
	ctx = context.WithoutCancel(ctx)

	if s.metrics != nil {
		s.metrics.RecordMutation(ctx, string(c), string(action), string(origin))
		if c == warehouse.CollectionShipments {
			unreleased, pending := s.backlog()
			s.metrics.RecordShipmentBacklog(ctx, unreleased, pending)
		}
	}

	event := warehouse.NewCollectionChangedEvent(c, origin, action, recordID, count, s.clock.Now())
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish change event",
			zap.String("collection", string(c)),
			zap.Error(err))
	}
}

func (s *Store) backlog() (unreleased, pending int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sh := range s.shipments {
		if !sh.Released {
			unreleased++
		}
		if sh.IsPendingAssignment() {
			pending++
		}
	}
	return unreleased, pending
}

func (s *Store) trailerIndex(id string) int {
	return slices.IndexFunc(s.trailers, func(t warehouse.Trailer) bool { return t.ID == id })
}

func (s *Store) shipmentIndex(id string) int {
	return slices.IndexFunc(s.shipments, func(sh warehouse.Shipment) bool { return sh.ID == id })
}

func (s *Store) quizReportIndex(id string) int {
	return slices.IndexFunc(s.quizReports, func(r warehouse.QuizReport) bool { return r.ID == id })
}

// uniqueTrailers copies items keeping the first trailer of each id, so a slot
// written by older code cannot break id uniqueness
func (s *Store) uniqueTrailers(items []warehouse.Trailer) []warehouse.Trailer {
	return unique(s.logger, warehouse.CollectionTrailers, items,
		func(t warehouse.Trailer) string { return t.ID },
		warehouse.Trailer.Clone)
}

func (s *Store) uniqueShipments(items []warehouse.Shipment) []warehouse.Shipment {
	return unique(s.logger, warehouse.CollectionShipments, items,
		func(sh warehouse.Shipment) string { return sh.ID },
		func(sh warehouse.Shipment) warehouse.Shipment {
			sh = sh.Clone()
			if len(sh.Locations) == 0 {
				sh.Locations = warehouse.PendingLocations()
			}
			return sh
		})
}

func (s *Store) uniqueQuizReports(items []warehouse.QuizReport) []warehouse.QuizReport {
	return unique(s.logger, warehouse.CollectionQuizReports, items,
		func(r warehouse.QuizReport) string { return r.ID },
		warehouse.QuizReport.Clone)
}

func unique[T any](logger *zap.Logger, c warehouse.Collection, items []T, key func(T) string, clone func(T) T) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if _, dup := seen[k]; dup {
			logger.Warn("Dropping duplicate record",
				zap.String("collection", string(c)),
				zap.String("id", k))
			continue
		}
		seen[k] = struct{}{}
		out = append(out, clone(it))
	}
	return out
}

func cloneTrailers(items []warehouse.Trailer) []warehouse.Trailer {
	out := make([]warehouse.Trailer, len(items))
	for i, t := range items {
		out[i] = t.Clone()
	}
	return out
}

func cloneShipments(items []warehouse.Shipment) []warehouse.Shipment {
	out := make([]warehouse.Shipment, len(items))
	for i, sh := range items {
		out[i] = sh.Clone()
	}
	return out
}

func cloneQuizReports(items []warehouse.QuizReport) []warehouse.QuizReport {
	out := make([]warehouse.QuizReport, len(items))
	for i, r := range items {
		out[i] = r.Clone()
	}
	return out
}
