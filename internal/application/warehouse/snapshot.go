package warehouse

import (
	"time"

	"github.com/shipshape/backend/internal/domain/warehouse"
)

// Snapshot is a consistent copy of all three collections
type Snapshot struct {
	Trailers    []warehouse.Trailer
	Shipments   []warehouse.Shipment
	QuizReports []warehouse.QuizReport
	TakenAt     time.Time
}

// Snapshot copies every collection under a single read lock, so derived
// queries never see a trailer deleted without its shipments
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Trailers:    cloneTrailers(s.trailers),
		Shipments:   cloneShipments(s.shipments),
		QuizReports: cloneQuizReports(s.quizReports),
		TakenAt:     s.clock.Now(),
	}
}

// TrailerIndex maps trailer ids to trailers
func (sn Snapshot) TrailerIndex() map[string]warehouse.Trailer {
	idx := make(map[string]warehouse.Trailer, len(sn.Trailers))
	for _, t := range sn.Trailers {
		idx[t.ID] = t
	}
	return idx
}
