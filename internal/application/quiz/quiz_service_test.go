package quiz

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/shipshape/backend/internal/domain/shared"
	"github.com/shipshape/backend/internal/domain/warehouse"
	"github.com/shipshape/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func seedStore(t *testing.T) *testutil.TestStore {
	t.Helper()
	ctx := context.Background()
	store := testutil.NewTestStore(t)
	store.ReplaceTrailers(ctx, []warehouse.Trailer{{ID: "T1", Name: "Blue"}})
	store.ReplaceShipments(ctx, []warehouse.Shipment{
		{ID: "S1", TrailerID: "T1", StsJob: 11, Locations: []warehouse.Location{{Name: "A1"}, {Name: "A2"}}},
		{ID: "S2", TrailerID: "T1", StsJob: 12, Locations: []warehouse.Location{{Name: "B1"}}},
		{ID: "S3", TrailerID: "T1", StsJob: 13},
		{ID: "S4", TrailerID: "T1", StsJob: 14, Released: true, Locations: []warehouse.Location{{Name: "C1"}}},
	})
	return store
}

func newTestService(store *testutil.TestStore, opts ...Option) *QuizService {
	base := []Option{
		WithRand(rand.NewPCG(1, 2)),
		WithClock(store.Clock),
		WithIDGenerator(testutil.NewSequenceIDs("quiz")),
	}
	return NewQuizService(store, append(base, opts...)...)
}

func TestQuizService_Generate(t *testing.T) {
	store := seedStore(t)
	svc := newTestService(store)

	all := svc.Generate(50)
	keys := make([]string, 0, len(all))
	for _, it := range all {
		keys = append(keys, it.Key())
		assert.Equal(t, "Blue", it.TrailerName)
	}
	assert.ElementsMatch(t, []string{"S1|A1", "S1|A2", "S2|B1"}, keys,
		"released and unassigned shipments are not quizzed")

	assert.Len(t, svc.Generate(2), 2)
	assert.Len(t, svc.Generate(0), 3, "non-positive count uses the default size")
}

func TestQuizService_GenerateIsDeterministicForASeed(t *testing.T) {
	store := seedStore(t)
	a := newTestService(store).Generate(3)
	b := newTestService(store).Generate(3)
	assert.Equal(t, a, b)
}

func TestQuizService_Complete(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)
	core, logs := observer.New(zap.InfoLevel)
	svc := newTestService(store, WithLogger(zap.New(core)))

	report, err := svc.Complete(ctx, " Sam ", []Answer{
		{ShipmentID: "S1", LocationName: "A1", Answer: true},
		{ShipmentID: "S2", LocationName: "B1", Answer: false, Note: "bay empty"},
	})
	require.NoError(t, err)

	assert.Equal(t, "quiz-1", report.ID)
	assert.Equal(t, "Sam", report.CompletedBy)
	completed, ok := report.CompletedAt.Time()
	require.True(t, ok)
	assert.Equal(t, testutil.ReferenceTime, completed)
	require.Len(t, report.Items, 2)
	assert.Equal(t, 11, report.Items[0].StsJob)

	missing := Discrepancies(report)
	require.Len(t, missing, 1)
	assert.Equal(t, "S2", missing[0].ShipmentID)
	assert.Equal(t, "bay empty", missing[0].Note)
	assert.Equal(t, 1, logs.FilterMessage("Quiz completed with discrepancies").Len())

	stored, ok := store.GetQuizReportByID(report.ID)
	require.True(t, ok)
	assert.Equal(t, report, stored)
}

func TestQuizService_CompleteRejectsBadAnswers(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)
	svc := newTestService(store)

	tests := []struct {
		name        string
		completedBy string
		answers     []Answer
	}{
		{"unknown shipment", "Sam", []Answer{{ShipmentID: "S9", LocationName: "A1"}}},
		{"location of another shipment", "Sam", []Answer{{ShipmentID: "S1", LocationName: "B1"}}},
		{"released shipment", "Sam", []Answer{{ShipmentID: "S4", LocationName: "C1"}}},
		{"answered twice", "Sam", []Answer{
			{ShipmentID: "S1", LocationName: "A1"},
			{ShipmentID: "S1", LocationName: "A1", Answer: true},
		}},
		{"no answers", "Sam", nil},
		{"anonymous", "  ", []Answer{{ShipmentID: "S1", LocationName: "A1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Complete(ctx, tt.completedBy, tt.answers)
			require.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}
	assert.Empty(t, store.QuizReports())
}
