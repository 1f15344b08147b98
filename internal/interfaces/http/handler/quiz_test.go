package handler_test

import (
	"net/http"
	"testing"

	"github.com/shipshape/backend/internal/domain/warehouse"
	"github.com/shipshape/backend/internal/interfaces/http/dto"
	"github.com/shipshape/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedQuiz(t *testing.T, api *testAPI) string {
	t.Helper()
	api.createTrailer(t, map[string]any{"id": "T1", "name": "Blue Krone"})
	id := api.createShipment(t, map[string]any{
		"trailerId": "T1",
		"stsJob":    11,
		"importer":  "Imp Ltd",
		"locations": []map[string]any{{"name": "A1", "pallets": 2}, {"name": "A2"}},
	})
	api.createShipment(t, map[string]any{"trailerId": "T1", "stsJob": 12})
	return id
}

func TestQuizHandler_Generate(t *testing.T) {
	api := newTestAPI(t)
	id := seedQuiz(t, api)

	w := api.do(t, http.MethodPost, "/api/v1/quiz/generate", nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	items := testutil.DecodeData[[]warehouse.QuizItem](t, w)
	require.Len(t, items, 2, "pending shipments are not quizzed")
	for _, it := range items {
		assert.Equal(t, id, it.ShipmentID)
		assert.Equal(t, "Blue Krone", it.TrailerName)
	}

	w = api.do(t, http.MethodPost, "/api/v1/quiz/generate", map[string]any{"count": 1})
	assert.Len(t, testutil.DecodeData[[]warehouse.QuizItem](t, w), 1)

	w = api.do(t, http.MethodPost, "/api/v1/quiz/generate", map[string]any{"count": 101})
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}

func TestQuizHandler_CompleteAndManageReports(t *testing.T) {
	api := newTestAPI(t)
	id := seedQuiz(t, api)

	w := api.do(t, http.MethodPost, "/api/v1/quiz/reports", map[string]any{
		"completedBy": "Sam",
		"answers": []map[string]any{
			{"shipmentId": id, "locationName": "A1", "answer": true},
			{"shipmentId": id, "locationName": "A2", "answer": false, "note": "empty bay"},
		},
	})
	testutil.AssertStatus(t, w, http.StatusCreated)

	type reportResponse struct {
		warehouse.QuizReport
		Discrepancies []warehouse.AnsweredQuizItem `json:"discrepancies"`
	}
	created := testutil.DecodeData[reportResponse](t, w)
	assert.Equal(t, "quiz-1", created.ID)
	assert.Equal(t, "Sam", created.CompletedBy)
	require.Len(t, created.Items, 2)
	require.Len(t, created.Discrepancies, 1)
	assert.Equal(t, "A2", created.Discrepancies[0].LocationName)
	assert.Equal(t, "empty bay", created.Discrepancies[0].Note)

	w = api.do(t, http.MethodGet, "/api/v1/quiz/reports", nil)
	assert.Len(t, testutil.DecodeData[[]warehouse.QuizReport](t, w), 1)

	w = api.do(t, http.MethodGet, "/api/v1/quiz/reports/quiz-1", nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = api.do(t, http.MethodDelete, "/api/v1/quiz/reports/quiz-1", nil)
	testutil.AssertStatus(t, w, http.StatusNoContent)

	w = api.do(t, http.MethodGet, "/api/v1/quiz/reports/quiz-1", nil)
	testutil.AssertErrorResponse(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
	assert.Empty(t, api.store.QuizReports())
}

func TestQuizHandler_CompleteRejectsBadAnswers(t *testing.T) {
	tests := []struct {
		name string
		body func(id string) map[string]any
		code string
	}{
		{
			name: "missing completedBy",
			body: func(id string) map[string]any {
				return map[string]any{"answers": []map[string]any{{"shipmentId": id, "locationName": "A1"}}}
			},
			code: dto.ErrCodeValidation,
		},
		{
			name: "no answers",
			body: func(string) map[string]any {
				return map[string]any{"completedBy": "Sam", "answers": []map[string]any{}}
			},
			code: dto.ErrCodeValidation,
		},
		{
			name: "unknown location",
			body: func(id string) map[string]any {
				return map[string]any{
					"completedBy": "Sam",
					"answers":     []map[string]any{{"shipmentId": id, "locationName": "Z9", "answer": true}},
				}
			},
			code: dto.ErrCodeInvalidInput,
		},
		{
			name: "duplicate answer",
			body: func(id string) map[string]any {
				a := map[string]any{"shipmentId": id, "locationName": "A1", "answer": true}
				return map[string]any{"completedBy": "Sam", "answers": []map[string]any{a, a}}
			},
			code: dto.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			id := seedQuiz(t, api)

			w := api.do(t, http.MethodPost, "/api/v1/quiz/reports", tt.body(id))
			testutil.AssertErrorResponse(t, w, http.StatusBadRequest, tt.code)
			assert.Empty(t, api.store.QuizReports())
		})
	}
}
