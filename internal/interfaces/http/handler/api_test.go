package handler_test

import (
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shipshape/backend/internal/application/quiz"
	"github.com/shipshape/backend/internal/application/report"
	"github.com/shipshape/backend/internal/interfaces/http/handler"
	"github.com/shipshape/backend/internal/interfaces/http/router"
	"github.com/shipshape/backend/tests/testutil"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	engine *gin.Engine
	store  *testutil.TestStore
}

// newTestAPI serves the full route table over a fresh in-memory store
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := testutil.NewTestStore(t)
	engine, err := router.NewEngine(router.EngineConfig{MaxBodySize: 1 << 20})
	require.NoError(t, err)

	reports := report.NewReportService(store, store.Clock, nil)
	quizzes := quiz.NewQuizService(store.Store,
		quiz.WithClock(store.Clock),
		quiz.WithIDGenerator(testutil.NewSequenceIDs("quiz")),
		quiz.WithRand(rand.NewPCG(1, 2)),
	)

	h := router.Handlers{
		System:    handler.NewSystemHandler("shipshape", "test", handler.StorageInfo{Driver: "memory"}, store.Clock),
		Trailers:  handler.NewTrailerHandler(store.Store),
		Shipments: handler.NewShipmentHandler(store.Store),
		Reports:   handler.NewReportHandler(reports, handler.ReportDefaults{ExpiryWarningDays: 7, ActivityWeeks: 4}),
		Quiz:      handler.NewQuizHandler(quizzes, store.Store, 10),
	}
	router.NewRouter(engine).Register(h.Groups()...).Setup()

	return &testAPI{engine: engine, store: store}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.PerformRequest(t, a.engine, method, path, body)
}

func (a *testAPI) createTrailer(t *testing.T, body map[string]any) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/trailers", body)
	testutil.AssertStatus(t, w, http.StatusCreated)
}

func (a *testAPI) createShipment(t *testing.T, body map[string]any) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/shipments", body)
	testutil.AssertStatus(t, w, http.StatusCreated)
	created := testutil.DecodeData[struct {
		ID string `json:"id"`
	}](t, w)
	return created.ID
}
