package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/shipshape/backend/internal/domain/warehouse"
	"github.com/shipshape/backend/internal/interfaces/http/dto"
	"github.com/shipshape/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShipmentHandler_Create(t *testing.T) {
	api := newTestAPI(t)
	api.createTrailer(t, map[string]any{"id": "T1"})

	w := api.do(t, http.MethodPost, "/api/v1/shipments", map[string]any{
		"trailerId": "T1",
		"stsJob":    48213,
		"mrn":       "24GB1234567890ABC1",
		"quantity":  24,
		"importer":  "Imp Ltd",
		"locations": []map[string]any{{"name": "A1-03", "pallets": 4}, {"name": "A1-04", "pallets": 2}},
	})
	testutil.AssertStatus(t, w, http.StatusCreated)

	created := testutil.DecodeData[warehouse.Shipment](t, w)
	assert.Equal(t, "tab-1-1", created.ID)
	assert.False(t, created.Released)
	assert.False(t, created.Cleared)
	assert.Equal(t, 6, created.TotalPallets())

	t.Run("no locations means pending assignment", func(t *testing.T) {
		id := api.createShipment(t, map[string]any{"trailerId": "T1", "stsJob": 2})
		s, ok := api.store.GetShipmentByID(id)
		require.True(t, ok)
		assert.True(t, s.IsPendingAssignment())
	})

	t.Run("unknown trailer", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/shipments", map[string]any{"trailerId": "T9", "stsJob": 3})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
		assert.Len(t, api.store.Shipments(), 2)
	})

	t.Run("missing sts job", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/shipments", map[string]any{"trailerId": "T1"})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})

	t.Run("quantity and weight must be positive", func(t *testing.T) {
		for _, body := range []map[string]any{
			{"trailerId": "T1", "stsJob": 5, "quantity": 0},
			{"trailerId": "T1", "stsJob": 5, "weight": 0},
		} {
			w := api.do(t, http.MethodPost, "/api/v1/shipments", body)
			testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
		}
		assert.Len(t, api.store.Shipments(), 2)
	})

	t.Run("location without a name", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/shipments", map[string]any{
			"trailerId": "T1",
			"stsJob":    4,
			"locations": []map[string]any{{"pallets": 1}},
		})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})
}

func TestShipmentHandler_ListFilters(t *testing.T) {
	api := newTestAPI(t)
	api.createTrailer(t, map[string]any{"id": "T1"})
	first := api.createShipment(t, map[string]any{"trailerId": "T1", "stsJob": 1})
	api.createShipment(t, map[string]any{"trailerId": "T1", "stsJob": 2})

	w := api.do(t, http.MethodPatch, "/api/v1/shipments/"+first, map[string]any{"released": true})
	testutil.AssertStatus(t, w, http.StatusOK)

	w = api.do(t, http.MethodGet, "/api/v1/shipments?released=true", nil)
	released := testutil.DecodeData[[]warehouse.Shipment](t, w)
	require.Len(t, released, 1)
	assert.Equal(t, first, released[0].ID)

	w = api.do(t, http.MethodGet, "/api/v1/shipments?released=false&cleared=false", nil)
	assert.Len(t, testutil.DecodeData[[]warehouse.Shipment](t, w), 1)

	w = api.do(t, http.MethodGet, "/api/v1/shipments?cleared=maybe", nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}

func TestShipmentHandler_Update(t *testing.T) {
	api := newTestAPI(t)
	api.createTrailer(t, map[string]any{"id": "T1"})
	id := api.createShipment(t, map[string]any{
		"trailerId": "T1",
		"stsJob":    7,
		"locations": []map[string]any{{"name": "B2"}},
	})

	w := api.do(t, http.MethodPatch, "/api/v1/shipments/"+id, map[string]any{
		"cleared":   true,
		"locations": []map[string]any{},
	})
	testutil.AssertStatus(t, w, http.StatusOK)
	updated := testutil.DecodeData[warehouse.Shipment](t, w)
	assert.True(t, updated.Cleared)
	clearedAt, ok := updated.ClearanceDate.Time()
	require.True(t, ok)
	assert.True(t, clearedAt.Equal(testutil.ReferenceTime))
	assert.True(t, updated.IsPendingAssignment())

	t.Run("explicit date wins", func(t *testing.T) {
		w := api.do(t, http.MethodPatch, "/api/v1/shipments/"+id, map[string]any{
			"released":   true,
			"releasedAt": "2024-02-01",
		})
		testutil.AssertStatus(t, w, http.StatusOK)
		at, ok := testutil.DecodeData[warehouse.Shipment](t, w).ReleasedAt.Time()
		require.True(t, ok)
		assert.Equal(t, "2024-02-01", at.Format(time.DateOnly))
	})

	t.Run("garbled date", func(t *testing.T) {
		w := api.do(t, http.MethodPatch, "/api/v1/shipments/"+id, map[string]any{"clearanceDate": "soon"})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})

	t.Run("zero quantity or weight", func(t *testing.T) {
		for _, body := range []map[string]any{{"quantity": 0}, {"weight": 0}} {
			w := api.do(t, http.MethodPatch, "/api/v1/shipments/"+id, body)
			testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
		}
	})

	t.Run("unknown shipment", func(t *testing.T) {
		w := api.do(t, http.MethodPatch, "/api/v1/shipments/nope", map[string]any{"cleared": true})
		testutil.AssertErrorResponse(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
	})
}

func TestShipmentHandler_PrintIsIdempotent(t *testing.T) {
	api := newTestAPI(t)
	api.createTrailer(t, map[string]any{"id": "T1"})
	id := api.createShipment(t, map[string]any{"trailerId": "T1", "stsJob": 5})
	w := api.do(t, http.MethodPatch, "/api/v1/shipments/"+id, map[string]any{"released": true, "cleared": true})
	testutil.AssertStatus(t, w, http.StatusOK)

	w = api.do(t, http.MethodPost, "/api/v1/shipments/"+id+"/print", nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	first := testutil.DecodeData[warehouse.Shipment](t, w).ReleasedAt

	api.store.Clock.Advance(time.Hour)
	w = api.do(t, http.MethodPost, "/api/v1/shipments/"+id+"/print", nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	second := testutil.DecodeData[warehouse.Shipment](t, w).ReleasedAt

	assert.True(t, first.IsValid())
	assert.True(t, first.Equal(second))

	w = api.do(t, http.MethodPost, "/api/v1/shipments/nope/print", nil)
	testutil.AssertErrorResponse(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
}

func TestShipmentHandler_PrintRequiresReleasedAndCleared(t *testing.T) {
	api := newTestAPI(t)
	api.createTrailer(t, map[string]any{"id": "T1"})
	id := api.createShipment(t, map[string]any{"trailerId": "T1", "stsJob": 6})

	tests := []struct {
		name  string
		patch map[string]any
	}{
		{"neither", nil},
		{"released only", map[string]any{"released": true}},
		{"cleared only", map[string]any{"released": false, "cleared": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.patch != nil {
				w := api.do(t, http.MethodPatch, "/api/v1/shipments/"+id, tt.patch)
				testutil.AssertStatus(t, w, http.StatusOK)
			}
			before, ok := api.store.GetShipmentByID(id)
			require.True(t, ok)

			w := api.do(t, http.MethodPost, "/api/v1/shipments/"+id+"/print", nil)
			testutil.AssertErrorResponse(t, w, http.StatusConflict, dto.ErrCodeConflict)

			after, ok := api.store.GetShipmentByID(id)
			require.True(t, ok)
			assert.True(t, before.ReleasedAt.Equal(after.ReleasedAt), "a refused print stamps nothing")
		})
	}
}

func TestShipmentHandler_Lookup(t *testing.T) {
	api := newTestAPI(t)
	api.createTrailer(t, map[string]any{"id": "T1"})
	id := api.createShipment(t, map[string]any{
		"trailerId":         "T1",
		"stsJob":            48213,
		"customerJobNumber": "CJ-77",
		"mrn":               "24GB1234567890ABC1",
	})

	for _, code := range []string{"48213", "cj-77", "24gb1234567890abc1", id} {
		w := api.do(t, http.MethodGet, "/api/v1/shipments/lookup?code="+code, nil)
		testutil.AssertStatus(t, w, http.StatusOK)
		assert.Equal(t, id, testutil.DecodeData[warehouse.Shipment](t, w).ID, code)
	}

	w := api.do(t, http.MethodGet, "/api/v1/shipments/lookup?code=99999", nil)
	testutil.AssertErrorResponse(t, w, http.StatusNotFound, dto.ErrCodeNotFound)

	w = api.do(t, http.MethodGet, "/api/v1/shipments/lookup", nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}

func TestShipmentHandler_GetAndDelete(t *testing.T) {
	api := newTestAPI(t)
	api.createTrailer(t, map[string]any{"id": "T1"})
	id := api.createShipment(t, map[string]any{"trailerId": "T1", "stsJob": 1})

	w := api.do(t, http.MethodGet, "/api/v1/shipments/"+id, nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = api.do(t, http.MethodDelete, "/api/v1/shipments/"+id, nil)
	testutil.AssertStatus(t, w, http.StatusNoContent)

	w = api.do(t, http.MethodGet, "/api/v1/shipments/"+id, nil)
	testutil.AssertErrorResponse(t, w, http.StatusNotFound, dto.ErrCodeNotFound)

	w = api.do(t, http.MethodDelete, "/api/v1/shipments/"+id, nil)
	testutil.AssertErrorResponse(t, w, http.StatusNotFound, dto.ErrCodeNotFound)

	_, ok := api.store.GetTrailerByID("T1")
	assert.True(t, ok, "deleting a shipment leaves its trailer")
}
