package warehouse

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shipshape/backend/internal/domain/shared"
	"github.com/shipshape/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrailerStatus(t *testing.T) {
	tests := []struct {
		input string
		want  TrailerStatus
		ok    bool
	}{
		{"Scheduled", TrailerStatusScheduled, true},
		{"arrived", TrailerStatusArrived, true},
		{" Offloading ", TrailerStatusOffloading, true},
		{"Docked", TrailerStatusArrived, true},
		{"In-Transit", TrailerStatusScheduled, true},
		{"Unloading", TrailerStatusOffloading, true},
		{"Empty", TrailerStatusEmpty, true},
		{"Loading", TrailerStatusLoading, true},
		{"Parked", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseTrailerStatus(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTrailerStatus_UnmarshalJSON(t *testing.T) {
	var tr Trailer
	require.NoError(t, json.Unmarshal([]byte(`{"id":"T1","name":"A","status":"Docked"}`), &tr))
	assert.Equal(t, TrailerStatusArrived, tr.Status)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"T1","name":"A","status":"Lost"}`), &tr))
	assert.Equal(t, DefaultTrailerStatus, tr.Status)
}

func TestNewTrailer(t *testing.T) {
	t.Run("defaults status", func(t *testing.T) {
		tr, err := NewTrailer(NewTrailerInput{ID: "TR-1", Name: "North"})
		require.NoError(t, err)
		assert.Equal(t, TrailerStatusScheduled, tr.Status)
	})

	t.Run("rejects empty id", func(t *testing.T) {
		_, err := NewTrailer(NewTrailerInput{ID: "  "})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := NewTrailer(NewTrailerInput{ID: "TR-1", Status: "Parked"})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("copies weight", func(t *testing.T) {
		w := decimal.NewFromInt(1200)
		tr, err := NewTrailer(NewTrailerInput{ID: "TR-1", Weight: &w})
		require.NoError(t, err)
		w = decimal.NewFromInt(1)
		assert.True(t, tr.Weight.Equal(decimal.NewFromInt(1200)))
	})
}

func TestTrailerPatch_Apply(t *testing.T) {
	arrival := valueobject.NewTimestamp(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	w := decimal.NewFromInt(900)
	base := Trailer{
		ID:           "TR-1",
		Name:         "North",
		Status:       TrailerStatusScheduled,
		Company:      "Acme",
		ArrivalDate:  arrival,
		Weight:       &w,
		CustomField1: "seal 77",
	}

	t.Run("unset fields are unchanged", func(t *testing.T) {
		tr := base.Clone()
		name := "South"
		TrailerPatch{Name: &name}.Apply(&tr)
		assert.Equal(t, "South", tr.Name)
		assert.Equal(t, "Acme", tr.Company)
		assert.True(t, arrival.Equal(tr.ArrivalDate))
		assert.Equal(t, "seal 77", tr.CustomField1)
	})

	t.Run("null clears optional fields", func(t *testing.T) {
		tr := base.Clone()
		TrailerPatch{
			Company:     shared.Null[string](),
			ArrivalDate: shared.Null[valueobject.Timestamp](),
			Weight:      shared.Null[decimal.Decimal](),
		}.Apply(&tr)
		assert.Empty(t, tr.Company)
		assert.True(t, tr.ArrivalDate.IsZero())
		assert.Nil(t, tr.Weight)
	})

	t.Run("decoded patch distinguishes absent from null", func(t *testing.T) {
		tr := base.Clone()
		var p TrailerPatch
		require.NoError(t, json.Unmarshal([]byte(`{"status":"Loading","company":null}`), &p))
		p.Apply(&tr)
		assert.Equal(t, TrailerStatusLoading, tr.Status)
		assert.Empty(t, tr.Company)
		assert.Equal(t, "seal 77", tr.CustomField1)
		require.NotNil(t, tr.Weight)
	})
}

func TestTrailer_CloneIsDeep(t *testing.T) {
	w := decimal.NewFromInt(5)
	tr := Trailer{ID: "TR-1", Weight: &w}
	c := tr.Clone()
	*c.Weight = decimal.NewFromInt(6)
	assert.True(t, tr.Weight.Equal(decimal.NewFromInt(5)))
}

func TestTrailer_DisplayName(t *testing.T) {
	assert.Equal(t, "TR-1", Trailer{ID: "TR-1"}.DisplayName())
	assert.Equal(t, "North", Trailer{ID: "TR-1", Name: "North"}.DisplayName())
}
