package shared

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notePatch struct {
	Note  Nullable[string] `json:"note,omitzero"`
	Count Nullable[int]    `json:"count,omitzero"`
}

func TestNullable_UnmarshalJSON(t *testing.T) {
	t.Run("absent key stays unset", func(t *testing.T) {
		var p notePatch
		require.NoError(t, json.Unmarshal([]byte(`{}`), &p))
		assert.False(t, p.Note.IsSet())
		assert.False(t, p.Count.IsSet())
	})

	t.Run("explicit null clears", func(t *testing.T) {
		var p notePatch
		require.NoError(t, json.Unmarshal([]byte(`{"note":null}`), &p))
		assert.True(t, p.Note.IsSet())
		assert.True(t, p.Note.IsNull())
	})

	t.Run("value is carried", func(t *testing.T) {
		var p notePatch
		require.NoError(t, json.Unmarshal([]byte(`{"note":"dock 4","count":3}`), &p))
		v, ok := p.Note.Get()
		assert.True(t, ok)
		assert.Equal(t, "dock 4", v)
		c, ok := p.Count.Get()
		assert.True(t, ok)
		assert.Equal(t, 3, c)
	})

	t.Run("wrong type is an error", func(t *testing.T) {
		var p notePatch
		assert.Error(t, json.Unmarshal([]byte(`{"count":"three"}`), &p))
	})
}

func TestNullable_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(notePatch{Note: NewNullable("x"), Count: Null[int]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"note":"x","count":null}`, string(data))

	data, err = json.Marshal(notePatch{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestNullable_Apply(t *testing.T) {
	note := "keep"
	Nullable[string]{}.Apply(&note)
	assert.Equal(t, "keep", note)

	NewNullable("changed").Apply(&note)
	assert.Equal(t, "changed", note)

	Null[string]().Apply(&note)
	assert.Equal(t, "", note)
}

func TestNullable_ApplyTo(t *testing.T) {
	var count *int
	NewNullable(4).ApplyTo(&count)
	require.NotNil(t, count)
	assert.Equal(t, 4, *count)

	Nullable[int]{}.ApplyTo(&count)
	require.NotNil(t, count)

	Null[int]().ApplyTo(&count)
	assert.Nil(t, count)
}
