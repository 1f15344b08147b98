package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func TestEncode(t *testing.T) {
	raw, err := Encode([]note{{ID: "n1", Text: "hello"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"items":[{"id":"n1","text":"hello"}]}`, raw)

	raw, err = Encode[note](nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"items":[]}`, raw)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []note
		wantErr error
	}{
		{
			name: "current envelope",
			raw:  `{"version":1,"items":[{"id":"n1","text":"a"}]}`,
			want: []note{{ID: "n1", Text: "a"}},
		},
		{
			name: "bare array is version 0",
			raw:  ` [{"id":"n1","text":"a"},{"id":"n2"}]`,
			want: []note{{ID: "n1", Text: "a"}, {ID: "n2"}},
		},
		{
			name: "explicit version 0 envelope",
			raw:  `{"version":0,"items":[]}`,
			want: []note{},
		},
		{
			name: "envelope without items",
			raw:  `{"version":1}`,
			want: []note{},
		},
		{
			name: "null items",
			raw:  `{"version":1,"items":null}`,
			want: []note{},
		},
		{name: "newer version", raw: `{"version":2,"items":[]}`, wantErr: ErrUnsupportedVersion},
		{name: "missing version", raw: `{"items":[]}`, wantErr: ErrCorruptPayload},
		{name: "truncated", raw: `{"version":1,"items":[{"id":`, wantErr: ErrCorruptPayload},
		{name: "not json", raw: `trailers`, wantErr: ErrCorruptPayload},
		{name: "empty", raw: `  `, wantErr: ErrCorruptPayload},
		{name: "wrong item shape", raw: `[1,2,3]`, wantErr: ErrCorruptPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode[note](tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
