package persistence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// SchemaVersion is the envelope version written by Encode
const SchemaVersion = 1

var (
	// ErrCorruptPayload is returned when a slot value cannot be decoded
	ErrCorruptPayload = errors.New("corrupt slot payload")
	// ErrUnsupportedVersion is returned for envelopes newer than SchemaVersion
	ErrUnsupportedVersion = errors.New("unsupported slot schema version")
)

// envelope is the stored form of a collection: {"version":1,"items":[...]}
type envelope[T any] struct {
	Version int `json:"version"`
	Items   []T `json:"items"`
}

// Encode serialises items into a versioned envelope
func Encode[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(envelope[T]{Version: SchemaVersion, Items: items})
	if err != nil {
		return "", fmt.Errorf("failed to encode collection: %w", err)
	}
	return string(data), nil
}

// Decode parses a stored collection. A bare JSON array is the unversioned
// format and is accepted as version 0.
func Decode[T any](raw string) ([]T, error) {
	data := bytes.TrimSpace([]byte(raw))
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty value", ErrCorruptPayload)
	}

	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptPayload, err)
		}
		return nonNil(items), nil
	}

	var head struct {
		Version *int            `json:"version"`
		Items   json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptPayload, err)
	}
	if head.Version == nil {
		return nil, fmt.Errorf("%w: missing version", ErrCorruptPayload)
	}
	if *head.Version > SchemaVersion || *head.Version < 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, *head.Version)
	}

	var items []T
	if len(head.Items) > 0 && !bytes.Equal(head.Items, []byte("null")) {
		if err := json.Unmarshal(head.Items, &items); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptPayload, err)
		}
	}
	return nonNil(items), nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
