package shared

import (
	"bytes"
	"encoding/json"
)

// Nullable is a patch field for an optional record field. It has three states:
// unset (leave the record alone), null (clear the record field) and a value.
type Nullable[T any] struct {
	set   bool
	valid bool
	value T
}

// NewNullable returns a Nullable carrying value
func NewNullable[T any](value T) Nullable[T] {
	return Nullable[T]{set: true, valid: true, value: value}
}

// Null returns a Nullable that clears the target field
func Null[T any]() Nullable[T] {
	return Nullable[T]{set: true}
}

// IsSet reports whether the patch touches the field at all
func (n Nullable[T]) IsSet() bool {
	return n.set
}

// IsNull reports whether the patch clears the field
func (n Nullable[T]) IsNull() bool {
	return n.set && !n.valid
}

// IsZero lets encoding/json omit unset fields with the omitzero option
func (n Nullable[T]) IsZero() bool {
	return !n.set
}

// Get returns the carried value and whether one is present
func (n Nullable[T]) Get() (T, bool) {
	return n.value, n.valid
}

// Apply merges the patch field into a value field; null resets it to the zero value
func (n Nullable[T]) Apply(dst *T) {
	if !n.set {
		return
	}
	*dst = n.value
}

// ApplyTo merges the patch field into a pointer field; null sets it to nil
func (n Nullable[T]) ApplyTo(dst **T) {
	if !n.set {
		return
	}
	if !n.valid {
		*dst = nil
		return
	}
	v := n.value
	*dst = &v
}

// MarshalJSON encodes null for cleared or unset fields
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.value)
}

// UnmarshalJSON is only invoked for keys present in the document, so any call
// marks the field as set.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.valid = false
		var zero T
		n.value = zero
		return nil
	}
	if err := json.Unmarshal(data, &n.value); err != nil {
		return err
	}
	n.valid = true
	return nil
}
