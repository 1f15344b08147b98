package valueobject

import (
	"encoding/json"
	"strings"
	"time"
)

// InvalidDate is the display value for timestamps that cannot be parsed
const InvalidDate = "Invalid Date"

// NoDate is the display value for absent timestamps
const NoDate = "-"

// acceptedLayouts lists the formats a stored timestamp may arrive in. Browser
// clients write RFC 3339 with milliseconds; date inputs write bare dates.
var acceptedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Timestamp is an optional point in time that survives malformed input.
// A value that cannot be parsed keeps its raw text so it round-trips through
// storage unchanged, but reports itself as invalid and never matches a range.
// The zero Timestamp means "not set".
type Timestamp struct {
	t   time.Time
	raw string
}

// NewTimestamp wraps a valid time
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t: t}
}

// ParseTimestamp parses s leniently; unparsable input yields an invalid Timestamp
func ParseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{t: t}
		}
	}
	return Timestamp{raw: s}
}

// IsZero reports whether the timestamp is absent
func (ts Timestamp) IsZero() bool {
	return ts.t.IsZero() && ts.raw == ""
}

// IsValid reports whether the timestamp holds a usable time
func (ts Timestamp) IsValid() bool {
	return !ts.t.IsZero()
}

// Time returns the wrapped time and whether it is valid
func (ts Timestamp) Time() (time.Time, bool) {
	return ts.t, ts.IsValid()
}

// Raw returns the unparsable source text, if any
func (ts Timestamp) Raw() string {
	return ts.raw
}

// Within reports whether the timestamp lies in [start, end], boundaries included
func (ts Timestamp) Within(start, end time.Time) bool {
	if !ts.IsValid() {
		return false
	}
	return !ts.t.Before(start) && !ts.t.After(end)
}

// After reports whether both timestamps are valid and ts is after other
func (ts Timestamp) After(other Timestamp) bool {
	if !ts.IsValid() || !other.IsValid() {
		return false
	}
	return ts.t.After(other.t)
}

// Format renders the timestamp for display, using NoDate and InvalidDate sentinels
func (ts Timestamp) Format(layout string) string {
	if ts.IsZero() {
		return NoDate
	}
	if !ts.IsValid() {
		return InvalidDate
	}
	return ts.t.Format(layout)
}

// String returns the storage form of the timestamp
func (ts Timestamp) String() string {
	if ts.IsValid() {
		return ts.t.Format(time.RFC3339Nano)
	}
	return ts.raw
}

// Equal compares two timestamps by instant, or by raw text when invalid
func (ts Timestamp) Equal(other Timestamp) bool {
	if ts.IsValid() != other.IsValid() {
		return false
	}
	if ts.IsValid() {
		return ts.t.Equal(other.t)
	}
	return ts.raw == other.raw
}

// MarshalJSON writes the storage form; absent timestamps encode as null
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.String())
}

// UnmarshalJSON never fails on a malformed date string; it keeps the raw text
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*ts = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// numbers, objects and other non-strings are malformed dates too
		*ts = Timestamp{raw: string(data)}
		return nil
	}
	*ts = ParseTimestamp(s)
	return nil
}
