package report

import (
	"time"

	"github.com/shipshape/backend/internal/domain/shared/valueobject"
)

// DisplayDateLayout is the day/month/year layout used on printed reports
const DisplayDateLayout = "02/01/2006"

// WeekPeriod is a closed Monday-to-Sunday interval
type WeekPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// WeekRange returns Monday 00:00 and Sunday 23:59:59.999999999 of the week
// containing t, in t's location
func WeekRange(t time.Time) (start, end time.Time) {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	start = time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	return start, end
}

// FormatDate renders t for display. A nil time is absent; a zero time is invalid.
func FormatDate(t *time.Time) string {
	if t == nil {
		return valueobject.NoDate
	}
	if t.IsZero() {
		return valueobject.InvalidDate
	}
	return t.Format(DisplayDateLayout)
}

// FormatDateString parses a stored date leniently and renders it for display
func FormatDateString(s string) string {
	return valueobject.ParseTimestamp(s).Format(DisplayDateLayout)
}

// FormatTimestamp renders a stored timestamp for display
func FormatTimestamp(ts valueobject.Timestamp) string {
	return ts.Format(DisplayDateLayout)
}
