package ledger

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for civil dates (ISO 8601 date).
const DateLayout = "2006-01-02"

// ParseDate parses an ISO civil date ("YYYY-MM-DD") into a time.Time
// at UTC midnight. No timezone conversion is applied: dates are civil
// dates, not instants.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("not a valid date (want YYYY-MM-DD): %q", s)
	}
	return t.UTC(), nil
}

// FormatDate renders a civil date back into "YYYY-MM-DD".
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// AddDays returns the civil date n days after d. Calendar-day
// arithmetic only; d is expected to be at midnight already.
func AddDays(d time.Time, n int) time.Time { return d.AddDate(0, 0, n) }

// Overlaps reports whether the half-open ranges [aStart, aEnd) and
// [bStart, bEnd) intersect: aStart < bEnd && bStart < aEnd. Ranges
// that merely touch at a boundary do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// midnightIn truncates t to the civil date observed in loc, returned
// at UTC midnight so it compares cleanly against stored dates.
func midnightIn(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
}
