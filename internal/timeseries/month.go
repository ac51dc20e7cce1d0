package timeseries

import (
	"fmt"
	"time"
)

// MonthLayout is the layout used for month keys in files and URLs.
const MonthLayout = "2006-01"

// DateLayout is the layout of the date column written to processed files.
const DateLayout = "2006-01-02"

// MonthStart normalizes t to the first day of its month at midnight UTC.
// The wall clock date of t is kept, its location is dropped.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Month builds a normalized month key from a year and a month number.
func Month(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// NextMonth returns the month following m.
func NextMonth(m time.Time) time.Time {
	return MonthStart(m).AddDate(0, 1, 0)
}

// MonthsBetween returns every month from first to last inclusive.
// It returns nil when last is before first.
func MonthsBetween(first, last time.Time) []time.Time {
	first, last = MonthStart(first), MonthStart(last)
	if last.Before(first) {
		return nil
	}
	var months []time.Time
	for m := first; !m.After(last); m = NextMonth(m) {
		months = append(months, m)
	}
	return months
}

// ParseMonth parses a "2006-01" or "2006-01-02" string into a month key.
func ParseMonth(s string) (time.Time, error) {
	for _, layout := range []string{MonthLayout, DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthStart(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid month %q: expected YYYY-MM or YYYY-MM-DD", s)
}
