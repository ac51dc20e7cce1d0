package exporter

import (
	"math"
	"strconv"
	"strings"
	"time"

	"macrocli/internal/timeseries"
)

// DateColumn is the header of the month index column.
const DateColumn = "date"

// formatValue renders a cell with the shortest exact representation; missing is empty
func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseValue reads a cell written by formatValue; empty or unparseable is missing
func parseValue(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// formatDate renders a month key as a calendar date
func formatDate(t time.Time) string {
	return t.Format(timeseries.DateLayout)
}
