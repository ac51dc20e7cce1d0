package timeseries

import (
	"math"
	"sort"
	"time"
)

// Point is one dated observation before it is bucketed into a month.
type Point struct {
	Date  time.Time
	Value float64
}

// Aggregation selects how Resample combines the points of a month.
type Aggregation int

const (
	// Mean averages the observed points; a month without points is missing.
	Mean Aggregation = iota
	// Sum adds the points; a month without points is zero.
	Sum
)

// PctChange returns the percentage change of each value against the value
// periods rows earlier: (v[i]-v[i-periods])/v[i-periods]*100.
// The first periods results, and any result with a missing operand, are NaN.
func PctChange(values []float64, periods int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < periods || math.IsNaN(values[i]) || math.IsNaN(values[i-periods]) {
			out[i] = math.NaN()
			continue
		}
		prev := values[i-periods]
		out[i] = (values[i] - prev) / prev * 100
	}
	return out
}

// Resample buckets points into calendar months and returns a single column table
// covering every month from the earliest to the latest point.
// Points with a NaN value are ignored. No points yields an empty table.
func Resample(column string, points []Point, agg Aggregation) *Table {
	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]int)
	for _, p := range points {
		if math.IsNaN(p.Value) {
			continue
		}
		m := MonthStart(p.Date)
		sums[m] += p.Value
		counts[m]++
	}

	out := NewTable()
	if len(counts) == 0 {
		return out
	}

	keys := make([]time.Time, 0, len(counts))
	for m := range counts {
		keys = append(keys, m)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	months := MonthsBetween(keys[0], keys[len(keys)-1])
	values := make([]float64, len(months))
	for i, m := range months {
		n := counts[m]
		switch {
		case agg == Sum:
			values[i] = sums[m]
		case n == 0:
			values[i] = math.NaN()
		default:
			values[i] = sums[m] / float64(n)
		}
	}
	out.months = months
	out.columns = []string{column}
	out.data[column] = values
	return out
}
