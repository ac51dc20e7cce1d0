package timeseries

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPctChange(t *testing.T) {
	values := make([]float64, 13)
	for i := range values {
		values[i] = 100 + float64(i)/6
	}
	values[12] = 102

	got := PctChange(values, 12)
	require.Len(t, got, 13)
	for i := 0; i < 12; i++ {
		assert.Truef(t, math.IsNaN(got[i]), "row %d should be missing", i)
	}
	assert.InDelta(t, 2.0, got[12], 1e-12)
}

func TestPctChange_MissingOperand(t *testing.T) {
	got := PctChange([]float64{1, nan, 4, 2}, 1)
	assertValues(t, []float64{nan, nan, nan, -50}, got)
}

func TestResample_Mean(t *testing.T) {
	points := []Point{
		{Date: time.Date(2023, 10, 2, 0, 0, 0, 0, time.UTC), Value: 3.801},
		{Date: time.Date(2023, 10, 9, 0, 0, 0, 0, time.UTC), Value: 3.750},
		{Date: time.Date(2023, 12, 4, 0, 0, 0, 0, time.UTC), Value: 3.2},
	}
	tbl := Resample("Gas_Price", points, Mean)

	assert.Equal(t, []time.Time{
		month(2023, time.October), month(2023, time.November), month(2023, time.December),
	}, tbl.Months())
	got, _ := tbl.Column("Gas_Price")
	assertValues(t, []float64{3.7755, nan, 3.2}, got)
}

func TestResample_Sum(t *testing.T) {
	points := []Point{
		{Date: time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC), Value: 1},
		{Date: time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC), Value: 0},
		{Date: time.Date(2020, 1, 7, 0, 0, 0, 0, time.UTC), Value: 1},
		{Date: time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), Value: 1},
	}
	got, _ := Resample("n", points, Sum).Column("n")
	assertValues(t, []float64{2, 0, 1}, got)
}

func TestResample_NoPoints(t *testing.T) {
	assert.True(t, Resample("x", nil, Mean).IsEmpty())
	assert.True(t, Resample("x", []Point{{Date: month(2020, time.January), Value: nan}}, Mean).IsEmpty())
}
