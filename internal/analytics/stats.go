package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds the descriptive statistics of one column.
type Summary struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Mean   Float  `json:"mean"`
	Median Float  `json:"median"`
	Min    Float  `json:"min"`
	Max    Float  `json:"max"`
	Std    Float  `json:"std"`
	Skew   Float  `json:"skew"`
	CV     Float  `json:"cv"`
}

// Describe summarizes the finite values of a column. Std is the sample
// standard deviation, Skew the adjusted Fisher-Pearson coefficient and CV the
// ratio of Std to Mean.
func Describe(column string, values []float64) Summary {
	xs := finite(values)
	s := Summary{Column: column, Count: len(xs)}
	nan := Float(math.NaN())
	s.Mean, s.Median, s.Min, s.Max, s.Std, s.Skew, s.CV = nan, nan, nan, nan, nan, nan, nan
	if len(xs) == 0 {
		return s
	}

	mean := Mean(xs)
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	s.Mean = Float(mean)
	s.Median = Float(median(sorted))
	s.Min = Float(floats.Min(xs))
	s.Max = Float(floats.Max(xs))

	std := StdDev(xs)
	s.Std = Float(std)
	s.Skew = Float(skewness(xs))
	s.CV = Float(std / mean)
	return s
}

// Mean returns the arithmetic mean of the finite values, NaN when there are none.
func Mean(values []float64) float64 {
	xs := finite(values)
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

// StdDev returns the sample standard deviation (n-1), NaN with fewer than two values.
func StdDev(values []float64) float64 {
	xs := finite(values)
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.StdDev(xs, nil)
}

// median averages the two middle values of an even count;
// stat.Quantile with stat.Empirical would return the lower one.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// skewness is the adjusted coefficient G1 from stat.Skew; zero for constant data.
func skewness(xs []float64) float64 {
	if len(xs) < 3 {
		return math.NaN()
	}
	if stat.Variance(xs, nil) == 0 {
		return 0
	}
	return stat.Skew(xs, nil)
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}
