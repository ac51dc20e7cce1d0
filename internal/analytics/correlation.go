package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Pearson returns the correlation of x and y over the positions where both
// are finite. It is NaN with fewer than two such pairs or zero variance.
func Pearson(x, y []float64) float64 {
	xs, ys := completePairs(x, y)
	if len(xs) < 2 {
		return math.NaN()
	}
	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// completePairs keeps the positions where both x and y are finite.
func completePairs(x, y []float64) (xs, ys []float64) {
	n := min(len(x), len(y))
	for i := 0; i < n; i++ {
		if isFinite(x[i]) && isFinite(y[i]) {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	return xs, ys
}

// Shift moves values k positions later (k > 0) or earlier (k < 0), filling
// vacated positions with NaN. out[i] = values[i-k].
func Shift(values []float64, k int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		j := i - k
		if j < 0 || j >= len(values) {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[j]
	}
	return out
}

// LagCorrelation correlates leader[t] with follower[t+lag]: a positive lag
// asks whether the leader's movement shows up in the follower lag months later.
// Shifting the leader forward and shifting the follower back give the same pairs.
func LagCorrelation(leader, follower []float64, lag int) float64 {
	return Pearson(leader, Shift(follower, -lag))
}

// LagResult is the correlation at one lag.
type LagResult struct {
	Lag int   `json:"lag"`
	R   Float `json:"r"`
}

// LagProfile computes LagCorrelation for every lag in lags.
func LagProfile(leader, follower []float64, lags []int) []LagResult {
	out := make([]LagResult, len(lags))
	for i, lag := range lags {
		out[i] = LagResult{Lag: lag, R: Float(LagCorrelation(leader, follower, lag))}
	}
	return out
}

// Strongest returns the result with the largest absolute correlation. Ties keep
// the smaller lag. It reports false when no correlation is finite.
func Strongest(results []LagResult) (LagResult, bool) {
	var best LagResult
	found := false
	for _, r := range results {
		if !r.R.Valid() {
			continue
		}
		if !found || math.Abs(float64(r.R)) > math.Abs(float64(best.R)) {
			best, found = r, true
		}
	}
	return best, found
}

// lags returns the integers from..to inclusive.
func lags(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for l := from; l <= to; l++ {
		out = append(out, l)
	}
	return out
}
