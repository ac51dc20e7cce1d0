package analytics

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientData is returned when too few finite pairs remain for a fit.
var ErrInsufficientData = errors.New("insufficient data")

// Regression is an ordinary least squares fit of y = Intercept + Slope*x.
type Regression struct {
	Slope     Float `json:"slope"`
	Intercept Float `json:"intercept"`
	RSquared  Float `json:"r_squared"`
	N         int   `json:"n"`
}

// OLS fits y on x over the finite pairs. It needs more than minPairs pairs and
// some variance in x.
func OLS(x, y []float64, minPairs int) (Regression, error) {
	xs, ys := completePairs(x, y)
	if len(xs) <= minPairs {
		return Regression{N: len(xs)}, fmt.Errorf("%w: %d pairs, need more than %d", ErrInsufficientData, len(xs), minPairs)
	}

	if stat.Variance(xs, nil) == 0 {
		return Regression{N: len(xs)}, fmt.Errorf("%w: x has no variance", ErrInsufficientData)
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	// a constant y leaves no variance to explain
	r2 := 0.0
	if stat.Variance(ys, nil) > 0 {
		r2 = stat.RSquared(xs, ys, nil, alpha, beta)
	}
	return Regression{
		Slope:     Float(beta),
		Intercept: Float(alpha),
		RSquared:  Float(r2),
		N:         len(xs),
	}, nil
}
