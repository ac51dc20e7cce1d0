package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPearson(t *testing.T) {
	tests := []struct {
		name string
		x, y []float64
		want float64
	}{
		{"perfect positive", []float64{1, 2, 3, 4}, []float64{2, 4, 6, 8}, 1},
		{"perfect negative", []float64{1, 2, 3}, []float64{3, 2, 1}, -1},
		{"pairwise complete", []float64{1, nan, 3, 4}, []float64{10, 99, nan, 40}, 1},
		{"too few pairs", []float64{1, nan}, []float64{1, 2}, nan},
		{"zero variance", []float64{1, 1, 1}, []float64{1, 2, 3}, nan},
		{"unequal length", []float64{1, 2, 3, 100}, []float64{1, 2, 3}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Pearson(tt.x, tt.y)
			if math.IsNaN(tt.want) {
				assert.True(t, math.IsNaN(got))
				return
			}
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestShift(t *testing.T) {
	got := Shift([]float64{1, 2, 3}, 1)
	assert.True(t, math.IsNaN(got[0]))
	assert.Equal(t, []float64{1, 2}, got[1:])

	got = Shift([]float64{1, 2, 3}, -2)
	assert.Equal(t, 3.0, got[0])
	assert.True(t, math.IsNaN(got[1]) && math.IsNaN(got[2]))
}

func TestLagCorrelation_Sign(t *testing.T) {
	// follower repeats the leader two months later
	leader := []float64{1, 5, 2, 8, 3, 9, 4, 7, 6, 2}
	follower := append([]float64{0, 0}, leader[:8]...)

	assert.InDelta(t, 1.0, LagCorrelation(leader, follower, 2), 1e-12)
	assert.Less(t, LagCorrelation(leader, follower, 0), 0.99)

	// shifting the leader forward pairs the same observations
	assert.InDelta(t, LagCorrelation(leader, follower, 2), Pearson(Shift(leader, 2), follower), 1e-12)
}

func TestStrongest(t *testing.T) {
	best, ok := Strongest([]LagResult{
		{Lag: 0, R: 0.2}, {Lag: 1, R: Float(nan)}, {Lag: 2, R: -0.7}, {Lag: 3, R: 0.7},
	})
	assert.True(t, ok)
	assert.Equal(t, 2, best.Lag)

	_, ok = Strongest([]LagResult{{Lag: 0, R: Float(nan)}})
	assert.False(t, ok)
}

func TestOLS(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, nan}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 0.5*v + 1
	}

	fit, err := OLS(x, y, MinRegressionPairs)
	assert.NoError(t, err)
	assert.Equal(t, 11, fit.N)
	assert.InDelta(t, 0.5, float64(fit.Slope), 1e-12)
	assert.InDelta(t, 1.0, float64(fit.Intercept), 1e-12)
	assert.InDelta(t, 1.0, float64(fit.RSquared), 1e-12)

	_, err = OLS(x[:10], y[:10], MinRegressionPairs)
	assert.ErrorIs(t, err, ErrInsufficientData)

	flat := make([]float64, 12)
	_, err = OLS(flat, y, MinRegressionPairs)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestOLS_NoisyAndConstant(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	y := []float64{2.1, 2.9, 4.2, 4.8, 6.3, 6.9, 8.1, 9.2, 9.8, 11.1, 12.2, 12.8}

	fit, err := OLS(x, y, MinRegressionPairs)
	require.NoError(t, err)
	r := Pearson(x, y)
	assert.InDelta(t, r*r, float64(fit.RSquared), 1e-9)
	assert.InDelta(t, Mean(y), float64(fit.Intercept)+float64(fit.Slope)*Mean(x), 1e-9, "line passes through the means")

	constant := make([]float64, len(x))
	for i := range constant {
		constant[i] = 4
	}
	fit, err = OLS(x, constant, MinRegressionPairs)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, float64(fit.Slope), 1e-12)
	assert.Equal(t, Float(0), fit.RSquared)
}
