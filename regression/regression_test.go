package regression

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalEquation(t *testing.T) {
	// Exact line y = 1.5x + 2.
	points := []Point{{0, 2}, {1, 3.5}, {2, 5}}

	slope, intercept, err := NormalEquation(points)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, slope, 1e-9)
	assert.InDelta(t, 2, intercept, 1e-9)
}

func TestNormalEquation_Noisy(t *testing.T) {
	// Symmetric noise around y = x; least squares recovers the line.
	points := []Point{{0, 0.1}, {1, 0.9}, {2, 2.1}, {3, 2.9}}

	slope, intercept, err := NormalEquation(points)
	require.NoError(t, err)
	assert.InDelta(t, 1, slope, 0.1)
	assert.InDelta(t, 0, intercept, 0.1)
}

func TestNormalEquation_Errors(t *testing.T) {
	_, _, err := NormalEquation([]Point{{1, 1}})
	assert.Error(t, err)

	// Vertical point set: XᵀX is singular.
	_, _, err = NormalEquation([]Point{{2, 1}, {2, 3}, {2, 5}})
	assert.Error(t, err)
}

func TestFit_Statistics(t *testing.T) {
	points := []Point{{0, 2}, {1, 3.5}, {2, 5}}

	m, err := Fit(points)
	require.NoError(t, err)
	assert.InDelta(t, 1, m.RSquared, 1e-9)
	require.Len(t, m.Residuals, 3)
	for _, r := range m.Residuals {
		assert.InDelta(t, 0, r, 1e-9)
	}
	assert.InDelta(t, 8, m.Predict(4), 1e-9)
}

func TestFit_ImperfectRSquared(t *testing.T) {
	points := []Point{{0, 0}, {1, 1}, {2, 1}, {3, 3}}

	m, err := Fit(points)
	require.NoError(t, err)
	assert.Greater(t, m.RSquared, 0.5)
	assert.Less(t, m.RSquared, 1.0)
}

func TestFit_ConstantTargets(t *testing.T) {
	points := []Point{{0, 4}, {1, 4}, {2, 4}}

	m, err := Fit(points)
	require.NoError(t, err)
	assert.InDelta(t, 0, m.Slope, 1e-9)
	assert.InDelta(t, 4, m.Intercept, 1e-9)
	assert.InDelta(t, 1, m.RSquared, 1e-9)
}

func TestGradientDescent_Converges(t *testing.T) {
	points := []Point{{0, 2}, {1, 3.5}, {2, 5}}

	m, err := GradientDescent(points, 5000, 0.05, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, m.Slope, 1e-3)
	assert.InDelta(t, 2, m.Intercept, 1e-3)
	assert.InDelta(t, 1, m.RSquared, 1e-4)
}

func TestGradientDescent_CallbackStops(t *testing.T) {
	points := []Point{{0, 0}, {1, 1}}

	calls := 0
	_, err := GradientDescent(points, 1000, 0.1, func(iter int, slope, intercept, mse float64) bool {
		calls++
		return iter < 4
	})
	require.NoError(t, err)
	assert.Equal(t, 5, calls)
}

func TestGradientDescent_MSEDecreases(t *testing.T) {
	points := []Point{{0, 1}, {1, 2}, {2, 3}, {3, 4}}

	var history []float64
	_, err := GradientDescent(points, 50, 0.05, func(iter int, slope, intercept, mse float64) bool {
		history = append(history, mse)
		return true
	})
	require.NoError(t, err)
	require.Len(t, history, 50)
	assert.Less(t, history[len(history)-1], history[0])
}

func TestGradientDescent_HostileLearningRate(t *testing.T) {
	// A huge learning rate diverges; the non-finite guard must keep the
	// parameters finite numbers even so.
	points := []Point{{0, 0}, {1e3, 1e3}}

	m, err := GradientDescent(points, 200, 1e10, nil)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(m.Slope) || math.IsInf(m.Slope, 0))
	assert.False(t, math.IsNaN(m.Intercept) || math.IsInf(m.Intercept, 0))
}

func TestGradientDescent_Errors(t *testing.T) {
	_, err := GradientDescent(nil, 10, 0.1, nil)
	assert.Error(t, err)

	_, err = GradientDescent([]Point{{0, 0}}, 0, 0.1, nil)
	assert.Error(t, err)
}
