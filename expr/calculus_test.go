package expr

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivative(t *testing.T) {
	f := FuncOf("x^2", nil, nil)

	d, ok := Derivative(f, 3)
	require.True(t, ok)
	assert.InDelta(t, 6, d, 1e-4)

	d, ok = Derivative(FuncOf("sin(x)", nil, nil), 0)
	require.True(t, ok)
	assert.InDelta(t, 1, d, 1e-4)
}

func TestDerivative_UndefinedNearDomainEdge(t *testing.T) {
	f := FuncOf("sqrt(x)", nil, nil)

	// x=0: the left sample x-h is outside the domain.
	_, ok := Derivative(f, 0)
	assert.False(t, ok)
}

func TestIntegral(t *testing.T) {
	// Integral of x^2 over [0, 3] = 9.
	v, ok, err := Integral(FuncOf("x^2", nil, nil), 0, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 9, v, 1e-6)

	// Integral of sin over a full period is zero.
	v, ok, err = Integral(FuncOf("sin(x)", nil, nil), 0, 2*math.Pi)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0, v, 1e-6)
}

func TestIntegral_RequiresOrderedBounds(t *testing.T) {
	_, _, err := Integral(FuncOf("x", nil, nil), 2, 2)
	assert.Error(t, err)

	_, _, err = Integral(FuncOf("x", nil, nil), 3, 1)
	assert.Error(t, err)
}

func TestIntegral_UndefinedSample(t *testing.T) {
	// 1/x is undefined at 0, inside the interval.
	_, ok, err := Integral(FuncOf("1/x", nil, nil), -1, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindRoots(t *testing.T) {
	roots := FindRoots(FuncOf("x^2-4", nil, nil), -5, 5)
	require.Len(t, roots, 2)
	sort.Float64s(roots)
	assert.InDelta(t, -2, roots[0], 1e-4)
	assert.InDelta(t, 2, roots[1], 1e-4)
}

func TestFindRoots_None(t *testing.T) {
	assert.Empty(t, FindRoots(FuncOf("x^2+1", nil, nil), -5, 5))
}

func TestFindRoots_WithParameters(t *testing.T) {
	// With a unbound the function is undefined everywhere.
	assert.Empty(t, FindRoots(FuncOf("x^2-a", nil, nil), -5, 5))

	roots := FindRoots(FuncOf("x^2-a", map[string]float64{"a": 9}, nil), -5, 5)
	require.Len(t, roots, 2)
	sort.Float64s(roots)
	assert.InDelta(t, -3, roots[0], 1e-4)
	assert.InDelta(t, 3, roots[1], 1e-4)
}

func TestFindIntersections(t *testing.T) {
	f := FuncOf("x^2", nil, nil)
	g := FuncOf("x+2", nil, nil)

	// x^2 = x+2 at x = -1 and x = 2.
	xs := FindIntersections(f, g, -5, 5)
	require.Len(t, xs, 2)
	sort.Float64s(xs)
	assert.InDelta(t, -1, xs[0], 1e-4)
	assert.InDelta(t, 2, xs[1], 1e-4)
}

func TestFindMinMax(t *testing.T) {
	// x^3 - 3x has a max at x=-1 and a min at x=1.
	points := FindMinMax(FuncOf("x^3-3x", nil, nil), -3, 3)
	require.Len(t, points, 2)
	sort.Slice(points, func(i, j int) bool { return points[i].X < points[j].X })

	assert.InDelta(t, -1, points[0].X, 1e-3)
	assert.Equal(t, LocalMax, points[0].Kind)
	assert.InDelta(t, 2, points[0].Y, 1e-3)

	assert.InDelta(t, 1, points[1].X, 1e-3)
	assert.Equal(t, LocalMin, points[1].Kind)
	assert.InDelta(t, -2, points[1].Y, 1e-3)
}

func TestFindCriticalPoints_Classification(t *testing.T) {
	// x^4: the derivative crosses zero at 0 but the second derivative is
	// numerically zero there, so the magnitude rule reports an inflection.
	points := FindCriticalPoints(FuncOf("x^4", nil, nil), -2, 2)
	require.NotEmpty(t, points)
	assert.InDelta(t, 0, points[0].X, 1e-3)
	assert.Equal(t, Inflection, points[0].Kind)

	// x^2: a plain minimum.
	points = FindCriticalPoints(FuncOf("x^2", nil, nil), -2, 2)
	require.Len(t, points, 1)
	assert.Equal(t, LocalMin, points[0].Kind)
	assert.InDelta(t, 0, points[0].X, 1e-3)
}

func TestFuncOf_ParseFailure(t *testing.T) {
	f := FuncOf("2 +", nil, nil)
	_, ok := f(1)
	assert.False(t, ok)

	assert.Empty(t, FindRoots(f, -1, 1))
}
