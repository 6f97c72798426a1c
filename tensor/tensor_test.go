package tensor

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSlice(t *testing.T) {
	got, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	assert.Equal(t, 2, got.Rows())
	assert.Equal(t, 3, got.Cols())
	assert.Equal(t, 6.0, got.At(1, 2))
}

func TestFromSlice_WrongLength(t *testing.T) {
	_, err := FromSlice([]float64{1, 2, 3}, 2, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestFromRows_Ragged(t *testing.T) {
	_, err := FromRows([][]float64{{1, 2}, {3}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestTransposeInvolution(t *testing.T) {
	a, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	back := a.Transpose().Transpose()
	assert.True(t, a.Equal(back), "transpose twice should restore the original")
}

func TestMatMulIdentity(t *testing.T) {
	a, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	got, err := a.MatMul(Eye(3))
	require.NoError(t, err)
	assert.True(t, a.Equal(got), "A @ I should equal A")
}

func TestMatMul(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2, 3, 4}, 2, 2)
	b, _ := FromSlice([]float64{5, 6, 7, 8}, 2, 2)

	got, err := a.MatMul(b)
	require.NoError(t, err)

	// [[1,2],[3,4]] @ [[5,6],[7,8]] = [[19,22],[43,50]]
	assert.Equal(t, 19.0, got.At(0, 0))
	assert.Equal(t, 22.0, got.At(0, 1))
	assert.Equal(t, 43.0, got.At(1, 0))
	assert.Equal(t, 50.0, got.At(1, 1))
}

func TestMatMul_ShapeMismatch(t *testing.T) {
	a := New(2, 3)
	b := New(2, 3)

	_, err := a.MatMul(b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestAddSub(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2, 3, 4}, 2, 2)
	b, _ := FromSlice([]float64{4, 3, 2, 1}, 2, 2)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 5, 5, 5}, sum.Data())

	diff, err := sum.Sub(b)
	require.NoError(t, err)
	assert.True(t, diff.Equal(a))

	_, err = a.Add(New(3, 2))
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestAddRowVector(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)

	got, err := a.AddRowVector([]float64{10, 20, 30})
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 22, 33, 14, 25, 36}, got.Data())

	_, err = a.AddRowVector([]float64{1, 2})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestColSum(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	assert.Equal(t, []float64{5, 7, 9}, a.ColSum())
}

func TestClip(t *testing.T) {
	a, _ := FromSlice([]float64{-10, -1, 0, 1, 10, 5}, 2, 3)
	got := a.Clip(5)
	assert.Equal(t, []float64{-5, -1, 0, 1, 5, 5}, got.Data())
}

func TestMulScalar(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2, 3, 4}, 2, 2)
	got := a.MulScalar(2.5)
	assert.Equal(t, []float64{2.5, 5, 7.5, 10}, got.Data())
}

func TestCloneIsIndependent(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2, 3, 4}, 2, 2)
	c := a.Clone()
	c.Set(0, 0, 99)

	assert.Equal(t, 1.0, a.At(0, 0), "mutating the clone must not touch the original")
	assert.Equal(t, 99.0, c.At(0, 0))
}

func TestAllFinite(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2, 3, 4}, 2, 2)
	assert.True(t, a.AllFinite())

	a.Set(1, 1, math.NaN())
	assert.False(t, a.AllFinite())

	a.Set(1, 1, math.Inf(1))
	assert.False(t, a.AllFinite())
}

func TestRandnShape(t *testing.T) {
	a := Randn(4, 5, 0.1)
	assert.Equal(t, 4, a.Rows())
	assert.Equal(t, 5, a.Cols())
	assert.True(t, a.AllFinite())
}
