package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepnet-ml/stepnet/tensor"
)

func TestActivationByName(t *testing.T) {
	for _, name := range []string{"relu", "sigmoid", "tanh", "linear", "softmax"} {
		act, err := ActivationByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, act.Name())
	}

	_, err := ActivationByName("gelu")
	assert.Error(t, err)
}

func TestReLUForward(t *testing.T) {
	in, _ := tensor.FromSlice([]float64{-2, -0.5, 0, 0.5, 2, 100}, 2, 3)
	out := ReLU{}.Forward(in)
	assert.Equal(t, []float64{0, 0, 0, 0.5, 2, 100}, out.Data())
}

func TestReLUBackward_GatesOnPreActivation(t *testing.T) {
	preAct, _ := tensor.FromSlice([]float64{-1, 0, 1, 2}, 2, 2)
	grad, _ := tensor.FromSlice([]float64{5, 5, 5, 5}, 2, 2)

	got, err := ReLU{}.Backward(grad, preAct)
	require.NoError(t, err)

	// Zero wherever pre-activation <= 0, pass-through where > 0.
	assert.Equal(t, []float64{0, 0, 5, 5}, got.Data())
}

func TestSigmoidForward(t *testing.T) {
	in, _ := tensor.FromSlice([]float64{0, 2, -2, 1000}, 2, 2)
	out := Sigmoid{}.Forward(in)

	assert.InDelta(t, 0.5, out.At(0, 0), 1e-12)
	assert.InDelta(t, 1/(1+math.Exp(-2)), out.At(0, 1), 1e-12)
	assert.InDelta(t, 1/(1+math.Exp(2)), out.At(1, 0), 1e-12)
	// Extreme input saturates instead of overflowing.
	assert.InDelta(t, 1.0, out.At(1, 1), 1e-9)
	assert.True(t, out.AllFinite())
}

func TestSigmoidBackward(t *testing.T) {
	preAct, _ := tensor.FromSlice([]float64{0}, 1, 1)
	grad, _ := tensor.FromSlice([]float64{2}, 1, 1)

	got, err := Sigmoid{}.Backward(grad, preAct)
	require.NoError(t, err)

	// sigma(0)=0.5, derivative 0.25, times incoming 2.
	assert.InDelta(t, 0.5, got.At(0, 0), 1e-12)
}

func TestTanhRoundTrip(t *testing.T) {
	preAct, _ := tensor.FromSlice([]float64{-1, 0, 1, 2}, 2, 2)
	out := Tanh{}.Forward(preAct)
	for i, v := range []float64{-1, 0, 1, 2} {
		assert.InDelta(t, math.Tanh(v), out.Data()[i], 1e-12)
	}

	ones, _ := tensor.FromSlice([]float64{1, 1, 1, 1}, 2, 2)
	grad, err := Tanh{}.Backward(ones, preAct)
	require.NoError(t, err)
	for i, v := range []float64{-1, 0, 1, 2} {
		th := math.Tanh(v)
		assert.InDelta(t, 1-th*th, grad.Data()[i], 1e-12)
	}
}

func TestLinearPassThrough(t *testing.T) {
	in, _ := tensor.FromSlice([]float64{1, -2, 3, -4}, 2, 2)
	assert.True(t, in.Equal(Linear{}.Forward(in)))

	grad, err := Linear{}.Backward(in, in)
	require.NoError(t, err)
	assert.True(t, in.Equal(grad))
}

func TestSoftmaxRowsSumToOne(t *testing.T) {
	in, _ := tensor.FromSlice([]float64{1, 2, 3, 1000, 1001, 1002}, 2, 3)
	out := Softmax{}.Forward(in)

	for i := 0; i < 2; i++ {
		var sum float64
		for j := 0; j < 3; j++ {
			sum += out.At(i, j)
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "row %d should normalize", i)
	}
	// Row-max subtraction keeps the huge-logit row finite.
	assert.True(t, out.AllFinite())
	// Shifting all logits by a constant must not change the output.
	assert.InDelta(t, out.At(0, 0), out.At(1, 0), 1e-9)
}

func TestSoftmaxBackward_DiagonalApproximation(t *testing.T) {
	preAct, _ := tensor.FromSlice([]float64{1, 2}, 1, 2)
	grad, _ := tensor.FromSlice([]float64{1, 1}, 1, 2)

	got, err := Softmax{}.Backward(grad, preAct)
	require.NoError(t, err)

	s := Softmax{}.Forward(preAct)
	for j := 0; j < 2; j++ {
		v := s.At(0, j)
		assert.InDelta(t, v*(1-v), got.At(0, j), 1e-12)
	}
}
