package nn

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepnet-ml/stepnet/tensor"
)

// fixedLayer builds a layer with deterministic weights for numeric checks.
func fixedLayer(t *testing.T, weights []float64, bias []float64, inSize, outSize int, act Activation) *Layer {
	t.Helper()
	w, err := tensor.FromSlice(weights, outSize, inSize)
	require.NoError(t, err)
	return &Layer{
		InputSize:  inSize,
		OutputSize: outSize,
		Weights:    w,
		Bias:       bias,
		Activation: act,
	}
}

func TestLayerForward(t *testing.T) {
	// 2 inputs -> 2 outputs, linear activation.
	layer := fixedLayer(t, []float64{1, 2, 3, 4}, []float64{10, 20}, 2, 2, Linear{})
	input, _ := tensor.FromSlice([]float64{1, 1}, 1, 2)

	out, err := layer.Forward(input)
	require.NoError(t, err)

	// z = input @ W^T + b = [1+2+10, 3+4+20]
	assert.Equal(t, 13.0, out.At(0, 0))
	assert.Equal(t, 27.0, out.At(0, 1))

	// Backward context is cached.
	assert.True(t, input.Equal(layer.LastInput()))
	require.NotNil(t, layer.PreActivation())
	assert.Equal(t, 13.0, layer.PreActivation().At(0, 0))
}

func TestLayerForward_ShapeMismatch(t *testing.T) {
	layer := NewLayer(3, 2, ReLU{})
	input := tensor.New(1, 2) // wrong width

	_, err := layer.Forward(input)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
}

func TestLayerBackward_RequiresForward(t *testing.T) {
	layer := NewLayer(2, 2, Tanh{})
	grad := tensor.New(1, 2)

	_, err := layer.Backward(grad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPrecondition))
	assert.Contains(t, err.Error(), "forward must precede backward")
}

func TestLayerBackward_Gradients(t *testing.T) {
	// Single linear neuron: y = 2*x1 + 3*x2 + 1.
	layer := fixedLayer(t, []float64{2, 3}, []float64{1}, 2, 1, Linear{})
	input, _ := tensor.FromSlice([]float64{5, 7}, 1, 2)

	_, err := layer.Forward(input)
	require.NoError(t, err)

	outGrad, _ := tensor.FromSlice([]float64{1}, 1, 1)
	inputGrad, err := layer.Backward(outGrad)
	require.NoError(t, err)

	// dL/dW = grad^T @ input = [5, 7]; dL/db = 1; dL/dx = grad @ W = [2, 3].
	require.True(t, layer.HasGradients())
	assert.Equal(t, 5.0, layer.WeightGrad().At(0, 0))
	assert.Equal(t, 7.0, layer.WeightGrad().At(0, 1))
	assert.Equal(t, []float64{1}, layer.BiasGrad())
	assert.Equal(t, 2.0, inputGrad.At(0, 0))
	assert.Equal(t, 3.0, inputGrad.At(0, 1))
}

func TestLayerBackward_BatchAccumulatesBias(t *testing.T) {
	layer := fixedLayer(t, []float64{1, 0, 0, 1}, []float64{0, 0}, 2, 2, Linear{})
	input, _ := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, 3, 2)

	_, err := layer.Forward(input)
	require.NoError(t, err)

	grad, _ := tensor.FromSlice([]float64{1, 1, 1, 1, 1, 1}, 3, 2)
	_, err = layer.Backward(grad)
	require.NoError(t, err)

	// Bias gradient sums over the batch dimension.
	assert.Equal(t, []float64{3, 3}, layer.BiasGrad())
}

func TestUpdateWeights_NoGradientsIsNoOp(t *testing.T) {
	layer := fixedLayer(t, []float64{1, 2}, []float64{3}, 2, 1, Linear{})
	before := layer.Weights.Clone()

	layer.UpdateWeights(0.5)

	assert.True(t, before.Equal(layer.Weights))
	assert.Equal(t, []float64{3}, layer.Bias)
}

func TestUpdateWeights_AppliesClippedStep(t *testing.T) {
	layer := fixedLayer(t, []float64{1}, []float64{1}, 1, 1, Linear{})
	input, _ := tensor.FromSlice([]float64{100}, 1, 1)

	_, err := layer.Forward(input)
	require.NoError(t, err)
	outGrad, _ := tensor.FromSlice([]float64{1}, 1, 1)
	_, err = layer.Backward(outGrad)
	require.NoError(t, err)

	// Raw weight gradient is 100, clipped to 5 before the step.
	layer.UpdateWeights(0.1)
	assert.InDelta(t, 1.0-0.1*5, layer.Weights.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0-0.1*1, layer.Bias[0], 1e-12)
}

func TestUpdateWeights_NonFiniteGuards(t *testing.T) {
	layer := fixedLayer(t, []float64{math.Inf(1)}, []float64{2}, 1, 1, Linear{})
	input, _ := tensor.FromSlice([]float64{1}, 1, 1)

	_, err := layer.Forward(input)
	require.NoError(t, err)
	outGrad, _ := tensor.FromSlice([]float64{1}, 1, 1)
	_, err = layer.Backward(outGrad)
	require.NoError(t, err)

	layer.Weights.Set(0, 0, math.Inf(1))
	layer.UpdateWeights(0.1)

	// Non-finite weight result is zeroed, not propagated.
	assert.Equal(t, 0.0, layer.Weights.At(0, 0))
	assert.True(t, layer.Weights.AllFinite())
}

func TestNewLayerInitialization(t *testing.T) {
	relu := NewLayer(4, 3, ReLU{})
	assert.Equal(t, 3, relu.Weights.Rows())
	assert.Equal(t, 4, relu.Weights.Cols())
	assert.Equal(t, []float64{0, 0, 0}, relu.Bias)
	assert.True(t, relu.Weights.AllFinite())

	tanh := NewLayer(4, 3, Tanh{})
	assert.True(t, tanh.Weights.AllFinite())
}
