// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math"

	"github.com/pkg/errors"

	"github.com/stepnet-ml/stepnet/tensor"
)

// gradClipBound bounds each gradient entry before a vanilla update.
const gradClipBound = 5.0

// ErrPrecondition is the sentinel cause for order-of-use violations: calling
// Backward before Forward, or stepping the debug engine out of phase.
// Match it with errors.Is.
var ErrPrecondition = errors.New("precondition not met")

// Layer is a dense (fully connected) layer with a cached backward context.
//
// Weights has shape [outputSize, inputSize]; Bias has length outputSize.
// Forward computes z = input @ Weightsᵀ + Bias and feeds z through the
// activation. The transient fields populated by Forward (last input,
// pre-activation output) are consumed by the next Backward call, and the
// gradients Backward caches are consumed by UpdateWeights.
type Layer struct {
	InputSize  int
	OutputSize int
	Weights    *tensor.Tensor
	Bias       []float64
	Activation Activation

	lastInput  *tensor.Tensor
	preAct     *tensor.Tensor
	weightGrad *tensor.Tensor
	biasGrad   []float64
}

// NewLayer creates a dense layer with zero bias and randomly initialized
// weights: He initialization (stddev sqrt(2/fanIn)) for ReLU, Xavier
// (stddev sqrt(2/(fanIn+fanOut))) otherwise.
func NewLayer(inputSize, outputSize int, activation Activation) *Layer {
	var stddev float64
	if activation.Name() == "relu" {
		stddev = math.Sqrt(2.0 / float64(inputSize))
	} else {
		stddev = math.Sqrt(2.0 / float64(inputSize+outputSize))
	}
	return &Layer{
		InputSize:  inputSize,
		OutputSize: outputSize,
		Weights:    tensor.Randn(outputSize, inputSize, stddev),
		Bias:       make([]float64, outputSize),
		Activation: activation,
	}
}

// Forward computes the layer output for a [batch, inputSize] input,
// caching the input and pre-activation for the next Backward call.
func (l *Layer) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	z, err := input.MatMul(l.Weights.Transpose())
	if err != nil {
		return nil, errors.Wrapf(err, "layer forward (%d -> %d)", l.InputSize, l.OutputSize)
	}
	z, err = z.AddRowVector(l.Bias)
	if err != nil {
		return nil, errors.Wrapf(err, "layer forward (%d -> %d)", l.InputSize, l.OutputSize)
	}
	l.lastInput = input.Clone()
	l.preAct = z
	return l.Activation.Forward(z), nil
}

// Backward propagates outputGrad through the activation and the linear map,
// caching weight and bias gradients on the layer. It returns the gradient
// w.r.t. the layer input for upstream propagation.
//
// Backward requires a prior Forward call; without one it returns an error
// wrapping ErrPrecondition.
func (l *Layer) Backward(outputGrad *tensor.Tensor) (*tensor.Tensor, error) {
	if l.lastInput == nil || l.preAct == nil {
		return nil, errors.Wrap(ErrPrecondition, "forward must precede backward")
	}
	actGrad, err := l.Activation.Backward(outputGrad, l.preAct)
	if err != nil {
		return nil, errors.Wrap(err, "layer backward")
	}
	wGrad, err := actGrad.Transpose().MatMul(l.lastInput)
	if err != nil {
		return nil, errors.Wrap(err, "layer backward: weight gradient")
	}
	inputGrad, err := actGrad.MatMul(l.Weights)
	if err != nil {
		return nil, errors.Wrap(err, "layer backward: input gradient")
	}
	l.weightGrad = wGrad
	l.biasGrad = actGrad.ColSum()
	return inputGrad, nil
}

// HasGradients reports whether Backward has cached gradients since the last
// reset.
func (l *Layer) HasGradients() bool {
	return l.weightGrad != nil && l.biasGrad != nil
}

// WeightGrad returns the cached weight gradient, or nil before Backward.
func (l *Layer) WeightGrad() *tensor.Tensor { return l.weightGrad }

// BiasGrad returns the cached bias gradient, or nil before Backward.
func (l *Layer) BiasGrad() []float64 { return l.biasGrad }

// ClearGradients drops cached gradients and backward context.
func (l *Layer) ClearGradients() {
	l.lastInput = nil
	l.preAct = nil
	l.weightGrad = nil
	l.biasGrad = nil
}

// UpdateWeights applies a plain gradient-descent step using the cached
// gradients: w -= lr*grad, b -= lr*grad, with gradients clipped to
// [-5, 5] first. A call without cached gradients is a no-op.
//
// This is the layer-local update rule used by Network.Train. The pluggable
// optimizers in package optim are applied externally (by the step engine's
// update phase) and do not pass through here.
//
// Updates never propagate NaN: a weight entry that becomes non-finite is
// replaced with 0, and a bias entry whose update is non-finite keeps its
// prior value.
func (l *Layer) UpdateWeights(lr float64) {
	if !l.HasGradients() {
		return
	}
	wGrad := l.weightGrad.Clip(gradClipBound)
	for i := 0; i < l.Weights.Rows(); i++ {
		for j := 0; j < l.Weights.Cols(); j++ {
			w := l.Weights.At(i, j) - lr*wGrad.At(i, j)
			if math.IsNaN(w) || math.IsInf(w, 0) {
				w = 0
			}
			l.Weights.Set(i, j, w)
		}
	}
	for i, g := range l.biasGrad {
		if g > gradClipBound {
			g = gradClipBound
		} else if g < -gradClipBound {
			g = -gradClipBound
		}
		b := l.Bias[i] - lr*g
		if math.IsNaN(b) || math.IsInf(b, 0) {
			continue // keep the prior bias under numerical blow-up
		}
		l.Bias[i] = b
	}
}

// RestoreContext replaces the transient forward/backward caches wholesale.
// The step engine uses it to rewind a layer to a previously captured
// mid-iteration state; nil arguments clear the corresponding cache. The
// layer takes ownership of the given values.
func (l *Layer) RestoreContext(lastInput, preAct, weightGrad *tensor.Tensor, biasGrad []float64) {
	l.lastInput = lastInput
	l.preAct = preAct
	l.weightGrad = weightGrad
	l.biasGrad = biasGrad
}

// LastInput returns the input cached by the most recent Forward, or nil.
func (l *Layer) LastInput() *tensor.Tensor { return l.lastInput }

// PreActivation returns the pre-activation output cached by the most recent
// Forward, or nil.
func (l *Layer) PreActivation() *tensor.Tensor { return l.preAct }
