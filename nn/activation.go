// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math"

	"github.com/pkg/errors"

	"github.com/stepnet-ml/stepnet/tensor"
)

// Activation is an element-wise (or, for softmax, row-wise) non-linearity.
//
// Backward implements the chain rule against the cached pre-activation
// input: it computes the activation's local derivative at preActivation and
// multiplies it element-wise into outputGrad.
type Activation interface {
	// Name returns the lower-case identifier used in configs and formulas.
	Name() string

	// Forward applies the activation, returning a tensor of the same shape.
	Forward(input *tensor.Tensor) *tensor.Tensor

	// Backward converts the gradient w.r.t. the activation output into the
	// gradient w.r.t. the pre-activation input.
	Backward(outputGrad, preActivation *tensor.Tensor) (*tensor.Tensor, error)
}

// ActivationByName resolves a config name to an Activation.
// Recognized names: relu, sigmoid, tanh, linear, softmax.
func ActivationByName(name string) (Activation, error) {
	switch name {
	case "relu":
		return ReLU{}, nil
	case "sigmoid":
		return Sigmoid{}, nil
	case "tanh":
		return Tanh{}, nil
	case "linear":
		return Linear{}, nil
	case "softmax":
		return Softmax{}, nil
	default:
		return nil, errors.Errorf("unknown activation %q", name)
	}
}

// ReLU is the rectified linear unit: f(x) = max(0, x).
type ReLU struct{}

func (ReLU) Name() string { return "relu" }

func (ReLU) Forward(input *tensor.Tensor) *tensor.Tensor {
	return input.Apply(func(v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	})
}

// Backward passes outputGrad through where the pre-activation was positive
// and zeroes it elsewhere.
func (ReLU) Backward(outputGrad, preActivation *tensor.Tensor) (*tensor.Tensor, error) {
	mask := preActivation.Apply(func(v float64) float64 {
		if v > 0 {
			return 1
		}
		return 0
	})
	grad, err := outputGrad.Mul(mask)
	if err != nil {
		return nil, errors.Wrap(err, "relu backward")
	}
	return grad, nil
}

// Sigmoid is the logistic function: σ(x) = 1 / (1 + e^-x).
//
// Inputs are clamped to [-500, 500] before exponentiation so extreme
// pre-activations saturate instead of overflowing.
type Sigmoid struct{}

func (Sigmoid) Name() string { return "sigmoid" }

func sigmoidScalar(v float64) float64 {
	if v > 500 {
		v = 500
	} else if v < -500 {
		v = -500
	}
	return 1.0 / (1.0 + math.Exp(-v))
}

func (Sigmoid) Forward(input *tensor.Tensor) *tensor.Tensor {
	return input.Apply(sigmoidScalar)
}

// Backward recomputes σ from the stored pre-activation:
// dσ/dx = σ(x) * (1 - σ(x)).
func (Sigmoid) Backward(outputGrad, preActivation *tensor.Tensor) (*tensor.Tensor, error) {
	deriv := preActivation.Apply(func(v float64) float64 {
		s := sigmoidScalar(v)
		return s * (1 - s)
	})
	grad, err := outputGrad.Mul(deriv)
	if err != nil {
		return nil, errors.Wrap(err, "sigmoid backward")
	}
	return grad, nil
}

// Tanh is the hyperbolic tangent activation.
type Tanh struct{}

func (Tanh) Name() string { return "tanh" }

func (Tanh) Forward(input *tensor.Tensor) *tensor.Tensor {
	return input.Apply(math.Tanh)
}

// Backward: d/dx tanh(x) = 1 - tanh²(x).
func (Tanh) Backward(outputGrad, preActivation *tensor.Tensor) (*tensor.Tensor, error) {
	deriv := preActivation.Apply(func(v float64) float64 {
		th := math.Tanh(v)
		return 1 - th*th
	})
	grad, err := outputGrad.Mul(deriv)
	if err != nil {
		return nil, errors.Wrap(err, "tanh backward")
	}
	return grad, nil
}

// Linear is the identity activation: both passes are pass-through.
type Linear struct{}

func (Linear) Name() string { return "linear" }

func (Linear) Forward(input *tensor.Tensor) *tensor.Tensor { return input.Clone() }

func (Linear) Backward(outputGrad, preActivation *tensor.Tensor) (*tensor.Tensor, error) {
	if !outputGrad.SameShape(preActivation) {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "linear backward: grad %dx%d vs pre-activation %dx%d",
			outputGrad.Rows(), outputGrad.Cols(), preActivation.Rows(), preActivation.Cols())
	}
	return outputGrad.Clone(), nil
}

// Softmax normalizes each row into a probability distribution.
//
// Forward subtracts the row maximum before exponentiating for stability.
// Backward uses the diagonal approximation grad * s * (1-s) rather than the
// full softmax Jacobian; cross-row interaction terms are dropped. The
// approximation is kept intentionally — it is what the interactive tool
// animates, and it behaves acceptably when softmax feeds cross-entropy.
type Softmax struct{}

func (Softmax) Name() string { return "softmax" }

func (Softmax) Forward(input *tensor.Tensor) *tensor.Tensor {
	out := tensor.New(input.Rows(), input.Cols())
	for i := 0; i < input.Rows(); i++ {
		rowMax := math.Inf(-1)
		for j := 0; j < input.Cols(); j++ {
			if v := input.At(i, j); v > rowMax {
				rowMax = v
			}
		}
		var sum float64
		for j := 0; j < input.Cols(); j++ {
			e := math.Exp(input.At(i, j) - rowMax)
			out.Set(i, j, e)
			sum += e
		}
		if sum == 0 {
			sum = 1
		}
		for j := 0; j < input.Cols(); j++ {
			out.Set(i, j, out.At(i, j)/sum)
		}
	}
	return out
}

func (s Softmax) Backward(outputGrad, preActivation *tensor.Tensor) (*tensor.Tensor, error) {
	soft := s.Forward(preActivation)
	deriv := soft.Apply(func(v float64) float64 { return v * (1 - v) })
	grad, err := outputGrad.Mul(deriv)
	if err != nil {
		return nil, errors.Wrap(err, "softmax backward")
	}
	return grad, nil
}
