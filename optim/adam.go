// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"math"

	"github.com/stepnet-ml/stepnet/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Adam combines ideas from RMSprop and momentum:
//   - Maintains exponential moving averages of gradients (first moment)
//   - Maintains exponential moving averages of squared gradients (second moment)
//   - Applies bias correction to compensate for initialization at zero
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²
//	m_hat = m_t / (1 - beta1^t)
//	v_hat = v_t / (1 - beta2^t)
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)
//
// The timestep t is shared across all parameters and increments on every
// Update and every UpdateBias call, so weight and bias corrections for one
// training step see different effective t. This mirrors the tool this
// package reimplements; see DESIGN.md for the decision record.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	beta1 float64
	beta2 float64
	eps   float64
	t     int

	m map[paramKey][]float64 // first moment estimates
	v map[paramKey][]float64 // second moment estimates
}

// NewAdam creates an Adam optimizer with the standard hyperparameters
// (beta1=0.9, beta2=0.999, eps=1e-8).
func NewAdam() *Adam {
	return &Adam{
		beta1: 0.9,
		beta2: 0.999,
		eps:   1e-8,
		m:     make(map[paramKey][]float64),
		v:     make(map[paramKey][]float64),
	}
}

func (*Adam) Name() string { return "adam" }

func (*Adam) Formula() string {
	return "w = w - lr * m_hat / (sqrt(v_hat) + eps)"
}

// step applies one Adam step over a flat parameter slice.
func (a *Adam) step(key paramKey, params, grads []float64, lr float64) []float64 {
	a.t++
	bc1 := 1 - math.Pow(a.beta1, float64(a.t))
	bc2 := 1 - math.Pow(a.beta2, float64(a.t))

	m, ok := a.m[key]
	if !ok {
		m = make([]float64, len(params))
		a.m[key] = m
	}
	v, ok := a.v[key]
	if !ok {
		v = make([]float64, len(params))
		a.v[key] = v
	}

	out := make([]float64, len(params))
	for i, g := range grads {
		m[i] = a.beta1*m[i] + (1-a.beta1)*g
		v[i] = a.beta2*v[i] + (1-a.beta2)*g*g
		mHat := m[i] / bc1
		vHat := v[i] / bc2
		out[i] = params[i] - lr*mHat/(math.Sqrt(vHat)+a.eps)
	}
	return out
}

// Update applies an Adam step to a weight matrix.
func (a *Adam) Update(layer int, weights, grads *tensor.Tensor, lr float64) (*tensor.Tensor, error) {
	if err := checkShapes("adam update", weights, grads); err != nil {
		return nil, err
	}
	data := a.step(paramKey{layer: layer}, weights.Data(), grads.Data(), lr)
	return tensor.FromSlice(data, weights.Rows(), weights.Cols())
}

// UpdateBias applies an Adam step to a bias vector.
func (a *Adam) UpdateBias(layer int, bias, grads []float64, lr float64) ([]float64, error) {
	if err := checkLens("adam update bias", bias, grads); err != nil {
		return nil, err
	}
	return a.step(paramKey{layer: layer, bias: true}, bias, grads, lr), nil
}

// Reset clears moment estimates and the timestep.
func (a *Adam) Reset() {
	a.t = 0
	a.m = make(map[paramKey][]float64)
	a.v = make(map[paramKey][]float64)
}

// Timestep returns the current shared timestep, for inspection.
func (a *Adam) Timestep() int { return a.t }
