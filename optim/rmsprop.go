// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"math"

	"github.com/stepnet-ml/stepnet/tensor"
)

// RMSprop maintains a running average of squared gradients and divides each
// step by its square root, adapting the effective learning rate per
// parameter.
//
// Update rule:
//
//	v_t = beta * v_{t-1} + (1-beta) * gradient²
//	param = param - lr * gradient / (sqrt(v_t) + eps)
type RMSprop struct {
	beta float64
	eps  float64
	v    map[paramKey][]float64
}

// NewRMSprop creates an RMSprop optimizer with beta=0.9 and eps=1e-8.
func NewRMSprop() *RMSprop {
	return &RMSprop{
		beta: 0.9,
		eps:  1e-8,
		v:    make(map[paramKey][]float64),
	}
}

func (*RMSprop) Name() string { return "rmsprop" }

func (*RMSprop) Formula() string {
	return "w = w - lr * grad / (sqrt(v) + eps)"
}

func (r *RMSprop) step(key paramKey, params, grads []float64, lr float64) []float64 {
	v, ok := r.v[key]
	if !ok {
		v = make([]float64, len(params))
		r.v[key] = v
	}
	out := make([]float64, len(params))
	for i, g := range grads {
		v[i] = r.beta*v[i] + (1-r.beta)*g*g
		out[i] = params[i] - lr*g/(math.Sqrt(v[i])+r.eps)
	}
	return out
}

// Update applies an RMSprop step to a weight matrix.
func (r *RMSprop) Update(layer int, weights, grads *tensor.Tensor, lr float64) (*tensor.Tensor, error) {
	if err := checkShapes("rmsprop update", weights, grads); err != nil {
		return nil, err
	}
	data := r.step(paramKey{layer: layer}, weights.Data(), grads.Data(), lr)
	return tensor.FromSlice(data, weights.Rows(), weights.Cols())
}

// UpdateBias applies an RMSprop step to a bias vector.
func (r *RMSprop) UpdateBias(layer int, bias, grads []float64, lr float64) ([]float64, error) {
	if err := checkLens("rmsprop update bias", bias, grads); err != nil {
		return nil, err
	}
	return r.step(paramKey{layer: layer, bias: true}, bias, grads, lr), nil
}

// Reset clears the running averages.
func (r *RMSprop) Reset() {
	r.v = make(map[paramKey][]float64)
}
