// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/stepnet-ml/stepnet/tensor"
)

// SGD implements stateless stochastic gradient descent.
//
// Update rule:
//
//	param = param - lr * gradient
type SGD struct{}

// NewSGD creates a new SGD optimizer.
func NewSGD() *SGD { return &SGD{} }

func (*SGD) Name() string    { return "sgd" }
func (*SGD) Formula() string { return "w = w - lr * grad" }

// Update applies w = w - lr*grad.
func (*SGD) Update(layer int, weights, grads *tensor.Tensor, lr float64) (*tensor.Tensor, error) {
	if err := checkShapes("sgd update", weights, grads); err != nil {
		return nil, err
	}
	return weights.Sub(grads.MulScalar(lr))
}

// UpdateBias applies b = b - lr*grad.
func (*SGD) UpdateBias(layer int, bias, grads []float64, lr float64) ([]float64, error) {
	if err := checkLens("sgd update bias", bias, grads); err != nil {
		return nil, err
	}
	out := make([]float64, len(bias))
	for i, b := range bias {
		out[i] = b - lr*grads[i]
	}
	return out, nil
}

// Reset is a no-op; SGD carries no state.
func (*SGD) Reset() {}
