// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/pkg/errors"

	"github.com/stepnet-ml/stepnet/tensor"
)

// Optimizer converts raw gradients into parameter updates.
//
// Update and UpdateBias return new values rather than mutating in place;
// the caller replaces the layer's owned tensors. The layer argument keys any
// internal running-moment state.
type Optimizer interface {
	// Update applies the rule to a weight matrix and its gradient.
	Update(layer int, weights, grads *tensor.Tensor, lr float64) (*tensor.Tensor, error)

	// UpdateBias applies the rule to a bias vector and its gradient.
	UpdateBias(layer int, bias, grads []float64, lr float64) ([]float64, error)

	// Reset clears all running-moment state.
	Reset()

	// Name returns the lower-case identifier used in configs.
	Name() string

	// Formula returns the human-readable update rule for display.
	Formula() string
}

// ByName resolves a config name to a fresh Optimizer.
// Recognized names: sgd, adam, rmsprop.
func ByName(name string) (Optimizer, error) {
	switch name {
	case "sgd":
		return NewSGD(), nil
	case "adam":
		return NewAdam(), nil
	case "rmsprop":
		return NewRMSprop(), nil
	default:
		return nil, errors.Errorf("unknown optimizer %q", name)
	}
}

// paramKey identifies one parameter tensor of one layer.
type paramKey struct {
	layer int
	bias  bool
}

func checkShapes(op string, weights, grads *tensor.Tensor) error {
	if !weights.SameShape(grads) {
		return errors.Wrapf(tensor.ErrShapeMismatch, "%s: weights %dx%d vs grads %dx%d",
			op, weights.Rows(), weights.Cols(), grads.Rows(), grads.Cols())
	}
	return nil
}

func checkLens(op string, bias, grads []float64) error {
	if len(bias) != len(grads) {
		return errors.Wrapf(tensor.ErrShapeMismatch, "%s: bias length %d vs grads length %d",
			op, len(bias), len(grads))
	}
	return nil
}
