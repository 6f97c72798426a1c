// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math"

	"github.com/pkg/errors"

	"github.com/stepnet-ml/stepnet/tensor"
)

// crossEntropyEps keeps predictions away from 0 and 1 before taking logs.
const crossEntropyEps = 1e-15

// Loss scores predictions against targets and produces the gradient of the
// score w.r.t. the predictions.
//
// Both implementations follow a best-effort numerical policy: non-finite
// terms are skipped or zeroed rather than propagated, so a training run that
// momentarily blows up degrades instead of poisoning every later epoch.
type Loss interface {
	// Name returns the lower-case identifier used in configs and formulas.
	Name() string

	// Compute returns the scalar loss.
	Compute(pred, target *tensor.Tensor) (float64, error)

	// Gradient returns dLoss/dPred, same shape as pred.
	Gradient(pred, target *tensor.Tensor) (*tensor.Tensor, error)
}

// LossByName resolves a config name to a Loss.
// Recognized names: mse, crossentropy.
func LossByName(name string) (Loss, error) {
	switch name {
	case "mse":
		return MSE{}, nil
	case "crossentropy":
		return CrossEntropy{}, nil
	default:
		return nil, errors.Errorf("unknown loss %q", name)
	}
}

// MSE is mean squared error: mean((pred - target)²).
type MSE struct{}

func (MSE) Name() string { return "mse" }

// Compute averages squared differences over the finite terms only.
// If every term is non-finite the loss is 0.
func (MSE) Compute(pred, target *tensor.Tensor) (float64, error) {
	if !pred.SameShape(target) {
		return 0, errors.Wrapf(tensor.ErrShapeMismatch, "mse: pred %dx%d vs target %dx%d",
			pred.Rows(), pred.Cols(), target.Rows(), target.Cols())
	}
	var sum float64
	var count int
	p, tg := pred.Data(), target.Data()
	for i := range p {
		d := p[i] - tg[i]
		sq := d * d
		if math.IsNaN(sq) || math.IsInf(sq, 0) {
			continue
		}
		sum += sq
		count++
	}
	if count == 0 {
		return 0, nil
	}
	return sum / float64(count), nil
}

// Gradient is 2*(pred - target)/n with non-finite entries zeroed.
func (MSE) Gradient(pred, target *tensor.Tensor) (*tensor.Tensor, error) {
	if !pred.SameShape(target) {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "mse gradient: pred %dx%d vs target %dx%d",
			pred.Rows(), pred.Cols(), target.Rows(), target.Cols())
	}
	n := float64(pred.Rows() * pred.Cols())
	grad := tensor.New(pred.Rows(), pred.Cols())
	p, tg, g := pred.Data(), target.Data(), grad.Data()
	for i := range p {
		v := 2 * (p[i] - tg[i]) / n
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		g[i] = v
	}
	return grad, nil
}

// CrossEntropy is binary cross-entropy over probabilities in (0, 1).
//
// Predictions are clamped to [eps, 1-eps] before the logs, and the gradient
// is clipped to [-10, 10], so saturated sigmoid outputs produce large but
// bounded updates instead of infinities.
type CrossEntropy struct{}

func (CrossEntropy) Name() string { return "crossentropy" }

func clampProb(p float64) float64 {
	if p < crossEntropyEps {
		return crossEntropyEps
	}
	if p > 1-crossEntropyEps {
		return 1 - crossEntropyEps
	}
	return p
}

// Compute returns -mean(target*ln(pred) + (1-target)*ln(1-pred)) over the
// finite terms only.
func (CrossEntropy) Compute(pred, target *tensor.Tensor) (float64, error) {
	if !pred.SameShape(target) {
		return 0, errors.Wrapf(tensor.ErrShapeMismatch, "crossentropy: pred %dx%d vs target %dx%d",
			pred.Rows(), pred.Cols(), target.Rows(), target.Cols())
	}
	var sum float64
	var count int
	p, tg := pred.Data(), target.Data()
	for i := range p {
		pc := clampProb(p[i])
		term := tg[i]*math.Log(pc) + (1-tg[i])*math.Log(1-pc)
		if math.IsNaN(term) || math.IsInf(term, 0) {
			continue
		}
		sum += term
		count++
	}
	if count == 0 {
		return 0, nil
	}
	return -sum / float64(count), nil
}

// Gradient is (pred - target) / (pred*(1-pred)*n), clipped to [-10, 10]
// with non-finite entries zeroed.
func (CrossEntropy) Gradient(pred, target *tensor.Tensor) (*tensor.Tensor, error) {
	if !pred.SameShape(target) {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "crossentropy gradient: pred %dx%d vs target %dx%d",
			pred.Rows(), pred.Cols(), target.Rows(), target.Cols())
	}
	n := float64(pred.Rows() * pred.Cols())
	grad := tensor.New(pred.Rows(), pred.Cols())
	p, tg, g := pred.Data(), target.Data(), grad.Data()
	for i := range p {
		pc := clampProb(p[i])
		v := (pc - tg[i]) / (pc * (1 - pc) * n)
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			v = 0
		case v > 10:
			v = 10
		case v < -10:
			v = -10
		}
		g[i] = v
	}
	return grad, nil
}
