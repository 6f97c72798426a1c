// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package regression fits straight lines to 2D point sets, both in closed
// form via the normal equation and iteratively via gradient descent. The
// closed form answers instantly; the iterative path exists so a host UI can
// animate the fit converging step by step.
package regression

import (
	"math"

	"github.com/pkg/errors"

	"github.com/stepnet-ml/stepnet/tensor"
)

// Point is one (x, y) observation.
type Point struct {
	X float64
	Y float64
}

// Model is a fitted line y = Slope*x + Intercept together with the
// goodness-of-fit statistics computed over the fitting data.
type Model struct {
	Slope     float64
	Intercept float64
	// RSquared is the coefficient of determination over the fitting points.
	// It is 1 for a perfect fit and can be negative for fits worse than the
	// mean. When the targets have zero variance it is reported as 1 if the
	// residuals are also zero, else 0.
	RSquared float64
	// Residuals holds y_i - predicted(x_i) per fitting point, in input order.
	Residuals []float64
}

// Predict evaluates the fitted line at x.
func (m *Model) Predict(x float64) float64 {
	return m.Slope*x + m.Intercept
}

// NormalEquation solves the two-parameter least-squares problem
// (XᵀX)⁻¹ Xᵀy for the given points, where X is the design matrix with a
// column of x values and a column of ones.
//
// It requires at least two points with distinct x values; otherwise XᵀX is
// singular and an error is returned.
func NormalEquation(points []Point) (slope, intercept float64, err error) {
	if len(points) < 2 {
		return 0, 0, errors.Errorf("normal equation requires at least 2 points, got %d", len(points))
	}

	n := len(points)
	design := tensor.New(n, 2)
	target := tensor.New(n, 1)
	for i, p := range points {
		design.Set(i, 0, p.X)
		design.Set(i, 1, 1)
		target.Set(i, 0, p.Y)
	}

	xt := design.Transpose()
	xtx, err := xt.MatMul(design)
	if err != nil {
		return 0, 0, err
	}
	xty, err := xt.MatMul(target)
	if err != nil {
		return 0, 0, err
	}

	// XᵀX is 2×2; invert it in closed form.
	a, b := xtx.At(0, 0), xtx.At(0, 1)
	c, d := xtx.At(1, 0), xtx.At(1, 1)
	det := a*d - b*c
	if math.Abs(det) < 1e-12 {
		return 0, 0, errors.New("normal equation: singular system, all x values coincide")
	}
	inv := tensor.New(2, 2)
	inv.Set(0, 0, d/det)
	inv.Set(0, 1, -b/det)
	inv.Set(1, 0, -c/det)
	inv.Set(1, 1, a/det)

	theta, err := inv.MatMul(xty)
	if err != nil {
		return 0, 0, err
	}
	return theta.At(0, 0), theta.At(1, 0), nil
}

// Fit runs NormalEquation and fills in the fit statistics.
func Fit(points []Point) (*Model, error) {
	slope, intercept, err := NormalEquation(points)
	if err != nil {
		return nil, err
	}
	m := &Model{Slope: slope, Intercept: intercept}
	m.fillStats(points)
	return m, nil
}

func (m *Model) fillStats(points []Point) {
	m.Residuals = make([]float64, len(points))

	var meanY float64
	for _, p := range points {
		meanY += p.Y
	}
	meanY /= float64(len(points))

	var ssRes, ssTot float64
	for i, p := range points {
		r := p.Y - m.Predict(p.X)
		m.Residuals[i] = r
		ssRes += r * r
		d := p.Y - meanY
		ssTot += d * d
	}
	switch {
	case ssTot > 0:
		m.RSquared = 1 - ssRes/ssTot
	case ssRes == 0:
		m.RSquared = 1
	default:
		m.RSquared = 0
	}
}

// StepFunc is called after every gradient-descent iteration with the
// iteration index, the current line, and the current mean squared error.
// Returning false stops the fit after that iteration.
type StepFunc func(iter int, slope, intercept, mse float64) bool

// GradientDescent fits a line by batch gradient descent on the mean squared
// error, starting from slope 0 and intercept 0. onStep follows the same
// cooperative-cancellation convention as nn.Network.Train and may be nil.
//
// Non-finite gradient steps keep the previous parameter value so a hostile
// learning rate degrades the fit instead of poisoning it.
func GradientDescent(points []Point, iterations int, lr float64, onStep StepFunc) (*Model, error) {
	if len(points) == 0 {
		return nil, errors.New("gradient descent requires at least 1 point")
	}
	if iterations <= 0 {
		return nil, errors.Errorf("iterations must be positive, got %d", iterations)
	}

	n := float64(len(points))
	var slope, intercept float64
	for iter := 0; iter < iterations; iter++ {
		var gradSlope, gradIntercept, mse float64
		for _, p := range points {
			diff := slope*p.X + intercept - p.Y
			gradSlope += 2 * diff * p.X / n
			gradIntercept += 2 * diff / n
			mse += diff * diff / n
		}
		if next := slope - lr*gradSlope; !math.IsNaN(next) && !math.IsInf(next, 0) {
			slope = next
		}
		if next := intercept - lr*gradIntercept; !math.IsNaN(next) && !math.IsInf(next, 0) {
			intercept = next
		}
		if onStep != nil && !onStep(iter, slope, intercept, mse) {
			break
		}
	}

	m := &Model{Slope: slope, Intercept: intercept}
	m.fillStats(points)
	return m, nil
}
