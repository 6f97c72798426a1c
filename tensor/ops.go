// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/pkg/errors"
)

// MatMul performs matrix multiplication: (M, K) @ (K, N) → (M, N).
func (t *Tensor) MatMul(other *Tensor) (*Tensor, error) {
	if t.cols != other.rows {
		return nil, errors.Wrapf(ErrShapeMismatch, "MatMul: %dx%d @ %dx%d",
			t.rows, t.cols, other.rows, other.cols)
	}
	out := New(t.rows, other.cols)
	for i := 0; i < t.rows; i++ {
		for k := 0; k < t.cols; k++ {
			a := t.data[i*t.cols+k]
			if a == 0 {
				continue
			}
			rowB := other.data[k*other.cols:]
			rowOut := out.data[i*out.cols:]
			for j := 0; j < other.cols; j++ {
				rowOut[j] += a * rowB[j]
			}
		}
	}
	return out, nil
}

// Transpose returns a new cols×rows tensor with rows and columns swapped.
func (t *Tensor) Transpose() *Tensor {
	out := New(t.cols, t.rows)
	for i := 0; i < t.rows; i++ {
		for j := 0; j < t.cols; j++ {
			out.data[j*out.cols+i] = t.data[i*t.cols+j]
		}
	}
	return out
}

// Add performs element-wise addition of same-shaped tensors.
func (t *Tensor) Add(other *Tensor) (*Tensor, error) {
	if !t.SameShape(other) {
		return nil, errors.Wrapf(ErrShapeMismatch, "Add: %dx%d + %dx%d",
			t.rows, t.cols, other.rows, other.cols)
	}
	out := New(t.rows, t.cols)
	for i, v := range t.data {
		out.data[i] = v + other.data[i]
	}
	return out, nil
}

// Sub performs element-wise subtraction of same-shaped tensors.
func (t *Tensor) Sub(other *Tensor) (*Tensor, error) {
	if !t.SameShape(other) {
		return nil, errors.Wrapf(ErrShapeMismatch, "Sub: %dx%d - %dx%d",
			t.rows, t.cols, other.rows, other.cols)
	}
	out := New(t.rows, t.cols)
	for i, v := range t.data {
		out.data[i] = v - other.data[i]
	}
	return out, nil
}

// Mul performs element-wise multiplication of same-shaped tensors.
func (t *Tensor) Mul(other *Tensor) (*Tensor, error) {
	if !t.SameShape(other) {
		return nil, errors.Wrapf(ErrShapeMismatch, "Mul: %dx%d * %dx%d",
			t.rows, t.cols, other.rows, other.cols)
	}
	out := New(t.rows, t.cols)
	for i, v := range t.data {
		out.data[i] = v * other.data[i]
	}
	return out, nil
}

// MulScalar multiplies every entry by s.
func (t *Tensor) MulScalar(s float64) *Tensor {
	out := New(t.rows, t.cols)
	for i, v := range t.data {
		out.data[i] = v * s
	}
	return out
}

// AddRowVector broadcast-adds a vector across every row.
// The vector length must equal the number of columns.
func (t *Tensor) AddRowVector(vec []float64) (*Tensor, error) {
	if len(vec) != t.cols {
		return nil, errors.Wrapf(ErrShapeMismatch, "AddRowVector: vector length %d, want %d columns",
			len(vec), t.cols)
	}
	out := New(t.rows, t.cols)
	for i := 0; i < t.rows; i++ {
		row := t.data[i*t.cols:]
		outRow := out.data[i*t.cols:]
		for j := 0; j < t.cols; j++ {
			outRow[j] = row[j] + vec[j]
		}
	}
	return out, nil
}

// ColSum sums every column, returning a vector of length cols.
// Used for bias gradients, which accumulate over the batch dimension.
func (t *Tensor) ColSum() []float64 {
	out := make([]float64, t.cols)
	for i := 0; i < t.rows; i++ {
		row := t.data[i*t.cols:]
		for j := 0; j < t.cols; j++ {
			out[j] += row[j]
		}
	}
	return out
}

// Clip clamps every entry into [-bound, bound].
func (t *Tensor) Clip(bound float64) *Tensor {
	out := New(t.rows, t.cols)
	for i, v := range t.data {
		switch {
		case v > bound:
			out.data[i] = bound
		case v < -bound:
			out.data[i] = -bound
		default:
			out.data[i] = v
		}
	}
	return out
}

// Apply returns a new tensor with fn applied to every entry.
func (t *Tensor) Apply(fn func(float64) float64) *Tensor {
	out := New(t.rows, t.cols)
	for i, v := range t.data {
		out.data[i] = fn(v)
	}
	return out
}
