// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/pkg/errors"
)

// ErrShapeMismatch is the sentinel cause for every shape-incompatibility
// error returned by this package. Match it with errors.Is.
var ErrShapeMismatch = errors.New("shape mismatch")

// Tensor is a dense rows×cols matrix of float64 values.
//
// The zero value is not usable; construct tensors with New, FromSlice,
// FromRows, Eye, or Randn.
type Tensor struct {
	rows, cols int
	data       []float64 // row-major, len == rows*cols
}

// New creates a rows×cols tensor filled with zeros.
func New(rows, cols int) *Tensor {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("tensor.New: invalid shape %dx%d", rows, cols))
	}
	return &Tensor{
		rows: rows,
		cols: cols,
		data: make([]float64, rows*cols),
	}
}

// FromSlice creates a rows×cols tensor from row-major data.
// The slice is copied.
func FromSlice(data []float64, rows, cols int) (*Tensor, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.Wrapf(ErrShapeMismatch, "FromSlice: invalid shape %dx%d", rows, cols)
	}
	if len(data) != rows*cols {
		return nil, errors.Wrapf(ErrShapeMismatch, "FromSlice: shape %dx%d requires %d elements, got %d",
			rows, cols, rows*cols, len(data))
	}
	t := New(rows, cols)
	copy(t.data, data)
	return t, nil
}

// FromRows creates a tensor from a rectangular slice of rows.
// Returns an error if the rows are ragged or empty.
func FromRows(rows [][]float64) (*Tensor, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.Wrap(ErrShapeMismatch, "FromRows: empty input")
	}
	cols := len(rows[0])
	t := New(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, errors.Wrapf(ErrShapeMismatch, "FromRows: row %d has %d entries, want %d",
				i, len(row), cols)
		}
		copy(t.data[i*cols:(i+1)*cols], row)
	}
	return t, nil
}

// Eye creates an n×n identity matrix.
func Eye(n int) *Tensor {
	t := New(n, n)
	for i := 0; i < n; i++ {
		t.data[i*n+i] = 1
	}
	return t
}

// Randn creates a rows×cols tensor with entries drawn from N(0, stddev²).
func Randn(rows, cols int, stddev float64) *Tensor {
	t := New(rows, cols)
	for i := range t.data {
		t.data[i] = rand.NormFloat64() * stddev
	}
	return t
}

// Rows returns the number of rows.
func (t *Tensor) Rows() int { return t.rows }

// Cols returns the number of columns.
func (t *Tensor) Cols() int { return t.cols }

// At returns the entry at row i, column j.
func (t *Tensor) At(i, j int) float64 {
	t.boundsCheck(i, j)
	return t.data[i*t.cols+j]
}

// Set writes the entry at row i, column j.
func (t *Tensor) Set(i, j int, v float64) {
	t.boundsCheck(i, j)
	t.data[i*t.cols+j] = v
}

func (t *Tensor) boundsCheck(i, j int) {
	if i < 0 || i >= t.rows || j < 0 || j >= t.cols {
		panic(fmt.Sprintf("tensor: index (%d,%d) out of range for %dx%d tensor", i, j, t.rows, t.cols))
	}
}

// Data returns the underlying row-major storage. The slice is shared with
// the tensor; callers that need an independent copy should Clone first.
func (t *Tensor) Data() []float64 { return t.data }

// Row returns a copy of row i.
func (t *Tensor) Row(i int) []float64 {
	out := make([]float64, t.cols)
	copy(out, t.data[i*t.cols:(i+1)*t.cols])
	return out
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	c := New(t.rows, t.cols)
	copy(c.data, t.data)
	return c
}

// SameShape reports whether t and other have identical dimensions.
func (t *Tensor) SameShape(other *Tensor) bool {
	return t.rows == other.rows && t.cols == other.cols
}

// Equal reports exact element-wise equality of shape and values.
func (t *Tensor) Equal(other *Tensor) bool {
	if !t.SameShape(other) {
		return false
	}
	for i, v := range t.data {
		if v != other.data[i] {
			return false
		}
	}
	return true
}

// AllFinite reports whether every entry is finite (no NaN or Inf).
func (t *Tensor) AllFinite() bool {
	for _, v := range t.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// String renders the tensor shape and values for debugging and for the
// step engine's computation detail display.
func (t *Tensor) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%dx%d[", t.rows, t.cols)
	for i := 0; i < t.rows; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		for j := 0; j < t.cols; j++ {
			if j > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%.4g", t.data[i*t.cols+j])
		}
	}
	b.WriteString("]")
	return b.String()
}
