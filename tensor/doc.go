// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides dense 2D matrices and the small linear-algebra
// surface the rest of stepnet is built on.
//
// A Tensor is a fixed-shape rows×cols matrix of float64 values stored in
// row-major order. Operations are value-like: they return new tensors and
// never mutate their operands, so callers can hold snapshots of network
// state without defensive copying (the one exception is Set, which exists
// for construction and for components that explicitly own their tensor).
//
// Shape-incompatible operands are reported as errors wrapping
// ErrShapeMismatch rather than reading out of bounds:
//
//	c, err := a.MatMul(b)
//	if errors.Is(err, tensor.ErrShapeMismatch) {
//	    // operand shapes were incompatible
//	}
//
// Example:
//
//	a, _ := tensor.FromSlice([]float64{1, 2, 3, 4}, 2, 2)
//	b := tensor.Eye(2)
//	c, _ := a.MatMul(b) // equals a
package tensor
