// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package step decomposes one training iteration into discrete, inspectable
// micro-steps: per-layer forward, loss, loss gradient, per-layer backward,
// and weight update.
//
// An Engine wraps a network and an optimizer. Every step appends an
// immutable Snapshot — a deep copy of network state plus a human-readable
// description of the computation — to a linear history with undo/redo.
// Taking a new step after an undo truncates the redo-able future, the way a
// text editor's undo stack behaves.
//
// Steps enforce their phase order: loss before loss gradient, the full
// gradient chain before an update, backward layers in strict reverse order.
// Out-of-order calls return an error wrapping nn.ErrPrecondition instead of
// operating on stale gradients.
//
// For continuous (animated) training, TrainOneEpoch runs the whole
// iteration in one call and bypasses the snapshot machinery.
package step
