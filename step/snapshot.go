// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package step

import (
	"time"

	"github.com/stepnet-ml/stepnet/nn"
	"github.com/stepnet-ml/stepnet/tensor"
)

// Type labels the kind of micro-step a snapshot records.
type Type string

// Step types, in the order they occur within one iteration.
const (
	TypeForward  Type = "forward"
	TypeLoss     Type = "loss"
	TypeBackward Type = "backward"
	TypeUpdate   Type = "update"
)

// LayerState is a deep copy of one layer's parameters at snapshot time.
type LayerState struct {
	Weights    *tensor.Tensor
	Bias       []float64
	Activation string
}

// ComputationDetail describes one micro-step for display: the formula that
// was evaluated, its named input tensors, and its output.
type ComputationDetail struct {
	Formula string
	Inputs  map[string]*tensor.Tensor
	Output  *tensor.Tensor
}

// Snapshot is an immutable record of one micro-step. Snapshots form a
// linear, truncating history inside the Engine.
type Snapshot struct {
	// ID uniquely identifies the snapshot within a session.
	ID string

	// StepNumber increases monotonically across the session, including
	// steps later discarded by undo truncation.
	StepNumber int

	Timestamp time.Time
	Type      Type

	// LayerIndex is the layer a forward/backward step touched, or -1 for
	// steps that are not layer-scoped (loss, loss gradient, update).
	LayerIndex int

	// Layers holds a deep copy of every layer's parameters at this point.
	Layers []LayerState

	Detail ComputationDetail

	// state carries the engine's computational context so undo/redo can
	// rewind mid-iteration deterministically.
	state engineState

	// ctx carries each layer's transient forward/backward caches. Restoring
	// it is what lets a step re-taken after an undo find the gradients the
	// layers held at that point.
	ctx []layerContext
}

// layerContext is a deep copy of one layer's transient caches (last input,
// pre-activation, gradients) at snapshot time.
type layerContext struct {
	lastInput  *tensor.Tensor
	preAct     *tensor.Tensor
	weightGrad *tensor.Tensor
	biasGrad   []float64
}

func cloneTensor(t *tensor.Tensor) *tensor.Tensor {
	if t == nil {
		return nil
	}
	return t.Clone()
}

func cloneVector(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

// captureContext deep-copies every layer's transient caches.
func captureContext(net *nn.Network) []layerContext {
	out := make([]layerContext, len(net.Layers))
	for i, l := range net.Layers {
		out[i] = layerContext{
			lastInput:  cloneTensor(l.LastInput()),
			preAct:     cloneTensor(l.PreActivation()),
			weightGrad: cloneTensor(l.WeightGrad()),
			biasGrad:   cloneVector(l.BiasGrad()),
		}
	}
	return out
}

// restoreContext writes captured caches back onto the live layers.
func restoreContext(net *nn.Network, ctxs []layerContext) {
	for i, c := range ctxs {
		net.Layers[i].RestoreContext(
			cloneTensor(c.lastInput),
			cloneTensor(c.preAct),
			cloneTensor(c.weightGrad),
			cloneVector(c.biasGrad),
		)
	}
}

// engineState is the engine-internal context captured alongside each
// snapshot: cached activations, the gradient in flight, and phase counters.
type engineState struct {
	activations  []*tensor.Tensor // activations[i] = output of layer i-1; [0] = input
	currentGrad  *tensor.Tensor
	lossValue    float64
	lossComputed bool
	lossGradDone bool
	forwardDone  int
	backwardNext int
}

func (s engineState) clone() engineState {
	c := s
	c.activations = make([]*tensor.Tensor, len(s.activations))
	for i, a := range s.activations {
		if a != nil {
			c.activations[i] = a.Clone()
		}
	}
	if s.currentGrad != nil {
		c.currentGrad = s.currentGrad.Clone()
	}
	return c
}

// captureLayers deep-copies every layer's parameters.
func captureLayers(net *nn.Network) []LayerState {
	out := make([]LayerState, len(net.Layers))
	for i, l := range net.Layers {
		bias := make([]float64, len(l.Bias))
		copy(bias, l.Bias)
		out[i] = LayerState{
			Weights:    l.Weights.Clone(),
			Bias:       bias,
			Activation: l.Activation.Name(),
		}
	}
	return out
}

// restoreLayers writes captured parameters back onto the live network.
func restoreLayers(net *nn.Network, states []LayerState) {
	for i, st := range states {
		net.Layers[i].Weights = st.Weights.Clone()
		bias := make([]float64, len(st.Bias))
		copy(bias, st.Bias)
		net.Layers[i].Bias = bias
	}
}
