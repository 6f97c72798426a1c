// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package step

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/stepnet-ml/stepnet/nn"
	"github.com/stepnet-ml/stepnet/optim"
	"github.com/stepnet-ml/stepnet/tensor"
)

// Config fully describes a stepping session: the network architecture, the
// loss, the optimizer the update phase applies, and the training
// hyperparameters a host UI displays alongside the steps.
type Config struct {
	InputSize    int              `yaml:"inputSize"`
	Layers       []nn.LayerConfig `yaml:"layers"`
	Loss         string           `yaml:"loss"`
	Optimizer    string           `yaml:"optimizer"`
	LearningRate float64          `yaml:"learningRate"`
	Epochs       int              `yaml:"epochs"`
}

// Engine wraps a network and an optimizer and replays one training
// iteration as discrete steps with undo/redo.
//
// An Engine is exclusively owned by a single caller; concurrent use must be
// serialized externally.
type Engine struct {
	net *nn.Network
	opt optim.Optimizer
	cfg Config

	input  *tensor.Tensor
	target *tensor.Tensor

	cur engineState // live computational context

	history []*Snapshot
	cursor  int // index of the current snapshot in history, -1 before any step
	steps   int // monotonically increasing step number
}

// New builds an Engine from a Config.
func New(cfg Config) (*Engine, error) {
	net, err := nn.NewNetwork(cfg.InputSize, cfg.Layers, cfg.Loss)
	if err != nil {
		return nil, errors.Wrap(err, "step engine: network")
	}
	opt, err := optim.ByName(cfg.Optimizer)
	if err != nil {
		return nil, errors.Wrap(err, "step engine: optimizer")
	}
	return &Engine{
		net:    net,
		opt:    opt,
		cfg:    cfg,
		cursor: -1,
	}, nil
}

// Network exposes the wrapped network for prediction-surface sampling.
func (e *Engine) Network() *nn.Network { return e.net }

// Config returns the session configuration.
func (e *Engine) Config() Config { return e.cfg }

// TotalForwardSteps is the number of forward micro-steps in one iteration.
func (e *Engine) TotalForwardSteps() int { return len(e.net.Layers) }

// TotalBackwardSteps counts the loss-gradient step plus one backward step
// per layer.
func (e *Engine) TotalBackwardSteps() int { return len(e.net.Layers) + 1 }

// SetData binds the training example (or batch) the session steps through
// and resets step history, cached activations, and the step index. It is
// required before any stepping.
func (e *Engine) SetData(input, target *tensor.Tensor) error {
	if input.Cols() != e.net.InputSize {
		return errors.Wrapf(tensor.ErrShapeMismatch, "set data: input has %d columns, network wants %d",
			input.Cols(), e.net.InputSize)
	}
	if target.Rows() != input.Rows() || target.Cols() != e.net.OutputSize() {
		return errors.Wrapf(tensor.ErrShapeMismatch, "set data: target %dx%d, network produces %dx%d",
			target.Rows(), target.Cols(), input.Rows(), e.net.OutputSize())
	}
	e.input = input.Clone()
	e.target = target.Clone()
	e.history = nil
	e.cursor = -1
	e.steps = 0
	e.opt.Reset()
	e.resetIteration()
	return nil
}

// resetIteration clears the per-iteration computational context.
func (e *Engine) resetIteration() {
	e.cur = engineState{
		activations:  make([]*tensor.Tensor, len(e.net.Layers)+1),
		backwardNext: len(e.net.Layers) - 1,
	}
	e.cur.activations[0] = e.input
	for _, l := range e.net.Layers {
		l.ClearGradients()
	}
}

func (e *Engine) requireData() error {
	if e.input == nil || e.target == nil {
		return errors.Wrap(nn.ErrPrecondition, "no data bound; call SetData first")
	}
	return nil
}

// append records a snapshot of the current network and engine state,
// truncating any redo-able future steps first.
func (e *Engine) append(t Type, layerIndex int, detail ComputationDetail) *Snapshot {
	e.history = e.history[:e.cursor+1]
	e.steps++
	snap := &Snapshot{
		ID:         uuid.NewString(),
		StepNumber: e.steps,
		Timestamp:  time.Now(),
		Type:       t,
		LayerIndex: layerIndex,
		Layers:     captureLayers(e.net),
		Detail:     detail,
		state:      e.cur.clone(),
		ctx:        captureContext(e.net),
	}
	e.history = append(e.history, snap)
	e.cursor = len(e.history) - 1
	return snap
}

// StepForwardLayer runs layer i's forward pass using the previous layer's
// cached activation (the raw input for i=0) and records a forward snapshot.
// Layers must be stepped in order 0..L-1.
func (e *Engine) StepForwardLayer(i int) (*Snapshot, error) {
	if err := e.requireData(); err != nil {
		return nil, err
	}
	if i != e.cur.forwardDone {
		return nil, errors.Wrapf(nn.ErrPrecondition,
			"forward step out of order: layer %d requested, layer %d is next", i, e.cur.forwardDone)
	}
	if i >= len(e.net.Layers) {
		return nil, errors.Wrapf(nn.ErrPrecondition, "forward already complete (%d layers)", len(e.net.Layers))
	}
	layer := e.net.Layers[i]
	out, err := layer.Forward(e.cur.activations[i])
	if err != nil {
		return nil, errors.Wrapf(err, "forward step: layer %d", i)
	}
	e.cur.activations[i+1] = out
	e.cur.forwardDone = i + 1

	biasT, _ := tensor.FromSlice(layer.Bias, 1, len(layer.Bias))
	detail := ComputationDetail{
		Formula: fmt.Sprintf("a%d = %s(a%d @ W%d^T + b%d)", i+1, layer.Activation.Name(), i, i, i),
		Inputs: map[string]*tensor.Tensor{
			fmt.Sprintf("a%d", i): e.cur.activations[i].Clone(),
			fmt.Sprintf("W%d", i): layer.Weights.Clone(),
			fmt.Sprintf("b%d", i): biasT,
		},
		Output: out.Clone(),
	}
	return e.append(TypeForward, i, detail), nil
}

// completeForward silently runs any layers the user has not stepped yet.
func (e *Engine) completeForward() error {
	for e.cur.forwardDone < len(e.net.Layers) {
		i := e.cur.forwardDone
		out, err := e.net.Layers[i].Forward(e.cur.activations[i])
		if err != nil {
			return errors.Wrapf(err, "layer %d", i)
		}
		e.cur.activations[i+1] = out
		e.cur.forwardDone = i + 1
	}
	return nil
}

// StepComputeLoss computes the scalar loss against the final activation,
// first running any remaining forward layers, and records a loss snapshot.
func (e *Engine) StepComputeLoss() (*Snapshot, error) {
	if err := e.requireData(); err != nil {
		return nil, err
	}
	if e.cur.lossComputed {
		return nil, errors.Wrap(nn.ErrPrecondition, "loss already computed for this iteration")
	}
	if err := e.completeForward(); err != nil {
		return nil, errors.Wrap(err, "loss step: completing forward")
	}
	pred := e.cur.activations[len(e.net.Layers)]
	loss, err := e.net.Loss.Compute(pred, e.target)
	if err != nil {
		return nil, errors.Wrap(err, "loss step")
	}
	e.cur.lossValue = loss
	e.cur.lossComputed = true

	lossT, _ := tensor.FromSlice([]float64{loss}, 1, 1)
	detail := ComputationDetail{
		Formula: fmt.Sprintf("L = %s(pred, target)", e.net.Loss.Name()),
		Inputs: map[string]*tensor.Tensor{
			"pred":   pred.Clone(),
			"target": e.target.Clone(),
		},
		Output: lossT,
	}
	return e.append(TypeLoss, -1, detail), nil
}

// LossValue returns the most recently computed scalar loss and whether one
// has been computed this iteration.
func (e *Engine) LossValue() (float64, bool) {
	return e.cur.lossValue, e.cur.lossComputed
}

// StepBackwardLossGradient computes the loss gradient against the final
// activation and records a backward snapshot. Requires a prior
// StepComputeLoss.
func (e *Engine) StepBackwardLossGradient() (*Snapshot, error) {
	if err := e.requireData(); err != nil {
		return nil, err
	}
	if !e.cur.lossComputed {
		return nil, errors.Wrap(nn.ErrPrecondition, "loss must be computed before its gradient")
	}
	if e.cur.lossGradDone {
		return nil, errors.Wrap(nn.ErrPrecondition, "loss gradient already computed for this iteration")
	}
	pred := e.cur.activations[len(e.net.Layers)]
	grad, err := e.net.Loss.Gradient(pred, e.target)
	if err != nil {
		return nil, errors.Wrap(err, "loss gradient step")
	}
	e.cur.currentGrad = grad
	e.cur.lossGradDone = true

	detail := ComputationDetail{
		Formula: fmt.Sprintf("dL/dpred = %s'(pred, target)", e.net.Loss.Name()),
		Inputs: map[string]*tensor.Tensor{
			"pred":   pred.Clone(),
			"target": e.target.Clone(),
		},
		Output: grad.Clone(),
	}
	return e.append(TypeBackward, -1, detail), nil
}

// StepBackwardLayer runs layer i's backward pass with the gradient in
// flight and records a backward snapshot. Layers must be stepped in strict
// reverse order L-1..0, after the loss gradient.
func (e *Engine) StepBackwardLayer(i int) (*Snapshot, error) {
	if err := e.requireData(); err != nil {
		return nil, err
	}
	if !e.cur.lossGradDone {
		return nil, errors.Wrap(nn.ErrPrecondition, "loss gradient must be computed before layer backward")
	}
	if e.cur.backwardNext < 0 {
		return nil, errors.Wrap(nn.ErrPrecondition, "backward already complete for this iteration")
	}
	if i != e.cur.backwardNext {
		return nil, errors.Wrapf(nn.ErrPrecondition,
			"backward step out of order: layer %d requested, layer %d is next", i, e.cur.backwardNext)
	}
	return e.backwardLayer(i)
}

func (e *Engine) backwardLayer(i int) (*Snapshot, error) {
	layer := e.net.Layers[i]
	incoming := e.cur.currentGrad
	inputGrad, err := layer.Backward(incoming)
	if err != nil {
		return nil, errors.Wrapf(err, "backward step: layer %d", i)
	}
	e.cur.currentGrad = inputGrad
	e.cur.backwardNext = i - 1

	detail := ComputationDetail{
		Formula: fmt.Sprintf("dL/dW%d = da%d^T @ a%d ; dL/db%d = colsum(da%d) ; dL/da%d = da%d @ W%d",
			i, i+1, i, i, i+1, i, i+1, i),
		Inputs: map[string]*tensor.Tensor{
			fmt.Sprintf("da%d", i+1): incoming.Clone(),
			fmt.Sprintf("W%d", i):    layer.Weights.Clone(),
		},
		Output: layer.WeightGrad().Clone(),
	}
	return e.append(TypeBackward, i, detail), nil
}

// StepBackwardComplete runs every remaining backward layer in one call,
// recording one snapshot per layer. Requires a prior loss gradient.
func (e *Engine) StepBackwardComplete() ([]*Snapshot, error) {
	if err := e.requireData(); err != nil {
		return nil, err
	}
	if !e.cur.lossGradDone {
		return nil, errors.Wrap(nn.ErrPrecondition, "loss gradient must be computed before layer backward")
	}
	var snaps []*Snapshot
	for e.cur.backwardNext >= 0 {
		snap, err := e.backwardLayer(e.cur.backwardNext)
		if err != nil {
			return snaps, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// StepUpdateWeights applies the engine's optimizer to every layer's weights
// and biases and records one update snapshot summarizing all layers. It
// requires a completed backward pass (every layer holding cached
// gradients), and leaves the engine ready for the next iteration.
//
// Unlike Layer.UpdateWeights, this path uses the configured pluggable
// optimizer; the two update rules are intentionally distinct.
func (e *Engine) StepUpdateWeights(lr float64) (*Snapshot, error) {
	if err := e.requireData(); err != nil {
		return nil, err
	}
	for i, layer := range e.net.Layers {
		if !layer.HasGradients() {
			return nil, errors.Wrapf(nn.ErrPrecondition,
				"update requires gradients for every layer; layer %d has none", i)
		}
	}
	// Pre-update parameters and the gradients being applied; the updated
	// parameters land in the snapshot's Layers.
	inputs := make(map[string]*tensor.Tensor, 4*len(e.net.Layers))
	for i, layer := range e.net.Layers {
		biasT, _ := tensor.FromSlice(layer.Bias, 1, len(layer.Bias))
		biasGradT, _ := tensor.FromSlice(layer.BiasGrad(), 1, len(layer.BiasGrad()))
		inputs[fmt.Sprintf("W%d", i)] = layer.Weights.Clone()
		inputs[fmt.Sprintf("b%d", i)] = biasT
		inputs[fmt.Sprintf("dW%d", i)] = layer.WeightGrad().Clone()
		inputs[fmt.Sprintf("db%d", i)] = biasGradT
	}
	lossT, _ := tensor.FromSlice([]float64{e.cur.lossValue}, 1, 1)

	if err := e.applyOptimizer(lr); err != nil {
		return nil, err
	}

	detail := ComputationDetail{
		Formula: fmt.Sprintf("%s: %s (lr=%g)", e.opt.Name(), e.opt.Formula(), lr),
		Inputs:  inputs,
		// The scalar loss this update descended on.
		Output: lossT,
	}
	e.resetIteration()
	return e.append(TypeUpdate, -1, detail), nil
}

// applyOptimizer replaces every layer's parameters with the optimizer's
// update of them.
func (e *Engine) applyOptimizer(lr float64) error {
	for i, layer := range e.net.Layers {
		w, err := e.opt.Update(i, layer.Weights, layer.WeightGrad(), lr)
		if err != nil {
			return errors.Wrapf(err, "update step: layer %d weights", i)
		}
		b, err := e.opt.UpdateBias(i, layer.Bias, layer.BiasGrad(), lr)
		if err != nil {
			return errors.Wrapf(err, "update step: layer %d bias", i)
		}
		layer.Weights = w
		layer.Bias = b
	}
	return nil
}

// CanUndo reports whether Undo would succeed.
func (e *Engine) CanUndo() bool { return e.cursor >= 0 }

// CanRedo reports whether Redo would succeed.
func (e *Engine) CanRedo() bool { return e.cursor < len(e.history)-1 }

// Undo moves the step index back by one and restores that snapshot's
// weights, biases, and cached activations onto the live network. Undoing
// the very first step restores the pre-step state. Returns false when there
// is nothing to undo.
func (e *Engine) Undo() bool {
	if !e.CanUndo() {
		return false
	}
	e.cursor--
	if e.cursor >= 0 {
		e.restore(e.history[e.cursor])
	} else {
		// Back to the state right after SetData.
		e.resetIteration()
	}
	return true
}

// Redo moves forward by one step if a future snapshot exists.
func (e *Engine) Redo() bool {
	if !e.CanRedo() {
		return false
	}
	e.cursor++
	e.restore(e.history[e.cursor])
	return true
}

func (e *Engine) restore(snap *Snapshot) {
	restoreLayers(e.net, snap.Layers)
	restoreContext(e.net, snap.ctx)
	e.cur = snap.state.clone()
	// activations[0] always aliases the bound input.
	e.cur.activations[0] = e.input
}

// GetCurrentState returns the snapshot at the current step index, or nil
// before the first step.
func (e *Engine) GetCurrentState() *Snapshot {
	if e.cursor < 0 {
		return nil
	}
	return e.history[e.cursor]
}

// GetStepHistory returns the snapshots up to and including the current step
// index. Redo-able future steps are excluded.
func (e *Engine) GetStepHistory() []*Snapshot {
	out := make([]*Snapshot, e.cursor+1)
	copy(out, e.history[:e.cursor+1])
	return out
}

// TrainOneEpoch runs a full forward/loss/backward/update iteration in one
// call using the engine's optimizer, bypassing the snapshot machinery.
// It returns the scalar loss before the update. Used for continuous or
// animated training where per-step snapshots would be wasted work.
func (e *Engine) TrainOneEpoch(input, target *tensor.Tensor, lr float64) (float64, error) {
	pred, err := e.net.Forward(input)
	if err != nil {
		return 0, errors.Wrap(err, "train epoch: forward")
	}
	loss, err := e.net.Loss.Compute(pred, target)
	if err != nil {
		return 0, errors.Wrap(err, "train epoch: loss")
	}
	grad, err := e.net.Loss.Gradient(pred, target)
	if err != nil {
		return 0, errors.Wrap(err, "train epoch: loss gradient")
	}
	if err := e.net.Backward(grad); err != nil {
		return 0, errors.Wrap(err, "train epoch: backward")
	}
	if err := e.applyOptimizer(lr); err != nil {
		return 0, errors.Wrap(err, "train epoch")
	}
	return loss, nil
}
