// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/pkg/errors"

	"github.com/stepnet-ml/stepnet/tensor"
)

// LayerConfig describes one dense layer of a network.
type LayerConfig struct {
	Neurons    int    `yaml:"neurons"`
	Activation string `yaml:"activation"`
}

// EpochFunc is called after every training epoch with the epoch index and
// its loss. Returning false stops training after that epoch; this is the
// cooperative cancellation point a host UI uses to implement pause/stop.
type EpochFunc func(epoch int, loss float64) bool

// Network is an ordered sequence of dense layers with a loss function.
//
// Layer i's output width equals layer i+1's input width; the first layer's
// input width equals the configured input dimensionality (1 for regression
// over x, 2 for classification over (x, y) points). Networks are recreated
// whenever the architecture changes; they are not resized in place.
type Network struct {
	Layers    []*Layer
	Loss      Loss
	InputSize int
}

// NewNetwork builds a network from an ordered layer-config list, a loss
// name, and the input dimensionality.
func NewNetwork(inputSize int, layers []LayerConfig, lossName string) (*Network, error) {
	if inputSize <= 0 {
		return nil, errors.Errorf("invalid input size %d", inputSize)
	}
	if len(layers) == 0 {
		return nil, errors.New("network needs at least one layer")
	}
	loss, err := LossByName(lossName)
	if err != nil {
		return nil, err
	}
	net := &Network{Loss: loss, InputSize: inputSize}
	prev := inputSize
	for i, cfg := range layers {
		if cfg.Neurons <= 0 {
			return nil, errors.Errorf("layer %d: invalid neuron count %d", i, cfg.Neurons)
		}
		act, err := ActivationByName(cfg.Activation)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		net.Layers = append(net.Layers, NewLayer(prev, cfg.Neurons, act))
		prev = cfg.Neurons
	}
	return net, nil
}

// OutputSize returns the width of the final layer.
func (n *Network) OutputSize() int {
	return n.Layers[len(n.Layers)-1].OutputSize
}

// Forward runs the input through every layer in order.
func (n *Network) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	out := input
	var err error
	for i, layer := range n.Layers {
		out, err = layer.Forward(out)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
	}
	return out, nil
}

// Backward propagates the loss gradient through every layer in reverse,
// leaving cached weight/bias gradients on each layer.
func (n *Network) Backward(grad *tensor.Tensor) error {
	var err error
	for i := len(n.Layers) - 1; i >= 0; i-- {
		grad, err = n.Layers[i].Backward(grad)
		if err != nil {
			return errors.Wrapf(err, "layer %d", i)
		}
	}
	return nil
}

// Train runs full-batch gradient descent for the given number of epochs and
// returns the per-epoch loss history. Each layer applies its own vanilla
// update rule (Layer.UpdateWeights); optimizer-driven training lives in the
// step engine.
//
// onEpoch may be nil. When present it is invoked after every epoch and can
// stop training early by returning false; the history returned covers the
// epochs that actually ran.
func (n *Network) Train(x, y *tensor.Tensor, epochs int, lr float64, onEpoch EpochFunc) ([]float64, error) {
	history := make([]float64, 0, epochs)
	for epoch := 0; epoch < epochs; epoch++ {
		pred, err := n.Forward(x)
		if err != nil {
			return history, errors.Wrapf(err, "epoch %d: forward", epoch)
		}
		loss, err := n.Loss.Compute(pred, y)
		if err != nil {
			return history, errors.Wrapf(err, "epoch %d: loss", epoch)
		}
		history = append(history, loss)

		grad, err := n.Loss.Gradient(pred, y)
		if err != nil {
			return history, errors.Wrapf(err, "epoch %d: loss gradient", epoch)
		}
		if err := n.Backward(grad); err != nil {
			return history, errors.Wrapf(err, "epoch %d: backward", epoch)
		}
		for _, layer := range n.Layers {
			layer.UpdateWeights(lr)
		}
		if onEpoch != nil && !onEpoch(epoch, loss) {
			break
		}
	}
	return history, nil
}

// Predict1D evaluates the network at a single scalar input and returns the
// first output entry. Used to sample the fitted curve for regression mode.
func (n *Network) Predict1D(x float64) (float64, error) {
	input, err := tensor.FromSlice([]float64{x}, 1, 1)
	if err != nil {
		return 0, err
	}
	out, err := n.Forward(input)
	if err != nil {
		return 0, err
	}
	return out.At(0, 0), nil
}

// Predict2D samples the network over a resolution×resolution grid spanning
// [xMin, xMax] × [yMin, yMax], evaluating each (x, y) pair as a 1×2 input.
// The result holds the first output column at each grid point — the value a
// binary decision-boundary rendering thresholds. Multi-class outputs are not
// specially handled; the same single-column policy applies.
func (n *Network) Predict2D(xMin, xMax, yMin, yMax float64, resolution int) ([][]float64, error) {
	if resolution < 2 {
		return nil, errors.Errorf("resolution must be at least 2, got %d", resolution)
	}
	if n.InputSize != 2 {
		return nil, errors.Errorf("Predict2D needs a 2-input network, have %d inputs", n.InputSize)
	}
	grid := make([][]float64, resolution)
	dx := (xMax - xMin) / float64(resolution-1)
	dy := (yMax - yMin) / float64(resolution-1)
	for i := 0; i < resolution; i++ {
		grid[i] = make([]float64, resolution)
		y := yMin + float64(i)*dy
		for j := 0; j < resolution; j++ {
			x := xMin + float64(j)*dx
			input, err := tensor.FromSlice([]float64{x, y}, 1, 2)
			if err != nil {
				return nil, err
			}
			out, err := n.Forward(input)
			if err != nil {
				return nil, err
			}
			grid[i][j] = out.At(0, 0)
		}
	}
	return grid, nil
}
