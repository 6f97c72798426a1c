// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn implements small feed-forward neural networks over 2D tensors:
// activation functions, loss functions, dense layers with hand-derived
// gradients, and a Network type tying them together for training and
// prediction-surface sampling.
//
// There is no automatic differentiation. Each layer caches its last input
// and pre-activation output during Forward and consumes them in Backward;
// calling Backward before Forward is a precondition violation and returns
// an error.
//
// Example:
//
//	net, err := nn.NewNetwork(1, []nn.LayerConfig{
//	    {Neurons: 8, Activation: "tanh"},
//	    {Neurons: 1, Activation: "linear"},
//	}, "mse")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	history, err := net.Train(x, y, 200, 0.05, nil)
package nn
