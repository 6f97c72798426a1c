// Copyright 2026 The stepnet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package config loads experiment descriptions from YAML: the network
// architecture, loss, optimizer, and training hyperparameters a host UI
// round-trips when saving and restoring a session. A parsed Experiment
// bridges directly into the nn and step constructors.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/stepnet-ml/stepnet/nn"
	"github.com/stepnet-ml/stepnet/optim"
	"github.com/stepnet-ml/stepnet/step"
)

// Dataset modes. The mode fixes the network's input dimensionality: one
// input for curve fitting over x, two for classifying (x, y) points.
const (
	ModeRegression     = "regression"
	ModeClassification = "classification"
)

// Experiment is the YAML-facing description of one training setup.
type Experiment struct {
	Name         string           `yaml:"name"`
	Mode         string           `yaml:"mode"`
	Layers       []nn.LayerConfig `yaml:"layers"`
	Loss         string           `yaml:"loss"`
	Optimizer    string           `yaml:"optimizer"`
	LearningRate float64          `yaml:"learningRate"`
	Epochs       int              `yaml:"epochs"`
}

// InputSize is the input width implied by the dataset mode.
func (e *Experiment) InputSize() int {
	if e.Mode == ModeClassification {
		return 2
	}
	return 1
}

// Parse decodes and validates a YAML experiment. Missing optimizer,
// learning rate, and epochs fall back to sgd, 0.01, and 100.
func Parse(data []byte) (*Experiment, error) {
	var e Experiment
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, errors.Wrap(err, "parsing experiment yaml")
	}
	e.applyDefaults()
	if err := e.validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// Load reads and parses an experiment file.
func Load(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading experiment file %s", path)
	}
	e, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "experiment file %s", path)
	}
	return e, nil
}

func (e *Experiment) applyDefaults() {
	if e.Mode == "" {
		e.Mode = ModeRegression
	}
	if e.Optimizer == "" {
		e.Optimizer = "sgd"
	}
	if e.LearningRate == 0 {
		e.LearningRate = 0.01
	}
	if e.Epochs == 0 {
		e.Epochs = 100
	}
}

func (e *Experiment) validate() error {
	if e.Mode != ModeRegression && e.Mode != ModeClassification {
		return errors.Errorf("unknown mode %q", e.Mode)
	}
	if len(e.Layers) == 0 {
		return errors.New("experiment needs at least one layer")
	}
	for i, l := range e.Layers {
		if l.Neurons <= 0 {
			return errors.Errorf("layer %d: neurons must be positive, got %d", i, l.Neurons)
		}
		if _, err := nn.ActivationByName(l.Activation); err != nil {
			return errors.Wrapf(err, "layer %d", i)
		}
	}
	if _, err := nn.LossByName(e.Loss); err != nil {
		return err
	}
	if _, err := optim.ByName(e.Optimizer); err != nil {
		return err
	}
	if e.LearningRate <= 0 {
		return errors.Errorf("learning rate must be positive, got %g", e.LearningRate)
	}
	if e.Epochs <= 0 {
		return errors.Errorf("epochs must be positive, got %d", e.Epochs)
	}
	return nil
}

// Network builds the described network with fresh random weights.
func (e *Experiment) Network() (*nn.Network, error) {
	return nn.NewNetwork(e.InputSize(), e.Layers, e.Loss)
}

// StepConfig bridges the experiment into a stepping-engine configuration.
func (e *Experiment) StepConfig() step.Config {
	return step.Config{
		InputSize:    e.InputSize(),
		Layers:       e.Layers,
		Loss:         e.Loss,
		Optimizer:    e.Optimizer,
		LearningRate: e.LearningRate,
		Epochs:       e.Epochs,
	}
}

// Engine builds a stepping engine for the experiment.
func (e *Experiment) Engine() (*step.Engine, error) {
	return step.New(e.StepConfig())
}

// Marshal encodes the experiment back to YAML.
func (e *Experiment) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, "encoding experiment yaml")
	}
	return data, nil
}
