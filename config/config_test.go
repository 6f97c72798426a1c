package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
name: xor-demo
mode: classification
layers:
  - neurons: 4
    activation: relu
  - neurons: 1
    activation: sigmoid
loss: crossentropy
optimizer: adam
learningRate: 0.05
epochs: 250
`

func TestParse(t *testing.T) {
	e, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "xor-demo", e.Name)
	assert.Equal(t, ModeClassification, e.Mode)
	assert.Equal(t, 2, e.InputSize())
	require.Len(t, e.Layers, 2)
	assert.Equal(t, 4, e.Layers[0].Neurons)
	assert.Equal(t, "relu", e.Layers[0].Activation)
	assert.Equal(t, "crossentropy", e.Loss)
	assert.Equal(t, "adam", e.Optimizer)
	assert.InDelta(t, 0.05, e.LearningRate, 1e-12)
	assert.Equal(t, 250, e.Epochs)
}

func TestParse_Defaults(t *testing.T) {
	e, err := Parse([]byte(`
layers:
  - neurons: 2
    activation: tanh
loss: mse
`))
	require.NoError(t, err)

	assert.Equal(t, ModeRegression, e.Mode)
	assert.Equal(t, 1, e.InputSize())
	assert.Equal(t, "sgd", e.Optimizer)
	assert.InDelta(t, 0.01, e.LearningRate, 1e-12)
	assert.Equal(t, 100, e.Epochs)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", `layers: [`},
		{"unknown mode", "mode: streaming\nlayers: [{neurons: 1, activation: linear}]\nloss: mse"},
		{"no layers", "loss: mse"},
		{"zero neurons", "layers: [{neurons: 0, activation: relu}]\nloss: mse"},
		{"unknown activation", "layers: [{neurons: 1, activation: gelu}]\nloss: mse"},
		{"unknown loss", "layers: [{neurons: 1, activation: relu}]\nloss: hinge"},
		{"unknown optimizer", "layers: [{neurons: 1, activation: relu}]\nloss: mse\noptimizer: adagrad"},
		{"negative lr", "layers: [{neurons: 1, activation: relu}]\nloss: mse\nlearningRate: -0.1"},
		{"negative epochs", "layers: [{neurons: 1, activation: relu}]\nloss: mse\nepochs: -5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	e, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "xor-demo", e.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNetworkBridge(t *testing.T) {
	e, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	net, err := e.Network()
	require.NoError(t, err)
	require.Len(t, net.Layers, 2)
	assert.Equal(t, 2, net.Layers[0].InputSize)
	assert.Equal(t, 4, net.Layers[0].OutputSize)
	assert.Equal(t, 1, net.Layers[1].OutputSize)
}

func TestEngineBridge(t *testing.T) {
	e, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	cfg := e.StepConfig()
	assert.Equal(t, 2, cfg.InputSize)
	assert.Equal(t, "adam", cfg.Optimizer)
	assert.Equal(t, 250, cfg.Epochs)

	eng, err := e.Engine()
	require.NoError(t, err)
	assert.NotNil(t, eng)
}

func TestMarshalRoundTrip(t *testing.T) {
	e, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	data, err := e.Marshal()
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, e, back)
}
