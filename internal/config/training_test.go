package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTrainingYAML = `
model:
  name: 01-ai/Yi-34B
  quantization: true
  lora_r: 64
  lora_alpha: 128
training:
  num_epochs: 3
  batch_size: 1
  gradient_accumulation_steps: 16
  learning_rate: 1.0e-4
`

func TestLoadTrainingConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "training_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTrainingYAML), 0o644))

	cfg, err := LoadTrainingConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "01-ai/Yi-34B", cfg.Model.Name)
	assert.True(t, cfg.Model.Quantization)
	assert.Equal(t, 64, cfg.Model.LoraR)
	assert.Equal(t, 128, cfg.Model.LoraAlpha)
	assert.Equal(t, 3, cfg.Training.NumEpochs)
	assert.Equal(t, 1, cfg.Training.BatchSize)
	assert.Equal(t, 16, cfg.Training.GradientAccumulationSteps)
	assert.InDelta(t, 1e-4, cfg.Training.LearningRate, 1e-12)
}

func TestLoadTrainingConfig_Errors(t *testing.T) {
	_, err := LoadTrainingConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	_, err = ParseTrainingConfig([]byte("model: [unterminated"))
	assert.Error(t, err)
}

func TestParseEnvironmentSpec(t *testing.T) {
	doc := `
name: jake-training-env
channels:
  - pytorch
  - conda-forge
dependencies:
  - python=3.10
  - pip
  - pip:
      - transformers==4.36.0
      - peft
      - bitsandbytes
`
	spec, err := ParseEnvironmentSpec([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "jake-training-env", spec.Name)
	assert.Equal(t, []string{"pytorch", "conda-forge"}, spec.Channels)
	assert.Equal(t, []string{"python=3.10", "pip"}, spec.Conda)
	assert.Equal(t, []string{"transformers==4.36.0", "peft", "bitsandbytes"}, spec.Pip)
}

func TestLoadEnvironmentSpec_NameOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "environment.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: from-file\ndependencies: []\n"), 0o644))

	spec, err := LoadEnvironmentSpec("jake-training-env", path)
	require.NoError(t, err)
	assert.Equal(t, "jake-training-env", spec.Name)
}

func TestParseEnvironmentSpec_BadDependency(t *testing.T) {
	_, err := ParseEnvironmentSpec([]byte("dependencies:\n  - [a, b]\n"))
	assert.Error(t, err)
}

func TestTrainingConfigSchema(t *testing.T) {
	schema, err := TrainingConfigSchema()
	require.NoError(t, err)
	for _, field := range []string{"lora_r", "gradient_accumulation_steps", "learning_rate"} {
		assert.True(t, strings.Contains(schema, field), "schema missing %s", field)
	}
}
