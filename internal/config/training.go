package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TrainingConfig is the YAML document passed to jake-train via --config.
type TrainingConfig struct {
	Model    ModelConfig    `yaml:"model" json:"model"`
	Training TrainingParams `yaml:"training" json:"training"`
}

// ModelConfig selects the base model and the adapter shape.
type ModelConfig struct {
	Name         string `yaml:"name" json:"name" jsonschema:"required,description=Hugging Face model id"`
	Quantization bool   `yaml:"quantization" json:"quantization" jsonschema:"description=Load the base model in 4-bit"`
	LoraR        int    `yaml:"lora_r" json:"lora_r" jsonschema:"minimum=1"`
	LoraAlpha    int    `yaml:"lora_alpha" json:"lora_alpha" jsonschema:"minimum=1"`
}

// TrainingParams are the optimizer and schedule settings.
type TrainingParams struct {
	NumEpochs                 int     `yaml:"num_epochs" json:"num_epochs" jsonschema:"minimum=1"`
	BatchSize                 int     `yaml:"batch_size" json:"batch_size" jsonschema:"minimum=1"`
	GradientAccumulationSteps int     `yaml:"gradient_accumulation_steps" json:"gradient_accumulation_steps" jsonschema:"minimum=1"`
	LearningRate              float64 `yaml:"learning_rate" json:"learning_rate"`
}

// LoadTrainingConfig reads a training config YAML file.
func LoadTrainingConfig(path string) (*TrainingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read training config: %w", err)
	}
	return ParseTrainingConfig(data)
}

// ParseTrainingConfig decodes a training config document.
func ParseTrainingConfig(data []byte) (*TrainingConfig, error) {
	var cfg TrainingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse training config: %w", err)
	}
	return &cfg, nil
}
