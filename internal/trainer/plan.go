// Package trainer is the entry point that runs inside a training job. It
// prepares the dataset and parameters, then delegates the training loop
// to an external trainer process and records the metrics it reports.
package trainer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raphaelgruber/jaketune/internal/config"
)

// Fixed adapter and schedule settings.
var loraTargetModules = []string{"q_proj", "k_proj", "v_proj", "o_proj"}

const (
	loraDropout    = 0.05
	saveSteps      = 50
	loggingSteps   = 10
	saveTotalLimit = 3
)

// Plan is everything the delegated trainer needs for one run.
type Plan struct {
	ModelName     string             `json:"model_name"`
	Quantization  QuantizationConfig `json:"quantization"`
	Lora          LoraConfig         `json:"lora"`
	TrainingArgs  TrainingArguments  `json:"training_args"`
	DatasetPath   string             `json:"dataset_path"`
	FinalModelDir string             `json:"final_model_dir"`
}

// QuantizationConfig loads the base model in 4-bit NF4.
type QuantizationConfig struct {
	LoadIn4Bit     bool   `json:"load_in_4bit"`
	QuantType      string `json:"bnb_4bit_quant_type"`
	ComputeDtype   string `json:"bnb_4bit_compute_dtype"`
	UseDoubleQuant bool   `json:"bnb_4bit_use_double_quant"`
}

// LoraConfig is the low-rank adapter shape.
type LoraConfig struct {
	R             int      `json:"r"`
	Alpha         int      `json:"lora_alpha"`
	TargetModules []string `json:"target_modules"`
	Dropout       float64  `json:"lora_dropout"`
	Bias          string   `json:"bias"`
	TaskType      string   `json:"task_type"`
}

// TrainingArguments mirror the trainer's argument names.
type TrainingArguments struct {
	OutputDir                 string  `json:"output_dir"`
	NumTrainEpochs            int     `json:"num_train_epochs"`
	PerDeviceTrainBatchSize   int     `json:"per_device_train_batch_size"`
	GradientAccumulationSteps int     `json:"gradient_accumulation_steps"`
	LearningRate              float64 `json:"learning_rate"`
	FP16                      bool    `json:"fp16"`
	SaveStrategy              string  `json:"save_strategy"`
	SaveSteps                 int     `json:"save_steps"`
	LoggingSteps              int     `json:"logging_steps"`
	SaveTotalLimit            int     `json:"save_total_limit"`
	LoadBestModelAtEnd        bool    `json:"load_best_model_at_end"`
	GradientCheckpointing     bool    `json:"gradient_checkpointing"`
	ReportTo                  string  `json:"report_to"`
}

// BuildPlan derives the run parameters from the YAML config. Checkpoints
// go to <outputDir>/checkpoints and the final model to <outputDir>/final_model.
func BuildPlan(cfg *config.TrainingConfig, outputDir, datasetPath string) *Plan {
	return &Plan{
		ModelName: cfg.Model.Name,
		Quantization: QuantizationConfig{
			LoadIn4Bit:     true,
			QuantType:      "nf4",
			ComputeDtype:   "float16",
			UseDoubleQuant: true,
		},
		Lora: LoraConfig{
			R:             cfg.Model.LoraR,
			Alpha:         cfg.Model.LoraAlpha,
			TargetModules: append([]string(nil), loraTargetModules...),
			Dropout:       loraDropout,
			Bias:          "none",
			TaskType:      "CAUSAL_LM",
		},
		TrainingArgs: TrainingArguments{
			OutputDir:                 filepath.Join(outputDir, "checkpoints"),
			NumTrainEpochs:            cfg.Training.NumEpochs,
			PerDeviceTrainBatchSize:   cfg.Training.BatchSize,
			GradientAccumulationSteps: cfg.Training.GradientAccumulationSteps,
			LearningRate:              cfg.Training.LearningRate,
			FP16:                      true,
			SaveStrategy:              "steps",
			SaveSteps:                 saveSteps,
			LoggingSteps:              loggingSteps,
			SaveTotalLimit:            saveTotalLimit,
			LoadBestModelAtEnd:        true,
			GradientCheckpointing:     true,
			// Metrics reach the platform through the log callback instead.
			ReportTo: "none",
		},
		DatasetPath:   datasetPath,
		FinalModelDir: filepath.Join(outputDir, "final_model"),
	}
}

// WriteFile writes the plan as indented JSON.
func (p *Plan) WriteFile(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}
