package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/raphaelgruber/jaketune/internal/config"
	"github.com/raphaelgruber/jaketune/internal/dataset"
	"github.com/raphaelgruber/jaketune/internal/storage"
)

// DatasetFile is the conversation export expected in the data directory.
const DatasetFile = "jake_training.json"

// Options are the inputs of one training run.
type Options struct {
	ConfigPath     string
	DataDir        string
	OutputDir      string
	MetricsURI     string
	TrainerCommand string
}

// Run prepares the dataset and plan under OutputDir and runs the trainer.
func Run(ctx context.Context, opts Options, store *storage.Client, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := config.LoadTrainingConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	datasetPath := filepath.Join(opts.DataDir, DatasetFile)
	logger.Info("loading dataset", "path", datasetPath)
	examples, err := dataset.LoadExamples(datasetPath, dataset.ChatML, os.Stderr)
	if err != nil {
		return err
	}
	summary := dataset.Summarize(examples)
	logger.Info("prepared training examples",
		"count", summary.Examples,
		"mean_tokens", summary.MeanTokens,
		"max_tokens", summary.MaxTokens,
	)

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	trainPath := filepath.Join(opts.OutputDir, "train.jsonl")
	if err := dataset.WriteJSONLFile(trainPath, examples); err != nil {
		return err
	}

	plan := BuildPlan(cfg, opts.OutputDir, trainPath)
	planPath := filepath.Join(opts.OutputDir, "plan.json")
	if err := plan.WriteFile(planPath); err != nil {
		return err
	}
	logger.Info("wrote training plan", "path", planPath, "model", plan.ModelName)

	recorder := NewMetricsRecorder(ctx, store, opts.MetricsURI, logger)
	recorder.Log("num_train_epochs", float64(cfg.Training.NumEpochs))
	defer func() {
		if err := recorder.Close(); err != nil {
			logger.Warn("failed to persist final metrics", "uri", opts.MetricsURI, "error", err)
		}
	}()

	launcher := &Launcher{Command: opts.TrainerCommand, Logger: logger}
	logger.Info("starting training")
	if err := launcher.Run(ctx, planPath, RunLogger{Recorder: recorder}); err != nil {
		return err
	}

	logger.Info(fmt.Sprintf("Model saved to %s", plan.FinalModelDir))
	return nil
}
