package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/raphaelgruber/jaketune/internal/config"
	"github.com/raphaelgruber/jaketune/internal/job"
	"github.com/spf13/cobra"
)

var (
	submitExperiment       string
	submitCompute          string
	submitEnvFile          string
	submitEnvName          string
	submitBaseImage        string
	submitScript           string
	submitMachineType      string
	submitAccelerator      string
	submitAcceleratorCount int32
	submitWatch            bool
	submitDataDir          string
)

const defaultTrainConfig = "config/training_config.yaml"

// defaultTrainArgs is the jake-train argument vector used when no script
// arguments are given. An empty dataDir resolves to <bucket>/data, or to
// the workspace-relative "data" without a bucket.
func defaultTrainArgs(dataDir, bucket string) []string {
	if dataDir == "" {
		dataDir = "data"
		if bucket != "" {
			dataDir = "gs://" + strings.TrimSuffix(strings.TrimPrefix(bucket, "gs://"), "/") + "/data"
		}
	}
	return []string{"--config", defaultTrainConfig, "--data-dir", dataDir}
}

var submitCmd = &cobra.Command{
	Use:   "submit [-- script args...]",
	Short: "Submit a fine-tuning run",
	Long: heredoc.Doc(`
		Submit a training run and print its run ID without waiting for it.
		Arguments after -- are passed to the training script; gs:// paths are
		rewritten to the Cloud Storage mount on Vertex AI. Without them the
		script gets --config config/training_config.yaml and --data-dir.

		The compute target names a Vertex persistent resource (empty for
		on-demand machines) or, on the docker backend, "cpu" to run without GPUs.

		Examples:
		  jaketune submit
		  jaketune submit --compute jake-ai -- --config config/training_config.yaml --data-dir gs://jake-data
		  JAKETUNE_BACKEND=docker jaketune submit --compute cpu --watch
	`),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVarP(&submitExperiment, "experiment", "e", "jake-yi34b-training", "experiment name, used as run ID prefix")
	submitCmd.Flags().StringVarP(&submitCompute, "compute", "c", "jake-ai", "compute target name")
	submitCmd.Flags().StringVar(&submitEnvFile, "env-file", "environment.yml", "conda environment file (empty to skip)")
	submitCmd.Flags().StringVar(&submitEnvName, "env-name", "jake-training-env", "environment name")
	submitCmd.Flags().StringVar(&submitBaseImage, "base-image", "", "container image overriding JAKETUNE_DEFAULT_IMAGE")
	submitCmd.Flags().StringVar(&submitScript, "script", "jake-train", "command run inside the container")
	submitCmd.Flags().StringVar(&submitMachineType, "machine-type", "a2-highgpu-1g", "Vertex machine type")
	submitCmd.Flags().StringVar(&submitAccelerator, "accelerator", "NVIDIA_TESLA_A100", "Vertex accelerator type (empty for none)")
	submitCmd.Flags().Int32Var(&submitAcceleratorCount, "accelerator-count", 1, "accelerators per replica")
	submitCmd.Flags().StringVar(&submitDataDir, "data-dir", "", "dataset directory passed to the default script (default <staging bucket>/data)")
	submitCmd.Flags().BoolVarP(&submitWatch, "watch", "w", false, "monitor the run after submitting")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	env := &config.EnvironmentSpec{Name: submitEnvName}
	if submitEnvFile != "" {
		var err error
		env, err = config.LoadEnvironmentSpec(submitEnvName, submitEnvFile)
		if err != nil {
			return err
		}
	}
	if submitBaseImage != "" {
		env.BaseImage = submitBaseImage
	}

	scriptArgs := args
	if len(scriptArgs) == 0 {
		bucket := ""
		if cfg.Backend == config.BackendVertex {
			bucket = cfg.StagingBucket
		}
		scriptArgs = defaultTrainArgs(submitDataDir, bucket)
	}

	backend, err := newBackend(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()

	spec := job.Spec{
		RunID:            job.NewRunID(submitExperiment, time.Now()),
		Experiment:       submitExperiment,
		ComputeTarget:    submitCompute,
		Script:           submitScript,
		Args:             scriptArgs,
		Environment:      env,
		MachineType:      submitMachineType,
		AcceleratorType:  submitAccelerator,
		AcceleratorCount: submitAcceleratorCount,
	}

	handle, err := backend.Submit(ctx, spec)
	if err != nil {
		return err
	}
	fmt.Printf("Submitted run ID: %s\n", handle.ID())

	if !submitWatch {
		return nil
	}
	return watch(ctx, handle, cfg.PollInterval, false)
}
