package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/jaketune/internal/trainer"
	"github.com/spf13/cobra"
)

var (
	trainConfigPath string
	trainDataDir    string
)

// trainCmd is the root of the jake-train binary that runs inside a job.
var trainCmd = &cobra.Command{
	Use:   "jake-train",
	Short: "Fine-tune Yi-34B on the Jake dataset",
	Long: `jake-train runs inside a training job. It formats <data-dir>/jake_training.json,
writes the dataset and training plan to JAKETUNE_OUTPUT_DIR and runs the
trainer given by JAKETUNE_TRAINER_COMMAND, recording its metrics at
JAKETUNE_METRICS_URI.`,
	Version:           Version,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
	RunE:              runTrain,
}

func init() {
	trainCmd.Flags().StringVar(&trainConfigPath, "config", "", "training config YAML")
	trainCmd.Flags().StringVar(&trainDataDir, "data-dir", "", "directory containing jake_training.json")
	_ = trainCmd.MarkFlagRequired("config")
	_ = trainCmd.MarkFlagRequired("data-dir")
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return trainer.Run(ctx, trainer.Options{
		ConfigPath:     trainConfigPath,
		DataDir:        trainDataDir,
		OutputDir:      cfg.OutputDir,
		MetricsURI:     cfg.MetricsURI,
		TrainerCommand: cfg.TrainerCommand,
	}, store, logger)
}

// ExecuteTrain runs the jake-train command.
func ExecuteTrain() error {
	return trainCmd.Execute()
}
