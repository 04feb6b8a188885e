// Package cli provides the command-line interfaces for jaketune and jake-train.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/raphaelgruber/jaketune/internal/config"
	"github.com/raphaelgruber/jaketune/internal/docker"
	"github.com/raphaelgruber/jaketune/internal/job"
	"github.com/raphaelgruber/jaketune/internal/storage"
	"github.com/raphaelgruber/jaketune/internal/vertex"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config, logger and artifact store
	cfg         config.Config
	logger      *slog.Logger
	store       *storage.Client
	closeLogger func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "jaketune",
	Short: "Prepare, submit and monitor Jake fine-tuning runs",
	Long: heredoc.Doc(`
		jaketune turns a conversation export into training examples, submits
		LoRA fine-tuning runs to Vertex AI or a local Docker daemon, and
		watches them until they finish.

		Configuration is read from JAKETUNE_* environment variables and an
		optional .env file in the working directory.
	`),
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
}

// setup loads config and the logger for every command except help.
func setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" {
		return nil
	}

	cfg = config.Load()
	level := cfg.LogLevel
	if verbose {
		level = slog.LevelDebug
	}
	logger, closeLogger = config.SetupLogger(cfg.LogFile, level)
	slog.SetDefault(logger)
	logger = config.WithCommand(logger, cmd.Name())

	store = storage.NewClient()
	return nil
}

func teardown(cmd *cobra.Command, args []string) {
	if store != nil {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close storage client: %v\n", err)
		}
	}
	if closeLogger != nil {
		_ = closeLogger()
	}
}

// newBackend connects to the configured job backend.
func newBackend(ctx context.Context) (job.Backend, error) {
	switch cfg.Backend {
	case config.BackendVertex:
		b, err := vertex.New(ctx, vertex.Config{
			Project:       cfg.Project,
			Location:      cfg.Location,
			StagingBucket: cfg.StagingBucket,
			DefaultImage:  cfg.DefaultImage,
		}, store, vertex.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return b, nil

	case config.BackendDocker:
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		b, err := docker.New(ctx, docker.Config{
			Image:      cfg.DefaultImage,
			OutputRoot: cfg.OutputDir,
			Workspace:  wd,
		}, store, logger)
		if err != nil {
			return nil, err
		}
		return b, nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Backend)
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(prepareCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(tweetsCmd)
	rootCmd.AddCommand(schemaCmd)
}
