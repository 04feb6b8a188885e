package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/raphaelgruber/jaketune/internal/job"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	monitorInterval time.Duration
	monitorPlain    bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor <run-id>",
	Short: "Watch a run until it completes or fails",
	Long: heredoc.Doc(`
		Poll a submitted run at a fixed interval, printing its status and
		latest metrics, until it reaches Completed or Failed.

		On a terminal an interactive progress view is shown; use --plain for
		line output. Ctrl+C stops watching and leaves the run alone.

		Examples:
		  jaketune monitor projects/p/locations/us-central1/customJobs/123
		  jaketune monitor 123 --interval 30s --plain
		  JAKETUNE_BACKEND=docker jaketune monitor jake-yi34b-training_1733160010_3e8ae34e
	`),
	Args: cobra.ExactArgs(1),
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().DurationVarP(&monitorInterval, "interval", "i", 0, "poll interval (default JAKETUNE_POLL_INTERVAL)")
	monitorCmd.Flags().BoolVar(&monitorPlain, "plain", false, "print status lines instead of the progress view")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	backend, err := newBackend(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()

	handle, err := backend.Get(ctx, args[0])
	if err != nil {
		return err
	}

	interval := cfg.PollInterval
	if monitorInterval > 0 {
		interval = monitorInterval
	}
	interactive := !monitorPlain && term.IsTerminal(int(os.Stdout.Fd()))
	return watch(ctx, handle, interval, interactive)
}

// watch follows a run with the progress view or plain status lines.
func watch(ctx context.Context, handle job.Handle, interval time.Duration, interactive bool) error {
	if interactive {
		return RunMonitorProgress(handle, interval)
	}

	m := job.NewMonitor(os.Stdout, job.WithInterval(interval), job.WithLogger(logger))
	_, err := m.Watch(ctx, handle)
	if errors.Is(err, context.Canceled) {
		logger.Info("stopped watching; the run continues", "run_id", handle.ID())
		return nil
	}
	return err
}
