package job

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/raphaelgruber/jaketune/internal/models"
)

// DefaultInterval is the fixed delay between status queries.
const DefaultInterval = 60 * time.Second

// Monitor polls a Handle at a fixed interval and prints progress lines.
type Monitor struct {
	interval time.Duration
	out      io.Writer
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithInterval overrides DefaultInterval. Non-positive values are ignored.
func WithInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) MonitorOption {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// NewMonitor returns a Monitor that prints to out.
func NewMonitor(out io.Writer, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		interval: DefaultInterval,
		out:      out,
		logger:   slog.Default(),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Interval returns the poll interval.
func (m *Monitor) Interval() time.Duration {
	return m.interval
}

// Watch blocks until the run is terminal and returns its final status.
// Cancelling ctx stops watching; the remote run is left alone.
func (m *Monitor) Watch(ctx context.Context, h Handle) (models.RunStatus, error) {
	var status models.RunStatus
	for {
		var err error
		status, err = h.Status(ctx)
		if err != nil {
			return "", fmt.Errorf("get status of %s: %w", h.ID(), err)
		}
		m.logger.Debug("polled run", "run_id", h.ID(), "status", status)
		if status.IsTerminal() {
			break
		}

		fmt.Fprintf(m.out, "Run status: %s\n", status)

		metrics, err := h.Metrics(ctx)
		if err != nil {
			return "", fmt.Errorf("get metrics of %s: %w", h.ID(), err)
		}
		if len(metrics) > 0 {
			fmt.Fprintf(m.out, "Current metrics: %s\n", metrics)
		}

		if err := m.sleep(ctx, m.interval); err != nil {
			return status, err
		}
	}

	fmt.Fprintf(m.out, "Run finished with status: %s\n", status)
	return status, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
