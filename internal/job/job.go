// Package job submits training runs to a backend and watches them until
// they reach a terminal state.
package job

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/jaketune/internal/config"
	"github.com/raphaelgruber/jaketune/internal/models"
)

// Spec describes one training run. Names are passed to the backend as is;
// an unknown compute target or image surfaces as the backend's own error.
type Spec struct {
	RunID         string
	Experiment    string
	ComputeTarget string
	Script        string
	Args          []string
	Environment   *config.EnvironmentSpec

	// Machine shape for backends that provision hardware per run.
	MachineType      string
	AcceleratorType  string
	AcceleratorCount int32
}

// Handle is a reference to a submitted run. Status and metrics are always
// read from the backend; a Handle caches nothing.
type Handle interface {
	ID() string
	Status(ctx context.Context) (models.RunStatus, error)
	Metrics(ctx context.Context) (models.Metrics, error)
}

// Backend submits runs and re-attaches to existing ones.
type Backend interface {
	// Submit starts the run and returns without waiting for it.
	Submit(ctx context.Context, spec Spec) (Handle, error)
	// Get returns a handle for a run submitted earlier.
	Get(ctx context.Context, id string) (Handle, error)
	Close() error
}

// NewRunID returns <experiment>_<unix seconds>_<8 hex chars>.
func NewRunID(experiment string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s", experiment, now.Unix(), suffix)
}
