package cli

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/raphaelgruber/jaketune/internal/models"
)

type stubHandle struct {
	status  models.RunStatus
	metrics models.Metrics
	err     error
}

func (h stubHandle) ID() string { return "run-1" }

func (h stubHandle) Status(context.Context) (models.RunStatus, error) { return h.status, h.err }

func (h stubHandle) Metrics(context.Context) (models.Metrics, error) { return h.metrics, nil }

func TestEpochProgress(t *testing.T) {
	tests := []struct {
		name    string
		metrics models.Metrics
		wantPct float64
		wantOK  bool
	}{
		{"no metrics", nil, 0, false},
		{"epoch only", models.Metrics{"epoch": 1}, 0, false},
		{"zero total", models.Metrics{"epoch": 1, "num_train_epochs": 0}, 0, false},
		{"halfway", models.Metrics{"epoch": 1.5, "num_train_epochs": 3}, 0.5, true},
		{"overshoot clamps", models.Metrics{"epoch": 3.2, "num_train_epochs": 3}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pct, _, _, ok := epochProgress(tt.metrics)
			if ok != tt.wantOK || pct != tt.wantPct {
				t.Errorf("epochProgress() = %v, %v; want %v, %v", pct, ok, tt.wantPct, tt.wantOK)
			}
		})
	}
}

func TestProgressModel_Update(t *testing.T) {
	m := newProgressModel(stubHandle{}, time.Second)

	next, cmd := m.Update(runUpdateMsg{status: models.RunStatusRunning, metrics: models.Metrics{"loss": 1}})
	running := next.(progressModel)
	if running.done || cmd == nil {
		t.Fatalf("running update should keep polling")
	}
	if !strings.Contains(running.renderContent(), "[Running]") {
		t.Errorf("render = %q", running.renderContent())
	}

	// Empty metrics keep the last known values.
	next, _ = running.Update(runUpdateMsg{status: models.RunStatusRunning})
	if got := next.(progressModel).metrics["loss"]; got != 1 {
		t.Errorf("metrics lost after empty update: %v", next.(progressModel).metrics)
	}

	next, _ = running.Update(runUpdateMsg{status: models.RunStatusCompleted})
	done := next.(progressModel)
	if !done.done {
		t.Fatal("terminal status should finish the model")
	}
	if !strings.Contains(done.renderContent(), "Run finished with status: Completed") {
		t.Errorf("final view = %q", done.renderContent())
	}
}

func TestProgressModel_FetchError(t *testing.T) {
	boom := errors.New("permission denied")
	m := newProgressModel(stubHandle{err: boom}, time.Second)

	msg := m.fetchRun()()
	next, _ := m.Update(msg)
	got := next.(progressModel)
	if !got.done || !errors.Is(got.err, boom) {
		t.Errorf("expected done with wrapped error, got done=%v err=%v", got.done, got.err)
	}
}
