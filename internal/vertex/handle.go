package vertex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	aiplatform "cloud.google.com/go/aiplatform/apiv1beta1"
	"cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
	"github.com/raphaelgruber/jaketune/internal/models"
	"github.com/raphaelgruber/jaketune/internal/storage"
)

type handle struct {
	name       string
	metricsURI string
	jobs       *aiplatform.JobClient
	store      *storage.Client
}

func (h *handle) ID() string { return h.name }

func (h *handle) Status(ctx context.Context) (models.RunStatus, error) {
	j, err := h.jobs.GetCustomJob(ctx, &aiplatformpb.GetCustomJobRequest{Name: h.name})
	if err != nil {
		return "", fmt.Errorf("get custom job: %w", err)
	}
	return mapState(j.GetState()), nil
}

// Metrics reads the run's metrics.json. A run that has not logged yet has
// no file, which reads as empty metrics.
func (h *handle) Metrics(ctx context.Context) (models.Metrics, error) {
	if h.metricsURI == "" {
		return nil, nil
	}
	data, err := h.store.ReadFile(ctx, h.metricsURI)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var m models.Metrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode metrics %s: %w", h.metricsURI, err)
	}
	return m, nil
}

func mapState(s aiplatformpb.JobState) models.RunStatus {
	switch s {
	case aiplatformpb.JobState_JOB_STATE_RUNNING,
		aiplatformpb.JobState_JOB_STATE_CANCELLING,
		aiplatformpb.JobState_JOB_STATE_UPDATING,
		aiplatformpb.JobState_JOB_STATE_PAUSED:
		return models.RunStatusRunning
	case aiplatformpb.JobState_JOB_STATE_SUCCEEDED,
		aiplatformpb.JobState_JOB_STATE_PARTIALLY_SUCCEEDED:
		return models.RunStatusCompleted
	case aiplatformpb.JobState_JOB_STATE_FAILED,
		aiplatformpb.JobState_JOB_STATE_CANCELLED,
		aiplatformpb.JobState_JOB_STATE_EXPIRED:
		return models.RunStatusFailed
	default:
		return models.RunStatusQueued
	}
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
