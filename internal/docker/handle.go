package docker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/raphaelgruber/jaketune/internal/models"
	"github.com/raphaelgruber/jaketune/internal/storage"
)

type handle struct {
	id          string
	metricsPath string
	client      *client.Client
	store       *storage.Client
}

func (h *handle) ID() string { return h.id }

func (h *handle) Status(ctx context.Context) (models.RunStatus, error) {
	info, err := h.client.ContainerInspect(ctx, h.id)
	if err != nil {
		return "", fmt.Errorf("inspect container: %w", err)
	}
	return mapState(info.State), nil
}

func (h *handle) Metrics(ctx context.Context) (models.Metrics, error) {
	if h.metricsPath == "" {
		return nil, nil
	}
	data, err := h.store.ReadFile(ctx, h.metricsPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var m models.Metrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode metrics %s: %w", h.metricsPath, err)
	}
	return m, nil
}

func mapState(s *container.State) models.RunStatus {
	if s == nil {
		return models.RunStatusQueued
	}
	switch s.Status {
	case "running", "paused", "restarting":
		return models.RunStatusRunning
	case "exited":
		if s.ExitCode == 0 {
			return models.RunStatusCompleted
		}
		return models.RunStatusFailed
	case "dead":
		return models.RunStatusFailed
	default:
		return models.RunStatusQueued
	}
}
