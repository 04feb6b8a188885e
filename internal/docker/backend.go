// Package docker runs training jobs as containers on the local Docker Engine.
package docker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/raphaelgruber/jaketune/internal/job"
	"github.com/raphaelgruber/jaketune/internal/storage"
)

const (
	// CPUTarget is the compute target that runs without GPUs.
	CPUTarget = "cpu"

	containerOutputs   = "/outputs"
	containerWorkspace = "/workspace"

	labelRunID   = "jaketune.run_id"
	labelOutputs = "jaketune.outputs"
)

// Config controls where runs read and write on the host.
type Config struct {
	// Image is used when the environment does not override it.
	Image string
	// OutputRoot holds one directory per run, mounted at /outputs.
	OutputRoot string
	// Workspace is mounted read-only at /workspace and used as the working dir.
	Workspace string
}

// Backend creates one container per run.
type Backend struct {
	cfg    Config
	client *client.Client
	store  *storage.Client
	logger *slog.Logger
}

var _ job.Backend = (*Backend)(nil)

// New connects to the Docker daemon configured in the environment.
func New(ctx context.Context, cfg Config, store *storage.Client, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	outputRoot, err := filepath.Abs(cfg.OutputRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve output root: %w", err)
	}
	cfg.OutputRoot = outputRoot
	if cfg.Workspace != "" {
		workspace, err := filepath.Abs(cfg.Workspace)
		if err != nil {
			return nil, fmt.Errorf("resolve workspace: %w", err)
		}
		cfg.Workspace = workspace
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create Docker client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := cli.Ping(pingCtx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("connect to Docker: %w", err)
	}

	return &Backend{cfg: cfg, client: cli, store: store, logger: logger}, nil
}

// Submit pulls the image if needed, then creates and starts the container.
func (b *Backend) Submit(ctx context.Context, spec job.Spec) (job.Handle, error) {
	outputs := filepath.Join(b.cfg.OutputRoot, spec.RunID)
	if err := os.MkdirAll(outputs, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	containerCfg, hostCfg := b.containerConfig(spec, outputs)
	if err := b.ensureImage(ctx, containerCfg.Image); err != nil {
		return nil, fmt.Errorf("ensure image %s: %w", containerCfg.Image, err)
	}

	resp, err := b.client.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, spec.RunID)
	if err != nil {
		return nil, fmt.Errorf("create container: %w", err)
	}
	for _, w := range resp.Warnings {
		b.logger.Warn("docker warning", "container", spec.RunID, "warning", w)
	}

	if err := b.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	b.logger.Info("started container", "name", spec.RunID, "id", resp.ID, "outputs", outputs)
	return b.newHandle(spec.RunID, outputs), nil
}

// Get attaches to a container by name or ID.
func (b *Backend) Get(ctx context.Context, id string) (job.Handle, error) {
	info, err := b.client.ContainerInspect(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("inspect container %s: %w", id, err)
	}
	var outputs string
	if info.Config != nil {
		outputs = info.Config.Labels[labelOutputs]
	}
	return b.newHandle(id, outputs), nil
}

// Close releases the Docker client.
func (b *Backend) Close() error {
	return b.client.Close()
}

func (b *Backend) newHandle(id, outputs string) *handle {
	h := &handle{id: id, client: b.client, store: b.store}
	if outputs != "" {
		h.metricsPath = filepath.Join(outputs, "metrics.json")
	}
	return h
}

func (b *Backend) containerConfig(spec job.Spec, outputs string) (*container.Config, *container.HostConfig) {
	img := b.cfg.Image
	var pip []string
	env := []string{
		"PYTHONUNBUFFERED=1",
		job.EnvOutputDir + "=" + containerOutputs,
		job.EnvMetricsURI + "=" + containerOutputs + "/metrics.json",
	}
	if e := spec.Environment; e != nil {
		if e.BaseImage != "" {
			img = e.BaseImage
		}
		pip = e.Pip
		keys := make([]string, 0, len(e.Variables))
		for k := range e.Variables {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			env = append(env, k+"="+e.Variables[k])
		}
	}

	command, args := job.ContainerCommand(spec.Script, spec.Args, pip)

	cfg := &container.Config{
		Image:      img,
		Entrypoint: command,
		Cmd:        args,
		Env:        env,
		Labels: map[string]string{
			labelRunID:   spec.RunID,
			labelOutputs: outputs,
		},
	}

	hostCfg := &container.HostConfig{
		Binds: []string{outputs + ":" + containerOutputs},
	}
	if b.cfg.Workspace != "" {
		hostCfg.Binds = append(hostCfg.Binds, b.cfg.Workspace+":"+containerWorkspace+":ro")
		cfg.WorkingDir = containerWorkspace
	}
	if spec.ComputeTarget != CPUTarget {
		hostCfg.Resources.DeviceRequests = []container.DeviceRequest{{
			Count:        -1,
			Capabilities: [][]string{{"gpu"}},
		}}
	}
	return cfg, hostCfg
}

func (b *Backend) ensureImage(ctx context.Context, ref string) error {
	images, err := b.client.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return err
	}
	for _, img := range images {
		if slices.Contains(img.RepoTags, ref) {
			return nil
		}
	}

	b.logger.Info("pulling image", "image", ref)
	reader, err := b.client.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return err
	}
	defer reader.Close()

	_, err = io.Copy(io.Discard, reader)
	return err
}
