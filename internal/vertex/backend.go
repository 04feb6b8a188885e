// Package vertex runs training jobs as Vertex AI CustomJobs.
package vertex

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	aiplatform "cloud.google.com/go/aiplatform/apiv1beta1"
	"cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
	"cloud.google.com/go/auth/credentials"
	"github.com/raphaelgruber/jaketune/internal/job"
	"github.com/raphaelgruber/jaketune/internal/storage"
	"google.golang.org/api/option"
)

// Config identifies the workspace jobs are submitted to.
type Config struct {
	Project       string
	Location      string
	StagingBucket string
	DefaultImage  string
}

func (c Config) parent() string {
	return fmt.Sprintf("projects/%s/locations/%s", c.Project, c.Location)
}

func (c Config) endpoint() string {
	return c.Location + "-aiplatform.googleapis.com:443"
}

// Backend submits CustomJobs and reads their metrics from the staging bucket.
type Backend struct {
	cfg        Config
	jobs       *aiplatform.JobClient
	store      *storage.Client
	logger     *slog.Logger
	clientOpts []option.ClientOption
}

var _ job.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the backend logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// WithClientOptions replaces credential detection with explicit options.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(b *Backend) {
		b.clientOpts = opts
	}
}

// New connects to the regional Vertex AI endpoint.
func New(ctx context.Context, cfg Config, store *storage.Client, opts ...Option) (*Backend, error) {
	if cfg.Project == "" {
		return nil, fmt.Errorf("project is required (set JAKETUNE_PROJECT)")
	}
	if cfg.Location == "" {
		return nil, fmt.Errorf("location is required (set JAKETUNE_LOCATION)")
	}
	if cfg.StagingBucket == "" {
		return nil, fmt.Errorf("staging bucket is required (set JAKETUNE_STAGING_BUCKET)")
	}

	b := &Backend{
		cfg:    cfg,
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	clientOpts := b.clientOpts
	if len(clientOpts) == 0 {
		creds, err := credentials.DetectDefault(&credentials.DetectOptions{
			Scopes: []string{
				"https://www.googleapis.com/auth/cloud-platform",
			},
		})
		if err != nil {
			return nil, fmt.Errorf("detect credentials: %w", err)
		}
		clientOpts = []option.ClientOption{option.WithAuthCredentials(creds)}
	}
	clientOpts = append([]option.ClientOption{option.WithEndpoint(cfg.endpoint())}, clientOpts...)

	client, err := aiplatform.NewJobClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create job client: %w", err)
	}
	b.jobs = client

	b.logger.Debug("vertex backend ready", "project", cfg.Project, "location", cfg.Location)
	return b, nil
}

// Submit creates the CustomJob. It returns once Vertex has accepted the
// job, before it is scheduled.
func (b *Backend) Submit(ctx context.Context, spec job.Spec) (job.Handle, error) {
	if spec.Environment != nil && len(spec.Environment.Conda) > 0 {
		b.logger.Warn("conda dependencies are not installed on vertex; the image must provide them",
			"environment", spec.Environment.Name, "conda", spec.Environment.Conda)
	}

	customJob, err := buildCustomJob(b.cfg, spec)
	if err != nil {
		return nil, err
	}
	created, err := b.jobs.CreateCustomJob(ctx, &aiplatformpb.CreateCustomJobRequest{
		Parent:    b.cfg.parent(),
		CustomJob: customJob,
	})
	if err != nil {
		return nil, fmt.Errorf("create custom job: %w", err)
	}

	b.logger.Info("submitted custom job", "name", created.GetName(), "run_id", spec.RunID)
	return &handle{
		name:       created.GetName(),
		metricsURI: metricsURIOf(created),
		jobs:       b.jobs,
		store:      b.store,
	}, nil
}

// Get accepts a full CustomJob resource name or its numeric ID.
func (b *Backend) Get(ctx context.Context, id string) (job.Handle, error) {
	name := id
	if !strings.HasPrefix(id, "projects/") {
		name = b.cfg.parent() + "/customJobs/" + id
	}

	existing, err := b.jobs.GetCustomJob(ctx, &aiplatformpb.GetCustomJobRequest{Name: name})
	if err != nil {
		return nil, fmt.Errorf("get custom job %s: %w", name, err)
	}
	return &handle{
		name:       existing.GetName(),
		metricsURI: metricsURIOf(existing),
		jobs:       b.jobs,
		store:      b.store,
	}, nil
}

// Close releases the job client.
func (b *Backend) Close() error {
	if b.jobs == nil {
		return nil
	}
	if err := b.jobs.Close(); err != nil {
		return fmt.Errorf("close job client: %w", err)
	}
	return nil
}
