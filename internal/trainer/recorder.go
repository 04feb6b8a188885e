package trainer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/raphaelgruber/jaketune/internal/models"
	"github.com/raphaelgruber/jaketune/internal/storage"
)

const (
	flushInterval = 5 * time.Second
	flushEvery    = 10
)

// MetricsRecorder keeps the latest value of every metric and persists the
// set as one JSON object at uri. Writes are debounced: at most every 5s
// unless 10 values have arrived since the last write. Close writes anything
// still pending. An empty uri keeps metrics in memory only.
type MetricsRecorder struct {
	ctx    context.Context
	store  *storage.Client
	uri    string
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	values    models.Metrics
	pending   int
	lastFlush time.Time
}

var _ Recorder = (*MetricsRecorder)(nil)

// NewMetricsRecorder returns a recorder that writes through store.
func NewMetricsRecorder(ctx context.Context, store *storage.Client, uri string, logger *slog.Logger) *MetricsRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricsRecorder{
		ctx:       ctx,
		store:     store,
		uri:       uri,
		logger:    logger,
		now:       time.Now,
		values:    make(models.Metrics),
		lastFlush: time.Now(),
	}
}

// Log records value under key. Persistence failures are logged, not returned.
func (r *MetricsRecorder) Log(key string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[key] = value
	r.pending++

	if r.pending >= flushEvery || r.now().Sub(r.lastFlush) >= flushInterval {
		if err := r.flushLocked(); err != nil {
			r.logger.Warn("failed to persist metrics", "uri", r.uri, "error", err)
		}
	}
}

// Snapshot returns a copy of the current values.
func (r *MetricsRecorder) Snapshot() models.Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.values.Clone()
}

// Close writes pending values.
func (r *MetricsRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == 0 {
		return nil
	}
	return r.flushLocked()
}

func (r *MetricsRecorder) flushLocked() error {
	r.lastFlush = r.now()
	if r.uri == "" {
		r.pending = 0
		return nil
	}

	data, err := json.Marshal(r.values)
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	if err := r.store.WriteFile(r.ctx, r.uri, data); err != nil {
		return err
	}
	r.pending = 0
	r.logger.Debug("persisted metrics", "uri", r.uri, "count", len(r.values))
	return nil
}
