package vertex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/raphaelgruber/jaketune/internal/models"
	"github.com/raphaelgruber/jaketune/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMetrics(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	uri := filepath.Join(dir, "metrics.json")
	h := &handle{name: "projects/p/locations/l/customJobs/1", metricsURI: uri, store: storage.NewClient()}

	m, err := h.Metrics(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)

	require.NoError(t, os.WriteFile(uri, []byte(`{"loss": 0.75, "epoch": 2}`), 0o644))
	m, err = h.Metrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Metrics{"loss": 0.75, "epoch": 2}, m)

	require.NoError(t, os.WriteFile(uri, []byte(`not json`), 0o644))
	_, err = h.Metrics(ctx)
	assert.Error(t, err)
}

func TestHandleMetrics_NoURI(t *testing.T) {
	h := &handle{name: "x"}
	m, err := h.Metrics(context.Background())
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Equal(t, "x", h.ID())
}
