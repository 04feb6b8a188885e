package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGCS(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{"gs://bucket/runs/a/metrics.json", "bucket", "runs/a/metrics.json", false},
		{"gs://bucket", "bucket", "", false},
		{"gs://bucket/", "bucket", "", false},
		{"gs:///object", "", "", true},
		{"/local/path", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseGCS(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantObject, object)
		})
	}
}

func TestJoinAndBase(t *testing.T) {
	assert.Equal(t, "gs://b/runs/r1/metrics.json", Join("gs://b/", "runs", "r1", "metrics.json"))
	assert.Equal(t, "gs://b/runs/r1", Join("gs://b/runs", "r1"))
	assert.Equal(t, filepath.Join("out", "metrics.json"), Join("out", "metrics.json"))

	assert.Equal(t, "metrics.json", Base("gs://b/runs/r1/metrics.json"))
	assert.Equal(t, "jake_training.json", Base("/data/jake_training.json"))
}

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := NewClient()
	defer client.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "metrics.json")

	require.NoError(t, client.WriteFile(ctx, path, []byte(`{"loss":1.5}`)))
	require.NoError(t, client.WriteFile(ctx, path, []byte(`{"loss":0.5}`)))

	data, err := client.ReadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, `{"loss":0.5}`, string(data))

	// No temp files are left behind by the atomic write.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalNotFound(t *testing.T) {
	ctx := context.Background()
	client := NewClient()

	_, err := client.ReadFile(ctx, filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	_, err = client.List(ctx, filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestLocalListAndCopy(t *testing.T) {
	ctx := context.Background()
	client := NewClient()

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "b.json"), []byte("b"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "a.json"), []byte("a"), 0o644))

	paths, err := client.List(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(src, "b.json"),
		filepath.Join(src, "sub", "a.json"),
	}, paths)

	single, err := client.List(ctx, filepath.Join(src, "b.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(src, "b.json")}, single)

	dst := filepath.Join(t.TempDir(), "nvme", "b.json")
	n, err := client.Copy(ctx, filepath.Join(src, "b.json"), dst)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "b", string(got))
}
