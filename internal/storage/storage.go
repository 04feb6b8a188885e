// Package storage reads and writes run artifacts addressed by URI.
// gs://bucket/object URIs go to Google Cloud Storage; anything else is
// treated as a local filesystem path.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"cloud.google.com/go/auth/credentials"
	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ErrNotFound indicates the object or file does not exist.
var ErrNotFound = errors.New("object not found")

const gcsScheme = "gs://"

// Client dispatches artifact operations by URI scheme. The GCS client is
// created on first use so local-only commands never touch credentials.
type Client struct {
	opts []option.ClientOption

	mu  sync.Mutex
	gcs *storage.Client
}

// NewClient returns a Client. When opts is empty, GCS access uses
// application default credentials.
func NewClient(opts ...option.ClientOption) *Client {
	return &Client{opts: opts}
}

// IsGCS reports whether uri addresses Cloud Storage.
func IsGCS(uri string) bool {
	return strings.HasPrefix(uri, gcsScheme)
}

// ParseGCS splits gs://bucket/object into its parts.
func ParseGCS(uri string) (bucket, object string, err error) {
	if !IsGCS(uri) {
		return "", "", fmt.Errorf("not a gs:// uri: %q", uri)
	}
	rest := strings.TrimPrefix(uri, gcsScheme)
	bucket, object, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in %q", uri)
	}
	return bucket, object, nil
}

// Join appends elements to base using URI rules for gs:// and filepath
// rules otherwise.
func Join(base string, elem ...string) string {
	if !IsGCS(base) {
		return filepath.Join(append([]string{base}, elem...)...)
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(base, gcsScheme), "/")
	return gcsScheme + path.Join(append([]string{rest}, elem...)...)
}

// Base returns the last element of uri.
func Base(uri string) string {
	if IsGCS(uri) {
		return path.Base(strings.TrimPrefix(uri, gcsScheme))
	}
	return filepath.Base(uri)
}

// ReadFile returns the full contents at uri.
func (c *Client) ReadFile(ctx context.Context, uri string) ([]byte, error) {
	r, err := c.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	return data, nil
}

// WriteFile replaces the contents at uri.
func (c *Client) WriteFile(ctx context.Context, uri string, data []byte) error {
	if !IsGCS(uri) {
		return writeLocalAtomic(uri, data)
	}
	w, err := c.Create(ctx, uri)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", uri, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("write %s: %w", uri, err)
	}
	return nil
}

// Open returns a reader for uri. Missing objects return ErrNotFound.
func (c *Client) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if !IsGCS(uri) {
		return openLocal(uri)
	}
	gcs, err := c.gcsClient(ctx)
	if err != nil {
		return nil, err
	}
	return openGCS(ctx, gcs, uri)
}

// Create returns a writer for uri. Data is committed on Close.
func (c *Client) Create(ctx context.Context, uri string) (io.WriteCloser, error) {
	if !IsGCS(uri) {
		return createLocal(uri)
	}
	gcs, err := c.gcsClient(ctx)
	if err != nil {
		return nil, err
	}
	return createGCS(ctx, gcs, uri)
}

// List returns the URIs of all objects under prefix. A prefix naming a
// single file returns just that file.
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	if !IsGCS(prefix) {
		return listLocal(prefix)
	}
	gcs, err := c.gcsClient(ctx)
	if err != nil {
		return nil, err
	}
	return listGCS(ctx, gcs, prefix)
}

// Copy streams src to dst. Either side may be local or gs://.
func (c *Client) Copy(ctx context.Context, src, dst string) (int64, error) {
	r, err := c.Open(ctx, src)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	w, err := c.Create(ctx, dst)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(w, r)
	if err != nil {
		w.Close()
		return n, fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	if err := w.Close(); err != nil {
		return n, fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return n, nil
}

// Close releases the GCS client if one was created.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gcs == nil {
		return nil
	}
	err := c.gcs.Close()
	c.gcs = nil
	return err
}

func (c *Client) gcsClient(ctx context.Context) (*storage.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gcs != nil {
		return c.gcs, nil
	}

	opts := c.opts
	if len(opts) == 0 {
		creds, err := credentials.DetectDefault(&credentials.DetectOptions{
			Scopes: []string{storage.ScopeReadWrite},
		})
		if err != nil {
			return nil, fmt.Errorf("get credentials for storage: %w", err)
		}
		opts = []option.ClientOption{option.WithAuthCredentials(creds)}
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	c.gcs = client
	return client, nil
}
