package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

func openGCS(ctx context.Context, client *storage.Client, uri string) (io.ReadCloser, error) {
	bucket, object, err := ParseGCS(uri)
	if err != nil {
		return nil, err
	}
	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
		}
		return nil, fmt.Errorf("open %s: %w", uri, err)
	}
	return r, nil
}

func createGCS(ctx context.Context, client *storage.Client, uri string) (io.WriteCloser, error) {
	bucket, object, err := ParseGCS(uri)
	if err != nil {
		return nil, err
	}
	if object == "" {
		return nil, fmt.Errorf("missing object name in %q", uri)
	}
	w := client.Bucket(bucket).Object(object).NewWriter(ctx)
	if strings.HasSuffix(object, ".json") {
		w.ContentType = "application/json"
	}
	return w, nil
}

func listGCS(ctx context.Context, client *storage.Client, prefix string) ([]string, error) {
	bucket, object, err := ParseGCS(prefix)
	if err != nil {
		return nil, err
	}

	var uris []string
	it := client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: object})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		// Skip zero-byte "directory" placeholders.
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		uris = append(uris, gcsScheme+bucket+"/"+attrs.Name)
	}
	return uris, nil
}
