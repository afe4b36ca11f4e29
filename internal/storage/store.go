// Package storage puts binary artifacts into a remote object store and
// returns stable references to them.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/terrain-ouvert/datahub/internal/config"
)

// PutOptions describes an artifact being stored
type PutOptions struct {
	ContentType string
	Size        int64
	Tags        []string
	// OutputFormat and Quality record the transformation applied before
	// the upload.
	OutputFormat string
	Quality      string
}

// Object is a stored artifact
type Object struct {
	Key string
	URL string
}

// Store is a remote artifact store
type Store interface {
	// Name identifies the backend in logs and metrics
	Name() string
	// Put stores body under key and returns its public reference
	Put(ctx context.Context, key string, body io.Reader, opts PutOptions) (Object, error)
}

// New builds the store selected by cfg.Provider
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Provider {
	case "", "memory":
		return NewMemoryStore(cfg.PublicBaseURL), nil
	case "s3":
		return NewS3Store(ctx, cfg)
	case "gcs":
		return NewGCSStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}

// joinURL appends key to base with exactly one slash between them.
func joinURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(key, "/")
}

func metadata(opts PutOptions) map[string]string {
	md := make(map[string]string, 3)
	if len(opts.Tags) > 0 {
		md["tags"] = strings.Join(opts.Tags, ",")
	}
	if opts.OutputFormat != "" {
		md["format"] = opts.OutputFormat
	}
	if opts.Quality != "" {
		md["quality"] = opts.Quality
	}
	return md
}
