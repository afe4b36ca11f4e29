package storage

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/terrain-ouvert/datahub/internal/config"
)

// GCSStore stores artifacts in a Google Cloud Storage bucket
type GCSStore struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

// NewGCSStore creates a store authenticated with the configured service
// account file, or application default credentials
func NewGCSStore(ctx context.Context, cfg config.StorageConfig) (*GCSStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com/" + cfg.Bucket
	}

	return &GCSStore{client: client, bucket: cfg.Bucket, baseURL: baseURL}, nil
}

// Name returns "gcs"
func (s *GCSStore) Name() string { return "gcs" }

// Put streams body into a new object
func (s *GCSStore) Put(ctx context.Context, key string, body io.Reader, opts PutOptions) (Object, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.Metadata = metadata(opts)

	if _, err := io.Copy(w, body); err != nil {
		w.Close()
		return Object{}, fmt.Errorf("gcs write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("gcs close %s: %w", key, err)
	}
	return Object{Key: key, URL: joinURL(s.baseURL, key)}, nil
}

// Close releases the client
func (s *GCSStore) Close() error {
	return s.client.Close()
}
