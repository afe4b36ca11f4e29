// Package upload validates, normalizes and concurrently stores the images
// attached to a document, all or nothing.
package upload

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/terrain-ouvert/datahub/internal/config"
	"github.com/terrain-ouvert/datahub/internal/pkg/errors"
	"github.com/terrain-ouvert/datahub/internal/pkg/logger"
	"github.com/terrain-ouvert/datahub/internal/pkg/metrics"
	"github.com/terrain-ouvert/datahub/internal/storage"
)

// Config bounds and names upload batches
type Config struct {
	MaxFiles     int
	MaxFileSize  int64
	MaxParallel  int
	ResourceKind string
	Tags         []string
	Transform    Transform
}

// ConfigFrom maps application configuration onto Config
func ConfigFrom(c config.UploadConfig) Config {
	return Config{
		MaxFiles:     c.MaxFiles,
		MaxFileSize:  c.MaxFileSize,
		MaxParallel:  c.MaxParallel,
		ResourceKind: c.ResourceKind,
		Tags:         c.Tags,
		Transform: Transform{
			Format:       c.OutputFormat,
			Quality:      c.Quality,
			MaxDimension: c.MaxDimension,
			MaxPixels:    c.MaxPixels,
		},
	}
}

// Result holds one stored reference per uploaded blob, in input order
type Result []string

// Orchestrator uploads batches of images to a Store
type Orchestrator struct {
	store  storage.Store
	cfg    Config
	logger *logger.Logger
	now    func() time.Time
}

// Option customizes an Orchestrator
type Option func(*Orchestrator)

// WithClock replaces the clock used to timestamp batches
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator
func New(store storage.Store, cfg Config, log *logger.Logger, opts ...Option) *Orchestrator {
	if cfg.MaxParallel < 1 {
		cfg.MaxParallel = 1
	}
	o := &Orchestrator{store: store, cfg: cfg, logger: log, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Key names the index-th artifact of a batch
func Key(resourceKind string, ownerID int64, batchTag string, timestamp int64, index int) string {
	return fmt.Sprintf("%s/%d/%s-%d-%d-%d", resourceKind, ownerID, batchTag, ownerID, timestamp, index)
}

// Validate checks a batch against the configured limits without any I/O
func (o *Orchestrator) Validate(blobs []Blob) error {
	return Validate(blobs, o.cfg.MaxFiles, o.cfg.MaxFileSize)
}

// Upload validates and transforms every blob, then stores them all
// concurrently. The returned references follow the order of blobs. On any
// failure no reference is returned; artifacts already stored are left in
// place.
func (o *Orchestrator) Upload(ctx context.Context, blobs []Blob, ownerID int64, batchTag string) (Result, error) {
	if len(blobs) == 0 {
		return Result{}, nil
	}

	if err := o.Validate(blobs); err != nil {
		metrics.RecordUploadRejected("validation")
		return nil, err
	}

	outputs := make([]Output, len(blobs))
	for i, b := range blobs {
		out, err := o.cfg.Transform.Apply(b)
		if stderrors.Is(err, ErrTooManyPixels) {
			metrics.RecordUploadRejected("dimensions")
			return nil, errors.ValidationError(
				fmt.Sprintf("Image %d exceeds the %d pixel limit", i+1, o.cfg.Transform.MaxPixels),
				map[string]interface{}{"index": i, "filename": b.Filename, "max_pixels": o.cfg.Transform.MaxPixels},
			)
		}
		if err != nil {
			metrics.RecordUploadRejected("decode")
			return nil, errors.ValidationError(
				fmt.Sprintf("Image %d could not be decoded", i+1),
				map[string]interface{}{"index": i, "filename": b.Filename},
			)
		}
		outputs[i] = out
	}

	timestamp := o.now().UnixMilli()
	start := time.Now()
	log := o.logger.WithFields(map[string]interface{}{
		"owner_id": ownerID,
		"batch":    batchTag,
		"count":    len(blobs),
		"store":    o.store.Name(),
	})

	// A client disconnect must not abort transfers already under way.
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.SetLimit(o.cfg.MaxParallel)

	urls := make(Result, len(blobs))
	for i := range outputs {
		g.Go(func() error {
			key := Key(o.cfg.ResourceKind, ownerID, batchTag, timestamp, i)
			opts := storage.PutOptions{
				ContentType: outputs[i].ContentType,
				Size:        int64(len(outputs[i].Data)),
				Tags:        o.cfg.Tags,
				Quality:     o.cfg.Transform.Quality,
			}
			if outputs[i].Transformed {
				opts.OutputFormat = o.cfg.Transform.Format
			}

			obj, err := o.store.Put(gctx, key, bytes.NewReader(outputs[i].Data), opts)
			if err != nil {
				return fmt.Errorf("image %d: %w", i+1, err)
			}
			metrics.AddUploadBytes(o.store.Name(), len(outputs[i].Data))
			urls[i] = obj.URL
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		metrics.RecordUploadBatch(o.store.Name(), "error", time.Since(start))
		log.WithError(err).Error("Image upload failed")
		return nil, errors.UploadError(o.store.Name(), err)
	}

	metrics.RecordUploadBatch(o.store.Name(), "success", time.Since(start))
	log.Info("Images uploaded")
	return urls, nil
}
