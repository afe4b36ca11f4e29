package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/terrain-ouvert/datahub/internal/domain/resource"
	"github.com/terrain-ouvert/datahub/internal/pkg/errors"
	"github.com/terrain-ouvert/datahub/internal/pkg/logger"
	"github.com/terrain-ouvert/datahub/internal/pkg/validator"
	"github.com/terrain-ouvert/datahub/internal/query"
)

// ResourceService implements resource.Service for any document kind
type ResourceService[T any] struct {
	kind      resource.Kind[T]
	repo      resource.Repository[T]
	validator *validator.Validator
	logger    *logger.Logger
	now       func() time.Time
}

// NewResourceService creates a new resource service
func NewResourceService[T any](kind resource.Kind[T], repo resource.Repository[T], v *validator.Validator, log *logger.Logger) *ResourceService[T] {
	return &ResourceService[T]{
		kind:      kind,
		repo:      repo,
		validator: v,
		logger:    log,
		now:       time.Now,
	}
}

// Create assigns a fresh identifier and the owner, derives fields, validates
// and stores doc
func (s *ResourceService[T]) Create(ctx context.Context, doc *T, ownerID int64) (*T, error) {
	if ownerID != 0 {
		s.kind.SetOwner(doc, ownerID)
	}
	s.kind.SetID(doc, uuid.NewString())
	if s.kind.BeforeCreate != nil {
		s.kind.BeforeCreate(doc, s.now())
	}

	if err := s.validate(doc); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create "+s.kind.Name)
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"kind":     s.kind.Name,
		"id":       s.kind.ID(doc),
		"owner_id": s.kind.Owner(doc),
	}).Info("Document created")

	return doc, nil
}

// Get retrieves a document by identifier
func (s *ResourceService[T]) Get(ctx context.Context, id string) (*T, error) {
	return s.repo.FetchOne(ctx, id)
}

// List returns the page of documents matching base and plan
func (s *ResourceService[T]) List(ctx context.Context, base query.Filter, plan query.Plan) (resource.Page[T], error) {
	items, total, err := s.repo.FetchMany(ctx, base, plan)
	if err != nil {
		return resource.Page[T]{}, err
	}
	return resource.Page[T]{Items: items, Total: total, Plan: plan}, nil
}

// Update loads the document, applies the patch and stores the validated
// result. Identifier and owner cannot be changed by a patch.
func (s *ResourceService[T]) Update(ctx context.Context, id string, apply func(*T) error) (*T, error) {
	doc, err := s.repo.FetchOne(ctx, id)
	if err != nil {
		return nil, err
	}
	owner := s.kind.Owner(doc)

	if err := apply(doc); err != nil {
		return nil, err
	}
	s.kind.SetID(doc, id)
	s.kind.SetOwner(doc, owner)

	if err := s.validate(doc); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, doc); err != nil {
		s.logger.ErrorWithErr(err, "Failed to update "+s.kind.Name)
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"kind": s.kind.Name,
		"id":   id,
	}).Info("Document updated")

	return doc, nil
}

// Delete removes a document
func (s *ResourceService[T]) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.IsNotFound(err) {
			s.logger.ErrorWithErr(err, "Failed to delete "+s.kind.Name)
		}
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"kind": s.kind.Name,
		"id":   id,
	}).Info("Document deleted")

	return nil
}

func (s *ResourceService[T]) validate(doc *T) error {
	if errs := s.validator.Validate(doc); len(errs) > 0 {
		return errors.ValidationError("Invalid "+s.kind.Name, errs)
	}
	return nil
}
