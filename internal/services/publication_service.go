package services

import (
	"context"

	"github.com/terrain-ouvert/datahub/internal/domain/publication"
	"github.com/terrain-ouvert/datahub/internal/domain/resource"
	"github.com/terrain-ouvert/datahub/internal/domain/user"
	"github.com/terrain-ouvert/datahub/internal/pkg/errors"
	"github.com/terrain-ouvert/datahub/internal/pkg/logger"
	"github.com/terrain-ouvert/datahub/internal/pkg/validator"
	"github.com/terrain-ouvert/datahub/internal/query"
)

// NewValidator returns a validator knowing every custom tag used by the
// domain models
func NewValidator() *validator.Validator {
	v := validator.New()
	if err := v.RegisterEnum(publication.CategoryTag, publication.Categories); err != nil {
		panic(err)
	}
	return v
}

// PublicationService implements publication.Service
type PublicationService struct {
	*ResourceService[publication.Publication]
	users  user.Repository
	logger *logger.Logger
}

// NewPublicationService creates a new publication service
func NewPublicationService(repo resource.Repository[publication.Publication], users user.Repository, v *validator.Validator, log *logger.Logger) *PublicationService {
	return &PublicationService{
		ResourceService: NewResourceService(publication.Kind, repo, v, log),
		users:           users,
		logger:          log,
	}
}

// GetWithOwner retrieves a publication and attaches its owner summary. An
// owner missing from the user store is reported by identifier only.
func (s *PublicationService) GetWithOwner(ctx context.Context, id string) (*publication.Publication, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	owner := &publication.Owner{ID: p.User}
	u, err := s.users.GetByID(ctx, p.User)
	switch {
	case err == nil:
		owner.Username = u.Username
	case errors.IsNotFound(err):
	default:
		s.logger.WithError(err).With("user_id", p.User).Warn("Failed to load publication owner")
	}
	p.Owner = owner

	return p, nil
}

// ListByOwner lists the publications created by ownerID
func (s *PublicationService) ListByOwner(ctx context.Context, ownerID int64, plan query.Plan) (resource.Page[publication.Publication], error) {
	return s.List(ctx, query.Filter{query.Eq("user", ownerID)}, plan)
}
