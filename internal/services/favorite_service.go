package services

import (
	"context"

	"github.com/terrain-ouvert/datahub/internal/domain/favorite"
	"github.com/terrain-ouvert/datahub/internal/domain/publication"
	"github.com/terrain-ouvert/datahub/internal/domain/resource"
	"github.com/terrain-ouvert/datahub/internal/pkg/logger"
	"github.com/terrain-ouvert/datahub/internal/pkg/metrics"
	"github.com/terrain-ouvert/datahub/internal/query"
)

// FavoriteService implements favorite.Service
type FavoriteService struct {
	repo         favorite.Repository
	publications resource.Repository[publication.Publication]
	logger       *logger.Logger
}

// NewFavoriteService creates a new favorites service
func NewFavoriteService(repo favorite.Repository, publications resource.Repository[publication.Publication], log *logger.Logger) *FavoriteService {
	return &FavoriteService{
		repo:         repo,
		publications: publications,
		logger:       log,
	}
}

// Toggle flips membership of publicationID in the user's set
func (s *FavoriteService) Toggle(ctx context.Context, userID int64, publicationID string) (*favorite.ToggleResult, error) {
	res, err := s.repo.Toggle(ctx, userID, publicationID)
	if err != nil {
		return nil, err
	}

	metrics.RecordFavoriteToggle(res.Added)
	s.logger.WithFields(map[string]interface{}{
		"user_id":        userID,
		"publication_id": publicationID,
		"added":          res.Added,
		"count":          len(res.IDs),
	}).Debug("Favorite toggled")

	return res, nil
}

// List returns a page of the user's favorite publications. An empty set
// never reaches the publication store.
func (s *FavoriteService) List(ctx context.Context, userID int64, plan query.Plan) (resource.Page[publication.Publication], error) {
	ids, err := s.repo.IDs(ctx, userID)
	if err != nil {
		return resource.Page[publication.Publication]{}, err
	}
	if len(ids) == 0 {
		return resource.Page[publication.Publication]{Plan: plan}, nil
	}

	items, total, err := s.publications.FetchMany(ctx, query.Filter{query.In("id", ids)}, plan)
	if err != nil {
		return resource.Page[publication.Publication]{}, err
	}
	return resource.Page[publication.Publication]{Items: items, Total: total, Plan: plan}, nil
}

// Sweep removes favorites pointing at deleted publications
func (s *FavoriteService) Sweep(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteDangling(ctx)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to sweep favorites")
		return 0, err
	}

	metrics.AddFavoritesSwept(n)
	if n > 0 {
		s.logger.With("removed", n).Info("Dangling favorites removed")
	}
	return n, nil
}
