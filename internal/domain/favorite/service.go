package favorite

import (
	"context"

	"github.com/terrain-ouvert/datahub/internal/domain/publication"
	"github.com/terrain-ouvert/datahub/internal/domain/resource"
	"github.com/terrain-ouvert/datahub/internal/query"
)

// Service defines the favorites business logic
type Service interface {
	// Toggle flips membership of publicationID in the user's set
	Toggle(ctx context.Context, userID int64, publicationID string) (*ToggleResult, error)

	// List returns a page of the user's favorite publications
	List(ctx context.Context, userID int64, plan query.Plan) (resource.Page[publication.Publication], error)

	// Sweep removes favorites pointing at deleted publications
	Sweep(ctx context.Context) (int64, error)
}
