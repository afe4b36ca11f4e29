package publication

import (
	"context"

	"github.com/terrain-ouvert/datahub/internal/domain/resource"
	"github.com/terrain-ouvert/datahub/internal/query"
)

// Service defines the publication business logic
type Service interface {
	resource.Service[Publication]

	// GetWithOwner retrieves a publication with its owner summary attached
	GetWithOwner(ctx context.Context, id string) (*Publication, error)

	// ListByOwner lists the publications of one user
	ListByOwner(ctx context.Context, ownerID int64, plan query.Plan) (resource.Page[Publication], error)
}
