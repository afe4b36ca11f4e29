package resource

import (
	"context"

	"github.com/terrain-ouvert/datahub/internal/query"
)

// Repository defines data access for one document collection
type Repository[T any] interface {
	// Create stores a new document
	Create(ctx context.Context, doc *T) error

	// FetchOne retrieves a document by identifier
	FetchOne(ctx context.Context, id string) (*T, error)

	// FetchMany returns the page selected by plan among documents matching
	// both base and plan.Filter, with the total number of matches
	FetchMany(ctx context.Context, base query.Filter, plan query.Plan) ([]*T, int64, error)

	// Update replaces a stored document
	Update(ctx context.Context, doc *T) error

	// Delete removes a document
	Delete(ctx context.Context, id string) error
}
