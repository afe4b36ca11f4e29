package resource

import (
	"context"

	"github.com/terrain-ouvert/datahub/internal/query"
)

// Service defines the business rules applied around a Repository
type Service[T any] interface {
	// Create stamps the owner, derives fields, validates and stores doc
	Create(ctx context.Context, doc *T, ownerID int64) (*T, error)

	// Get retrieves a document by identifier
	Get(ctx context.Context, id string) (*T, error)

	// List returns a page of documents
	List(ctx context.Context, base query.Filter, plan query.Plan) (Page[T], error)

	// Update applies a patch, validates the merged document and stores it
	Update(ctx context.Context, id string, apply func(*T) error) (*T, error)

	// Delete removes a document
	Delete(ctx context.Context, id string) error
}
