package favorite

import "context"

// Repository defines the interface for favorites data access
type Repository interface {
	// Toggle adds publicationID to the user's set when absent and removes it
	// when present, atomically
	Toggle(ctx context.Context, userID int64, publicationID string) (*ToggleResult, error)

	// IDs returns the user's set in insertion order
	IDs(ctx context.Context, userID int64) ([]string, error)

	// DeleteDangling removes favorites pointing at deleted publications
	DeleteDangling(ctx context.Context) (int64, error)
}
