package user

import "context"

// Service defines the interface for user business logic
type Service interface {
	// Ensure records the principal of a verified token
	Ensure(ctx context.Context, id int64, email string) (*User, error)

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)
}
