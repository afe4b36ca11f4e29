package user

import "context"

// Repository defines the interface for user data access
type Repository interface {
	// Upsert creates the user or refreshes its email and username
	Upsert(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)
}
