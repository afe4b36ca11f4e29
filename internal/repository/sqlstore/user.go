package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/terrain-ouvert/datahub/internal/domain/user"
	"github.com/terrain-ouvert/datahub/internal/pkg/errors"
)

// UserRepository implements user.Repository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) user.Repository {
	return &UserRepository{db: db}
}

// Upsert creates the user or refreshes its email and username
func (r *UserRepository) Upsert(ctx context.Context, u *user.User) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	if u.Role == "" {
		u.Role = user.RoleUser
	}

	query := `
		INSERT INTO users (id, email, username, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			email = excluded.email,
			username = excluded.username,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.db.Dialect.Rebind(query),
		u.ID, u.Email, u.Username, u.Role, millis(now), millis(now),
	)
	if err != nil {
		return errors.DatabaseError("Failed to save user", err)
	}

	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) getBy(ctx context.Context, column string, value any) (*user.User, error) {
	query := `
		SELECT id, email, username, role, created_at, updated_at
		FROM users WHERE ` + column + ` = ?
	`

	var u user.User
	err := r.db.QueryRowContext(ctx, r.db.Dialect.Rebind(query), value).Scan(
		&u.ID, &u.Email, &u.Username, &u.Role,
		millisScanner{&u.CreatedAt}, millisScanner{&u.UpdatedAt},
	)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("User")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get user", err)
	}

	return &u, nil
}
