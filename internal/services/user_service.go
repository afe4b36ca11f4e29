package services

import (
	"context"
	"strings"
	"time"

	"github.com/terrain-ouvert/datahub/internal/domain/user"
	"github.com/terrain-ouvert/datahub/internal/pkg/errors"
	"github.com/terrain-ouvert/datahub/internal/pkg/logger"
)

// UserService implements user.Service
type UserService struct {
	repo   user.Repository
	logger *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(repo user.Repository, log *logger.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: log,
	}
}

// Ensure records the principal of a verified token, creating it on first
// sight. The username is the local part of the email.
func (s *UserService) Ensure(ctx context.Context, id int64, email string) (*user.User, error) {
	if id <= 0 {
		return nil, errors.Unauthorized("Invalid user identifier")
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err == nil && existing.Email == email {
		return existing, nil
	}
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}

	now := time.Now().UTC()
	u := &user.User{
		ID:        id,
		Email:     email,
		Username:  usernameFrom(email),
		Role:      user.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing != nil {
		u.Role = existing.Role
		u.CreatedAt = existing.CreatedAt
	}

	if err := s.repo.Upsert(ctx, u); err != nil {
		s.logger.ErrorWithErr(err, "Failed to record user")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
		"email":   u.Email,
	}).Info("User recorded")

	return u, nil
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return s.repo.GetByID(ctx, id)
}

func usernameFrom(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
