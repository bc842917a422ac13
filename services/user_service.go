package services

import (
	"context"
	"errors"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/models"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/repositories"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// UserService serves account reads for authenticated callers
type UserService struct {
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(users repositories.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// GetCurrent returns the account behind an authenticated subject
func (s *UserService) GetCurrent(ctx context.Context, subject string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, WrapInternal("failed to load user", err)
	}
	return user, nil
}

// ClampPage bounds pagination input: a non-positive limit becomes the
// default page size, larger limits are capped, negative offsets become zero.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// List returns a page of accounts. Out of range limits fall back to the defaults.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	limit, offset = ClampPage(limit, offset)

	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, WrapInternal("failed to list users", err)
	}
	return users, nil
}
