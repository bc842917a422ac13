package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/auth"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/repositories"
	"go.uber.org/zap"
)

// UserDirectory answers subject lookups for the auth loader from the user
// table. Each lookup is bounded by its own timeout.
type UserDirectory struct {
	users   repositories.UserRepository
	timeout time.Duration
	logger  *zap.Logger
}

// NewUserDirectory creates a new UserDirectory
func NewUserDirectory(users repositories.UserRepository, timeout time.Duration, logger *zap.Logger) *UserDirectory {
	return &UserDirectory{
		users:   users,
		timeout: timeout,
		logger:  logger,
	}
}

// FindUser implements auth.Directory
func (d *UserDirectory) FindUser(ctx context.Context, subject string) (*auth.UserRecord, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	user, err := d.users.GetByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", auth.ErrSubjectNotFound, err)
		}
		d.logger.Warn("user directory lookup failed",
			zap.String("subject", subject),
			zap.Error(err))
		return nil, fmt.Errorf("directory lookup: %w", err)
	}

	return &auth.UserRecord{
		Subject: user.Username,
		Roles:   append([]string(nil), user.Roles...),
	}, nil
}

var _ auth.Directory = (*UserDirectory)(nil)
