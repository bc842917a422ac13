package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/models"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/repositories"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/services/ratelimit"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/token"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs bearer tokens for a subject
type TokenIssuer interface {
	IssueClaims(subject, role string) (string, *token.Claims, error)
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginThrottle limits repeated failed logins per username
type LoginThrottle interface {
	Check(ctx context.Context, username string) (*ratelimit.Result, error)
	RecordFailure(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}

// AuthServiceOption configures an AuthService
type AuthServiceOption func(*AuthService)

// WithLoginThrottle enables failed login throttling
func WithLoginThrottle(throttle LoginThrottle) AuthServiceOption {
	return func(s *AuthService) {
		s.throttle = throttle
	}
}

// AuthService exchanges username and password for a bearer token
type AuthService struct {
	users      repositories.UserRepository
	issuer     TokenIssuer
	throttle   LoginThrottle
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(users repositories.UserRepository, issuer TokenIssuer, logger *zap.Logger, opts ...AuthServiceOption) *AuthService {
	s := &AuthService{
		users:      users,
		issuer:     issuer,
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// placeholderHash is compared against when the user does not exist so that
// unknown usernames cost the same as wrong passwords.
var placeholderHash, _ = bcrypt.GenerateFromPassword([]byte("placeholder-password"), bcrypt.MinCost)

// Login verifies the credentials and issues a token carrying the user's
// primary role. Unknown users and wrong passwords return the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if err := s.checkThrottle(ctx, username); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, WrapInternal("failed to load user", err)
		}
		_ = bcrypt.CompareHashAndPassword(placeholderHash, []byte(password))
		s.logger.Info("login rejected", zap.String("username", username), zap.String("reason", "unknown_user"))
		s.recordFailure(ctx, username)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login rejected", zap.String("username", username), zap.String("reason", "bad_password"))
		s.recordFailure(ctx, username)
		return nil, ErrInvalidCredentials
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, username); err != nil {
			s.logger.Warn("failed to reset login attempts", zap.String("username", username), zap.Error(err))
		}
	}

	signed, claims, err := s.issuer.IssueClaims(user.Username, string(user.PrimaryRole()))
	if err != nil {
		return nil, WrapInternal("failed to issue token", err)
	}

	s.logger.Info("login succeeded", zap.String("username", user.Username))
	return &LoginResult{
		Token:     signed,
		ExpiresAt: claims.ExpiresAtTime().UTC(),
	}, nil
}

// checkThrottle rejects the login when username has too many recent
// failures. Throttle storage errors are logged and the login proceeds.
func (s *AuthService) checkThrottle(ctx context.Context, username string) error {
	if s.throttle == nil {
		return nil
	}

	result, err := s.throttle.Check(ctx, username)
	if err != nil {
		s.logger.Warn("login throttle unavailable", zap.String("username", username), zap.Error(err))
		return nil
	}
	if result.Allowed {
		return nil
	}

	s.logger.Info("login rejected",
		zap.String("username", username),
		zap.String("reason", "throttled"),
		zap.String("window", string(result.ViolatedWindow)))
	return NewDomainError(ErrorTypeRateLimited, "too many failed login attempts", nil).
		WithDetail("retry_after", result.ResetAt.UTC().Format(time.RFC3339))
}

func (s *AuthService) recordFailure(ctx context.Context, username string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, username); err != nil {
		s.logger.Warn("failed to record login attempt", zap.String("username", username), zap.Error(err))
	}
}

// Register creates a new account holding the USER role
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, NewDomainError(ErrorTypeValidation, "password too long", err).
				WithDetail("field", "password")
		}
		return nil, WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(username, email, string(hash), models.RoleUser)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUsername, username)
		}
		return nil, WrapInternal("failed to create user", err)
	}

	s.logger.Info("user registered", zap.String("username", username))
	return user, nil
}
