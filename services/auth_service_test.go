package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/config"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/models"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/repositories"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/services/ratelimit"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthService(t *testing.T, users *MockUserRepository) (*AuthService, *token.Codec) {
	t.Helper()
	codec := token.NewCodec(config.CredentialsConfig{
		Secret:             []byte("auth-service-test-secret"),
		TTL:                time.Hour,
		HeaderName:         "Authorization",
		SchemePrefix:       "Bearer ",
		SchemePrefixLength: 7,
	})
	svc := NewAuthService(users, codec, zap.NewNop())
	svc.bcryptCost = bcrypt.MinCost
	return svc, codec
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a token for valid credentials", func(t *testing.T) {
		users := new(MockUserRepository)
		user := models.NewUser("alice", "alice@example.com", hashPassword(t, "s3cret-pass"), models.RoleUser)
		users.On("GetByUsername", ctx, "alice").Return(user, nil)

		svc, codec := newTestAuthService(t, users)
		result, err := svc.Login(ctx, "alice", "s3cret-pass")

		require.NoError(t, err)
		claims, err := codec.Parse(result.Token)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject)
		assert.Equal(t, []string{"USER"}, claims.Roles)
		assert.WithinDuration(t, time.Now().Add(time.Hour), result.ExpiresAt, 5*time.Second)
	})

	t.Run("reports the expiry embedded in the token", func(t *testing.T) {
		users := new(MockUserRepository)
		user := models.NewUser("alice", "alice@example.com", hashPassword(t, "s3cret-pass"), models.RoleUser)
		users.On("GetByUsername", ctx, "alice").Return(user, nil)

		issuedAt := time.UnixMilli(1_700_000_000_123)
		codec := token.NewCodec(config.CredentialsConfig{
			Secret:             []byte("auth-service-test-secret"),
			TTL:                time.Hour,
			HeaderName:         "Authorization",
			SchemePrefix:       "Bearer ",
			SchemePrefixLength: 7,
		}, token.WithClock(func() time.Time { return issuedAt }))
		svc := NewAuthService(users, codec, zap.NewNop())
		svc.bcryptCost = bcrypt.MinCost

		result, err := svc.Login(ctx, "alice", "s3cret-pass")

		require.NoError(t, err)
		claims, err := codec.Parse(result.Token)
		require.NoError(t, err)
		assert.Equal(t, claims.ExpiresAt, result.ExpiresAt.UnixMilli())
		assert.True(t, issuedAt.Add(time.Hour).Equal(result.ExpiresAt))
	})

	t.Run("embeds ADMIN for administrators", func(t *testing.T) {
		users := new(MockUserRepository)
		user := models.NewUser("root", "root@example.com", hashPassword(t, "admin-pass"), models.RoleUser)
		user.Roles = []string{"USER", "ADMIN"}
		users.On("GetByUsername", ctx, "root").Return(user, nil)

		svc, codec := newTestAuthService(t, users)
		result, err := svc.Login(ctx, "root", "admin-pass")

		require.NoError(t, err)
		claims, err := codec.Parse(result.Token)
		require.NoError(t, err)
		assert.Equal(t, []string{"ADMIN"}, claims.Roles)
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		users := new(MockUserRepository)
		user := models.NewUser("alice", "alice@example.com", hashPassword(t, "s3cret-pass"), models.RoleUser)
		users.On("GetByUsername", ctx, "alice").Return(user, nil)

		svc, _ := newTestAuthService(t, users)
		result, err := svc.Login(ctx, "alice", "wrong")

		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("rejects an unknown user with the same error", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetByUsername", ctx, "ghost").Return(nil, fmt.Errorf("user: %w", repositories.ErrNotFound))

		svc, _ := newTestAuthService(t, users)
		_, err := svc.Login(ctx, "ghost", "anything")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.True(t, IsUnauthorizedError(err))
	})

	t.Run("reports repository failures as internal", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetByUsername", ctx, "alice").Return(nil, errors.New("connection refused"))

		svc, _ := newTestAuthService(t, users)
		_, err := svc.Login(ctx, "alice", "s3cret-pass")

		assert.Equal(t, ErrorTypeInternal, GetErrorType(err))
	})
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a USER with a hashed password", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)

		svc, _ := newTestAuthService(t, users)
		user, err := svc.Register(ctx, "bob", "bob@example.com", "hunter22")

		require.NoError(t, err)
		assert.Equal(t, "bob", user.Username)
		assert.Equal(t, []string{"USER"}, user.Roles)
		assert.NotEqual(t, "hunter22", user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")))
		users.AssertExpectations(t)
	})

	t.Run("maps duplicates to conflict", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("Create", ctx, mock.Anything).Return(fmt.Errorf("insert: %w", repositories.ErrDuplicate))

		svc, _ := newTestAuthService(t, users)
		_, err := svc.Register(ctx, "bob", "bob@example.com", "hunter22")

		assert.ErrorIs(t, err, ErrDuplicateUsername)
		assert.Equal(t, ErrorTypeConflict, GetErrorType(err))
		assert.Contains(t, err.Error(), "bob")
	})

	t.Run("rejects passwords bcrypt cannot hash", func(t *testing.T) {
		users := new(MockUserRepository)
		long := make([]byte, 80)
		for i := range long {
			long[i] = 'x'
		}

		svc, _ := newTestAuthService(t, users)
		_, err := svc.Register(ctx, "bob", "bob@example.com", string(long))

		assert.Equal(t, ErrorTypeValidation, GetErrorType(err))
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthService_LoginThrottle(t *testing.T) {
	ctx := context.Background()

	newThrottled := func(t *testing.T, users *MockUserRepository, throttle *MockLoginThrottle) *AuthService {
		svc, _ := newTestAuthService(t, users)
		WithLoginThrottle(throttle)(svc)
		return svc
	}

	t.Run("rejects without touching the directory when throttled", func(t *testing.T) {
		users := new(MockUserRepository)
		throttle := new(MockLoginThrottle)
		resetAt := time.Date(2024, 1, 15, 14, 31, 0, 0, time.UTC)
		throttle.On("Check", ctx, "alice").Return(&ratelimit.Result{
			Allowed:        false,
			ResetAt:        resetAt,
			ViolatedWindow: ratelimit.WindowMinute,
		}, nil)

		_, err := newThrottled(t, users, throttle).Login(ctx, "alice", "whatever")

		require.Error(t, err)
		assert.True(t, IsRateLimitedError(err))
		assert.Equal(t, "2024-01-15T14:31:00Z", GetErrorDetails(err)["retry_after"])
		users.AssertNotCalled(t, "GetByUsername", mock.Anything, mock.Anything)
	})

	t.Run("records a failure for a wrong password", func(t *testing.T) {
		users := new(MockUserRepository)
		throttle := new(MockLoginThrottle)
		user := models.NewUser("alice", "alice@example.com", hashPassword(t, "right-pass"), models.RoleUser)
		users.On("GetByUsername", ctx, "alice").Return(user, nil)
		throttle.On("Check", ctx, "alice").Return(&ratelimit.Result{Allowed: true, Remaining: 3}, nil)
		throttle.On("RecordFailure", ctx, "alice").Return(nil)

		_, err := newThrottled(t, users, throttle).Login(ctx, "alice", "wrong-pass")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		throttle.AssertExpectations(t)
	})

	t.Run("clears failures after a successful login", func(t *testing.T) {
		users := new(MockUserRepository)
		throttle := new(MockLoginThrottle)
		user := models.NewUser("alice", "alice@example.com", hashPassword(t, "right-pass"), models.RoleUser)
		users.On("GetByUsername", ctx, "alice").Return(user, nil)
		throttle.On("Check", ctx, "alice").Return(&ratelimit.Result{Allowed: true}, nil)
		throttle.On("Reset", ctx, "alice").Return(nil)

		result, err := newThrottled(t, users, throttle).Login(ctx, "alice", "right-pass")

		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		throttle.AssertExpectations(t)
		throttle.AssertNotCalled(t, "RecordFailure", mock.Anything, mock.Anything)
	})

	t.Run("proceeds when the throttle is unavailable", func(t *testing.T) {
		users := new(MockUserRepository)
		throttle := new(MockLoginThrottle)
		user := models.NewUser("alice", "alice@example.com", hashPassword(t, "right-pass"), models.RoleUser)
		users.On("GetByUsername", ctx, "alice").Return(user, nil)
		throttle.On("Check", ctx, "alice").Return(nil, errors.New("connection refused"))
		throttle.On("Reset", ctx, "alice").Return(errors.New("connection refused"))

		result, err := newThrottled(t, users, throttle).Login(ctx, "alice", "right-pass")

		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
	})
}
