package ratelimit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Window represents the time window for rate limiting
type Window string

const (
	WindowMinute Window = "minute"
	WindowHour   Window = "hour"
)

// Limits caps failed login attempts per username. A zero value disables the window.
type Limits struct {
	PerMinute int
	PerHour   int
}

// Enabled reports whether any window is configured
func (l Limits) Enabled() bool {
	return l.PerMinute > 0 || l.PerHour > 0
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed         bool
	Remaining       int
	ResetAt         time.Time
	ViolatedWindow  Window
	ViolationReason string
}

// LoginLimiter counts failed logins per username in PostgreSQL using a
// sliding window. Successful logins clear the counter.
type LoginLimiter struct {
	db     *sql.DB
	limits Limits
	now    func() time.Time
	logger *zap.Logger
}

// NewLoginLimiter creates a new LoginLimiter instance
func NewLoginLimiter(db *sql.DB, limits Limits, logger *zap.Logger) *LoginLimiter {
	return &LoginLimiter{
		db:     db,
		limits: limits,
		now:    time.Now,
		logger: logger,
	}
}

// Check reports whether username may attempt another login
func (l *LoginLimiter) Check(ctx context.Context, username string) (*Result, error) {
	scopeKey := buildScopeKey(username)
	now := l.now()

	windows := []struct {
		window Window
		limit  int
	}{
		{WindowMinute, l.limits.PerMinute},
		{WindowHour, l.limits.PerHour},
	}

	remaining := -1
	for _, w := range windows {
		if w.limit <= 0 {
			continue
		}
		allowed, left, resetAt, err := l.checkWindow(ctx, scopeKey, w.window, now, w.limit)
		if err != nil {
			return nil, fmt.Errorf("failed to check %s window: %w", w.window, err)
		}
		if !allowed {
			return &Result{
				Allowed:         false,
				ResetAt:         resetAt,
				ViolatedWindow:  w.window,
				ViolationReason: fmt.Sprintf("exceeded %d failed logins per %s", w.limit, w.window),
			}, nil
		}
		if remaining < 0 || left < remaining {
			remaining = left
		}
	}

	return &Result{
		Allowed:   true,
		Remaining: remaining,
	}, nil
}

// RecordFailure records a failed login for username
func (l *LoginLimiter) RecordFailure(ctx context.Context, username string) error {
	query := `
		INSERT INTO login_attempts (scope_key, attempted_at)
		VALUES ($1, $2)
	`

	if _, err := l.db.ExecContext(ctx, query, buildScopeKey(username), l.now()); err != nil {
		return fmt.Errorf("failed to insert login attempt: %w", err)
	}
	return nil
}

// Reset clears the failed logins recorded for username
func (l *LoginLimiter) Reset(ctx context.Context, username string) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM login_attempts WHERE scope_key = $1`, buildScopeKey(username)); err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}
	return nil
}

// checkWindow checks if the limit is exceeded for a specific time window
func (l *LoginLimiter) checkWindow(ctx context.Context, scopeKey string, window Window, now time.Time, limit int) (allowed bool, remaining int, resetAt time.Time, err error) {
	windowStart, resetAt := windowBounds(now, window)

	query := `
		SELECT COUNT(*)
		FROM login_attempts
		WHERE scope_key = $1
		  AND attempted_at >= $2
		  AND attempted_at < $3
	`

	var count int
	if err := l.db.QueryRowContext(ctx, query, scopeKey, windowStart, now).Scan(&count); err != nil {
		return false, 0, resetAt, fmt.Errorf("failed to query login attempts: %w", err)
	}

	if count >= limit {
		return false, 0, resetAt, nil
	}
	return true, limit - count, resetAt, nil
}

// windowBounds returns the sliding window start and the instant the oldest
// counted attempt leaves it
func windowBounds(now time.Time, window Window) (start time.Time, reset time.Time) {
	switch window {
	case WindowMinute:
		start = now.Add(-time.Minute)
		reset = now.Truncate(time.Minute).Add(time.Minute)
	case WindowHour:
		start = now.Add(-time.Hour)
		reset = now.Truncate(time.Hour).Add(time.Hour)
	}
	return start, reset
}

func buildScopeKey(username string) string {
	return "login:" + username
}

// Cleanup removes attempts older than olderThan to keep the table small
func (l *LoginLimiter) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := l.now().Add(-olderThan)

	result, err := l.db.ExecContext(ctx, `DELETE FROM login_attempts WHERE attempted_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup login attempts: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	l.logger.Info("cleaned up old login attempts",
		zap.Int64("rows_deleted", rowsAffected),
		zap.Time("cutoff_time", cutoff))

	return rowsAffected, nil
}

// StartCleanupWorker periodically runs Cleanup until ctx is cancelled
func (l *LoginLimiter) StartCleanupWorker(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.logger.Info("started login attempt cleanup worker",
		zap.Duration("interval", interval),
		zap.Duration("retention", retention))

	for {
		select {
		case <-ticker.C:
			if _, err := l.Cleanup(ctx, retention); err != nil {
				l.logger.Error("failed to cleanup login attempts", zap.Error(err))
			}
		case <-ctx.Done():
			l.logger.Info("stopping login attempt cleanup worker")
			return
		}
	}
}
