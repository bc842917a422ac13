package repositories

import (
	"context"
	"errors"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique constraint is violated
	ErrDuplicate = errors.New("record already exists")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error


	// GetByUsername retrieves a user by username (the token subject)
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// List retrieves users with pagination
	List(ctx context.Context, limit, offset int) ([]*models.User, error)

	// Delete deletes a user
	Delete(ctx context.Context, id uuid.UUID) error
}

// TaskRepository handles task and subtask data operations
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error


	// ListByAssignee retrieves tasks assigned to a user, newest first
	ListByAssignee(ctx context.Context, userID uuid.UUID) ([]*models.Task, error)

	// CreateSubtask creates a subtask under an existing task
	CreateSubtask(ctx context.Context, subtask *models.Subtask) error

	// ListSubtasks retrieves the subtasks of a task
	ListSubtasks(ctx context.Context, taskID uuid.UUID) ([]*models.Subtask, error)

	// DeleteSubtasks deletes all subtasks of a task and returns how many were removed
	DeleteSubtasks(ctx context.Context, taskID uuid.UUID) (int64, error)

	// Delete deletes a task
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuditRepository handles audit trail persistence
type AuditRepository interface {
	// Insert inserts a new audit log entry
	Insert(ctx context.Context, log *models.AuditLog) error

	// List retrieves audit logs, newest first
	List(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)

	// ListBySubject retrieves the audit logs of one subject, newest first
	ListBySubject(ctx context.Context, subject string, limit, offset int) ([]*models.AuditLog, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users UserRepository
	Tasks TaskRepository
	Audit AuditRepository
}
