package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/models"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskRepository implements the repositories.TaskRepository interface
type TaskRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB, logger *zap.Logger) repositories.TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new task
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (id, title, description, status, priority, author_id, assigned_to, target_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.AuthorID,
		task.AssignedTo,
		task.TargetEnd,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	r.logger.Debug("task created", zap.String("id", task.ID.String()))
	return nil
}

// ListByAssignee retrieves tasks assigned to a user, newest first
func (r *TaskRepository) ListByAssignee(ctx context.Context, userID uuid.UUID) ([]*models.Task, error) {
	query := `
		SELECT id, title, description, status, priority, author_id, assigned_to, target_end, created_at, updated_at
		FROM tasks
		WHERE assigned_to = $1
		ORDER BY created_at DESC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// CreateSubtask creates a subtask under an existing task
func (r *TaskRepository) CreateSubtask(ctx context.Context, subtask *models.Subtask) error {
	query := `
		INSERT INTO subtasks (id, task_id, title, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		subtask.ID,
		subtask.TaskID,
		subtask.Title,
		subtask.Status,
		subtask.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subtask: %w", err)
	}

	return nil
}

// ListSubtasks retrieves the subtasks of a task
func (r *TaskRepository) ListSubtasks(ctx context.Context, taskID uuid.UUID) ([]*models.Subtask, error) {
	query := `
		SELECT id, task_id, title, status, created_at
		FROM subtasks
		WHERE task_id = $1
		ORDER BY created_at
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subtasks: %w", err)
	}
	defer rows.Close()

	var subtasks []*models.Subtask
	for rows.Next() {
		s := &models.Subtask{}
		if err := rows.Scan(&s.ID, &s.TaskID, &s.Title, &s.Status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subtask: %w", err)
		}
		subtasks = append(subtasks, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subtask rows: %w", err)
	}

	return subtasks, nil
}

// DeleteSubtasks deletes all subtasks of a task
func (r *TaskRepository) DeleteSubtasks(ctx context.Context, taskID uuid.UUID) (int64, error) {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM subtasks WHERE task_id = $1`, taskID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete subtasks: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return removed, nil
}

// Delete deletes a task
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("task %s: %w", id, repositories.ErrNotFound)
	}

	r.logger.Debug("task deleted", zap.String("id", id.String()))
	return nil
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var targetEnd sql.NullTime
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.AuthorID,
		&task.AssignedTo,
		&targetEnd,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if targetEnd.Valid {
		task.TargetEnd = &targetEnd.Time
	}
	return task, nil
}
