package services

import (
	"context"
	"errors"
	"time"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/models"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateTaskInput carries the fields a caller may set on a new task
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    models.TaskPriority
	TargetEnd   *time.Time
	Subtasks    []string
}

// TaskView is a task together with its subtasks
type TaskView struct {
	*models.Task
	Subtasks []*models.Subtask `json:"subtasks"`
}

// DeleteResult reports what a task deletion removed
type DeleteResult struct {
	TaskID          uuid.UUID `json:"task_id"`
	SubtasksRemoved int64     `json:"subtasks_removed"`
}

// TaskService manages the board's tasks
type TaskService struct {
	users  repositories.UserRepository
	tasks  repositories.TaskRepository
	txMgr  repositories.TransactionManager
	logger *zap.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(users repositories.UserRepository, tasks repositories.TaskRepository, txMgr repositories.TransactionManager, logger *zap.Logger) *TaskService {
	return &TaskService{
		users:  users,
		tasks:  tasks,
		txMgr:  txMgr,
		logger: logger,
	}
}

// List returns the tasks assigned to the subject with their subtasks
func (s *TaskService) List(ctx context.Context, subject string) ([]*TaskView, error) {
	user, err := s.owner(ctx, subject)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.ListByAssignee(ctx, user.ID)
	if err != nil {
		return nil, WrapInternal("failed to list tasks", err)
	}

	views := make([]*TaskView, 0, len(tasks))
	for _, task := range tasks {
		subtasks, err := s.tasks.ListSubtasks(ctx, task.ID)
		if err != nil {
			return nil, WrapInternal("failed to list subtasks", err)
		}
		views = append(views, &TaskView{Task: task, Subtasks: subtasks})
	}
	return views, nil
}

// Create stores a task authored by the subject, along with any subtasks
func (s *TaskService) Create(ctx context.Context, subject string, input CreateTaskInput) (*TaskView, error) {
	user, err := s.owner(ctx, subject)
	if err != nil {
		return nil, err
	}

	task := models.NewTask(user.ID, input.Title, input.Description, input.Priority)
	task.TargetEnd = input.TargetEnd

	view, err := WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*TaskView, error) {
		txCtx := tx.Context()
		if err := s.tasks.Create(txCtx, task); err != nil {
			return nil, err
		}
		subtasks := make([]*models.Subtask, 0, len(input.Subtasks))
		for _, title := range input.Subtasks {
			subtask := models.NewSubtask(task.ID, title)
			if err := s.tasks.CreateSubtask(txCtx, subtask); err != nil {
				return nil, err
			}
			subtasks = append(subtasks, subtask)
		}
		return &TaskView{Task: task, Subtasks: subtasks}, nil
	})
	if err != nil {
		return nil, WrapInternal("failed to create task", err)
	}

	s.logger.Info("task created",
		zap.String("task_id", task.ID.String()),
		zap.String("author", subject),
		zap.Int("subtasks", len(view.Subtasks)))
	return view, nil
}

// Delete removes a task and its subtasks in one transaction
func (s *TaskService) Delete(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	result := &DeleteResult{TaskID: id}
	err := s.txMgr.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		removed, err := s.tasks.DeleteSubtasks(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.tasks.Delete(txCtx, id); err != nil {
			return err
		}
		result.SubtasksRemoved = removed
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, WrapInternal("failed to delete task", err)
	}

	s.logger.Info("task deleted",
		zap.String("task_id", id.String()),
		zap.Int64("subtasks_removed", result.SubtasksRemoved))
	return result, nil
}

func (s *TaskService) owner(ctx context.Context, subject string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, WrapInternal("failed to load user", err)
	}
	return user, nil
}
