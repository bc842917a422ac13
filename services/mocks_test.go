package services

import (
	"context"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/models"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/services/ratelimit"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, limit, offset)
	if u := args.Get(0); u != nil {
		return u.([]*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTaskRepository is a mock implementation of repositories.TaskRepository
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *models.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) ListByAssignee(ctx context.Context, userID uuid.UUID) ([]*models.Task, error) {
	args := m.Called(ctx, userID)
	if t := args.Get(0); t != nil {
		return t.([]*models.Task), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTaskRepository) CreateSubtask(ctx context.Context, subtask *models.Subtask) error {
	args := m.Called(ctx, subtask)
	return args.Error(0)
}

func (m *MockTaskRepository) ListSubtasks(ctx context.Context, taskID uuid.UUID) ([]*models.Subtask, error) {
	args := m.Called(ctx, taskID)
	if s := args.Get(0); s != nil {
		return s.([]*models.Subtask), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTaskRepository) DeleteSubtasks(ctx context.Context, taskID uuid.UUID) (int64, error) {
	args := m.Called(ctx, taskID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockLoginThrottle is a mock implementation of LoginThrottle
type MockLoginThrottle struct {
	mock.Mock
}

func (m *MockLoginThrottle) Check(ctx context.Context, username string) (*ratelimit.Result, error) {
	args := m.Called(ctx, username)
	if result := args.Get(0); result != nil {
		return result.(*ratelimit.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLoginThrottle) RecordFailure(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

func (m *MockLoginThrottle) Reset(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}
