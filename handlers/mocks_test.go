package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/models"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/services"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/token"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (*services.LoginResult, error) {
	args := m.Called(ctx, username, password)
	if r := args.Get(0); r != nil {
		return r.(*services.LoginResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	args := m.Called(ctx, username, email, password)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockTokenVerifier struct {
	mock.Mock
}

func (m *MockTokenVerifier) Verify(tokenString, expectedSubject string) (*token.Claims, error) {
	args := m.Called(tokenString, expectedSubject)
	if c := args.Get(0); c != nil {
		return c.(*token.Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetCurrent(ctx context.Context, subject string) (*models.User, error) {
	args := m.Called(ctx, subject)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, limit, offset)
	if u := args.Get(0); u != nil {
		return u.([]*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) List(ctx context.Context, subject string) ([]*services.TaskView, error) {
	args := m.Called(ctx, subject)
	if t := args.Get(0); t != nil {
		return t.([]*services.TaskView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTaskService) Create(ctx context.Context, subject string, input services.CreateTaskInput) (*services.TaskView, error) {
	args := m.Called(ctx, subject, input)
	if t := args.Get(0); t != nil {
		return t.(*services.TaskView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, id uuid.UUID) (*services.DeleteResult, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*services.DeleteResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) List(ctx context.Context, subject string, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, subject, limit, offset)
	if l := args.Get(0); l != nil {
		return l.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

// recordingAuditor keeps every audit entry a handler reports
type recordingAuditor struct {
	entries []*models.AuditLog
}

func (r *recordingAuditor) Record(entry *models.AuditLog) {
	r.entries = append(r.entries, entry)
}

func (r *recordingAuditor) actions() []models.AuditAction {
	actions := make([]models.AuditAction, 0, len(r.entries))
	for _, e := range r.entries {
		actions = append(actions, e.Action)
	}
	return actions
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var body utils.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}
