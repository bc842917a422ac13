package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/middleware"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/models"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/services"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateTaskRequest is the body of POST /api/v1/tasks
type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description,omitempty" validate:"max=2000"`
	Priority    string     `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	TargetEnd   *time.Time `json:"target_end,omitempty"`
	Subtasks    []string   `json:"subtasks,omitempty" validate:"max=50,dive,required,max=200"`
}

// TaskService defines the task operations exposed over HTTP
type TaskService interface {
	List(ctx context.Context, subject string) ([]*services.TaskView, error)
	Create(ctx context.Context, subject string, input services.CreateTaskInput) (*services.TaskView, error)
	Delete(ctx context.Context, id uuid.UUID) (*services.DeleteResult, error)
}

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	service TaskService
	audit   middleware.AuditRecorder
	logger  *zap.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(service TaskService, audit middleware.AuditRecorder, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		audit:   audit,
		logger:  logger,
	}
}

// HandleListTasks handles GET /api/v1/tasks
func (h *TaskHandler) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	tasks, err := h.service.List(r.Context(), identity.Subject)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, tasks)
}

// HandleCreateTask handles POST /api/v1/tasks
func (h *TaskHandler) HandleCreateTask(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req CreateTaskRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	task, err := h.service.Create(r.Context(), identity.Subject, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.TaskPriority(req.Priority),
		TargetEnd:   req.TargetEnd,
		Subtasks:    req.Subtasks,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, task)
}

// HandleDeleteTask handles DELETE /api/v1/tasks/{id}
func (h *TaskHandler) HandleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"), "id")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.service.Delete(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("task removed",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("task_id", id.String()),
		zap.Int64("subtasks_removed", result.SubtasksRemoved))

	var subject string
	if identity := middleware.GetIdentityFromContext(r.Context()); identity != nil {
		subject = identity.Subject
	}
	h.audit.Record(middleware.NewRequestAudit(r, models.AuditActionTaskDeleted, subject, "task").
		WithResource(id).
		WithDetails(map[string]int64{"subtasks_removed": result.SubtasksRemoved}))
	_ = utils.WriteOK(w, result)
}
