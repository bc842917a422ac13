package handlers

import (
	"context"
	"net/http"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/middleware"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/models"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/services"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/utils"
	"go.uber.org/zap"
)

// LoginRequest is the body of POST /api/v1/auth/login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the body of POST /api/v1/auth/register
type RegisterRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// AuthService defines the account operations the auth endpoints need
type AuthService interface {
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	Register(ctx context.Context, username, email, password string) (*models.User, error)
}

// AuthHandler handles login and registration
type AuthHandler struct {
	service AuthService
	audit   middleware.AuditRecorder
	logger  *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. Login outcomes and registrations
// are reported to audit.
func NewAuthHandler(service AuthService, audit middleware.AuditRecorder, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		audit:   audit,
		logger:  logger,
	}
}

// HandleLogin handles POST /api/v1/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case services.IsRateLimitedError(err):
			h.audit.Record(middleware.NewRequestAudit(r, models.AuditActionLoginThrottled, req.Username, "user"))
		case services.IsUnauthorizedError(err):
			h.audit.Record(middleware.NewRequestAudit(r, models.AuditActionLoginFailed, req.Username, "user"))
		}
		HandleServiceError(w, err, h.logger)
		return
	}

	h.audit.Record(middleware.NewRequestAudit(r, models.AuditActionLoginSucceeded, req.Username, "user"))
	_ = utils.WriteOK(w, result)
}

// HandleRegister handles POST /api/v1/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	user, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug("account registered",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("username", user.Username))
	h.audit.Record(middleware.NewRequestAudit(r, models.AuditActionUserRegistered, user.Username, "user").
		WithResource(user.ID))
	_ = utils.WriteCreated(w, user)
}
