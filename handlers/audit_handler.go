package handlers

import (
	"context"
	"net/http"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/models"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/utils"
	"go.uber.org/zap"
)

// AuditService defines the audit trail reads exposed over HTTP
type AuditService interface {
	List(ctx context.Context, subject string, limit, offset int) ([]*models.AuditLog, error)
}

// AuditHandler serves the security audit trail
type AuditHandler struct {
	service AuditService
	logger  *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(service AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		logger:  logger,
	}
}

// HandleListAuditLogs handles GET /api/v1/audit/logs?subject=&limit=&offset=
func (h *AuditHandler) HandleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	logs, err := h.service.List(r.Context(), r.URL.Query().Get("subject"), limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, logs)
}
