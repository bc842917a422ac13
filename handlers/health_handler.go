package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/utils"
	"go.uber.org/zap"
)

// Version is reported by the status endpoint; overridden at build time
var Version = "dev"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
	OpenConns int               `json:"open_connections,omitempty"`
}

// StatusResponse describes the running service
type StatusResponse struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	AuthHeader  string `json:"auth_header"`
	RoleSource  string `json:"role_source"`
}

// DatabaseChecker is the slice of the connection pool the readiness check needs
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
	Stats() sql.DBStats
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db     DatabaseChecker
	status StatusResponse
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db may be nil when the
// service runs without a database.
func NewHealthHandler(db DatabaseChecker, status StatusResponse, logger *zap.Logger) *HealthHandler {
	if status.Version == "" {
		status.Version = Version
	}
	return &HealthHandler{
		db:     db,
		status: status,
		logger: logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness only: returns 200 while the process is serving
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]string),
	}

	if h.db == nil {
		response.Checks["database"] = "not_configured"
	} else if err := h.db.HealthCheck(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		response.Checks["database"] = "unhealthy"
		response.Status = "unhealthy"
	} else {
		response.Checks["database"] = "healthy"
		response.OpenConns = h.db.Stats().OpenConnections
	}

	var err error
	if response.Status == "healthy" {
		err = utils.WriteOK(w, response)
	} else {
		err = utils.WriteServiceUnavailable(w, response)
	}
	if err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

// HandleStatus handles GET /api/v1/status
func (h *HealthHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, h.status)
}
