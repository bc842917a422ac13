package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/middleware"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/models"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/token"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/utils"
	"go.uber.org/zap"
)

// UserService defines the account reads exposed over HTTP
type UserService interface {
	GetCurrent(ctx context.Context, subject string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
}

// TokenVerifier checks a bearer token against the subject it must belong to
type TokenVerifier interface {
	Verify(tokenString, expectedSubject string) (*token.Claims, error)
}

// CurrentUserResponse is the response body for GET /api/v1/users/me
type CurrentUserResponse struct {
	*models.User
	// GrantedRoles are the roles the request was authorized with
	GrantedRoles []string `json:"granted_roles"`
	// TokenExpiresAt is when the presented bearer token stops being accepted
	TokenExpiresAt time.Time `json:"token_expires_at"`
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	service  UserService
	verifier TokenVerifier
	logger   *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, verifier TokenVerifier, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service:  service,
		verifier: verifier,
		logger:   logger,
	}
}

// HandleGetCurrentUser handles GET /api/v1/users/me
func (h *UserHandler) HandleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	// The token the request was authenticated with must still verify for
	// the same subject; its claims supply the expiry shown to the caller.
	claims, err := h.verifier.Verify(middleware.TokenFromContext(r.Context()), identity.Subject)
	if err != nil {
		h.logger.Debug("bearer token no longer verifies",
			zap.String("subject", identity.Subject),
			zap.Error(err))
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.service.GetCurrent(r.Context(), identity.Subject)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, CurrentUserResponse{
		User:           user,
		GrantedRoles:   identity.Roles,
		TokenExpiresAt: claims.ExpiresAtTime().UTC(),
	})
}

// HandleListUsers handles GET /api/v1/users?limit=&offset=
func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
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

	users, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, users)
}

// queryInt reads an optional integer query parameter; absent means zero
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &utils.ValidationError{
			Message: "Validation failed",
			Fields:  map[string]string{name: name + " must be an integer"},
		}
	}
	return n, nil
}
