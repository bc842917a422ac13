package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/auth"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/models"
	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/utils"
	"go.uber.org/zap"
)

// IdentityLoader resolves the identity carried by request headers
type IdentityLoader interface {
	Load(ctx context.Context, header http.Header) auth.Result
}

// Authorizer decides whether an identity satisfies a requirement
type Authorizer interface {
	Authorize(identity *auth.Identity, req auth.Requirement) auth.Decision
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	loader IdentityLoader
	gate   Authorizer
	audit  AuditRecorder
	logger *zap.Logger
}

// AuthMiddlewareOption customizes an AuthMiddleware
type AuthMiddlewareOption func(*AuthMiddleware)

// WithAuditRecorder records a denied entry for every forbidden request
func WithAuditRecorder(recorder AuditRecorder) AuthMiddlewareOption {
	return func(m *AuthMiddleware) {
		m.audit = recorder
	}
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(loader IdentityLoader, gate Authorizer, logger *zap.Logger, opts ...AuthMiddlewareOption) *AuthMiddleware {
	m := &AuthMiddleware{
		loader: loader,
		gate:   gate,
		audit:  NopAuditRecorder{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Authenticate resolves the request identity and, on success, attaches the
// raw token and the identity to a fresh request context. Failed or missing
// credentials leave the request anonymous; Require decides what that means.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		result := m.loader.Load(ctx, r.Header)
		if !result.Authenticated() {
			if !errors.Is(result.Err, auth.ErrMissingCredential) {
				m.logger.Warn("authentication failed",
					zap.String("request_id", requestID),
					zap.String("reason", auth.Reason(result.Err)),
					zap.Error(result.Err))
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx = WithToken(ctx, result.Token)
		ctx = WithIdentity(ctx, result.Identity)

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("subject", result.Identity.Subject),
			zap.Strings("roles", result.Identity.Roles))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require is a middleware that enforces req against the request identity.
// It must run after Authenticate.
func (m *AuthMiddleware) Require(req auth.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)
			identity := GetIdentityFromContext(ctx)

			switch m.gate.Authorize(identity, req) {
			case auth.Allow:
				next.ServeHTTP(w, r)
			case auth.Forbidden:
				m.logger.Warn("insufficient permissions",
					zap.String("request_id", requestID),
					zap.String("subject", identity.Subject),
					zap.String("required", req.String()))
				m.audit.Record(NewRequestAudit(r, models.AuditActionAccessDenied, identity.Subject, "route").
					WithDetails(map[string]string{
						"method":   r.Method,
						"path":     r.URL.Path,
						"required": req.String(),
					}))
				_ = utils.WriteForbidden(w, "Insufficient permissions")
			default:
				m.logger.Info("authentication required",
					zap.String("request_id", requestID),
					zap.String("required", req.String()),
					zap.String("path", r.URL.Path))
				_ = utils.WriteUnauthorized(w, "Authentication required")
			}
		})
	}
}

// RequireRole is a middleware that requires a specific role
func (m *AuthMiddleware) RequireRole(role string) func(http.Handler) http.Handler {
	return m.Require(auth.RequireRole(role))
}
