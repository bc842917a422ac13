package middleware

import (
	"context"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/auth"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Context key type to avoid collisions
type contextKey string

const (
	// TokenKey is the context key for the validated raw bearer token
	TokenKey contextKey = "bearer_token"

	// IdentityKey is the context key for the authenticated identity
	IdentityKey contextKey = "identity"
)

// GetRequestIDFromContext retrieves the request ID set by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return chimiddleware.GetReqID(ctx)
}

// TokenFromContext retrieves the raw bearer token of the current request.
// It is only present once the request has been authenticated.
func TokenFromContext(ctx context.Context) string {
	if val := ctx.Value(TokenKey); val != nil {
		if token, ok := val.(string); ok {
			return token
		}
	}
	return ""
}

// WithToken adds the raw bearer token to the context
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}

// GetIdentityFromContext retrieves the authenticated identity from context.
// Nil means the request is anonymous.
func GetIdentityFromContext(ctx context.Context) *auth.Identity {
	if val := ctx.Value(IdentityKey); val != nil {
		if identity, ok := val.(*auth.Identity); ok {
			return identity
		}
	}
	return nil
}

// WithIdentity adds the authenticated identity to the context. The identity
// is copied so later changes by the caller are not observed downstream.
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	if identity == nil {
		return ctx
	}
	cp := &auth.Identity{
		Subject: identity.Subject,
		Roles:   append([]string(nil), identity.Roles...),
	}
	return context.WithValue(ctx, IdentityKey, cp)
}
