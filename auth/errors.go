package auth

import (
	"context"
	"errors"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/token"
)

// Sentinel errors for the loader. They are diagnostic only and never reach
// the client; every one of them collapses to 401.
var (
	ErrMissingCredential = errors.New("auth: missing credential")
	ErrWrongScheme       = errors.New("auth: wrong authorization scheme")
	ErrSubjectNotFound   = errors.New("auth: subject not found")
)

// Reason returns a stable short code for an authentication failure, for
// logs and span attributes.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, ErrWrongScheme):
		return "wrong_scheme"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrSubjectNotFound):
		return "subject_not_found"
	case errors.Is(err, token.ErrMalformed):
		return "malformed"
	case errors.Is(err, token.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, token.ErrExpired):
		return "expired"
	case errors.Is(err, token.ErrSubjectMismatch):
		return "subject_mismatch"
	default:
		return "unknown"
	}
}
