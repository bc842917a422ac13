package token

import (
	"fmt"

	"go.uber.org/zap"
)

// Verifier decides whether a token is acceptable for an expected subject
type Verifier struct {
	codec  *Codec
	logger *zap.Logger
}

// NewVerifier creates a new Verifier backed by codec
func NewVerifier(codec *Codec, logger *zap.Logger) *Verifier {
	return &Verifier{
		codec:  codec,
		logger: logger,
	}
}

// Verify parses the token and requires an exact subject match and an
// unexpired token. It returns the claims on success and a wrapped
// ErrMalformed, ErrInvalidSignature, ErrSubjectMismatch or ErrExpired otherwise.
func (v *Verifier) Verify(tokenString, expectedSubject string) (*Claims, error) {
	claims, err := v.codec.Parse(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.Subject != expectedSubject {
		return nil, fmt.Errorf("%w: expected %q, got %q", ErrSubjectMismatch, expectedSubject, claims.Subject)
	}

	if v.codec.Expired(claims) {
		return nil, fmt.Errorf("%w: at %s", ErrExpired, claims.ExpiresAtTime().UTC().Format("2006-01-02T15:04:05.000Z07:00"))
	}

	return claims, nil
}

// IsValid collapses Verify into a boolean. The rejection cause is logged,
// never returned.
func (v *Verifier) IsValid(tokenString, expectedSubject string) bool {
	if _, err := v.Verify(tokenString, expectedSubject); err != nil {
		v.logger.Debug("token rejected",
			zap.String("expected_subject", expectedSubject),
			zap.Error(err))
		return false
	}
	return true
}
