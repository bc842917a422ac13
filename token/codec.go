package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NowakArtur97/Personal-Kanban-Board-Backend/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned when the token is not a decodable three segment structure
	ErrMalformed = errors.New("malformed token")

	// ErrInvalidSignature is returned when the MAC does not match (tampering or wrong secret)
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrExpired is returned when the token expiry has been reached
	ErrExpired = errors.New("token expired")

	// ErrSubjectMismatch is returned when the token subject differs from the expected subject
	ErrSubjectMismatch = errors.New("token subject mismatch")

	// ErrMissingClaim is returned when Issue is called without a subject or role
	ErrMissingClaim = errors.New("missing required claim")
)

const segmentCount = 3

// Option configures a Codec
type Option func(*Codec)

// WithClock overrides the wall clock used for issuing and expiry checks
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// Codec issues and parses HS256 signed tokens. It holds only read-only
// state and is safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewCodec creates a codec from validated credentials configuration
func NewCodec(cfg config.CredentialsConfig, opts ...Option) *Codec {
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	c := &Codec{
		secret: secret,
		ttl:    cfg.TTL,
		now:    time.Now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
			jwt.WithStrictDecoding(),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue signs a new token for subject carrying a single role
func (c *Codec) Issue(subject, role string) (string, error) {
	signed, _, err := c.IssueClaims(subject, role)
	return signed, err
}

// IssueClaims signs a new token and also returns the claims it carries, so
// callers can report the exact expiry without reading the clock again.
func (c *Codec) IssueClaims(subject, role string) (string, *Claims, error) {
	if subject == "" {
		return "", nil, fmt.Errorf("%w: subject", ErrMissingClaim)
	}
	if role == "" {
		return "", nil, fmt.Errorf("%w: role", ErrMissingClaim)
	}

	issuedAt := c.now().UnixMilli()
	claims := &Claims{
		Subject:   subject,
		Roles:     []string{role},
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt + c.ttl.Milliseconds(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies the signature of tokenString and returns its claims.
// Expiry is not checked here; see Expired.
func (c *Codec) Parse(tokenString string) (*Claims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != segmentCount {
		return nil, fmt.Errorf("%w: expected %d segments, got %d", ErrMalformed, segmentCount, len(parts))
	}

	claims := &Claims{}
	if _, err := c.parser.ParseWithClaims(tokenString, claims, c.keyFunc); err != nil {
		return nil, classifyParseError(err, parts[2])
	}

	if err := claims.validate(); err != nil {
		return nil, err
	}
	return claims, nil
}

// Expired reports whether claims have reached their expiry. A token is
// expired when now >= exp, so equal timestamps are rejected.
func (c *Codec) Expired(claims *Claims) bool {
	return c.now().UnixMilli() >= claims.ExpiresAt
}

// ExtractSubject decodes the subject without verifying the signature.
// It returns an empty string when the token cannot be decoded. The result
// must only be used as a lookup key or a log field.
func (c *Codec) ExtractSubject(tokenString string) string {
	claims := &Claims{}
	if _, _, err := c.parser.ParseUnverified(tokenString, claims); err != nil {
		return ""
	}
	return claims.Subject
}

func (c *Codec) keyFunc(*jwt.Token) (interface{}, error) {
	return c.secret, nil
}

// classifyParseError maps jwt parser errors onto the token taxonomy. A
// signature segment that fails strict base64 decoding counts as a bad
// signature rather than a malformed token.
func classifyParseError(err error, signature string) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		if _, decodeErr := base64.RawURLEncoding.Strict().DecodeString(signature); decodeErr != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
