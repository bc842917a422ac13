package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the claim set carried by an issued token. Timestamps are Unix
// epoch milliseconds so that expiry can be compared at millisecond resolution.
type Claims struct {
	Subject   string   `json:"sub"`
	Roles     []string `json:"roles"`
	IssuedAt  int64    `json:"iat_ms"`
	ExpiresAt int64    `json:"exp_ms"`
}

// IssuedAtTime returns the issue instant
func (c *Claims) IssuedAtTime() time.Time {
	return time.UnixMilli(c.IssuedAt)
}

// ExpiresAtTime returns the expiry instant
func (c *Claims) ExpiresAtTime() time.Time {
	return time.UnixMilli(c.ExpiresAt)
}

// validate checks the structural requirements of a decoded claim set
func (c *Claims) validate() error {
	if c.Subject == "" {
		return fmt.Errorf("%w: missing sub claim", ErrMalformed)
	}
	if len(c.Roles) == 0 {
		return fmt.Errorf("%w: missing roles claim", ErrMalformed)
	}
	for _, r := range c.Roles {
		if r == "" {
			return fmt.Errorf("%w: empty role in roles claim", ErrMalformed)
		}
	}
	if c.IssuedAt <= 0 || c.ExpiresAt < c.IssuedAt {
		return fmt.Errorf("%w: invalid timestamps", ErrMalformed)
	}
	return nil
}

// jwt.Claims implementation. Registered-claim validation is disabled in the
// parser; expiry is evaluated by Codec.Expired.

func (c *Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	return &jwt.NumericDate{Time: c.ExpiresAtTime()}, nil
}

func (c *Claims) GetIssuedAt() (*jwt.NumericDate, error) {
	return &jwt.NumericDate{Time: c.IssuedAtTime()}, nil
}

func (c *Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }

func (c *Claims) GetIssuer() (string, error) { return "", nil }

func (c *Claims) GetSubject() (string, error) { return c.Subject, nil }

func (c *Claims) GetAudience() (jwt.ClaimStrings, error) { return nil, nil }

var _ jwt.Claims = (*Claims)(nil)
