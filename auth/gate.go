package auth

import "go.uber.org/zap"

// Requirement is the static access rule of one operation
type Requirement struct {
	role string
}

// Public returns a requirement that admits anonymous callers
func Public() Requirement {
	return Requirement{}
}

// RequireRole returns a requirement satisfied only by identities holding role
func RequireRole(role string) Requirement {
	return Requirement{role: role}
}

// IsPublic reports whether the operation needs no identity
func (r Requirement) IsPublic() bool {
	return r.role == ""
}

// Role returns the required role, empty for public operations
func (r Requirement) Role() string {
	return r.role
}

func (r Requirement) String() string {
	if r.IsPublic() {
		return "public"
	}
	return "role:" + r.role
}

// Decision is the outcome of an authorization check
type Decision int

const (
	Allow Decision = iota
	Unauthorized
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Gate evaluates requirements against identities. Roles are matched
// exactly; there is no hierarchy between them.
type Gate struct {
	logger *zap.Logger
}

// NewGate creates a new Gate
func NewGate(logger *zap.Logger) *Gate {
	return &Gate{logger: logger}
}

// Authorize decides whether identity may invoke an operation guarded by req.
// A nil identity means the request is unauthenticated.
func (g *Gate) Authorize(identity *Identity, req Requirement) Decision {
	if req.IsPublic() {
		return Allow
	}
	if identity == nil {
		return Unauthorized
	}
	if !identity.HasRole(req.role) {
		g.logger.Debug("role requirement not met",
			zap.String("subject", identity.Subject),
			zap.String("required_role", req.role),
			zap.Strings("roles", identity.Roles))
		return Forbidden
	}
	return Allow
}
