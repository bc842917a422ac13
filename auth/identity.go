package auth

// Role names known to the board
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Identity is the authenticated principal of a single request. It is built
// fresh by the Loader for every request and never cached.
type Identity struct {
	// Subject is the username the token was issued to.
	Subject string

	// Roles is the role set used by the Gate.
	Roles []string
}

// HasRole checks if the identity holds role exactly
func (id *Identity) HasRole(role string) bool {
	if id == nil {
		return false
	}
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// UserRecord is what the Directory knows about a subject
type UserRecord struct {
	Subject string
	Roles   []string
}
