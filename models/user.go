package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole represents a role granted to a board user
type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

// User represents an account on the board. Username is the token subject.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Roles        []string  `json:"roles" db:"roles"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance holding a single role
func NewUser(username, email, passwordHash string, role UserRole) *User {
	now := time.Now()
	return &User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Roles:        []string{string(role)},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasRole returns true if the user holds role
func (u *User) HasRole(role UserRole) bool {
	for _, r := range u.Roles {
		if r == string(role) {
			return true
		}
	}
	return false
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// PrimaryRole returns the role embedded in tokens issued to this user
func (u *User) PrimaryRole() UserRole {
	if u.IsAdmin() {
		return RoleAdmin
	}
	if len(u.Roles) == 0 {
		return RoleUser
	}
	return UserRole(u.Roles[0])
}
