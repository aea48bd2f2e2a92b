package model

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Role is an authorization role carried by the auth token.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User stores credentials of a registered account.
type User struct {
	ID           string
	Login        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Principal is the authenticated caller.
type Principal struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// NewUserID returns a sortable opaque user identifier.
func NewUserID() string {
	return "usr_" + strings.ToLower(ulid.Make().String())
}
