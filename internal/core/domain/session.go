package domain

import (
	"fmt"
	"strings"
)

// Role is the authorization role the backend assigns at login.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the roles the portal can route.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// ParseRole normalises a role string received from the backend or storage.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Session is the authenticated identity of the portal. Token and Role are
// always set and cleared together.
type Session struct {
	Token string `json:"token"`
	Role  Role   `json:"role"`
}

// Authenticated is true iff both token and role are present.
func (s Session) Authenticated() bool {
	return strings.TrimSpace(s.Token) != "" && strings.TrimSpace(string(s.Role)) != ""
}
