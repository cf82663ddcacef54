// Package domain contains entities without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

var (
	ErrNameEmpty = errors.New("name empty")
	ErrBadRole   = errors.New("bad role")
)

// Role tags a session. System is never assigned to a session; it is the
// author of server-generated chat announcements.
type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleSystem Role = "system"
)

// ParseRole normalizes a client-supplied role string. An empty string
// defaults to user.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case "", RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrBadRole
	}
}

// Session is the identity of one connected client. The transport handle
// lives in the lobby registry, not here.
type Session struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}
