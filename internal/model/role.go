package model

import (
	"fmt"
	"strings"
)

// Role is the closed set of access levels an account can hold.
type Role string

const (
	// RoleAdministrator may manage accounts in addition to reading them.
	RoleAdministrator Role = "administrator"
	// RoleReviewer has read-only access to the directory.
	RoleReviewer Role = "reviewer"
)

// ParseRole maps an external role spelling onto the canonical enum.
// Matching is case-insensitive and tolerant of surrounding whitespace;
// anything outside the two canonical values is an error, never a default.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdministrator:
		return RoleAdministrator, nil
	case RoleReviewer:
		return RoleReviewer, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Valid reports whether r is one of the canonical roles.
func (r Role) Valid() bool {
	return r == RoleAdministrator || r == RoleReviewer
}
