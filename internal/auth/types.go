package auth

import "errors"

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleViewer is read-only access: sensors, readings, history, live
	// WebSocket streams. Dashboards and wall displays use this tier.
	RoleViewer Role = "viewer"

	// RoleAdmin has full control: sensor registration, catalog imports,
	// unit system changes. Obtained by exchanging the configured admin key.
	RoleAdmin Role = "admin"
)

// ValidRoles is the set of roles a token may carry.
var ValidRoles = []Role{RoleViewer, RoleAdmin}

// IsValidRole returns true if the role is a recognised authorisation tier.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// CanWrite returns true if the role may perform mutating operations.
func (r Role) CanWrite() bool {
	return r == RoleAdmin
}

// Sentinel errors for auth operations.
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
)
