package session

import (
	"errors"
	"strings"
)

// Role scopes a stored session so admin and customer logins never collide.
type Role string

const (
	// RoleAdmin identifies staff sessions used on the token generation pages.
	RoleAdmin Role = "admin"
	// RoleUser identifies customer sessions used on the dashboard and review form.
	RoleUser Role = "user"

	errorMessageUnknownRole       = "session: unknown role"
	errorMessageIncompleteSession = "session: token and email must both be present"
)

var (
	// ErrUnknownRole indicates a role outside the admin/user pair.
	ErrUnknownRole = errors.New(errorMessageUnknownRole)
	// ErrIncompleteSession indicates an attempt to persist a partial session.
	ErrIncompleteSession = errors.New(errorMessageIncompleteSession)
)

// Session is one authenticated login: a bearer token plus the email it was
// issued for, scoped to a role. A session is either fully present or fully
// absent; a token without its email never leaves this package.
type Session struct {
	Token string
	Email string
	Role  Role
}

// Present reports whether the session carries a usable credential.
func (currentSession Session) Present() bool {
	return strings.TrimSpace(currentSession.Token) != "" && strings.TrimSpace(currentSession.Email) != ""
}

// Validate checks the invariants required before a session may be persisted.
func (currentSession Session) Validate() error {
	if validationErr := ValidateRole(currentSession.Role); validationErr != nil {
		return validationErr
	}
	if !currentSession.Present() {
		return ErrIncompleteSession
	}
	return nil
}

// ValidateRole reports whether the role is one of the two supported scopes.
func ValidateRole(role Role) error {
	switch role {
	case RoleAdmin, RoleUser:
		return nil
	default:
		return ErrUnknownRole
	}
}
