package service

import "bemyrider/internal/domain"

// Principal is the authenticated caller, resolved from the session token and the profiles table.
type Principal struct {
	ID    string
	Role  domain.Role
	Email string
}

// Require fails unless the principal is authenticated and holds role.
func (p *Principal) Require(role domain.Role) error {
	if p == nil || p.ID == "" {
		return ErrUnauthenticated
	}
	if p.Role != role {
		return ErrForbidden
	}
	return nil
}

// Authenticated fails when no principal is present.
func (p *Principal) Authenticated() error {
	if p == nil || p.ID == "" {
		return ErrUnauthenticated
	}
	return nil
}

// CheckHint cross-checks a client-supplied user id against the session identity.
func (p *Principal) CheckHint(userID string) error {
	if userID != "" && userID != p.ID {
		return ErrForbidden
	}
	return nil
}
