package domain

import "time"

// Role is the marketplace side a profile belongs to.
type Role string

const (
	RoleRider    Role = "rider"
	RoleMerchant Role = "merchant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleRider || r == RoleMerchant
}

// Profile is the identity record of an authenticated principal.
type Profile struct {
	ID        string
	FullName  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}
