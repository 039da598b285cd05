package domain

// Role is the server-asserted role carried by an access token.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// Identity is the authenticated caller. Fileno is set for staff identities only.
type Identity struct {
	Role     Role
	Username string
	Fileno   string
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
