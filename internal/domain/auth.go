package domain

import "time"

// Role is the authorization role carried in access tokens.
type Role string

const (
	RoleAdmin Role = "Admin"
)

// Operator is the authenticated staff member behind a request.
type Operator struct {
	Username string
	Role     Role
}

// Token represents issued access token metadata.
type Token struct {
	Value     string
	Username  string
	Role      Role
	ExpiresAt time.Time
}
