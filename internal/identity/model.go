package identity

import "time"

const (
	// RoleMember is the default role for registered users.
	RoleMember = "member"
	// RoleAdmin marks users allowed to run privileged ledger operations.
	RoleAdmin = "admin"
)

// User represents a registered platform member.
type User struct {
	ID           string
	Name         string
	Email        string
	Role         string
	PasswordHash []byte
	CreatedAt    time.Time
}

// IsAdmin is the capability predicate for privileged operations. Checks go
// through the role field, never through a well-known identity value.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Credentials is the registration/login request structure.
type Credentials struct {
	Name     string
	Email    string
	Password string
}
