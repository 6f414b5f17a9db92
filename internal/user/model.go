package user

import (
	"strings"
	"time"
)

// GlobalRole is a user's site-wide role, distinct from any per-room role
type GlobalRole string

const (
	GlobalRoleUser       GlobalRole = "user"
	GlobalRoleAdmin      GlobalRole = "admin"
	GlobalRoleSuperadmin GlobalRole = "superadmin"
)

// ParseGlobalRole normalizes a role string from any producer (enum value or
// raw lowercase string) into the canonical constant. Unknown values map to
// the empty role so callers fall through to the least privileged path.
func ParseGlobalRole(s string) GlobalRole {
	switch GlobalRole(strings.ToLower(strings.TrimSpace(s))) {
	case GlobalRoleUser:
		return GlobalRoleUser
	case GlobalRoleAdmin:
		return GlobalRoleAdmin
	case GlobalRoleSuperadmin:
		return GlobalRoleSuperadmin
	default:
		return ""
	}
}

// IsOperator reports whether the role is an administrative account
func (r GlobalRole) IsOperator() bool {
	return r == GlobalRoleAdmin || r == GlobalRoleSuperadmin
}

// User represents an account in the system
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	Nickname     *string    `json:"nickname,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	PasswordHash string     `json:"-"`
	Role         GlobalRole `json:"role"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
