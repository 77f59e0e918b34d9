package domain

import (
	"strings"
	"time"
)

// Role places a user in the ordered privilege hierarchy user < manager < admin.
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Rank returns the role's position in the hierarchy. Unknown roles rank
// below user so a corrupted value never grants privileges.
func (r Role) Rank() int {
	switch r {
	case RoleUser:
		return 0
	case RoleManager:
		return 1
	case RoleAdmin:
		return 2
	default:
		return -1
	}
}

// Valid reports whether the role is one of the three enumerated values.
func (r Role) Valid() bool {
	return r.Rank() >= 0
}

// HasAtLeast compares role ranks.
func (r Role) HasAtLeast(required Role) bool {
	return r.Rank() >= required.Rank()
}

// User represents a registered identity.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal is the authenticated identity resolved once at the auth
// boundary and passed explicitly to every operation.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Principal derives the request-scoped identity value from a user record.
func (u *User) Principal() Principal {
	if u == nil {
		return Principal{}
	}
	return Principal{ID: u.ID, Email: u.Email, Role: u.Role}
}

// NormalizeEmail applies the canonical form used for uniqueness and
// protected-list membership checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
