package domain

import "strings"

// Role represents the access level of a user account.
type Role string

const (
	RoleUser     Role = "user"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// Roles lists every recognized role.
var Roles = []Role{RoleUser, RoleEmployee, RoleAdmin}

// Valid returns true if the Role is recognized.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleEmployee, RoleAdmin:
		return true
	}
	return false
}

// User is an account able to sign in.
// Password holds a bcrypt hash once stored; callers submit plain text on add and modify.
type User struct {
	Stamp
	FirstName string `json:"firstName" db:"first_name"`
	LastName  string `json:"lastName" db:"last_name"`
	Email     string `json:"email" db:"email"`
	Job       string `json:"job" db:"job"`
	Password  string `json:"password,omitempty" db:"password"`
	Role      Role   `json:"role" db:"role"`
}

// HasEmail compares emails case-insensitively, ignoring surrounding spaces.
func (u *User) HasEmail(email string) bool {
	return strings.EqualFold(strings.TrimSpace(u.Email), strings.TrimSpace(email))
}
