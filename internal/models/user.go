package models

import "time"

// UserRole represents the closed set of roles understood by the system.
// The marking policy depends on this set staying fixed; newer UI roles are
// intentionally not part of it.
type UserRole string

const (
	RoleMazer     UserRole = "mazer"
	RoleAssistant UserRole = "assistant"
	RoleTeacher   UserRole = "teacher"
	RoleStaff     UserRole = "staff"
	RoleHead      UserRole = "head"
	RoleAdmin     UserRole = "admin"
)

// Valid reports whether the role is one of the supported values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleMazer, RoleAssistant, RoleTeacher, RoleStaff, RoleHead, RoleAdmin:
		return true
	default:
		return false
	}
}

// User represents an application user stored in the users table.
type User struct {
	ID           int64      `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	DepartmentID *int64     `db:"department_id" json:"department_id,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role         *UserRole
	Active       *bool
	DepartmentID *int64
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// CreateUserRequest is the payload for registering a new user.
type CreateUserRequest struct {
	Email        string   `json:"email" validate:"required,email"`
	Password     string   `json:"password" validate:"required,min=6"`
	FullName     string   `json:"full_name" validate:"required"`
	Role         UserRole `json:"role" validate:"required"`
	DepartmentID *int64   `json:"department_id,omitempty"`
}

// UpdateUserRequest is the payload for updating an existing user. Nil fields
// are left untouched.
type UpdateUserRequest struct {
	Email        *string   `json:"email,omitempty" validate:"omitempty,email"`
	FullName     *string   `json:"full_name,omitempty"`
	Role         *UserRole `json:"role,omitempty"`
	DepartmentID *int64    `json:"department_id,omitempty"`
	Active       *bool     `json:"active,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
