package models

import "time"

// Department represents an organisational unit.
type Department struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Code       string    `db:"code" json:"code"`
	HeadUserID *int64    `db:"head_user_id" json:"head_user_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// DepartmentFilter defines filter criteria for listing departments.
type DepartmentFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Major represents a study programme owned by a department.
type Major struct {
	ID           int64     `db:"id" json:"id"`
	DepartmentID int64     `db:"department_id" json:"department_id"`
	Name         string    `db:"name" json:"name"`
	Code         string    `db:"code" json:"code"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// MajorFilter defines filter criteria for listing majors.
type MajorFilter struct {
	DepartmentID *int64
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// CreateDepartmentRequest is the payload for creating a department.
type CreateDepartmentRequest struct {
	Name       string `json:"name" validate:"required"`
	Code       string `json:"code" validate:"required"`
	HeadUserID *int64 `json:"head_user_id,omitempty"`
}

// UpdateDepartmentRequest applies partial changes to a department.
type UpdateDepartmentRequest struct {
	Name       *string `json:"name,omitempty"`
	Code       *string `json:"code,omitempty"`
	HeadUserID *int64  `json:"head_user_id,omitempty"`
}

// CreateMajorRequest is the payload for creating a major.
type CreateMajorRequest struct {
	DepartmentID int64  `json:"department_id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Code         string `json:"code" validate:"required"`
}

// UpdateMajorRequest applies partial changes to a major.
type UpdateMajorRequest struct {
	Name *string `json:"name,omitempty"`
	Code *string `json:"code,omitempty"`
}
