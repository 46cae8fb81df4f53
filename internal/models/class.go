package models

import "time"

// Class represents a class section within a major.
type Class struct {
	ID              int64     `db:"id" json:"id"`
	MajorID         int64     `db:"major_id" json:"major_id"`
	Name            string    `db:"name" json:"name"`
	Year            int       `db:"year" json:"year"`
	ModeratorUserID *int64    `db:"moderator_user_id" json:"moderator_user_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with moderator information.
type ClassDetail struct {
	Class
	ModeratorName *string `db:"moderator_name" json:"moderator_name,omitempty"`
}

// CreateClassRequest is the payload for creating a class.
type CreateClassRequest struct {
	MajorID         int64  `json:"major_id" validate:"required"`
	Name            string `json:"name" validate:"required"`
	Year            int    `json:"year" validate:"required,min=2000"`
	ModeratorUserID *int64 `json:"moderator_user_id,omitempty"`
}

// UpdateClassRequest applies partial changes to a class.
type UpdateClassRequest struct {
	Name            *string `json:"name,omitempty"`
	Year            *int    `json:"year,omitempty" validate:"omitempty,min=2000"`
	ModeratorUserID *int64  `json:"moderator_user_id,omitempty"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	MajorID   *int64
	Year      *int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
