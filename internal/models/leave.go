package models

import "time"

// LeaveStatus enumerates leave request states.
type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "pending"
	LeaveStatusApproved LeaveStatus = "approved"
	LeaveStatusRejected LeaveStatus = "rejected"
)

// Valid reports whether the status is a supported value.
func (s LeaveStatus) Valid() bool {
	switch s {
	case LeaveStatusPending, LeaveStatusApproved, LeaveStatusRejected:
		return true
	default:
		return false
	}
}

// LeaveRequest is a staff member's request for leave over a date range.
type LeaveRequest struct {
	ID           int64       `db:"id" json:"id"`
	UserID       int64       `db:"user_id" json:"user_id"`
	Type         string      `db:"type" json:"type"`
	Reason       string      `db:"reason" json:"reason"`
	DateFrom     string      `db:"date_from" json:"date_from"`
	DateTo       string      `db:"date_to" json:"date_to"`
	Status       LeaveStatus `db:"status" json:"status"`
	DecidedBy    *int64      `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt    *time.Time  `db:"decided_at" json:"decided_at,omitempty"`
	RejectReason *string     `db:"reject_reason" json:"reject_reason,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// CreateLeaveRequestPayload is the payload for submitting a leave request.
type CreateLeaveRequestPayload struct {
	Type     string `json:"type" validate:"required"`
	Reason   string `json:"reason" validate:"required"`
	DateFrom string `json:"date_from" validate:"required"`
	DateTo   string `json:"date_to" validate:"required"`
}

// DecideLeaveRequestPayload approves or rejects a pending leave request.
type DecideLeaveRequestPayload struct {
	Status       LeaveStatus `json:"status" validate:"required"`
	RejectReason *string     `json:"reject_reason,omitempty"`
}

// LeaveFilter scopes leave request listings.
type LeaveFilter struct {
	UserID    *int64
	Status    *LeaveStatus
	DateFrom  string
	DateTo    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
