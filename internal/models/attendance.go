package models

import "time"

// AttendanceStatus represents the status recorded for a day.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLeave   AttendanceStatus = "leave"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLeave:
		return true
	default:
		return false
	}
}

// AttendanceRecord is one attendance row for a user on a calendar day.
// markedBy must refer to a caller whose role was permitted to mark the
// user's role at creation time; rows are created once and never mutated here.
type AttendanceRecord struct {
	ID       int64            `db:"id" json:"id"`
	UserID   int64            `db:"user_id" json:"user_id"`
	Date     string           `db:"date" json:"date"`
	Status   AttendanceStatus `db:"status" json:"status"`
	MarkedAt time.Time        `db:"marked_at" json:"marked_at"`
	MarkedBy int64            `db:"marked_by" json:"marked_by"`
}

// MarkAttendanceRequest is the payload of the mark endpoint. Field presence
// is checked by the marking rules, not by binding tags, so the endpoint can
// answer with its fixed message strings.
type MarkAttendanceRequest struct {
	TargetUserID int64  `json:"userId"`
	Date         string `json:"date"`
	Status       string `json:"status"`
}

// AttendanceDetail extends the record with target user metadata for listings.
type AttendanceDetail struct {
	AttendanceRecord
	UserName string   `db:"user_name" json:"user_name"`
	UserRole UserRole `db:"user_role" json:"user_role"`
}

// AttendanceFilter scopes listing queries.
type AttendanceFilter struct {
	UserID    *int64
	Role      *UserRole
	Status    *AttendanceStatus
	DateFrom  string
	DateTo    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// AttendanceSummary aggregates per-status counts for a user over a range.
type AttendanceSummary struct {
	UserID  int64   `json:"user_id"`
	Present int     `json:"present"`
	Absent  int     `json:"absent"`
	Leave   int     `json:"leave"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// AttendanceReportRow is a single line of an exportable date-range report.
type AttendanceReportRow struct {
	UserID   int64            `db:"user_id" json:"user_id"`
	UserName string           `db:"user_name" json:"user_name"`
	UserRole UserRole         `db:"user_role" json:"user_role"`
	Date     string           `db:"date" json:"date"`
	Status   AttendanceStatus `db:"status" json:"status"`
	MarkedBy int64            `db:"marked_by" json:"marked_by"`
}
