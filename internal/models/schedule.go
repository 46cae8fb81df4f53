package models

import "time"

// Schedule represents a recurring teaching slot for a class.
type Schedule struct {
	ID        int64     `db:"id" json:"id"`
	ClassID   int64     `db:"class_id" json:"class_id"`
	TeacherID int64     `db:"teacher_id" json:"teacher_id"`
	Subject   string    `db:"subject" json:"subject"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	StartMin  int       `db:"start_min" json:"start_min"`
	EndMin    int       `db:"end_min" json:"end_min"`
	Room      string    `db:"room" json:"room"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleInput describes one requested slot. Times are minutes from
// midnight, DayOfWeek follows time.Weekday numbering.
type ScheduleInput struct {
	ClassID   int64  `json:"class_id" validate:"required"`
	TeacherID int64  `json:"teacher_id" validate:"required"`
	Subject   string `json:"subject" validate:"required"`
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartMin  int    `json:"start_min" validate:"min=0,max=1439"`
	EndMin    int    `json:"end_min" validate:"min=1,max=1440"`
	Room      string `json:"room" validate:"required"`
}

// BulkScheduleRequest creates multiple slots in one transaction.
type BulkScheduleRequest struct {
	Items []ScheduleInput `json:"items" validate:"required,min=1,dive"`
}

// ScheduleFilter describes query params for listing schedules.
type ScheduleFilter struct {
	ClassID   *int64
	TeacherID *int64
	DayOfWeek *int
	Room      string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ScheduleConflict describes why a requested slot collides with another.
// Dimension is "teacher" or "room".
type ScheduleConflict struct {
	Dimension string    `json:"dimension"`
	Requested Schedule  `json:"requested"`
	Existing  *Schedule `json:"existing,omitempty"`
	Other     *Schedule `json:"other,omitempty"`
}
