package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/campushq/staff-attend-api/internal/models"
)

// AttendanceRepository persists attendance records. It performs plain inserts:
// duplicate (user_id, date) pairs are accepted here, matching the marking
// policy's contract. A unique index can be added at the schema level when a
// deployment wants store-enforced idempotency.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new instance of AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Insert stores a new attendance record and assigns the generated id.
func (r *AttendanceRepository) Insert(ctx context.Context, record *models.AttendanceRecord) error {
	const query = `INSERT INTO attendance_records (user_id, date, status, marked_at, marked_by)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		record.UserID, record.Date, record.Status, record.MarkedAt, record.MarkedBy,
	).Scan(&record.ID); err != nil {
		return fmt.Errorf("insert attendance record: %w", err)
	}
	return nil
}

// List returns attendance rows joined with target user metadata.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error) {
	baseQuery := `FROM attendance_records a JOIN users u ON u.id = a.user_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("a.user_id = $%d", len(args)+1))
		args = append(args, *filter.UserID)
	}
	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("u.role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != "" {
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", len(args)+1))
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", len(args)+1))
		args = append(args, filter.DateTo)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"date":      true,
		"marked_at": true,
		"status":    true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "date"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT a.id, a.user_id, a.date, a.status, a.marked_at, a.marked_by, u.full_name AS user_name, u.role AS user_role %s ORDER BY a.%s %s LIMIT %d OFFSET %d`,
		baseQuery, sortBy, sortOrder, pageSize, offset)
	var rows []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + baseQuery
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}

	return rows, total, nil
}

// Summary aggregates per-status counts for a user over a date range.
func (r *AttendanceRepository) Summary(ctx context.Context, userID int64, dateFrom, dateTo string) (*models.AttendanceSummary, error) {
	const query = `SELECT
		COUNT(*) FILTER (WHERE status = 'present') AS present,
		COUNT(*) FILTER (WHERE status = 'absent') AS absent,
		COUNT(*) FILTER (WHERE status = 'leave') AS leave
		FROM attendance_records WHERE user_id = $1 AND date >= $2 AND date <= $3`
	row := struct {
		Present int `db:"present"`
		Absent  int `db:"absent"`
		Leave   int `db:"leave"`
	}{}
	if err := r.db.GetContext(ctx, &row, query, userID, dateFrom, dateTo); err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}
	summary := &models.AttendanceSummary{
		UserID:  userID,
		Present: row.Present,
		Absent:  row.Absent,
		Leave:   row.Leave,
		Total:   row.Present + row.Absent + row.Leave,
	}
	if summary.Total > 0 {
		summary.Percent = float64(summary.Present) / float64(summary.Total) * 100
	}
	return summary, nil
}

// Report returns exportable rows for a date range, optionally scoped to a role.
func (r *AttendanceRepository) Report(ctx context.Context, dateFrom, dateTo string, role *models.UserRole) ([]models.AttendanceReportRow, error) {
	query := `SELECT a.user_id, u.full_name AS user_name, u.role AS user_role, a.date, a.status, a.marked_by
		FROM attendance_records a JOIN users u ON u.id = a.user_id
		WHERE a.date >= $1 AND a.date <= $2`
	args := []interface{}{dateFrom, dateTo}
	if role != nil {
		query += " AND u.role = $3"
		args = append(args, *role)
	}
	query += " ORDER BY a.date ASC, u.full_name ASC"

	var rows []models.AttendanceReportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("attendance report: %w", err)
	}
	return rows, nil
}

// CountsForDate aggregates marks per status across all users for one day.
func (r *AttendanceRepository) CountsForDate(ctx context.Context, date string) (*models.DashboardToday, error) {
	const query = `SELECT
		COUNT(*) FILTER (WHERE status = 'present') AS present,
		COUNT(*) FILTER (WHERE status = 'absent') AS absent,
		COUNT(*) FILTER (WHERE status = 'leave') AS leave
		FROM attendance_records WHERE date = $1`
	row := struct {
		Present int `db:"present"`
		Absent  int `db:"absent"`
		Leave   int `db:"leave"`
	}{}
	if err := r.db.GetContext(ctx, &row, query, date); err != nil {
		return nil, fmt.Errorf("attendance counts for date: %w", err)
	}
	return &models.DashboardToday{Date: date, Present: row.Present, Absent: row.Absent, Leave: row.Leave}, nil
}
