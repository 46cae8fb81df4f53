package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campushq/staff-attend-api/internal/models"
)

// LeaveRepository provides database access for leave requests.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository creates a new instance of LeaveRepository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

const leaveColumns = `id, user_id, type, reason, date_from, date_to, status, decided_by, decided_at, reject_reason, created_at, updated_at`

// FindByID returns a leave request by identifier.
func (r *LeaveRepository) FindByID(ctx context.Context, id int64) (*models.LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE id = $1 LIMIT 1`
	var leave models.LeaveRequest
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find leave request by id: %w", err)
	}
	return &leave, nil
}

// Create inserts a leave request and assigns the generated id.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.LeaveRequest) error {
	const query = `INSERT INTO leave_requests (user_id, type, reason, date_from, date_to, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		leave.UserID, leave.Type, leave.Reason, leave.DateFrom, leave.DateTo, leave.Status, leave.CreatedAt, leave.UpdatedAt,
	).Scan(&leave.ID); err != nil {
		return fmt.Errorf("create leave request: %w", err)
	}
	return nil
}

// Decide finalises a pending request. The WHERE clause guards against double
// decisions: deciding an already-decided request affects zero rows.
func (r *LeaveRepository) Decide(ctx context.Context, id int64, status models.LeaveStatus, decidedBy int64, decidedAt time.Time, rejectReason *string) error {
	const query = `UPDATE leave_requests SET status = $2, decided_by = $3, decided_at = $4, reject_reason = $5, updated_at = $4
		WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, status, decidedBy, decidedAt, rejectReason)
	if err != nil {
		return fmt.Errorf("decide leave request: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns leave requests matching the filter with a total count.
func (r *LeaveRepository) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, int, error) {
	baseQuery := `FROM leave_requests WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, *filter.UserID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != "" {
		conditions = append(conditions, fmt.Sprintf("date_to >= $%d", len(args)+1))
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		conditions = append(conditions, fmt.Sprintf("date_from <= $%d", len(args)+1))
		args = append(args, filter.DateTo)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"created_at": true, "date_from": true, "status": true}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d",
		leaveColumns, baseQuery, sortBy, sortOrder, pageSize, offset)
	var leaves []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &leaves, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list leave requests: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + baseQuery
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count leave requests: %w", err)
	}

	return leaves, total, nil
}

// CountPending returns the number of undecided requests.
func (r *LeaveRepository) CountPending(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM leave_requests WHERE status = 'pending'`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count pending leave requests: %w", err)
	}
	return total, nil
}
