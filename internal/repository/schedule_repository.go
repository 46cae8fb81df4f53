package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/campushq/staff-attend-api/internal/models"
)

// ScheduleRepository provides database access for teaching schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new instance of ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = `id, class_id, teacher_id, subject, day_of_week, start_min, end_min, room, created_at, updated_at`

// FindByID returns a schedule by identifier.
func (r *ScheduleRepository) FindByID(ctx context.Context, id int64) (*models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1 LIMIT 1`
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find schedule by id: %w", err)
	}
	return &schedule, nil
}

// Create inserts a schedule and assigns the generated id.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	const query = `INSERT INTO schedules (class_id, teacher_id, subject, day_of_week, start_min, end_min, room, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		schedule.ClassID, schedule.TeacherID, schedule.Subject, schedule.DayOfWeek,
		schedule.StartMin, schedule.EndMin, schedule.Room, schedule.CreatedAt, schedule.UpdatedAt,
	).Scan(&schedule.ID); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// BulkInsert stores all schedules inside a single transaction. Either every
// row is written or none is; conflict detection happens in the service before
// this is called.
func (r *ScheduleRepository) BulkInsert(ctx context.Context, schedules []models.Schedule) ([]models.Schedule, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO schedules (class_id, teacher_id, subject, day_of_week, start_min, end_min, room, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	inserted := make([]models.Schedule, 0, len(schedules))
	for _, schedule := range schedules {
		if err := tx.QueryRowContext(ctx, query,
			schedule.ClassID, schedule.TeacherID, schedule.Subject, schedule.DayOfWeek,
			schedule.StartMin, schedule.EndMin, schedule.Room, schedule.CreatedAt, schedule.UpdatedAt,
		).Scan(&schedule.ID); err != nil {
			return nil, fmt.Errorf("bulk insert schedule: %w", err)
		}
		inserted = append(inserted, schedule)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk insert: %w", err)
	}
	return inserted, nil
}

// Update persists mutable schedule fields.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.Schedule) error {
	const query = `UPDATE schedules SET class_id = $2, teacher_id = $3, subject = $4, day_of_week = $5, start_min = $6, end_min = $7, room = $8, updated_at = $9 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		schedule.ID, schedule.ClassID, schedule.TeacherID, schedule.Subject, schedule.DayOfWeek,
		schedule.StartMin, schedule.EndMin, schedule.Room, schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a schedule.
func (r *ScheduleRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM schedules WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns schedules matching the filter with a total count.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	baseQuery := `FROM schedules WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.ClassID != nil {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, *filter.ClassID)
	}
	if filter.TeacherID != nil {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, *filter.TeacherID)
	}
	if filter.DayOfWeek != nil {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, *filter.DayOfWeek)
	}
	if filter.Room != "" {
		conditions = append(conditions, fmt.Sprintf("room = $%d", len(args)+1))
		args = append(args, filter.Room)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"day_of_week": true, "start_min": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "day_of_week"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "ASC"
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, start_min ASC LIMIT %d OFFSET %d",
		scheduleColumns, baseQuery, sortBy, sortOrder, pageSize, offset)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + baseQuery
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	return schedules, total, nil
}

// Overlapping returns stored schedules that collide with the candidate slot on
// the teacher or room dimension. Two slots collide when they share a day and
// their [start, end) ranges intersect.
func (r *ScheduleRepository) Overlapping(ctx context.Context, candidate models.Schedule) ([]models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules
		WHERE day_of_week = $1 AND start_min < $2 AND end_min > $3
		AND (teacher_id = $4 OR room = $5)`
	args := []interface{}{candidate.DayOfWeek, candidate.EndMin, candidate.StartMin, candidate.TeacherID, candidate.Room}
	if candidate.ID != 0 {
		query += " AND id <> $6"
		args = append(args, candidate.ID)
	}

	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("find overlapping schedules: %w", err)
	}
	return schedules, nil
}
