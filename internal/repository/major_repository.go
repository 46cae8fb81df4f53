package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/campushq/staff-attend-api/internal/models"
)

// MajorRepository provides database access for majors.
type MajorRepository struct {
	db *sqlx.DB
}

// NewMajorRepository creates a new instance of MajorRepository.
func NewMajorRepository(db *sqlx.DB) *MajorRepository {
	return &MajorRepository{db: db}
}

// FindByID returns a major by identifier.
func (r *MajorRepository) FindByID(ctx context.Context, id int64) (*models.Major, error) {
	const query = `SELECT id, department_id, name, code, created_at, updated_at FROM majors WHERE id = $1 LIMIT 1`
	var major models.Major
	if err := r.db.GetContext(ctx, &major, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find major by id: %w", err)
	}
	return &major, nil
}

// Create inserts a major and assigns the generated id.
func (r *MajorRepository) Create(ctx context.Context, major *models.Major) error {
	const query = `INSERT INTO majors (department_id, name, code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		major.DepartmentID, major.Name, major.Code, major.CreatedAt, major.UpdatedAt,
	).Scan(&major.ID); err != nil {
		return fmt.Errorf("create major: %w", err)
	}
	return nil
}

// Update persists mutable major fields.
func (r *MajorRepository) Update(ctx context.Context, major *models.Major) error {
	const query = `UPDATE majors SET department_id = $2, name = $3, code = $4, updated_at = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, major.ID, major.DepartmentID, major.Name, major.Code, major.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update major: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a major.
func (r *MajorRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM majors WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete major: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns majors matching the filter with a total count.
func (r *MajorRepository) List(ctx context.Context, filter models.MajorFilter) ([]models.Major, int, error) {
	baseQuery := `FROM majors WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != nil {
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)+1))
		args = append(args, *filter.DepartmentID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(code) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "code": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "name"
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

	listQuery := fmt.Sprintf("SELECT id, department_id, name, code, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d",
		baseQuery, sortBy, sortOrder, pageSize, offset)
	var majors []models.Major
	if err := r.db.SelectContext(ctx, &majors, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list majors: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + baseQuery
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count majors: %w", err)
	}

	return majors, total, nil
}
