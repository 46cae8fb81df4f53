package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/staff-attend-api/internal/models"
	appErrors "github.com/campushq/staff-attend-api/pkg/errors"
)

type departmentRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Department, error)
	Create(ctx context.Context, dept *models.Department) error
	Update(ctx context.Context, dept *models.Department) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error)
}

type majorRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Major, error)
	Create(ctx context.Context, major *models.Major) error
	Update(ctx context.Context, major *models.Major) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter models.MajorFilter) ([]models.Major, int, error)
}

// DepartmentService manages departments and their majors.
type DepartmentService struct {
	departments departmentRepository
	majors      majorRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewDepartmentService constructs a DepartmentService.
func NewDepartmentService(departments departmentRepository, majors majorRepository, validate *validator.Validate, logger *zap.Logger) *DepartmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DepartmentService{departments: departments, majors: majors, validator: validate, logger: logger}
}

// CreateDepartment stores a new department.
func (s *DepartmentService) CreateDepartment(ctx context.Context, req models.CreateDepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}
	now := time.Now().UTC()
	dept := &models.Department{
		Name:       req.Name,
		Code:       req.Code,
		HeadUserID: req.HeadUserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department")
	}
	return dept, nil
}

// GetDepartment loads a department by id.
func (s *DepartmentService) GetDepartment(ctx context.Context, id int64) (*models.Department, error) {
	dept, err := s.departments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	return dept, nil
}

// UpdateDepartment applies partial changes to a department.
func (s *DepartmentService) UpdateDepartment(ctx context.Context, id int64, req models.UpdateDepartmentRequest) (*models.Department, error) {
	dept, err := s.GetDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		dept.Name = *req.Name
	}
	if req.Code != nil {
		dept.Code = *req.Code
	}
	if req.HeadUserID != nil {
		dept.HeadUserID = req.HeadUserID
	}
	dept.UpdatedAt = time.Now().UTC()
	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update department")
	}
	return dept, nil
}

// DeleteDepartment removes a department.
func (s *DepartmentService) DeleteDepartment(ctx context.Context, id int64) error {
	if err := s.departments.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete department")
	}
	return nil
}

// ListDepartments returns departments matching the filter.
func (s *DepartmentService) ListDepartments(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, *models.Pagination, error) {
	depts, total, err := s.departments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return depts, paginationFor(filter.Page, filter.PageSize, total), nil
}

// CreateMajor stores a new major under an existing department.
func (s *DepartmentService) CreateMajor(ctx context.Context, req models.CreateMajorRequest) (*models.Major, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid major payload")
	}
	if _, err := s.GetDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	major := &models.Major{
		DepartmentID: req.DepartmentID,
		Name:         req.Name,
		Code:         req.Code,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.majors.Create(ctx, major); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create major")
	}
	return major, nil
}

// GetMajor loads a major by id.
func (s *DepartmentService) GetMajor(ctx context.Context, id int64) (*models.Major, error) {
	major, err := s.majors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "major not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load major")
	}
	return major, nil
}

// UpdateMajor applies partial changes to a major.
func (s *DepartmentService) UpdateMajor(ctx context.Context, id int64, req models.UpdateMajorRequest) (*models.Major, error) {
	major, err := s.GetMajor(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		major.Name = *req.Name
	}
	if req.Code != nil {
		major.Code = *req.Code
	}
	major.UpdatedAt = time.Now().UTC()
	if err := s.majors.Update(ctx, major); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update major")
	}
	return major, nil
}

// DeleteMajor removes a major.
func (s *DepartmentService) DeleteMajor(ctx context.Context, id int64) error {
	if err := s.majors.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "major not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete major")
	}
	return nil
}

// ListMajors returns majors matching the filter.
func (s *DepartmentService) ListMajors(ctx context.Context, filter models.MajorFilter) ([]models.Major, *models.Pagination, error) {
	majors, total, err := s.majors.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list majors")
	}
	return majors, paginationFor(filter.Page, filter.PageSize, total), nil
}

func paginationFor(page, pageSize, total int) *models.Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
