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

type scheduleRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Schedule, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	BulkInsert(ctx context.Context, schedules []models.Schedule) ([]models.Schedule, error)
	Update(ctx context.Context, schedule *models.Schedule) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	Overlapping(ctx context.Context, candidate models.Schedule) ([]models.Schedule, error)
}

// ScheduleService manages teaching slots. Conflict detection runs server-side
// before any write: a candidate collides when it shares a day with another
// slot, their time ranges intersect, and they compete for the same teacher or
// the same room.
type ScheduleService struct {
	repo      scheduleRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(repo scheduleRepository, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ScheduleService{repo: repo, validator: validate, logger: logger}
}

func scheduleFromInput(in models.ScheduleInput) models.Schedule {
	now := time.Now().UTC()
	return models.Schedule{
		ClassID:   in.ClassID,
		TeacherID: in.TeacherID,
		Subject:   in.Subject,
		DayOfWeek: in.DayOfWeek,
		StartMin:  in.StartMin,
		EndMin:    in.EndMin,
		Room:      in.Room,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func overlaps(a, b models.Schedule) bool {
	return a.DayOfWeek == b.DayOfWeek && a.StartMin < b.EndMin && b.StartMin < a.EndMin
}

func conflictDimension(a, b models.Schedule) (string, bool) {
	if !overlaps(a, b) {
		return "", false
	}
	if a.TeacherID == b.TeacherID {
		return "teacher", true
	}
	if a.Room == b.Room {
		return "room", true
	}
	return "", false
}

// checkStored compares the candidate against persisted slots.
func (s *ScheduleService) checkStored(ctx context.Context, candidate models.Schedule) ([]models.ScheduleConflict, error) {
	existing, err := s.repo.Overlapping(ctx, candidate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check schedule conflicts")
	}
	var conflicts []models.ScheduleConflict
	for i := range existing {
		if dim, ok := conflictDimension(candidate, existing[i]); ok {
			conflicts = append(conflicts, models.ScheduleConflict{
				Dimension: dim,
				Requested: candidate,
				Existing:  &existing[i],
			})
		}
	}
	return conflicts, nil
}

// Create validates and stores a single slot, rejecting conflicts.
func (s *ScheduleService) Create(ctx context.Context, req models.ScheduleInput) (*models.Schedule, []models.ScheduleConflict, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if req.EndMin <= req.StartMin {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}

	candidate := scheduleFromInput(req)
	conflicts, err := s.checkStored(ctx, candidate)
	if err != nil {
		return nil, nil, err
	}
	if len(conflicts) > 0 {
		return nil, conflicts, appErrors.Clone(appErrors.ErrScheduleOverlap, "")
	}

	if err := s.repo.Create(ctx, &candidate); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return &candidate, nil, nil
}

// BulkCreate validates and stores a batch in one transaction. The whole batch
// is rejected when any slot conflicts with the store or with another slot in
// the same request.
func (s *ScheduleService) BulkCreate(ctx context.Context, req models.BulkScheduleRequest) ([]models.Schedule, []models.ScheduleConflict, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	candidates := make([]models.Schedule, 0, len(req.Items))
	for _, item := range req.Items {
		if item.EndMin <= item.StartMin {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
		}
		candidates = append(candidates, scheduleFromInput(item))
	}

	var conflicts []models.ScheduleConflict

	// Pairwise check within the request itself.
	for i := range candidates {
		for j := i + 1; j < len(candidates); j++ {
			if dim, ok := conflictDimension(candidates[i], candidates[j]); ok {
				conflicts = append(conflicts, models.ScheduleConflict{
					Dimension: dim,
					Requested: candidates[i],
					Other:     &candidates[j],
				})
			}
		}
	}

	for _, candidate := range candidates {
		stored, err := s.checkStored(ctx, candidate)
		if err != nil {
			return nil, nil, err
		}
		conflicts = append(conflicts, stored...)
	}

	if len(conflicts) > 0 {
		return nil, conflicts, appErrors.Clone(appErrors.ErrScheduleOverlap, "")
	}

	created, err := s.repo.BulkInsert(ctx, candidates)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedules")
	}
	return created, nil, nil
}

// GetByID loads a slot.
func (s *ScheduleService) GetByID(ctx context.Context, id int64) (*models.Schedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

// Update replaces a slot's fields, re-running conflict detection against all
// other slots.
func (s *ScheduleService) Update(ctx context.Context, id int64, req models.ScheduleInput) (*models.Schedule, []models.ScheduleConflict, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if req.EndMin <= req.StartMin {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	candidate := scheduleFromInput(req)
	candidate.ID = existing.ID
	candidate.CreatedAt = existing.CreatedAt

	conflicts, err := s.checkStored(ctx, candidate)
	if err != nil {
		return nil, nil, err
	}
	if len(conflicts) > 0 {
		return nil, conflicts, appErrors.Clone(appErrors.ErrScheduleOverlap, "")
	}

	if err := s.repo.Update(ctx, &candidate); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	return &candidate, nil, nil
}

// Delete removes a slot.
func (s *ScheduleService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	return nil
}

// List returns slots matching the filter.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error) {
	schedules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return schedules, paginationFor(filter.Page, filter.PageSize, total), nil
}
