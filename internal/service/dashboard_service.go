package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/staff-attend-api/internal/models"
	appErrors "github.com/campushq/staff-attend-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:summary"

type headcountRepository interface {
	CountByRole(ctx context.Context) (map[models.UserRole]int, error)
}

type attendanceCountsRepository interface {
	CountsForDate(ctx context.Context, date string) (*models.DashboardToday, error)
}

type pendingLeaveRepository interface {
	CountPending(ctx context.Context) (int, error)
}

// DashboardService aggregates headcount, today's attendance and pending
// leave counts. Results are cached in redis for a short TTL since the
// queries hit three tables.
type DashboardService struct {
	users      headcountRepository
	attendance attendanceCountsRepository
	leaves     pendingLeaveRepository
	cache      *CacheService
	logger     *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(users headcountRepository, attendance attendanceCountsRepository, leaves pendingLeaveRepository, cache *CacheService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		users:      users,
		attendance: attendance,
		leaves:     leaves,
		cache:      cache,
		logger:     logger,
	}
}

// Summary returns the dashboard payload, served from cache when warm.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	var cached models.DashboardSummary
	if s.cache.Get(ctx, dashboardCacheKey, &cached) {
		return &cached, nil
	}

	headcount, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count users")
	}

	today := time.Now().UTC().Format("2006-01-02")
	counts, err := s.attendance.CountsForDate(ctx, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
	}
	counts.Date = today

	pending, err := s.leaves.CountPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending leaves")
	}

	summary := &models.DashboardSummary{
		HeadcountByRole: headcount,
		Today:           *counts,
		PendingLeaves:   pending,
	}

	s.cache.Set(ctx, dashboardCacheKey, summary, 0)
	return summary, nil
}

// summaryInvalidator is the slice of DashboardService the write paths need
// to drop the cached summary after a change.
type summaryInvalidator interface {
	Invalidate(ctx context.Context)
}

// Invalidate drops the cached summary, called after writes that change it.
func (s *DashboardService) Invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, dashboardCacheKey)
}
