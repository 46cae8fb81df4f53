package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/staff-attend-api/internal/models"
	appErrors "github.com/campushq/staff-attend-api/pkg/errors"
)

type leaveRepository interface {
	FindByID(ctx context.Context, id int64) (*models.LeaveRequest, error)
	Create(ctx context.Context, leave *models.LeaveRequest) error
	Decide(ctx context.Context, id int64, status models.LeaveStatus, decidedBy int64, decidedAt time.Time, rejectReason *string) error
	List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, int, error)
}

// LeaveService manages leave requests and their approval flow.
type LeaveService struct {
	repo      leaveRepository
	audit     AuditWriter
	validator *validator.Validate
	summaries summaryInvalidator
	logger    *zap.Logger
}

// SetSummaryInvalidator registers the dashboard cache hook fired when the
// pending count changes.
func (s *LeaveService) SetSummaryInvalidator(inv summaryInvalidator) {
	s.summaries = inv
}

// NewLeaveService constructs a LeaveService.
func NewLeaveService(repo leaveRepository, audit AuditWriter, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LeaveService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// Submit files a new pending leave request for the caller.
func (s *LeaveService) Submit(ctx context.Context, userID int64, req models.CreateLeaveRequestPayload) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}
	if req.DateTo < req.DateFrom {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date_to must not be before date_from")
	}

	now := time.Now().UTC()
	leave := &models.LeaveRequest{
		UserID:    userID,
		Type:      req.Type,
		Reason:    req.Reason,
		DateFrom:  req.DateFrom,
		DateTo:    req.DateTo,
		Status:    models.LeaveStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, leave); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create leave request")
	}
	if s.summaries != nil {
		s.summaries.Invalidate(ctx)
	}
	return leave, nil
}

// GetByID loads a leave request. Non-privileged callers may only read their
// own requests; that check lives in the handler layer.
func (s *LeaveService) GetByID(ctx context.Context, id int64) (*models.LeaveRequest, error) {
	leave, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave request")
	}
	return leave, nil
}

// Decide approves or rejects a pending request. Only a pending request can be
// decided; a second decision returns a conflict.
func (s *LeaveService) Decide(ctx context.Context, deciderID, id int64, req models.DecideLeaveRequestPayload) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}
	if req.Status != models.LeaveStatusApproved && req.Status != models.LeaveStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be approved or rejected")
	}
	if req.Status == models.LeaveStatusRejected && (req.RejectReason == nil || *req.RejectReason == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reject_reason is required when rejecting")
	}

	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	decidedAt := time.Now().UTC()
	if err := s.repo.Decide(ctx, id, req.Status, deciderID, decidedAt, req.RejectReason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "leave request already decided")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decide leave request")
	}

	leave, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.summaries != nil {
		s.summaries.Invalidate(ctx)
	}
	if s.audit != nil {
		payload, mErr := json.Marshal(leave)
		if mErr != nil {
			s.logger.Warn("failed to marshal leave audit payload", zap.Error(mErr))
		}
		s.audit.Write(ctx, &models.AuditLog{
			UserID:     &deciderID,
			Action:     models.AuditActionLeaveDecide,
			Resource:   "leave_requests",
			ResourceID: &id,
			NewValues:  payload,
		})
	}

	return leave, nil
}

// List returns leave requests matching the filter.
func (s *LeaveService) List(ctx context.Context, filter models.LeaveFilter) ([]models.LeaveRequest, *models.Pagination, error) {
	leaves, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave requests")
	}
	return leaves, paginationFor(filter.Page, filter.PageSize, total), nil
}
