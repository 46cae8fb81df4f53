package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushq/staff-attend-api/internal/models"
	appErrors "github.com/campushq/staff-attend-api/pkg/errors"
)

type stubLeaveRepo struct {
	leaves map[int64]*models.LeaveRequest
	nextID int64
}

func newStubLeaveRepo() *stubLeaveRepo {
	return &stubLeaveRepo{leaves: map[int64]*models.LeaveRequest{}, nextID: 1}
}

func (s *stubLeaveRepo) FindByID(_ context.Context, id int64) (*models.LeaveRequest, error) {
	leave, ok := s.leaves[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return leave, nil
}

func (s *stubLeaveRepo) Create(_ context.Context, leave *models.LeaveRequest) error {
	leave.ID = s.nextID
	s.nextID++
	s.leaves[leave.ID] = leave
	return nil
}

func (s *stubLeaveRepo) Decide(_ context.Context, id int64, status models.LeaveStatus, decidedBy int64, decidedAt time.Time, rejectReason *string) error {
	leave, ok := s.leaves[id]
	if !ok || leave.Status != models.LeaveStatusPending {
		return sql.ErrNoRows
	}
	leave.Status = status
	leave.DecidedBy = &decidedBy
	leave.DecidedAt = &decidedAt
	leave.RejectReason = rejectReason
	return nil
}

func (s *stubLeaveRepo) List(_ context.Context, _ models.LeaveFilter) ([]models.LeaveRequest, int, error) {
	out := make([]models.LeaveRequest, 0, len(s.leaves))
	for _, leave := range s.leaves {
		out = append(out, *leave)
	}
	return out, len(out), nil
}

func TestSubmitLeaveRequest(t *testing.T) {
	repo := newStubLeaveRepo()
	svc := NewLeaveService(repo, nil, nil, zap.NewNop())

	leave, err := svc.Submit(context.Background(), 3, models.CreateLeaveRequestPayload{
		Type:     "sick",
		Reason:   "flu",
		DateFrom: "2025-12-08",
		DateTo:   "2025-12-09",
	})

	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusPending, leave.Status)
	assert.Equal(t, int64(3), leave.UserID)
}

func TestSubmitLeaveRejectsInvertedRange(t *testing.T) {
	svc := NewLeaveService(newStubLeaveRepo(), nil, nil, zap.NewNop())

	_, err := svc.Submit(context.Background(), 3, models.CreateLeaveRequestPayload{
		Type:     "sick",
		Reason:   "flu",
		DateFrom: "2025-12-09",
		DateTo:   "2025-12-08",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDecideApprovesPendingRequest(t *testing.T) {
	repo := newStubLeaveRepo()
	audit := &recordingAudit{}
	svc := NewLeaveService(repo, audit, nil, zap.NewNop())

	leave, err := svc.Submit(context.Background(), 3, models.CreateLeaveRequestPayload{
		Type: "annual", Reason: "vacation", DateFrom: "2025-12-20", DateTo: "2025-12-24",
	})
	require.NoError(t, err)

	decided, err := svc.Decide(context.Background(), 5, leave.ID, models.DecideLeaveRequestPayload{
		Status: models.LeaveStatusApproved,
	})

	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusApproved, decided.Status)
	require.NotNil(t, decided.DecidedBy)
	assert.Equal(t, int64(5), *decided.DecidedBy)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionLeaveDecide, audit.logs[0].Action)
}

func TestDecideTwiceReturnsConflict(t *testing.T) {
	repo := newStubLeaveRepo()
	svc := NewLeaveService(repo, nil, nil, zap.NewNop())

	leave, err := svc.Submit(context.Background(), 3, models.CreateLeaveRequestPayload{
		Type: "annual", Reason: "vacation", DateFrom: "2025-12-20", DateTo: "2025-12-24",
	})
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), 5, leave.ID, models.DecideLeaveRequestPayload{Status: models.LeaveStatusApproved})
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), 5, leave.ID, models.DecideLeaveRequestPayload{Status: models.LeaveStatusRejected, RejectReason: strPtr("late")})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestDecideRejectRequiresReason(t *testing.T) {
	repo := newStubLeaveRepo()
	svc := NewLeaveService(repo, nil, nil, zap.NewNop())

	leave, err := svc.Submit(context.Background(), 3, models.CreateLeaveRequestPayload{
		Type: "annual", Reason: "vacation", DateFrom: "2025-12-20", DateTo: "2025-12-24",
	})
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), 5, leave.ID, models.DecideLeaveRequestPayload{Status: models.LeaveStatusRejected})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func strPtr(s string) *string { return &s }

func TestLeaveWritesInvalidateDashboardSummary(t *testing.T) {
	repo := newStubLeaveRepo()
	svc := NewLeaveService(repo, nil, nil, zap.NewNop())
	inv := &stubSummaryInvalidator{}
	svc.SetSummaryInvalidator(inv)

	leave, err := svc.Submit(context.Background(), 3, models.CreateLeaveRequestPayload{
		Type:     "sick",
		Reason:   "flu",
		DateFrom: "2025-12-08",
		DateTo:   "2025-12-09",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inv.calls)

	_, err = svc.Decide(context.Background(), 5, leave.ID, models.DecideLeaveRequestPayload{
		Status: models.LeaveStatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inv.calls)
}
