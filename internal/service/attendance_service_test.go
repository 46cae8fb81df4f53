package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushq/staff-attend-api/internal/models"
	"github.com/campushq/staff-attend-api/internal/policy"
)

type stubAttendanceRepo struct {
	inserted  []*models.AttendanceRecord
	insertErr error
	rows      []models.AttendanceDetail
	summary   *models.AttendanceSummary
	report    []models.AttendanceReportRow
}

func (s *stubAttendanceRepo) Insert(_ context.Context, record *models.AttendanceRecord) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	record.ID = int64(len(s.inserted) + 1)
	s.inserted = append(s.inserted, record)
	return nil
}

func (s *stubAttendanceRepo) List(_ context.Context, _ models.AttendanceFilter) ([]models.AttendanceDetail, int, error) {
	return s.rows, len(s.rows), nil
}

func (s *stubAttendanceRepo) Summary(_ context.Context, _ int64, _, _ string) (*models.AttendanceSummary, error) {
	return s.summary, nil
}

func (s *stubAttendanceRepo) Report(_ context.Context, _, _ string, _ *models.UserRole) ([]models.AttendanceReportRow, error) {
	return s.report, nil
}

type stubDirectory struct {
	users map[int64]*models.User
	err   error
}

func (s *stubDirectory) GetUser(_ context.Context, id int64) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.users[id], nil
}

type recordingAudit struct {
	logs []*models.AuditLog
}

func (r *recordingAudit) Write(_ context.Context, log *models.AuditLog) {
	r.logs = append(r.logs, log)
}

func newAttendanceService(repo *stubAttendanceRepo, dir *stubDirectory, audit AuditWriter) *AttendanceService {
	markedAt := time.Date(2025, 12, 6, 8, 30, 0, 0, time.UTC)
	p := policy.NewMarkingPolicy(dir, policy.WithClock(func() time.Time { return markedAt }))
	return NewAttendanceService(repo, p, audit, nil, zap.NewNop())
}

func TestMarkAllowedPersistsRecord(t *testing.T) {
	repo := &stubAttendanceRepo{}
	dir := &stubDirectory{users: map[int64]*models.User{
		3: {ID: 3, Role: models.RoleTeacher, FullName: "Teacher"},
	}}
	audit := &recordingAudit{}
	svc := newAttendanceService(repo, dir, audit)

	record, decision, err := svc.Mark(context.Background(), 1, models.RoleMazer, models.MarkAttendanceRequest{
		TargetUserID: 3,
		Date:         "2025-12-06",
		Status:       "present",
	})

	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	require.NotNil(t, record)
	assert.Equal(t, int64(3), record.UserID)
	assert.Equal(t, int64(1), record.MarkedBy)
	assert.Equal(t, time.Date(2025, 12, 6, 8, 30, 0, 0, time.UTC), record.MarkedAt)
	require.Len(t, repo.inserted, 1)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionAttendanceMark, audit.logs[0].Action)
}

func TestMarkDeniedDoesNotPersist(t *testing.T) {
	repo := &stubAttendanceRepo{}
	dir := &stubDirectory{users: map[int64]*models.User{
		4: {ID: 4, Role: models.RoleStaff},
	}}
	svc := newAttendanceService(repo, dir, &recordingAudit{})

	record, decision, err := svc.Mark(context.Background(), 1, models.RoleMazer, models.MarkAttendanceRequest{
		TargetUserID: 4,
		Date:         "2025-12-06",
		Status:       "present",
	})

	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, policy.MsgMazerTargets, decision.Message)
	assert.Nil(t, record)
	assert.Empty(t, repo.inserted)
}

func TestMarkStorageFailureSurfacesError(t *testing.T) {
	repo := &stubAttendanceRepo{insertErr: errors.New("disk full")}
	dir := &stubDirectory{users: map[int64]*models.User{
		3: {ID: 3, Role: models.RoleTeacher},
	}}
	svc := newAttendanceService(repo, dir, &recordingAudit{})

	record, decision, err := svc.Mark(context.Background(), 1, models.RoleMazer, models.MarkAttendanceRequest{
		TargetUserID: 3,
		Date:         "2025-12-06",
		Status:       "present",
	})

	require.Error(t, err)
	assert.True(t, decision.Allowed)
	assert.Nil(t, record)
}

func TestMarkDirectoryFailureSurfacesError(t *testing.T) {
	repo := &stubAttendanceRepo{}
	dir := &stubDirectory{err: errors.New("connection refused")}
	svc := newAttendanceService(repo, dir, &recordingAudit{})

	_, _, err := svc.Mark(context.Background(), 1, models.RoleMazer, models.MarkAttendanceRequest{
		TargetUserID: 3,
		Date:         "2025-12-06",
		Status:       "present",
	})

	require.Error(t, err)
	assert.Empty(t, repo.inserted)
}

func TestExportCSVRendersReportRows(t *testing.T) {
	repo := &stubAttendanceRepo{report: []models.AttendanceReportRow{
		{UserID: 3, UserName: "Teacher", UserRole: models.RoleTeacher, Date: "2025-12-06", Status: models.AttendanceStatusPresent, MarkedBy: 1},
	}}
	svc := newAttendanceService(repo, &stubDirectory{}, nil)

	data, filename, err := svc.ExportCSV(context.Background(), "2025-12-01", "2025-12-31", nil)

	require.NoError(t, err)
	assert.Contains(t, string(data), "Teacher")
	assert.Contains(t, filename, ".csv")
}

type stubSummaryInvalidator struct {
	calls int
}

func (s *stubSummaryInvalidator) Invalidate(_ context.Context) {
	s.calls++
}

func TestMarkInvalidatesDashboardSummary(t *testing.T) {
	repo := &stubAttendanceRepo{}
	dir := &stubDirectory{users: map[int64]*models.User{
		3: {ID: 3, Role: models.RoleTeacher},
	}}
	svc := newAttendanceService(repo, dir, nil)
	inv := &stubSummaryInvalidator{}
	svc.SetSummaryInvalidator(inv)

	_, decision, err := svc.Mark(context.Background(), 1, models.RoleMazer, models.MarkAttendanceRequest{
		TargetUserID: 3,
		Date:         "2025-12-06",
		Status:       "present",
	})

	require.NoError(t, err)
	require.True(t, decision.Allowed)
	assert.Equal(t, 1, inv.calls)
}

func TestMarkDeniedKeepsDashboardSummary(t *testing.T) {
	repo := &stubAttendanceRepo{}
	dir := &stubDirectory{users: map[int64]*models.User{
		4: {ID: 4, Role: models.RoleStaff},
	}}
	svc := newAttendanceService(repo, dir, nil)
	inv := &stubSummaryInvalidator{}
	svc.SetSummaryInvalidator(inv)

	_, decision, err := svc.Mark(context.Background(), 1, models.RoleMazer, models.MarkAttendanceRequest{
		TargetUserID: 4,
		Date:         "2025-12-06",
		Status:       "present",
	})

	require.NoError(t, err)
	require.False(t, decision.Allowed)
	assert.Zero(t, inv.calls)
}
