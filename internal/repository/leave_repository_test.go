package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/staff-attend-api/internal/models"
)

func TestCreateLeaveRequest(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectQuery("INSERT INTO leave_requests").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(4)))

	now := time.Now()
	leave := &models.LeaveRequest{UserID: 3, Type: "sick", Reason: "flu", DateFrom: "2025-12-08", DateTo: "2025-12-09", Status: models.LeaveStatusPending, CreatedAt: now, UpdatedAt: now}
	err := repo.Create(context.Background(), leave)
	require.NoError(t, err)
	assert.Equal(t, int64(4), leave.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideLeaveRequest(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("status = 'pending'")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Decide(context.Background(), 4, models.LeaveStatusApproved, 5, time.Now(), nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideAlreadyDecidedLeaveRequest(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("status = 'pending'")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Decide(context.Background(), 4, models.LeaveStatusRejected, 5, time.Now(), nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountPendingLeaveRequests(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM leave_requests WHERE status = 'pending'")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.CountPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
