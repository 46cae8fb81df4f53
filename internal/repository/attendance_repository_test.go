package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/staff-attend-api/internal/models"
)

func TestInsertAttendance(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("INSERT INTO attendance_records").
		WithArgs(int64(3), "2025-12-06", string(models.AttendanceStatusPresent), sqlmock.AnyArg(), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))

	record := &models.AttendanceRecord{
		UserID:   3,
		Date:     "2025-12-06",
		Status:   models.AttendanceStatusPresent,
		MarkedAt: time.Now().UTC(),
		MarkedBy: 1,
	}
	err := repo.Insert(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, int64(10), record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertAttendanceAllowsRepeatedDates(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	// Two inserts for the same (user, date) both succeed: the repository does
	// not dedup, matching the marking policy's documented contract.
	mock.ExpectQuery("INSERT INTO attendance_records").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	mock.ExpectQuery("INSERT INTO attendance_records").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	first := &models.AttendanceRecord{UserID: 3, Date: "2025-12-06", Status: models.AttendanceStatusPresent, MarkedAt: time.Now(), MarkedBy: 1}
	second := &models.AttendanceRecord{UserID: 3, Date: "2025-12-06", Status: models.AttendanceStatusPresent, MarkedAt: time.Now(), MarkedBy: 1}
	require.NoError(t, repo.Insert(context.Background(), first))
	require.NoError(t, repo.Insert(context.Background(), second))
	assert.NotEqual(t, first.ID, second.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAttendance(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "date", "status", "marked_at", "marked_by", "user_name", "user_role"}).
		AddRow(int64(10), int64(3), "2025-12-06", string(models.AttendanceStatusPresent), now, int64(1), "Teacher A", string(models.RoleTeacher))
	mock.ExpectQuery("SELECT a.id, a.user_id, a.date, a.status, a.marked_at, a.marked_by").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM attendance_records a JOIN users u ON u.id = a.user_id WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.List(context.Background(), models.AttendanceFilter{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.RoleTeacher, records[0].UserRole)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceSummary(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"present", "absent", "leave"}).AddRow(18, 1, 2)
	mock.ExpectQuery("SELECT").WithArgs(int64(3), "2025-12-01", "2025-12-31").WillReturnRows(rows)

	summary, err := repo.Summary(context.Background(), 3, "2025-12-01", "2025-12-31")
	require.NoError(t, err)
	assert.Equal(t, 21, summary.Total)
	assert.InDelta(t, 85.71, summary.Percent, 0.01)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountsForDate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"present", "absent", "leave"}).AddRow(40, 3, 5)
	mock.ExpectQuery("SELECT").WithArgs("2025-12-06").WillReturnRows(rows)

	counts, err := repo.CountsForDate(context.Background(), "2025-12-06")
	require.NoError(t, err)
	assert.Equal(t, 40, counts.Present)
	assert.Equal(t, "2025-12-06", counts.Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}
