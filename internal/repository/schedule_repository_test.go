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

func scheduleRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "class_id", "teacher_id", "subject", "day_of_week", "start_min", "end_min", "room", "created_at", "updated_at"}).
		AddRow(int64(1), int64(2), int64(3), "Algorithms", 1, 540, 630, "B201", now, now)
}

func TestCreateSchedule(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery("INSERT INTO schedules").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	now := time.Now()
	schedule := &models.Schedule{ClassID: 2, TeacherID: 3, Subject: "Algorithms", DayOfWeek: 1, StartMin: 540, EndMin: 630, Room: "B201", CreatedAt: now, UpdatedAt: now}
	err := repo.Create(context.Background(), schedule)
	require.NoError(t, err)
	assert.Equal(t, int64(5), schedule.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertSchedulesIsTransactional(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO schedules").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery("INSERT INTO schedules").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectCommit()

	now := time.Now()
	inserted, err := repo.BulkInsert(context.Background(), []models.Schedule{
		{ClassID: 2, TeacherID: 3, Subject: "Algorithms", DayOfWeek: 1, StartMin: 540, EndMin: 630, Room: "B201", CreatedAt: now, UpdatedAt: now},
		{ClassID: 2, TeacherID: 4, Subject: "Databases", DayOfWeek: 1, StartMin: 630, EndMin: 720, Room: "B202", CreatedAt: now, UpdatedAt: now},
	})
	require.NoError(t, err)
	require.Len(t, inserted, 2)
	assert.Equal(t, int64(1), inserted[0].ID)
	assert.Equal(t, int64(2), inserted[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverlappingSchedules(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("day_of_week = $1 AND start_min < $2 AND end_min > $3")).
		WithArgs(1, 600, 540, int64(3), "B201").
		WillReturnRows(scheduleRows(time.Now()))

	candidate := models.Schedule{TeacherID: 3, DayOfWeek: 1, StartMin: 540, EndMin: 600, Room: "B201"}
	overlaps, err := repo.Overlapping(context.Background(), candidate)
	require.NoError(t, err)
	require.Len(t, overlaps, 1)
	assert.Equal(t, int64(3), overlaps[0].TeacherID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
