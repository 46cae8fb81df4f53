package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushq/staff-attend-api/internal/models"
	appErrors "github.com/campushq/staff-attend-api/pkg/errors"
)

type stubScheduleRepo struct {
	stored  []models.Schedule
	created []models.Schedule
}

func (s *stubScheduleRepo) FindByID(_ context.Context, id int64) (*models.Schedule, error) {
	for i := range s.stored {
		if s.stored[i].ID == id {
			return &s.stored[i], nil
		}
	}
	return nil, assert.AnError
}

func (s *stubScheduleRepo) Create(_ context.Context, schedule *models.Schedule) error {
	schedule.ID = int64(len(s.created) + 1)
	s.created = append(s.created, *schedule)
	return nil
}

func (s *stubScheduleRepo) BulkInsert(_ context.Context, schedules []models.Schedule) ([]models.Schedule, error) {
	for i := range schedules {
		schedules[i].ID = int64(len(s.created) + 1)
		s.created = append(s.created, schedules[i])
	}
	return schedules, nil
}

func (s *stubScheduleRepo) Update(_ context.Context, _ *models.Schedule) error { return nil }
func (s *stubScheduleRepo) Delete(_ context.Context, _ int64) error            { return nil }

func (s *stubScheduleRepo) List(_ context.Context, _ models.ScheduleFilter) ([]models.Schedule, int, error) {
	return s.stored, len(s.stored), nil
}

func (s *stubScheduleRepo) Overlapping(_ context.Context, candidate models.Schedule) ([]models.Schedule, error) {
	var out []models.Schedule
	for _, existing := range s.stored {
		if existing.ID == candidate.ID {
			continue
		}
		if existing.DayOfWeek == candidate.DayOfWeek &&
			existing.StartMin < candidate.EndMin && candidate.StartMin < existing.EndMin &&
			(existing.TeacherID == candidate.TeacherID || existing.Room == candidate.Room) {
			out = append(out, existing)
		}
	}
	return out, nil
}

func validSlot() models.ScheduleInput {
	return models.ScheduleInput{
		ClassID:   1,
		TeacherID: 10,
		Subject:   "Algorithms",
		DayOfWeek: 1,
		StartMin:  8 * 60,
		EndMin:    9*60 + 30,
		Room:      "A-101",
	}
}

func TestCreateScheduleNoConflict(t *testing.T) {
	repo := &stubScheduleRepo{}
	svc := NewScheduleService(repo, nil, zap.NewNop())

	created, conflicts, err := svc.Create(context.Background(), validSlot())

	require.NoError(t, err)
	assert.Empty(t, conflicts)
	require.NotNil(t, created)
	assert.NotZero(t, created.ID)
}

func TestCreateScheduleTeacherConflict(t *testing.T) {
	repo := &stubScheduleRepo{stored: []models.Schedule{
		{ID: 5, ClassID: 2, TeacherID: 10, Subject: "Databases", DayOfWeek: 1, StartMin: 9 * 60, EndMin: 10 * 60, Room: "B-202"},
	}}
	svc := NewScheduleService(repo, nil, zap.NewNop())

	created, conflicts, err := svc.Create(context.Background(), validSlot())

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrScheduleOverlap.Code, appErr.Code)
	assert.Nil(t, created)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "teacher", conflicts[0].Dimension)
	assert.Empty(t, repo.created)
}

func TestCreateScheduleRoomConflict(t *testing.T) {
	repo := &stubScheduleRepo{stored: []models.Schedule{
		{ID: 5, ClassID: 2, TeacherID: 99, Subject: "Databases", DayOfWeek: 1, StartMin: 9 * 60, EndMin: 10 * 60, Room: "A-101"},
	}}
	svc := NewScheduleService(repo, nil, zap.NewNop())

	_, conflicts, err := svc.Create(context.Background(), validSlot())

	require.Error(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "room", conflicts[0].Dimension)
}

func TestCreateScheduleAdjacentSlotsDoNotConflict(t *testing.T) {
	repo := &stubScheduleRepo{stored: []models.Schedule{
		{ID: 5, ClassID: 2, TeacherID: 10, Subject: "Databases", DayOfWeek: 1, StartMin: 9*60 + 30, EndMin: 11 * 60, Room: "A-101"},
	}}
	svc := NewScheduleService(repo, nil, zap.NewNop())

	created, conflicts, err := svc.Create(context.Background(), validSlot())

	require.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.NotNil(t, created)
}

func TestBulkCreateRejectsIntraRequestConflict(t *testing.T) {
	repo := &stubScheduleRepo{}
	svc := NewScheduleService(repo, nil, zap.NewNop())

	first := validSlot()
	second := validSlot()
	second.ClassID = 2
	second.StartMin = 9 * 60
	second.EndMin = 10 * 60

	created, conflicts, err := svc.BulkCreate(context.Background(), models.BulkScheduleRequest{
		Items: []models.ScheduleInput{first, second},
	})

	require.Error(t, err)
	assert.Nil(t, created)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "teacher", conflicts[0].Dimension)
	assert.Empty(t, repo.created)
}

func TestBulkCreateStoresAllWhenDisjoint(t *testing.T) {
	repo := &stubScheduleRepo{}
	svc := NewScheduleService(repo, nil, zap.NewNop())

	first := validSlot()
	second := validSlot()
	second.DayOfWeek = 2

	created, conflicts, err := svc.BulkCreate(context.Background(), models.BulkScheduleRequest{
		Items: []models.ScheduleInput{first, second},
	})

	require.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.Len(t, created, 2)
	assert.Len(t, repo.created, 2)
}

func TestCreateScheduleRejectsInvertedTimes(t *testing.T) {
	svc := NewScheduleService(&stubScheduleRepo{}, nil, zap.NewNop())

	slot := validSlot()
	slot.StartMin = 10 * 60
	slot.EndMin = 9 * 60

	_, _, err := svc.Create(context.Background(), slot)

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
