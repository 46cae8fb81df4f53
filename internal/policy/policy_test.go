package policy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/staff-attend-api/internal/models"
)

type mockDirectory struct {
	users map[int64]*models.User
	err   error
}

func (m *mockDirectory) GetUser(ctx context.Context, id int64) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, nil
}

func fixedClock() func() time.Time {
	ts := time.Date(2025, 12, 6, 8, 30, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func testDirectory() *mockDirectory {
	return &mockDirectory{users: map[int64]*models.User{
		1: {ID: 1, Role: models.RoleMazer, Active: true},
		2: {ID: 2, Role: models.RoleAssistant, Active: true},
		3: {ID: 3, Role: models.RoleTeacher, Active: true},
		4: {ID: 4, Role: models.RoleStaff, Active: true},
		5: {ID: 5, Role: models.RoleHead, Active: true},
		6: {ID: 6, Role: models.RoleAdmin, Active: true},
	}}
}

func TestMazerMarksTeacher(t *testing.T) {
	p := NewMarkingPolicy(testDirectory(), WithClock(fixedClock()))

	decision, err := p.Evaluate(context.Background(), Request{
		CallerID:     1,
		CallerRole:   models.RoleMazer,
		TargetUserID: 3,
		Date:         "2025-12-06",
		Status:       "present",
	})
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	assert.Equal(t, int64(1), decision.Audit.MarkedBy)
	assert.Equal(t, fixedClock()(), decision.Audit.MarkedAt)
}

func TestAssistantMarksStaff(t *testing.T) {
	p := NewMarkingPolicy(testDirectory(), WithClock(fixedClock()))

	decision, err := p.Evaluate(context.Background(), Request{
		CallerID:     2,
		CallerRole:   models.RoleAssistant,
		TargetUserID: 4,
		Date:         "2025-12-06",
		Status:       "present",
	})
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	assert.Equal(t, int64(2), decision.Audit.MarkedBy)
}

func TestMazerCannotMarkStaff(t *testing.T) {
	p := NewMarkingPolicy(testDirectory())

	decision, err := p.Evaluate(context.Background(), Request{
		CallerID:     1,
		CallerRole:   models.RoleMazer,
		TargetUserID: 4,
		Date:         "2025-12-06",
		Status:       "present",
	})
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	assert.Equal(t, DenyRoleNotPermitted, decision.Kind)
	assert.Equal(t, "Mazer can only mark teachers' attendance", decision.Message)
}

func TestAssistantCannotMarkTeacher(t *testing.T) {
	p := NewMarkingPolicy(testDirectory())

	decision, err := p.Evaluate(context.Background(), Request{
		CallerID:     2,
		CallerRole:   models.RoleAssistant,
		TargetUserID: 3,
		Date:         "2025-12-06",
		Status:       "present",
	})
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	assert.Equal(t, DenyRoleNotPermitted, decision.Kind)
	assert.Equal(t, "Assistant can only mark staff attendance", decision.Message)
}

func TestNonMarkerRolesDenied(t *testing.T) {
	p := NewMarkingPolicy(testDirectory())

	for _, role := range []models.UserRole{models.RoleTeacher, models.RoleStaff, models.RoleHead, models.RoleAdmin} {
		decision, err := p.Evaluate(context.Background(), Request{
			CallerID:     5,
			CallerRole:   role,
			TargetUserID: 3,
			Date:         "2025-12-06",
			Status:       "present",
		})
		require.NoError(t, err)
		require.False(t, decision.Allowed, "role %s", role)
		assert.Equal(t, DenyRoleNotPermitted, decision.Kind)
		assert.Equal(t, "Only Mazer or Assistant can mark attendance", decision.Message)
	}
}

func TestSelfMarkingDeniedAsRoleNotPermitted(t *testing.T) {
	p := NewMarkingPolicy(testDirectory())

	// A mazer targeting another mazer (or itself) fails the pair rule, not a
	// dedicated self-marking check.
	decision, err := p.Evaluate(context.Background(), Request{
		CallerID:     1,
		CallerRole:   models.RoleMazer,
		TargetUserID: 1,
		Date:         "2025-12-06",
		Status:       "present",
	})
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	assert.Equal(t, DenyRoleNotPermitted, decision.Kind)
	assert.Equal(t, "Mazer can only mark teachers' attendance", decision.Message)
}

func TestTargetNotFound(t *testing.T) {
	p := NewMarkingPolicy(testDirectory())

	decision, err := p.Evaluate(context.Background(), Request{
		CallerID:     1,
		CallerRole:   models.RoleMazer,
		TargetUserID: 999,
		Date:         "2025-12-06",
		Status:       "present",
	})
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	assert.Equal(t, DenyTargetNotFound, decision.Kind)
	assert.Equal(t, "User not found", decision.Message)
}

func TestMissingFields(t *testing.T) {
	p := NewMarkingPolicy(testDirectory())

	cases := []Request{
		{},
		{CallerID: 1, CallerRole: models.RoleMazer},
		{CallerID: 1, CallerRole: models.RoleMazer, TargetUserID: 3, Status: "present"},
		{CallerID: 1, CallerRole: models.RoleMazer, TargetUserID: 3, Date: "2025-12-06"},
	}
	for i, req := range cases {
		decision, err := p.Evaluate(context.Background(), req)
		require.NoError(t, err)
		require.False(t, decision.Allowed, "case %d", i)
		assert.Equal(t, DenyMissingFields, decision.Kind)
		assert.Equal(t, "Missing required fields", decision.Message)
	}
}

func TestZeroTargetIsMissingFieldNotLookupFailure(t *testing.T) {
	dir := testDirectory()
	p := NewMarkingPolicy(dir)

	decision, err := p.Evaluate(context.Background(), Request{
		CallerID:     1,
		CallerRole:   models.RoleMazer,
		TargetUserID: 0,
		Date:         "2025-12-06",
		Status:       "present",
	})
	require.NoError(t, err)
	assert.Equal(t, DenyMissingFields, decision.Kind)
}

func TestMissingFieldsCheckedBeforeAuth(t *testing.T) {
	p := NewMarkingPolicy(testDirectory())

	// An unauthenticated request with an empty body reports the field error,
	// matching the handler's original ordering.
	decision, err := p.Evaluate(context.Background(), Request{CallerID: 0})
	require.NoError(t, err)
	assert.Equal(t, DenyMissingFields, decision.Kind)
}

func TestUnauthenticated(t *testing.T) {
	p := NewMarkingPolicy(testDirectory())

	decision, err := p.Evaluate(context.Background(), Request{
		TargetUserID: 3,
		Date:         "2025-12-06",
		Status:       "present",
	})
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	assert.Equal(t, DenyUnauthenticated, decision.Kind)
	assert.Equal(t, "Unauthorized", decision.Message)
}

func TestRepeatedMarksBothAllowed(t *testing.T) {
	p := NewMarkingPolicy(testDirectory(), WithClock(fixedClock()))

	req := Request{
		CallerID:     1,
		CallerRole:   models.RoleMazer,
		TargetUserID: 3,
		Date:         "2025-12-06",
		Status:       "present",
	}

	// No dedup at this layer: two evaluations for the same user and date both
	// succeed. Uniqueness, if wanted, belongs to the store.
	first, err := p.Evaluate(context.Background(), req)
	require.NoError(t, err)
	second, err := p.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.True(t, second.Allowed)
}

func TestDirectoryFailurePropagates(t *testing.T) {
	dir := &mockDirectory{err: errors.New("connection reset")}
	p := NewMarkingPolicy(dir)

	_, err := p.Evaluate(context.Background(), Request{
		CallerID:     1,
		CallerRole:   models.RoleMazer,
		TargetUserID: 3,
		Date:         "2025-12-06",
		Status:       "present",
	})
	require.Error(t, err)
}
