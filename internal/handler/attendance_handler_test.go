package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushq/staff-attend-api/internal/middleware"
	"github.com/campushq/staff-attend-api/internal/models"
	"github.com/campushq/staff-attend-api/internal/policy"
	"github.com/campushq/staff-attend-api/internal/service"
)

type fakeAttendanceRepo struct {
	inserted  []*models.AttendanceRecord
	insertErr error
}

func (f *fakeAttendanceRepo) Insert(_ context.Context, record *models.AttendanceRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	record.ID = int64(len(f.inserted) + 1)
	f.inserted = append(f.inserted, record)
	return nil
}

func (f *fakeAttendanceRepo) List(_ context.Context, _ models.AttendanceFilter) ([]models.AttendanceDetail, int, error) {
	return nil, 0, nil
}

func (f *fakeAttendanceRepo) Summary(_ context.Context, _ int64, _, _ string) (*models.AttendanceSummary, error) {
	return &models.AttendanceSummary{}, nil
}

func (f *fakeAttendanceRepo) Report(_ context.Context, _, _ string, _ *models.UserRole) ([]models.AttendanceReportRow, error) {
	return nil, nil
}

type fakeDirectory struct {
	users map[int64]*models.User
}

func (f *fakeDirectory) GetUser(_ context.Context, id int64) (*models.User, error) {
	return f.users[id], nil
}

func markRequest(t *testing.T, h *AttendanceHandler, claims *models.JWTClaims, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/attendance/mark", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}

	h.Mark(c)
	return w
}

func messageOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	msg, _ := body["message"].(string)
	return msg
}

func newMarkFixture(repo *fakeAttendanceRepo) *AttendanceHandler {
	dir := &fakeDirectory{users: map[int64]*models.User{
		3: {ID: 3, Role: models.RoleTeacher, FullName: "Teacher"},
		4: {ID: 4, Role: models.RoleStaff, FullName: "Staff"},
	}}
	markedAt := time.Date(2025, 12, 6, 8, 30, 0, 0, time.UTC)
	p := policy.NewMarkingPolicy(dir, policy.WithClock(func() time.Time { return markedAt }))
	svc := service.NewAttendanceService(repo, p, nil, nil, zap.NewNop())
	return NewAttendanceHandler(svc, zap.NewNop())
}

func TestMarkReturnsPersistedRecord(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	h := newMarkFixture(repo)

	w := markRequest(t, h, &models.JWTClaims{UserID: 1, Role: models.RoleMazer},
		`{"userId":3,"date":"2025-12-06","status":"present"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var record models.AttendanceRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, int64(3), record.UserID)
	assert.Equal(t, int64(1), record.MarkedBy)
	assert.Equal(t, "2025-12-06", record.Date)
	require.Len(t, repo.inserted, 1)
}

func TestMarkMissingFields(t *testing.T) {
	h := newMarkFixture(&fakeAttendanceRepo{})

	w := markRequest(t, h, &models.JWTClaims{UserID: 1, Role: models.RoleMazer}, `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields", messageOf(t, w))
}

func TestMarkZeroUserIDIsMissingFields(t *testing.T) {
	h := newMarkFixture(&fakeAttendanceRepo{})

	w := markRequest(t, h, &models.JWTClaims{UserID: 1, Role: models.RoleMazer},
		`{"userId":0,"date":"2025-12-06","status":"present"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields", messageOf(t, w))
}

func TestMarkUnauthenticated(t *testing.T) {
	h := newMarkFixture(&fakeAttendanceRepo{})

	w := markRequest(t, h, nil, `{"userId":3,"date":"2025-12-06","status":"present"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", messageOf(t, w))
}

func TestMarkNonMarkerRoleForbidden(t *testing.T) {
	h := newMarkFixture(&fakeAttendanceRepo{})

	w := markRequest(t, h, &models.JWTClaims{UserID: 5, Role: models.RoleHead},
		`{"userId":3,"date":"2025-12-06","status":"present"}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Only Mazer or Assistant can mark attendance", messageOf(t, w))
}

func TestMarkMazerWrongTargetForbidden(t *testing.T) {
	h := newMarkFixture(&fakeAttendanceRepo{})

	w := markRequest(t, h, &models.JWTClaims{UserID: 1, Role: models.RoleMazer},
		`{"userId":4,"date":"2025-12-06","status":"present"}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Mazer can only mark teachers' attendance", messageOf(t, w))
}

func TestMarkAssistantWrongTargetForbidden(t *testing.T) {
	h := newMarkFixture(&fakeAttendanceRepo{})

	w := markRequest(t, h, &models.JWTClaims{UserID: 2, Role: models.RoleAssistant},
		`{"userId":3,"date":"2025-12-06","status":"present"}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Assistant can only mark staff attendance", messageOf(t, w))
}

func TestMarkTargetNotFound(t *testing.T) {
	h := newMarkFixture(&fakeAttendanceRepo{})

	w := markRequest(t, h, &models.JWTClaims{UserID: 1, Role: models.RoleMazer},
		`{"userId":999,"date":"2025-12-06","status":"present"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", messageOf(t, w))
}

func TestMarkStorageFailureIsBadRequest(t *testing.T) {
	repo := &fakeAttendanceRepo{insertErr: errors.New("db down")}
	h := newMarkFixture(repo)

	w := markRequest(t, h, &models.JWTClaims{UserID: 1, Role: models.RoleMazer},
		`{"userId":3,"date":"2025-12-06","status":"present"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, messageOf(t, w), "Failed to mark attendance")
}

func TestMarkRepeatedDatesBothPersist(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	h := newMarkFixture(repo)
	body := `{"userId":3,"date":"2025-12-06","status":"present"}`

	first := markRequest(t, h, &models.JWTClaims{UserID: 1, Role: models.RoleMazer}, body)
	second := markRequest(t, h, &models.JWTClaims{UserID: 1, Role: models.RoleMazer}, body)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Len(t, repo.inserted, 2)
}

type stubTokenValidator struct {
	tokens map[string]*models.JWTClaims
}

func (s *stubTokenValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s.tokens[token]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// newMarkRouter mounts the marking route the way the gateway does: outside
// the session middleware, with claims attached only for valid tokens.
func newMarkRouter(repo *fakeAttendanceRepo, tokens map[string]*models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := newMarkFixture(repo)
	r := gin.New()
	r.POST("/api/attendance/mark", middleware.OptionalJWTAuth(&stubTokenValidator{tokens: tokens}), h.Mark)
	return r
}

func markRouteRequest(r *gin.Engine, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/attendance/mark", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMarkRouteAnonymousGetsLegacyUnauthorized(t *testing.T) {
	r := newMarkRouter(&fakeAttendanceRepo{}, nil)

	w := markRouteRequest(r, "", `{"userId":3,"date":"2025-12-06","status":"present"}`)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, w.Body.String())
}

func TestMarkRouteBadTokenGetsLegacyUnauthorized(t *testing.T) {
	r := newMarkRouter(&fakeAttendanceRepo{}, map[string]*models.JWTClaims{
		"good": {UserID: 1, Role: models.RoleMazer},
	})

	w := markRouteRequest(r, "expired", `{"userId":3,"date":"2025-12-06","status":"present"}`)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, w.Body.String())
}

func TestMarkRouteValidTokenMarks(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	r := newMarkRouter(repo, map[string]*models.JWTClaims{
		"good": {UserID: 1, Role: models.RoleMazer},
	})

	w := markRouteRequest(r, "good", `{"userId":3,"date":"2025-12-06","status":"present"}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.inserted, 1)
	assert.Equal(t, int64(1), repo.inserted[0].MarkedBy)
}
