package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushq/staff-attend-api/internal/models"
	appErrors "github.com/campushq/staff-attend-api/pkg/errors"
)

type stubAuthRepo struct {
	users         map[string]*models.User
	usersByID     map[int64]*models.User
	refreshTokens map[string]*models.RefreshToken
	revokedAll    []int64
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{
		users:         map[string]*models.User{},
		usersByID:     map[int64]*models.User{},
		refreshTokens: map[string]*models.RefreshToken{},
	}
}

func (s *stubAuthRepo) addUser(user *models.User, password string) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user.PasswordHash = string(hash)
	s.users[user.Email] = user
	s.usersByID[user.ID] = user
}

func (s *stubAuthRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := s.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *stubAuthRepo) FindByID(_ context.Context, id int64) (*models.User, error) {
	user, ok := s.usersByID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *stubAuthRepo) UpdateLastLogin(_ context.Context, _ int64, _ time.Time) error { return nil }

func (s *stubAuthRepo) UpdatePassword(_ context.Context, id int64, hash string, _ time.Time) error {
	s.usersByID[id].PasswordHash = hash
	return nil
}

func (s *stubAuthRepo) RevokeUserRefreshTokens(_ context.Context, userID int64) error {
	s.revokedAll = append(s.revokedAll, userID)
	return nil
}

func (s *stubAuthRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	s.refreshTokens[token.Token] = token
	return nil
}

func (s *stubAuthRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := s.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (s *stubAuthRepo) RevokeRefreshToken(_ context.Context, id string, at time.Time) error {
	for _, token := range s.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &at
		}
	}
	return nil
}

func newTestAuthService(repo *stubAuthRepo) *AuthService {
	return NewAuthService(repo, nil, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "staff-attend-api",
	})
}

func TestLoginSuccess(t *testing.T) {
	repo := newStubAuthRepo()
	repo.addUser(&models.User{ID: 1, Email: "mazer@campus.test", FullName: "Mazer", Role: models.RoleMazer, Active: true}, "secret123")
	svc := newTestAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "mazer@campus.test", Password: "secret123"})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(1), resp.User.ID)
	assert.Equal(t, models.RoleMazer, resp.User.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newStubAuthRepo()
	repo.addUser(&models.User{ID: 1, Email: "mazer@campus.test", Role: models.RoleMazer, Active: true}, "secret123")
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "mazer@campus.test", Password: "wrong"})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	repo := newStubAuthRepo()
	repo.addUser(&models.User{ID: 1, Email: "gone@campus.test", Role: models.RoleStaff, Active: false}, "secret123")
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "gone@campus.test", Password: "secret123"})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	repo := newStubAuthRepo()
	repo.addUser(&models.User{ID: 7, Email: "head@campus.test", Role: models.RoleHead, Active: true}, "secret123")
	svc := newTestAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "head@campus.test", Password: "secret123"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)

	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, models.RoleHead, claims.Role)
	assert.Equal(t, "7", claims.Subject)
}

func TestRefreshTokenRotation(t *testing.T) {
	repo := newStubAuthRepo()
	repo.addUser(&models.User{ID: 2, Email: "asst@campus.test", Role: models.RoleAssistant, Active: true}, "secret123")
	svc := newTestAuthService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "asst@campus.test", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})

	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.True(t, repo.refreshTokens[login.RefreshToken].Revoked)

	// The rotated-out token is revoked and cannot be used again.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	repo := newStubAuthRepo()
	repo.addUser(&models.User{ID: 3, Email: "staff@campus.test", Role: models.RoleStaff, Active: true}, "oldpass1")
	svc := newTestAuthService(repo)

	err := svc.ChangePassword(context.Background(), 3, models.ChangePasswordRequest{
		OldPassword: "oldpass1",
		NewPassword: "newpass1",
	})

	require.NoError(t, err)
	assert.Contains(t, repo.revokedAll, int64(3))

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "staff@campus.test", Password: "newpass1"})
	require.NoError(t, err)
}
