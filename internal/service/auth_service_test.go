package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firewise/fireedu-api/internal/domain/entity"
	apperrors "github.com/firewise/fireedu-api/internal/pkg/errors"
	"github.com/firewise/fireedu-api/pkg/auth"
	"github.com/firewise/fireedu-api/pkg/logger"
)

type memoryRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]struct{}
}

func (m *memoryRevocationStore) Revoke(_ context.Context, id string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[id] = struct{}{}
	return nil
}

func (m *memoryRevocationStore) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[id]
	return ok, nil
}

func newAuthService(t *testing.T, env *testEnv) *AuthService {
	t.Helper()
	jwtService, err := auth.NewJWTService("0123456789abcdef0123456789abcdef", time.Hour, "fireedu-test",
		&memoryRevocationStore{revoked: make(map[string]struct{})})
	require.NoError(t, err)
	return NewAuthService(env.userRepo, jwtService, env.activity, logger.NewNop())
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	svc := newAuthService(t, env)
	ctx := context.Background()

	// Act
	session, err := svc.Register(ctx, RegisterInput{Username: " newbie ", Email: "NewBie@Example.com", Password: "secret1"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "newbie", session.User.Username)
	assert.Equal(t, "newbie@example.com", session.User.Email)
	assert.Equal(t, entity.RoleAdult, session.User.Role)
	assert.False(t, session.User.ProfileCompleted, "Профиль заполняется отдельно")
	assert.NotEmpty(t, session.Token)

	login, err := svc.Login(ctx, "newbie@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)
	assert.Equal(t, int64(2), env.reload(t, login.User.ID).EngagementPoints, "Вход начисляет очки")

	claims, err := svc.ValidateSession(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, login.User.ID, claims.UserID)
}

func TestAuthService_Register_Duplicates(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(t, env)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "dup", Email: "dup@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "other", Email: "dup@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = svc.Register(ctx, RegisterInput{Username: "dup", Email: "other@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = svc.Register(ctx, RegisterInput{Username: "short", Email: "short@example.com", Password: "123"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(t, env)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Username: "u1", Email: "u1@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "u1@example.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_Logout_RevokesSession(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(t, env)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{Username: "bye", Email: "bye@example.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, session.Claims))

	_, err = svc.ValidateSession(ctx, session.Token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
