package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/NemoKam/VSrapInformer/internal/domain"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetVerifiedByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Create(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSessionStore) GetByRefreshToken(ctx context.Context, token string, now time.Time) (*domain.Session, error) {
	args := m.Called(ctx, token, now)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) RotateRefreshToken(ctx context.Context, sessionID, newToken string, expiresAt time.Time) error {
	return m.Called(ctx, sessionID, newToken, expiresAt).Error(0)
}
func (m *mockSessionStore) Delete(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID int64, sessionID string) (string, error) {
	args := m.Called(userID, sessionID)
	return args.String(0), args.Error(1)
}

func newService(us *mockUserStore, ss *mockSessionStore, jwt *mockJWTSigner) Service {
	return NewService(ServiceDeps{
		UserRepo:        us,
		SessionRepo:     ss,
		JWTProvider:     jwt,
		RefreshTokenDur: 30 * 24 * time.Hour,
	})
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

// --- Login ---

func TestLogin_UnknownEmail_ReturnsUnauthorized(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetVerifiedByEmail", mock.Anything, "x@x.com").Return(nil, domain.ErrNotFound)

	svc := newService(us, nil, nil)
	_, _, _, err := svc.Login(context.Background(), domain.LoginRequest{Email: "x@x.com", Password: "pw"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_WrongPassword_ReturnsUnauthorized(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetVerifiedByEmail", mock.Anything, "a@b.com").Return(&domain.User{
		ID: 7, PasswordHash: hashOf(t, "correct-password"),
	}, nil)

	svc := newService(us, nil, nil)
	_, _, _, err := svc.Login(context.Background(), domain.LoginRequest{Email: "a@b.com", Password: "wrong"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	ss := &mockSessionStore{}
	jwt := &mockJWTSigner{}

	us.On("GetVerifiedByEmail", mock.Anything, "a@b.com").Return(&domain.User{
		ID: 7, PasswordHash: hashOf(t, "password123"),
	}, nil)
	ss.On("Create", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	jwt.On("Sign", int64(7), mock.Anything).Return("bearer-token", nil)

	svc := newService(us, ss, jwt)
	bearer, refresh, sess, err := svc.Login(context.Background(), domain.LoginRequest{
		Email: "a@b.com", Password: "password123",
	})

	require.NoError(t, err)
	assert.Equal(t, "bearer-token", bearer)
	assert.NotEmpty(t, refresh)
	assert.Equal(t, int64(7), sess.UserID)
	us.AssertExpectations(t)
	ss.AssertExpectations(t)
	jwt.AssertExpectations(t)
}

// --- Refresh ---

func TestRefresh_UnknownToken_ReturnsUnauthorized(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("GetByRefreshToken", mock.Anything, "stale", mock.Anything).Return(nil, domain.ErrNotFound)

	svc := newService(nil, ss, nil)
	_, _, err := svc.Refresh(context.Background(), "stale")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestRefresh_HappyPath_RotatesToken(t *testing.T) {
	ss := &mockSessionStore{}
	jwt := &mockJWTSigner{}

	ss.On("GetByRefreshToken", mock.Anything, "live-token", mock.Anything).Return(&domain.Session{
		SessionID: "s1", UserID: 7, RefreshToken: "live-token",
	}, nil)
	ss.On("RotateRefreshToken", mock.Anything, "s1", mock.Anything, mock.Anything).Return(nil)
	jwt.On("Sign", int64(7), "s1").Return("fresh-bearer", nil)

	svc := newService(nil, ss, jwt)
	bearer, newToken, err := svc.Refresh(context.Background(), "live-token")

	require.NoError(t, err)
	assert.Equal(t, "fresh-bearer", bearer)
	assert.NotEmpty(t, newToken)
	assert.NotEqual(t, "live-token", newToken)
	ss.AssertExpectations(t)
	jwt.AssertExpectations(t)
}

// --- Logout ---

func TestLogout_DeletesSession(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("Delete", mock.Anything, "s1").Return(nil)

	svc := newService(nil, ss, nil)
	require.NoError(t, svc.Logout(context.Background(), "s1"))
	ss.AssertExpectations(t)
}
