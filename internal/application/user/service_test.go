package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/NemoKam/VSrapInformer/internal/domain"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Create(ctx context.Context, email, phone *string, hash string, expiresAt time.Time) (*domain.User, error) {
	args := m.Called(ctx, email, phone, hash, expiresAt)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Get(ctx context.Context, userID int64) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetVerifiedByEmailOrPhone(ctx context.Context, email, phone *string) (*domain.User, error) {
	args := m.Called(ctx, email, phone)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) SetChannelVerified(ctx context.Context, userID int64, channel string) error {
	return m.Called(ctx, userID, channel).Error(0)
}
func (m *mockUserStore) DeleteUnverifiedByEmail(ctx context.Context, email string, keep int64) error {
	return m.Called(ctx, email, keep).Error(0)
}
func (m *mockUserStore) DeleteUnverifiedByPhone(ctx context.Context, phone string, keep int64) error {
	return m.Called(ctx, phone, keep).Error(0)
}
func (m *mockUserStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return int64(args.Int(0)), args.Error(1)
}

type mockCodeStore struct{ mock.Mock }

func (m *mockCodeStore) Create(ctx context.Context, userID int64, channel, code string, expiresAt time.Time) (*domain.Code, error) {
	args := m.Called(ctx, userID, channel, code, expiresAt)
	if c, _ := args.Get(0).(*domain.Code); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCodeStore) GetForEmail(ctx context.Context, email, code string, now time.Time) (*domain.Code, error) {
	args := m.Called(ctx, email, code, now)
	if c, _ := args.Get(0).(*domain.Code); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCodeStore) GetForPhone(ctx context.Context, phone, code string, now time.Time) (*domain.Code, error) {
	args := m.Called(ctx, phone, code, now)
	if c, _ := args.Get(0).(*domain.Code); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCodeStore) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockCodeStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return int64(args.Int(0)), args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Enqueue(n domain.Notification) {
	m.Called(n)
}

// --- builder ---

func newService(us *mockUserStore, cs *mockCodeStore, nt *mockNotifier) Service {
	return NewService(ServiceDeps{
		UserRepo:          us,
		CodeRepo:          cs,
		Notifier:          nt,
		CodeLength:        6,
		CodeTTL:           15 * time.Minute,
		UnverifiedUserTTL: 15 * time.Minute,
		ProjectTitle:      "VSrapInformer",
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func strPtr(s string) *string { return &s }

// --- Register ---

func TestRegister_NoContactField_ReturnsBadRequest(t *testing.T) {
	svc := newService(nil, nil, nil)
	_, err := svc.Register(context.Background(), domain.CreateUserRequest{Password: "password123"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestRegister_VerifiedHolderBlocks(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetVerifiedByEmailOrPhone", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.User{ID: 1}, nil)

	svc := newService(us, nil, nil)
	_, err := svc.Register(context.Background(), domain.CreateUserRequest{
		Email: strPtr("a@b.com"), Password: "password123",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestRegister_EmailHappyPath(t *testing.T) {
	us := &mockUserStore{}
	cs := &mockCodeStore{}
	nt := &mockNotifier{}

	us.On("GetVerifiedByEmailOrPhone", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrNotFound)
	us.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.User{ID: 7, Email: strPtr("a@b.com")}, nil)
	cs.On("Create", mock.Anything, int64(7), domain.ChannelEmail, mock.Anything, mock.Anything).
		Return(&domain.Code{ID: 1, UserID: 7}, nil)
	nt.On("Enqueue", mock.MatchedBy(func(n domain.Notification) bool {
		return n.Channel == domain.ChannelEmail && n.Recipient == "a@b.com"
	})).Return()

	svc := newService(us, cs, nt)
	u, err := svc.Register(context.Background(), domain.CreateUserRequest{
		Email: strPtr("a@b.com"), Password: "password123",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	us.AssertExpectations(t)
	cs.AssertExpectations(t)
	nt.AssertExpectations(t)
}

func TestRegister_BothChannels_TwoCodesIssued(t *testing.T) {
	us := &mockUserStore{}
	cs := &mockCodeStore{}
	nt := &mockNotifier{}

	us.On("GetVerifiedByEmailOrPhone", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrNotFound)
	us.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.User{ID: 7}, nil)
	cs.On("Create", mock.Anything, int64(7), domain.ChannelEmail, mock.Anything, mock.Anything).
		Return(&domain.Code{ID: 1}, nil)
	cs.On("Create", mock.Anything, int64(7), domain.ChannelPhone, mock.Anything, mock.Anything).
		Return(&domain.Code{ID: 2}, nil)
	nt.On("Enqueue", mock.Anything).Return().Twice()

	svc := newService(us, cs, nt)
	_, err := svc.Register(context.Background(), domain.CreateUserRequest{
		Email: strPtr("a@b.com"), PhoneNumber: strPtr("+79990000000"), Password: "password123",
	})

	require.NoError(t, err)
	cs.AssertExpectations(t)
	nt.AssertExpectations(t)
}

// --- Verify ---

func TestVerify_InvalidCode_ReturnsUnauthorized(t *testing.T) {
	cs := &mockCodeStore{}
	cs.On("GetForEmail", mock.Anything, "a@b.com", "000000", mock.Anything).
		Return(nil, domain.ErrNotFound)

	svc := newService(nil, cs, nil)
	_, err := svc.Verify(context.Background(), domain.VerifyUserRequest{
		Email: strPtr("a@b.com"), Code: "000000",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestVerify_EmailHappyPath_RemovesRivals(t *testing.T) {
	us := &mockUserStore{}
	cs := &mockCodeStore{}

	cs.On("GetForEmail", mock.Anything, "a@b.com", "123456", mock.Anything).
		Return(&domain.Code{ID: 11, UserID: 7, Channel: domain.ChannelEmail}, nil)
	us.On("SetChannelVerified", mock.Anything, int64(7), domain.ChannelEmail).Return(nil)
	cs.On("Delete", mock.Anything, int64(11)).Return(nil)
	us.On("DeleteUnverifiedByEmail", mock.Anything, "a@b.com", int64(7)).Return(nil)
	us.On("Get", mock.Anything, int64(7)).
		Return(&domain.User{ID: 7, Email: strPtr("a@b.com"), EmailVerified: true}, nil)

	svc := newService(us, cs, nil)
	u, err := svc.Verify(context.Background(), domain.VerifyUserRequest{
		Email: strPtr("a@b.com"), Code: "123456",
	})

	require.NoError(t, err)
	assert.True(t, u.EmailVerified)
	us.AssertExpectations(t)
	cs.AssertExpectations(t)
}

func TestVerify_PhoneHappyPath(t *testing.T) {
	us := &mockUserStore{}
	cs := &mockCodeStore{}

	cs.On("GetForPhone", mock.Anything, "+79990000000", "123456", mock.Anything).
		Return(&domain.Code{ID: 12, UserID: 9, Channel: domain.ChannelPhone}, nil)
	us.On("SetChannelVerified", mock.Anything, int64(9), domain.ChannelPhone).Return(nil)
	cs.On("Delete", mock.Anything, int64(12)).Return(nil)
	us.On("DeleteUnverifiedByPhone", mock.Anything, "+79990000000", int64(9)).Return(nil)
	us.On("Get", mock.Anything, int64(9)).
		Return(&domain.User{ID: 9, PhoneVerified: true}, nil)

	svc := newService(us, cs, nil)
	u, err := svc.Verify(context.Background(), domain.VerifyUserRequest{
		PhoneNumber: strPtr("+79990000000"), Code: "123456",
	})

	require.NoError(t, err)
	assert.True(t, u.PhoneVerified)
	us.AssertExpectations(t)
}

// --- PurgeExpired ---

func TestPurgeExpired(t *testing.T) {
	us := &mockUserStore{}
	cs := &mockCodeStore{}
	us.On("PurgeExpired", mock.Anything, mock.Anything).Return(2, nil)
	cs.On("DeleteExpired", mock.Anything, mock.Anything).Return(3, nil)

	svc := newService(us, cs, nil)
	require.NoError(t, svc.PurgeExpired(context.Background()))
	us.AssertExpectations(t)
	cs.AssertExpectations(t)
}
