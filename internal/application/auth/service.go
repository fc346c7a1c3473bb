package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/NemoKam/VSrapInformer/internal/domain"
	"github.com/NemoKam/VSrapInformer/internal/pkg/id"
	pkgtoken "github.com/NemoKam/VSrapInformer/internal/pkg/token"
)

type Service interface {
	Login(ctx context.Context, req domain.LoginRequest) (bearer, refreshToken string, session *domain.Session, err error)
	Refresh(ctx context.Context, refreshToken string) (bearer, newRefreshToken string, err error)
	Logout(ctx context.Context, sessionID string) error
}

type userStore interface {
	GetVerifiedByEmail(ctx context.Context, email string) (*domain.User, error)
}

type sessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByRefreshToken(ctx context.Context, token string, now time.Time) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, expiresAt time.Time) error
	Delete(ctx context.Context, sessionID string) error
}

type jwtSigner interface {
	Sign(userID int64, sessionID string) (string, error)
}

type service struct {
	userRepo        userStore
	sessionRepo     sessionStore
	jwtProvider     jwtSigner
	refreshTokenDur time.Duration
}

type ServiceDeps struct {
	UserRepo        userStore
	SessionRepo     sessionStore
	JWTProvider     jwtSigner
	RefreshTokenDur time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		userRepo:        deps.UserRepo,
		sessionRepo:     deps.SessionRepo,
		jwtProvider:     deps.JWTProvider,
		refreshTokenDur: deps.RefreshTokenDur,
	}
}

// Login authenticates a verified account by email and password and opens a
// refresh session. Unknown email and wrong password produce the same error so
// the endpoint does not leak which addresses hold accounts.
func (s *service) Login(ctx context.Context, req domain.LoginRequest) (string, string, *domain.Session, error) {
	u, err := s.userRepo.GetVerifiedByEmail(ctx, req.Email)
	if err != nil {
		return "", "", nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return "", "", nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return "", "", nil, err
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           u.ID,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTokenDur),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return "", "", nil, err
	}
	bearer, err := s.jwtProvider.Sign(u.ID, sess.SessionID)
	if err != nil {
		return "", "", nil, err
	}
	return bearer, refreshToken, sess, nil
}

// Refresh exchanges a live refresh token for a fresh bearer token, rotating
// the refresh token in the process.
func (s *service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	sess, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken, time.Now().UTC())
	if err != nil {
		return "", "", fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
	}

	newToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return "", "", err
	}
	if err := s.sessionRepo.RotateRefreshToken(ctx, sess.SessionID, newToken, time.Now().UTC().Add(s.refreshTokenDur)); err != nil {
		return "", "", err
	}
	bearer, err := s.jwtProvider.Sign(sess.UserID, sess.SessionID)
	if err != nil {
		return "", "", err
	}
	return bearer, newToken, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	return s.sessionRepo.Delete(ctx, sessionID)
}
