package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/NemoKam/VSrapInformer/internal/domain"
	pkgcode "github.com/NemoKam/VSrapInformer/internal/pkg/code"
)

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Verify(ctx context.Context, req domain.VerifyUserRequest) (*domain.User, error)
	Get(ctx context.Context, userID int64) (*domain.User, error)
	PurgeExpired(ctx context.Context) error
}

type userStore interface {
	Create(ctx context.Context, email, phone *string, passwordHash string, expiresAt time.Time) (*domain.User, error)
	Get(ctx context.Context, userID int64) (*domain.User, error)
	GetVerifiedByEmailOrPhone(ctx context.Context, email, phone *string) (*domain.User, error)
	SetChannelVerified(ctx context.Context, userID int64, channel string) error
	DeleteUnverifiedByEmail(ctx context.Context, email string, keepUserID int64) error
	DeleteUnverifiedByPhone(ctx context.Context, phone string, keepUserID int64) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type codeStore interface {
	Create(ctx context.Context, userID int64, channel, code string, expiresAt time.Time) (*domain.Code, error)
	GetForEmail(ctx context.Context, email, code string, now time.Time) (*domain.Code, error)
	GetForPhone(ctx context.Context, phone, code string, now time.Time) (*domain.Code, error)
	Delete(ctx context.Context, id int64) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type notifier interface {
	Enqueue(n domain.Notification)
}

type service struct {
	repo              userStore
	codeRepo          codeStore
	notifier          notifier
	codeLength        int
	codeTTL           time.Duration
	unverifiedUserTTL time.Duration
	projectTitle      string
	logger            *slog.Logger
}

type ServiceDeps struct {
	UserRepo          userStore
	CodeRepo          codeStore
	Notifier          notifier
	CodeLength        int
	CodeTTL           time.Duration
	UnverifiedUserTTL time.Duration
	ProjectTitle      string
	Logger            *slog.Logger
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:              deps.UserRepo,
		codeRepo:          deps.CodeRepo,
		notifier:          deps.Notifier,
		codeLength:        deps.CodeLength,
		codeTTL:           deps.CodeTTL,
		unverifiedUserTTL: deps.UnverifiedUserTTL,
		projectTitle:      deps.ProjectTitle,
		logger:            deps.Logger,
	}
}

// Register creates an unverified account and sends a verification code to each
// provided channel. The account expires unless one channel gets verified in
// time. Only verified holders of the same email/phone block a registration:
// an abandoned unverified signup must not squat an address forever.
func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if req.Email == nil && req.PhoneNumber == nil {
		return nil, fmt.Errorf("email or phone_number required: %w", domain.ErrBadRequest)
	}

	if _, err := s.repo.GetVerifiedByEmailOrPhone(ctx, req.Email, req.PhoneNumber); err == nil {
		return nil, fmt.Errorf("email or phone already registered: %w", domain.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.Create(ctx, req.Email, req.PhoneNumber, string(hash), time.Now().UTC().Add(s.unverifiedUserTTL))
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		if err := s.issueCode(ctx, u.ID, domain.ChannelEmail, *req.Email); err != nil {
			return nil, err
		}
	}
	if req.PhoneNumber != nil {
		if err := s.issueCode(ctx, u.ID, domain.ChannelPhone, *req.PhoneNumber); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (s *service) issueCode(ctx context.Context, userID int64, channel, recipient string) error {
	c, err := pkgcode.NewNumeric(s.codeLength)
	if err != nil {
		return err
	}
	if _, err := s.codeRepo.Create(ctx, userID, channel, c, time.Now().UTC().Add(s.codeTTL)); err != nil {
		return err
	}
	s.notifier.Enqueue(domain.Notification{
		Channel:   channel,
		Recipient: recipient,
		Subject:   s.projectTitle + ": verification code",
		Body:      "Your verification code: " + c,
	})
	return nil
}

// Verify confirms a channel with a one-time code. On success the account
// becomes permanent, the code is consumed, and rival unverified accounts
// holding the same identifier are removed.
func (s *service) Verify(ctx context.Context, req domain.VerifyUserRequest) (*domain.User, error) {
	now := time.Now().UTC()

	var (
		c   *domain.Code
		err error
	)
	switch {
	case req.Email != nil:
		c, err = s.codeRepo.GetForEmail(ctx, *req.Email, req.Code, now)
	case req.PhoneNumber != nil:
		c, err = s.codeRepo.GetForPhone(ctx, *req.PhoneNumber, req.Code, now)
	default:
		return nil, fmt.Errorf("email or phone_number required: %w", domain.ErrBadRequest)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid or expired code: %w", domain.ErrUnauthorized)
	}

	if err := s.repo.SetChannelVerified(ctx, c.UserID, c.Channel); err != nil {
		return nil, err
	}
	if err := s.codeRepo.Delete(ctx, c.ID); err != nil {
		s.logger.Warn("failed to delete consumed code", "code_id", c.ID, "err", err)
	}

	if req.Email != nil {
		if err := s.repo.DeleteUnverifiedByEmail(ctx, *req.Email, c.UserID); err != nil {
			s.logger.Warn("failed to delete rival unverified accounts", "email", *req.Email, "err", err)
		}
	}
	if req.PhoneNumber != nil {
		if err := s.repo.DeleteUnverifiedByPhone(ctx, *req.PhoneNumber, c.UserID); err != nil {
			s.logger.Warn("failed to delete rival unverified accounts", "phone", *req.PhoneNumber, "err", err)
		}
	}

	return s.repo.Get(ctx, c.UserID)
}

func (s *service) Get(ctx context.Context, userID int64) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

// PurgeExpired removes accounts that never verified within their window,
// along with expired codes.
func (s *service) PurgeExpired(ctx context.Context) error {
	now := time.Now().UTC()
	users, err := s.repo.PurgeExpired(ctx, now)
	if err != nil {
		return err
	}
	codes, err := s.codeRepo.DeleteExpired(ctx, now)
	if err != nil {
		return err
	}
	if users > 0 || codes > 0 {
		s.logger.Info("purged expired records", "users", users, "codes", codes)
	}
	return nil
}
