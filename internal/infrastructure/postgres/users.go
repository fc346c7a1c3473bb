package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NemoKam/VSrapInformer/internal/domain"
)

// UserRepo provides typed Postgres operations for the users table.
type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userCols = `id, email, email_verified, phone_number, phone_verified, password_hash, expires_at, created_at, updated_at`

func (r *UserRepo) Create(ctx context.Context, email, phone *string, passwordHash string, expiresAt time.Time) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, phone_number, password_hash, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userCols, email, phone, passwordHash, expiresAt)
	return scanUser(row)
}

func (r *UserRepo) Get(ctx context.Context, userID int64) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// GetVerifiedByEmailOrPhone finds an account that already holds either
// identifier in verified state. Used as the registration conflict check:
// unverified holders do not block a new registration.
func (r *UserRepo) GetVerifiedByEmailOrPhone(ctx context.Context, email, phone *string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users
		 WHERE (email = $1 AND email_verified) OR (phone_number = $2 AND phone_verified)
		 LIMIT 1`, email, phone)
	return scanUser(row)
}

// GetVerifiedByEmail returns the account holding email in verified state.
func (r *UserRepo) GetVerifiedByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE email = $1 AND email_verified LIMIT 1`, email)
	return scanUser(row)
}

// SetChannelVerified flips the verified flag for one channel and clears the
// account expiry, making the account permanent.
func (r *UserRepo) SetChannelVerified(ctx context.Context, userID int64, channel string) error {
	col := "email_verified"
	if channel == domain.ChannelPhone {
		col = "phone_verified"
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET `+col+` = TRUE, expires_at = NULL, updated_at = now() WHERE id = $1`,
		userID)
	return err
}

// DeleteUnverifiedByEmail removes rival accounts that registered the same
// email but never verified any channel.
func (r *UserRepo) DeleteUnverifiedByEmail(ctx context.Context, email string, keepUserID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM users
		 WHERE email = $1 AND id <> $2 AND NOT email_verified AND NOT phone_verified`,
		email, keepUserID)
	return err
}

// DeleteUnverifiedByPhone removes rival accounts that registered the same
// phone number but never verified any channel.
func (r *UserRepo) DeleteUnverifiedByPhone(ctx context.Context, phone string, keepUserID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM users
		 WHERE phone_number = $1 AND id <> $2 AND NOT phone_verified AND NOT email_verified`,
		phone, keepUserID)
	return err
}

// PurgeExpired deletes accounts whose verification window has passed without
// either channel being confirmed. Returns the number of purged accounts.
func (r *UserRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM users
		 WHERE expires_at IS NOT NULL AND expires_at < $1
		   AND NOT email_verified AND NOT phone_verified`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.EmailVerified, &u.PhoneNumber, &u.PhoneVerified,
		&u.PasswordHash, &u.ExpiresAt, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
