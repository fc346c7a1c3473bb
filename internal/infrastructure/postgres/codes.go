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

// CodeRepo provides typed Postgres operations for verification codes.
type CodeRepo struct {
	pool *pgxpool.Pool
}

func NewCodeRepo(pool *pgxpool.Pool) *CodeRepo {
	return &CodeRepo{pool: pool}
}

func (r *CodeRepo) Create(ctx context.Context, userID int64, channel, code string, expiresAt time.Time) (*domain.Code, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO codes (user_id, channel, code, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, user_id, channel, code, expires_at, created_at`,
		userID, channel, code, expiresAt)
	return scanCode(row)
}

// GetForEmail finds a live email-channel code matching the given value for the
// account holding email. Expired codes never match.
func (r *CodeRepo) GetForEmail(ctx context.Context, email, code string, now time.Time) (*domain.Code, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT c.id, c.user_id, c.channel, c.code, c.expires_at, c.created_at
		 FROM codes c
		 JOIN users u ON u.id = c.user_id
		 WHERE u.email = $1 AND c.channel = 'email' AND c.code = $2 AND c.expires_at > $3
		 ORDER BY c.created_at DESC LIMIT 1`, email, code, now)
	return scanCode(row)
}

// GetForPhone is the phone-channel counterpart of GetForEmail.
func (r *CodeRepo) GetForPhone(ctx context.Context, phone, code string, now time.Time) (*domain.Code, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT c.id, c.user_id, c.channel, c.code, c.expires_at, c.created_at
		 FROM codes c
		 JOIN users u ON u.id = c.user_id
		 WHERE u.phone_number = $1 AND c.channel = 'phone_number' AND c.code = $2 AND c.expires_at > $3
		 ORDER BY c.created_at DESC LIMIT 1`, phone, code, now)
	return scanCode(row)
}

func (r *CodeRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM codes WHERE id = $1`, id)
	return err
}

// DeleteExpired removes codes past their expiry. Returns the number removed.
func (r *CodeRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM codes WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanCode(row pgx.Row) (*domain.Code, error) {
	var c domain.Code
	err := row.Scan(&c.ID, &c.UserID, &c.Channel, &c.Code, &c.ExpiresAt, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("code: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
