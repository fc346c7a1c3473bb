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

// SessionRepo provides typed Postgres operations for refresh sessions.
type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, refresh_token, refresh_expires_at)
		 VALUES ($1, $2, $3, $4)`,
		s.SessionID, s.UserID, s.RefreshToken, s.RefreshExpiresAt)
	return err
}

// GetByRefreshToken returns the live session holding the token. Expired
// sessions are treated as absent.
func (r *SessionRepo) GetByRefreshToken(ctx context.Context, token string, now time.Time) (*domain.Session, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, user_id, refresh_token, refresh_expires_at, created_at, updated_at
		 FROM sessions WHERE refresh_token = $1 AND refresh_expires_at > $2`, token, now)
	var s domain.Session
	err := row.Scan(&s.SessionID, &s.UserID, &s.RefreshToken, &s.RefreshExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("session: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RotateRefreshToken swaps the session's refresh token and pushes its expiry
// forward, invalidating the previous token.
func (r *SessionRepo) RotateRefreshToken(ctx context.Context, sessionID, newToken string, expiresAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET refresh_token = $2, refresh_expires_at = $3, updated_at = now()
		 WHERE id = $1`, sessionID, newToken, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	return nil
}

func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	return err
}

// DeleteExpired removes sessions past their refresh expiry.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE refresh_expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
