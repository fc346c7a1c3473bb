package domain

import "time"

// Session is one refresh-token lineage for a logged-in user.
// SessionID is a ULID; the refresh token rotates on every refresh.
type Session struct {
	SessionID        string    `json:"session_id"`
	UserID           int64     `json:"user_id"`
	RefreshToken     string    `json:"-"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
