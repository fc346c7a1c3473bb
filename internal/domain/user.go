package domain

import "time"

// Code channels. A verification code is scoped to exactly one channel.
const (
	ChannelEmail = "email"
	ChannelPhone = "phone_number"
)

type User struct {
	ID            int64      `json:"id"`
	Email         *string    `json:"email"`
	EmailVerified bool       `json:"email_verified"`
	PhoneNumber   *string    `json:"phone_number"`
	PhoneVerified bool       `json:"phone_verified"`
	PasswordHash  string     `json:"-"`
	// ExpiresAt is set while the account has no verified channel; nil once
	// any channel is verified. Accounts past it are eligible for purge.
	ExpiresAt *time.Time `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Verified reports whether at least one contact channel has been confirmed.
func (u *User) Verified() bool {
	return u.EmailVerified || u.PhoneVerified
}

// Code is a one-time verification code for a single user and channel.
type Code struct {
	ID        int64
	UserID    int64
	Channel   string // ChannelEmail | ChannelPhone
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type CreateUserRequest struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,e164"`
	Password    string  `json:"password" validate:"required,min=8,max=72"`
}

type VerifyUserRequest struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,e164"`
	Code        string  `json:"code" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
