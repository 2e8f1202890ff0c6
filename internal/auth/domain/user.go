package domain

import "time"

// User is the stored credential record. Username and email are unique across
// all records; violated inserts surface as store.ErrAlreadyExists.
type User struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	FullName      string     `json:"full_name"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"` // argon2 encoded, never serialized
	PhoneNumber   *string    `json:"phone_number,omitempty"`
	Role          Role       `json:"role"`
	EmailVerified bool       `json:"email_verified"`
	PhoneVerified bool       `json:"phone_verified"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	Active        bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// UserUpdate carries a partial profile update. Nil fields are left untouched.
type UserUpdate struct {
	ID          int64
	Username    *string
	FullName    *string
	Email       *string
	PhoneNumber *string
}
