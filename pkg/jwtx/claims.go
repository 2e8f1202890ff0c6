package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the fixed validity window for session tokens.
const DefaultTokenTTL = 24 * time.Hour

// Claims are the session claims embedded in a signed token: the subject's
// user id, the role held at issuance time, and the validity window. The role
// is a snapshot; a role change on the stored record does not take effect
// until the holder logs in again or the token is revoked.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the credential id the token was issued to.
	UserID int64 `json:"user_id"`

	// Role held by the user when the token was issued.
	Role string `json:"role"`
}

// NewClaims builds session claims with iat = now and exp = now + ttl.
func NewClaims(userID int64, role string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
		Role:   role,
	}
}

// RemainingTTL reports how long the token is still valid at the given
// instant. The result is non-positive for expired tokens.
func (c Claims) RemainingTTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Time.Sub(now)
}
