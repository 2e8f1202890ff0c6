// Package jwtx issues and verifies the service's self-contained session
// tokens: HS256-signed JWTs carrying the subject id and role with a fixed
// 24-hour validity window. Single-tenant by design, so no issuer or audience
// claims are set or enforced.
package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired reports a structurally valid token whose exp has
	// passed.
	ErrTokenExpired = errors.New("jwtx: token expired")

	// ErrTokenInvalid reports a token that fails signature or structure
	// checks.
	ErrTokenInvalid = errors.New("jwtx: token invalid")
)

// Codec creates and verifies signed session tokens with a symmetric secret.
type Codec struct {
	secret []byte
	ttl    time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewCodec returns a Codec signing with the given secret and the default
// 24h validity window.
func NewCodec(secret []byte) *Codec {
	return &Codec{
		secret: secret,
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
}

// NewCodecTTL is NewCodec with an explicit validity window.
func NewCodecTTL(secret []byte, ttl time.Duration) *Codec {
	c := NewCodec(secret)
	c.ttl = ttl
	return c
}

// Issue signs a fresh token for the given subject, embedding the role held
// right now. The structure is deterministic but the output varies per call
// with the issuance timestamp.
func (c *Codec) Issue(userID int64, role string) (string, error) {
	claims := NewClaims(userID, role, c.ttl, c.now())
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: signing failed: %w", err)
	}
	return signed, nil
}

// Verify validates the signature and expiry of a token and returns its
// claims. Expired tokens fail with ErrTokenExpired; every other failure
// mode maps to ErrTokenInvalid.
func (c *Codec) Verify(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}

	return claims, nil
}
