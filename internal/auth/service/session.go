package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/Auth-ism/ann-ai-backend/internal/auth/domain"
	"github.com/Auth-ism/ann-ai-backend/internal/auth/store"
	"github.com/Auth-ism/ann-ai-backend/pkg/cryptox"
	"github.com/Auth-ism/ann-ai-backend/pkg/jwtx"
	"github.com/Auth-ism/ann-ai-backend/pkg/slogx"
)

// SessionService orchestrates the credential lifecycle: registration, login,
// and logout. It combines the password hasher, the token codec, the
// revocation store, and the user store.
type SessionService struct {
	Store     store.Store
	Blacklist store.Blacklist
	Codec     *jwtx.Codec

	// AdminCode is the server-held enrollment secret that promotes a
	// registration to the admin role.
	AdminCode string
}

// RegisterParams are the validated inputs for account creation.
type RegisterParams struct {
	Username    string
	FullName    string
	Email       string
	Password    string
	PhoneNumber *string

	// AdminCode, when non-empty, requests admin enrollment and must match
	// the server-held secret exactly.
	AdminCode string
}

// Validate enforces the field constraints on registration input.
func (p RegisterParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&p.FullName, validation.Required, validation.Length(3, 80)),
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.Password, validation.Required, validation.Length(8, 0)),
		validation.Field(&p.PhoneNumber, validation.Length(10, 10)),
	)
}

// Register creates a new account. The role defaults to user; supplying an
// admin enrollment code that matches the server secret yields admin, and a
// mismatching code aborts registration entirely. Duplicate username or email
// maps to ErrDuplicateUser.
func (s *SessionService) Register(ctx context.Context, params RegisterParams) (domain.User, error) {
	if err := params.Validate(); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	role := domain.RoleUser
	if params.AdminCode != "" {
		// Mismatched lengths fail immediately; SecureCompare walks
		// equal-length inputs in full without early return.
		if !cryptox.SecureCompare(params.AdminCode, s.AdminCode) {
			return domain.User{}, ErrInvalidAdminCode
		}
		role = domain.RoleAdmin
	}

	hash, err := cryptox.HashPassword(params.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.Store.Users().CreateUser(ctx, domain.User{
		Username:     params.Username,
		FullName:     params.FullName,
		Email:        params.Email,
		PasswordHash: hash,
		PhoneNumber:  params.PhoneNumber,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrDuplicateUser
		}
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("role", user.Role.String()),
	)
	return user, nil
}

// Login authenticates by username-or-email plus password and issues a signed
// session token embedding the current role. Lookup misses, inactive
// accounts, and password mismatches all return ErrInvalidCredentials.
func (s *SessionService) Login(ctx context.Context, identifier, password string) (domain.Session, error) {
	if identifier == "" || password == "" {
		return domain.Session{}, fmt.Errorf("%w: identifier and password are required", ErrValidation)
	}

	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrInvalidCredentials
		}
		return domain.Session{}, err
	}

	if !user.Active {
		log.Debug("login rejected for inactive account", slog.Int64("user_id", user.ID))
		return domain.Session{}, ErrInvalidCredentials
	}

	ok, err := cryptox.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		// A hash that fails to parse is stored-data corruption, not an
		// authentication outcome.
		return domain.Session{}, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return domain.Session{}, ErrInvalidCredentials
	}

	token, err := s.Codec.Issue(user.ID, user.Role.String())
	if err != nil {
		return domain.Session{}, err
	}

	if err := s.Store.Users().TouchLastLogin(ctx, user.ID); err != nil {
		// Best effort; a failed timestamp must not fail the login.
		log.Warn("failed to update last_login", slog.Int64("user_id", user.ID), slog.Any("err", err))
	}

	return domain.Session{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

// Logout blacklists the presented token for its remaining lifetime. Tokens
// that have already expired need no entry, so the call degrades to a no-op;
// repeating a logout overwrites the same entry and is equally safe.
func (s *SessionService) Logout(ctx context.Context, claims jwtx.Claims, rawToken string) error {
	ttl := claims.RemainingTTL(time.Now())
	if err := s.Blacklist.Blacklist(ctx, rawToken, claims.UserID, ttl); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("token revoked",
		slog.Int64("user_id", claims.UserID),
		slog.Duration("remaining_ttl", ttl),
	)
	return nil
}
