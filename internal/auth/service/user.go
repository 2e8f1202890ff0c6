package service

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/Auth-ism/ann-ai-backend/internal/auth/domain"
	"github.com/Auth-ism/ann-ai-backend/internal/auth/store"
	"github.com/Auth-ism/ann-ai-backend/pkg/cryptox"
)

// UserService exposes the administrative and self-service user operations.
// Authorization (admin-only, self-or-admin) is enforced at the HTTP layer;
// this service assumes the caller is already allowed.
type UserService struct {
	Store store.Store
}

// GetByID fetches a user by id.
func (s *UserService) GetByID(ctx context.Context, userID int64) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// GetByEmail fetches a user by exact email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.Store.Users().GetUserByEmail(ctx, email)
}

// List returns one page of users plus the total record count.
func (s *UserService) List(ctx context.Context, page, pageSize int64) ([]domain.User, int64, error) {
	total, err := s.Store.Users().CountUsers(ctx)
	if err != nil {
		return nil, 0, err
	}

	users, err := s.Store.Users().ListUsers(ctx, pageSize, page*pageSize)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Search returns users whose username, full name, or email matches query.
func (s *UserService) Search(ctx context.Context, query string, page, pageSize int64) ([]domain.User, error) {
	return s.Store.Users().SearchUsers(ctx, query, pageSize, page*pageSize)
}

// Recent returns users registered within the last given number of days.
func (s *UserService) Recent(ctx context.Context, days, limit int64) ([]domain.User, error) {
	since := time.Now().AddDate(0, 0, int(-days))
	return s.Store.Users().RecentUsers(ctx, since, limit)
}

// UpdateProfile applies a partial profile update after validating the
// supplied fields. Nil fields stay untouched.
func (s *UserService) UpdateProfile(ctx context.Context, upd domain.UserUpdate) (domain.User, error) {
	err := validation.Errors{
		"username":     validation.Validate(upd.Username, validation.Length(3, 50)),
		"full_name":    validation.Validate(upd.FullName, validation.Length(3, 80)),
		"email":        validation.Validate(upd.Email, is.Email),
		"phone_number": validation.Validate(upd.PhoneNumber, validation.Length(10, 10)),
	}.Filter()
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	user, err := s.Store.Users().UpdateUser(ctx, upd)
	if err == store.ErrAlreadyExists {
		return domain.User{}, ErrDuplicateUser
	}
	return user, err
}

// ChangePassword verifies the current password before hashing and storing
// the new one. A wrong current password maps to ErrInvalidCredentials.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if err := validation.Validate(next, validation.Required, validation.Length(8, 0)); err != nil {
		return fmt.Errorf("%w: new password: %v", ErrValidation, err)
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := cryptox.VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	hash, err := cryptox.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.Store.Users().UpdatePasswordHash(ctx, userID, hash)
}

// UpdateRole sets the stored role. Tokens issued before the change keep
// their snapshot role until expiry or revocation.
func (s *UserService) UpdateRole(ctx context.Context, userID int64, role domain.Role) error {
	return s.Store.Users().UpdateRole(ctx, userID, role)
}

// Deactivate flips the account inactive, blocking future logins. Tokens
// already in flight stay valid until expiry or revocation.
func (s *UserService) Deactivate(ctx context.Context, userID int64) error {
	return s.Store.Users().SetActive(ctx, userID, false)
}

// Reactivate re-enables a deactivated account.
func (s *UserService) Reactivate(ctx context.Context, userID int64) error {
	return s.Store.Users().SetActive(ctx, userID, true)
}

// MarkEmailVerified marks the user's email address as verified.
func (s *UserService) MarkEmailVerified(ctx context.Context, userID int64) error {
	return s.Store.Users().SetEmailVerified(ctx, userID, true)
}
