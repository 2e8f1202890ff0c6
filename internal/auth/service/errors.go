package service

import "errors"

var (
	// ErrInvalidCredentials covers both lookup misses and password
	// mismatches so callers cannot probe which usernames exist. Inactive
	// accounts collapse into the same class.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrInvalidAdminCode reports a supplied admin enrollment code that does
	// not match the server-held secret.
	ErrInvalidAdminCode = errors.New("invalid_admin_code")

	// ErrDuplicateUser reports a username or email already taken.
	ErrDuplicateUser = errors.New("duplicate_user")

	// ErrValidation wraps malformed request input.
	ErrValidation = errors.New("validation_failed")
)
