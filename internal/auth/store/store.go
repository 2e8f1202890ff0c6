package store

import (
	"context"
	"errors"
	"time"

	"github.com/Auth-ism/ann-ai-backend/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface for user records. Concrete drivers
// (postgres) implement this. Kept as an interface so services can be unit
// tested against in-memory fakes.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Users is the repository over the credential records.
type Users interface {
	// CreateUser inserts a new user, returning the stored record with its
	// assigned id. Duplicate username or email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)

	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id int64) (domain.User, error)

	// GetUserByEmail returns a user by exact email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByUsernameOrEmail matches the identifier against either unique
	// column. Used during login.
	GetUserByUsernameOrEmail(ctx context.Context, identifier string) (domain.User, error)

	// UpdateUser applies a partial profile update and returns the updated
	// record. Duplicate username or email yields ErrAlreadyExists.
	UpdateUser(ctx context.Context, u domain.UserUpdate) (domain.User, error)

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error

	// UpdateRole sets the stored role. Outstanding tokens keep their
	// issuance-time role until they expire or are revoked.
	UpdateRole(ctx context.Context, userID int64, role domain.Role) error

	// SetActive flips the activation flag.
	SetActive(ctx context.Context, userID int64, active bool) error

	// SetEmailVerified marks the email verification flag.
	SetEmailVerified(ctx context.Context, userID int64, verified bool) error

	// TouchLastLogin stamps last_login with the current time.
	TouchLastLogin(ctx context.Context, userID int64) error

	// CountUsers returns the total number of records.
	CountUsers(ctx context.Context) (int64, error)

	// ListUsers returns a page of users ordered by creation date.
	ListUsers(ctx context.Context, limit, offset int64) ([]domain.User, error)

	// SearchUsers matches the query against username, full name, and email.
	SearchUsers(ctx context.Context, query string, limit, offset int64) ([]domain.User, error)

	// RecentUsers returns users registered within the given window.
	RecentUsers(ctx context.Context, since time.Time, limit int64) ([]domain.User, error)
}

// Blacklist is the revocation store: a shared key-value service recording
// revoked token fingerprints with automatic expiry. All failure modes must
// propagate as errors so authorization checks can fail closed.
type Blacklist interface {
	// Blacklist records a revoked token for ttl. Non-positive ttl means the
	// token is already dead and the write is skipped.
	Blacklist(ctx context.Context, token string, subjectID int64, ttl time.Duration) error

	// IsBlacklisted reports whether the token's fingerprint is present.
	IsBlacklisted(ctx context.Context, token string) (bool, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	Close() error
}
