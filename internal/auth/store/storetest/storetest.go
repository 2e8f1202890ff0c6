// Package storetest provides in-memory implementations of the store
// interfaces for unit testing services and handlers without Postgres or
// Redis.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Auth-ism/ann-ai-backend/internal/auth/domain"
	"github.com/Auth-ism/ann-ai-backend/internal/auth/store"
	"github.com/Auth-ism/ann-ai-backend/pkg/cryptox"
)

// Store is an in-memory store.Store. The concrete Users repo is exposed as
// a field so tests can reach its failure hooks.
type Store struct {
	U *Users
}

func NewStore() *Store {
	return &Store{U: &Users{byID: map[int64]domain.User{}}}
}

func (s *Store) Users() store.Users         { return s.U }
func (s *Store) ApplyMigrations() error     { return nil }
func (s *Store) Close() error               { return nil }
func (s *Store) Ping(context.Context) error { return nil }

// Users is an in-memory store.Users with the same uniqueness and not-found
// semantics as the Postgres driver.
type Users struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]domain.User

	// TouchErr, when set, is returned from TouchLastLogin.
	TouchErr error
}

func (m *Users) CreateUser(_ context.Context, u domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.byID {
		if existing.Username == u.Username || existing.Email == u.Email {
			return domain.User{}, store.ErrAlreadyExists
		}
	}

	m.nextID++
	u.ID = m.nextID
	u.Active = true
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.byID[u.ID] = u
	return u, nil
}

func (m *Users) GetUserByID(_ context.Context, id int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *Users) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, store.ErrNotFound
}

func (m *Users) GetUserByUsernameOrEmail(_ context.Context, identifier string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.byID {
		if u.Username == identifier || u.Email == identifier {
			return u, nil
		}
	}
	return domain.User{}, store.ErrNotFound
}

func (m *Users) UpdateUser(_ context.Context, upd domain.UserUpdate) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[upd.ID]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	for id, other := range m.byID {
		if id == upd.ID {
			continue
		}
		if upd.Username != nil && other.Username == *upd.Username {
			return domain.User{}, store.ErrAlreadyExists
		}
		if upd.Email != nil && other.Email == *upd.Email {
			return domain.User{}, store.ErrAlreadyExists
		}
	}

	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.PhoneNumber != nil {
		u.PhoneNumber = upd.PhoneNumber
	}
	u.UpdatedAt = time.Now()
	m.byID[u.ID] = u
	return u, nil
}

func (m *Users) UpdatePasswordHash(_ context.Context, userID int64, newHash string) error {
	return m.mutate(userID, func(u *domain.User) { u.PasswordHash = newHash })
}

func (m *Users) UpdateRole(_ context.Context, userID int64, role domain.Role) error {
	return m.mutate(userID, func(u *domain.User) { u.Role = role })
}

func (m *Users) SetActive(_ context.Context, userID int64, active bool) error {
	return m.mutate(userID, func(u *domain.User) { u.Active = active })
}

func (m *Users) SetEmailVerified(_ context.Context, userID int64, verified bool) error {
	return m.mutate(userID, func(u *domain.User) { u.EmailVerified = verified })
}

func (m *Users) TouchLastLogin(_ context.Context, userID int64) error {
	if m.TouchErr != nil {
		return m.TouchErr
	}
	now := time.Now()
	return m.mutate(userID, func(u *domain.User) { u.LastLogin = &now })
}

func (m *Users) CountUsers(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.byID)), nil
}

func (m *Users) ListUsers(_ context.Context, limit, offset int64) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return page(m.sorted(), limit, offset), nil
}

func (m *Users) SearchUsers(_ context.Context, query string, limit, offset int64) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := strings.ToLower(query)
	var matched []domain.User
	for _, u := range m.sorted() {
		if strings.Contains(strings.ToLower(u.Username), q) ||
			strings.Contains(strings.ToLower(u.FullName), q) ||
			strings.Contains(strings.ToLower(u.Email), q) {
			matched = append(matched, u)
		}
	}
	return page(matched, limit, offset), nil
}

func (m *Users) RecentUsers(_ context.Context, since time.Time, limit int64) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []domain.User
	for _, u := range m.sorted() {
		if u.CreatedAt.After(since) {
			matched = append(matched, u)
		}
	}
	return page(matched, limit, 0), nil
}

func (m *Users) mutate(userID int64, fn func(*domain.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[userID]
	if !ok {
		return store.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	m.byID[userID] = u
	return nil
}

func (m *Users) sorted() []domain.User {
	users := make([]domain.User, 0, len(m.byID))
	for _, u := range m.byID {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func page(users []domain.User, limit, offset int64) []domain.User {
	if offset >= int64(len(users)) {
		return nil
	}
	users = users[offset:]
	if limit > 0 && limit < int64(len(users)) {
		users = users[:limit]
	}
	return users
}

// Blacklist is an in-memory store.Blacklist keyed by token fingerprint, the
// same scheme the Redis driver uses.
type Blacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time

	// Err, when set, is returned from every operation. Used to exercise
	// fail-closed paths.
	Err error
}

func NewBlacklist() *Blacklist {
	return &Blacklist{entries: map[string]time.Time{}}
}

func (b *Blacklist) Blacklist(_ context.Context, token string, _ int64, ttl time.Duration) error {
	if b.Err != nil {
		return b.Err
	}
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[cryptox.FingerprintToken(token)] = time.Now().Add(ttl)
	return nil
}

func (b *Blacklist) IsBlacklisted(_ context.Context, token string) (bool, error) {
	if b.Err != nil {
		return false, b.Err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	deadline, ok := b.entries[cryptox.FingerprintToken(token)]
	return ok && time.Now().Before(deadline), nil
}

func (b *Blacklist) Ping(context.Context) error { return b.Err }
func (b *Blacklist) Close() error               { return nil }
