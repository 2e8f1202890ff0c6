package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Auth-ism/ann-ai-backend/internal/auth/domain"
	"github.com/Auth-ism/ann-ai-backend/internal/auth/store"
)

type usersRepo struct {
	pool *pgxpool.Pool
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, full_name, email, password_hash, phone_number, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		u.Username,
		u.FullName,
		u.Email,
		u.PasswordHash,
		u.PhoneNumber,
		u.Role.String(),
	)

	created, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapConflict(err)
	}
	return created, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByUsernameOrEmail(ctx context.Context, identifier string) (domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1`, identifier)

	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) UpdateUser(ctx context.Context, upd domain.UserUpdate) (domain.User, error) {
	// COALESCE keeps columns untouched for nil fields.
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET
			username     = COALESCE($2, username),
			full_name    = COALESCE($3, full_name),
			email        = COALESCE($4, email),
			phone_number = COALESCE($5, phone_number),
			updated_at   = now()
		WHERE id = $1
		RETURNING `+userColumns,
		upd.ID,
		upd.Username,
		upd.FullName,
		upd.Email,
		upd.PhoneNumber,
	)

	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapConflict(mapNotFound(err))
	}
	return u, nil
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error {
	return r.exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`,
		userID, newHash)
}

func (r *usersRepo) UpdateRole(ctx context.Context, userID int64, role domain.Role) error {
	return r.exec(ctx,
		`UPDATE users SET role = $2, updated_at = now() WHERE id = $1`,
		userID, role.String())
}

func (r *usersRepo) SetActive(ctx context.Context, userID int64, active bool) error {
	return r.exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`,
		userID, active)
}

func (r *usersRepo) SetEmailVerified(ctx context.Context, userID int64, verified bool) error {
	return r.exec(ctx,
		`UPDATE users SET email_verified = $2, updated_at = now() WHERE id = $1`,
		userID, verified)
}

func (r *usersRepo) TouchLastLogin(ctx context.Context, userID int64) error {
	return r.exec(ctx,
		`UPDATE users SET last_login = now() WHERE id = $1`, userID)
}

// exec runs a single-row update, translating zero rows affected into
// ErrNotFound.
func (r *usersRepo) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&count)
	return count, err
}

func (r *usersRepo) ListUsers(ctx context.Context, limit, offset int64) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectUsers(rows)
}

func (r *usersRepo) SearchUsers(ctx context.Context, query string, limit, offset int64) ([]domain.User, error) {
	pattern := "%" + query + "%"
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE username ILIKE $1 OR full_name ILIKE $1 OR email ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		pattern, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectUsers(rows)
}

func (r *usersRepo) RecentUsers(ctx context.Context, since time.Time, limit int64) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE created_at >= $1
		ORDER BY created_at DESC
		LIMIT $2`,
		since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectUsers(rows)
}

type pgxRows interface {
	rowScanner
	Next() bool
	Err() error
}

func collectUsers(rows pgxRows) ([]domain.User, error) {
	users := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
