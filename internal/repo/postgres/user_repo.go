package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sentinelworks/gatepass/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdatePhoto(ctx context.Context, id int64, photo string) error
	SetDemoFlag(ctx context.Context, id int64, isDemo bool) error
	SetDemoSessionID(ctx context.Context, id int64, sessionID string) error
	SetResetToken(ctx context.Context, id int64, tokenHash string, expiry time.Time) error
	ConsumeResetToken(ctx context.Context, tokenHash string, passwordHash string) (bool, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `id, name, email, password_hash, role, phone, designation, photo, staff_id, is_active, is_demo, demo_session_id, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Phone, &u.Designation,
		&u.Photo, &u.StaffID, &u.IsActive, &u.IsDemo, &u.DemoSessionID, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	const q = `
		INSERT INTO users (name, email, password_hash, role, phone, designation, photo, staff_id, is_active, is_demo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanUser(r.pool.QueryRow(ctx, q,
		u.Name, u.Email, u.PasswordHash, u.Role, u.Phone, u.Designation, u.Photo, u.StaffID, u.IsActive, u.IsDemo,
	))
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, email))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users ORDER BY created_at DESC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}

	return users, rows.Err()
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const q = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, passwordHash)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func (r *userRepository) UpdatePhoto(ctx context.Context, id int64, photo string) error {
	const q = `UPDATE users SET photo = $2, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, photo)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func (r *userRepository) SetDemoFlag(ctx context.Context, id int64, isDemo bool) error {
	const q = `UPDATE users SET is_demo = $2, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id, isDemo)
	return err
}

func (r *userRepository) SetDemoSessionID(ctx context.Context, id int64, sessionID string) error {
	const q = `UPDATE users SET demo_session_id = $2, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id, sessionID)
	return err
}

func (r *userRepository) SetResetToken(ctx context.Context, id int64, tokenHash string, expiry time.Time) error {
	const q = `UPDATE users SET reset_token_hash = $2, reset_token_expiry = $3, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id, tokenHash, expiry)
	return err
}

func (r *userRepository) ConsumeResetToken(ctx context.Context, tokenHash string, passwordHash string) (bool, error) {
	const q = `
		UPDATE users
		SET password_hash = $2, reset_token_hash = NULL, reset_token_expiry = NULL, updated_at = now()
		WHERE reset_token_hash = $1 AND reset_token_expiry > now()`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, tokenHash, passwordHash)
	if err != nil {
		return false, err
	}

	return result.RowsAffected() > 0, nil
}

func (r *userRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	const q = `SELECT count(*) FROM users WHERE role = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int64
	err := r.pool.QueryRow(ctx, q, role).Scan(&count)
	return count, err
}
