package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PGRepo struct {
	DB *sql.DB
}

const userColumns = `id, email, password_hash, full_name, picture_url, provider, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (` + userColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, now(), now())`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		nullableString(user.PasswordHash),
		nullableString(user.FullName),
		nullableString(user.PictureURL),
		user.Provider,
	)
	return mapWriteError(err)
}

func (r *PGRepo) Upsert(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (` + userColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, now(), now())
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  password_hash = COALESCE(EXCLUDED.password_hash, users.password_hash),
  full_name = EXCLUDED.full_name,
  picture_url = EXCLUDED.picture_url,
  updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		nullableString(user.PasswordHash),
		nullableString(user.FullName),
		nullableString(user.PictureURL),
		user.Provider,
	)
	return mapWriteError(err)
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	const query = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1
LIMIT 1`
	return scanUser(r.DB.QueryRowContext(ctx, query, userID))
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	const query = `
SELECT ` + userColumns + `
FROM users
WHERE email = $1
LIMIT 1`
	return scanUser(r.DB.QueryRowContext(ctx, query, email))
}

func (r *PGRepo) Delete(ctx context.Context, userID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanUser(row *sql.Row) (User, error) {
	var user User
	var passwordHash, fullName, pictureURL sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Email,
		&passwordHash,
		&fullName,
		&pictureURL,
		&user.Provider,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.PasswordHash = passwordHash.String
	user.FullName = fullName.String
	user.PictureURL = pictureURL.String
	return user, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	return err
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
