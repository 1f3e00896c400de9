package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRow struct {
	ID                  string
	Name                string
	Email               string
	PasswordHash        string
	Role                string
	Phone               *string
	Rating              *string
	IsActive            bool
	MembershipExpiresAt *time.Time
	CreatedAt           time.Time
}

type UserRepo struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `
  id::text, name, email, password_hash, role, phone, rating::text,
  is_active, membership_expires_at, created_at`

func scanUser(row pgx.Row) (*UserRow, error) {
	var out UserRow
	if err := row.Scan(
		&out.ID,
		&out.Name,
		&out.Email,
		&out.PasswordHash,
		&out.Role,
		&out.Phone,
		&out.Rating,
		&out.IsActive,
		&out.MembershipExpiresAt,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *UserRepo) Create(ctx context.Context, in UserRow) (*UserRow, error) {
	q := `
INSERT INTO users (name, email, password_hash, role, phone)
VALUES ($1, $2, $3, $4, $5)
RETURNING` + userColumns + `;`
	return scanUser(r.db.QueryRow(ctx, q, in.Name, in.Email, in.PasswordHash, in.Role, in.Phone))
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*UserRow, error) {
	q := `SELECT` + userColumns + `
FROM users
WHERE email = $1
LIMIT 1;`
	return scanUser(r.db.QueryRow(ctx, q, email))
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*UserRow, error) {
	q := `SELECT` + userColumns + `
FROM users
WHERE id = $1::uuid
LIMIT 1;`
	return scanUser(r.db.QueryRow(ctx, q, id))
}

func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]UserRow, error) {
	q := `SELECT` + userColumns + `
FROM users
ORDER BY created_at DESC
LIMIT $1 OFFSET $2;`
	rows, err := r.db.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]UserRow, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) (*UserRow, error) {
	q := `
UPDATE users
SET is_active = $2, updated_at = now()
WHERE id = $1::uuid
RETURNING` + userColumns + `;`
	return scanUser(r.db.QueryRow(ctx, q, id, active))
}

func (r *UserRepo) SetMembership(ctx context.Context, id string, until time.Time) (*UserRow, error) {
	q := `
UPDATE users
SET membership_expires_at = $2, updated_at = now()
WHERE id = $1::uuid
RETURNING` + userColumns + `;`
	return scanUser(r.db.QueryRow(ctx, q, id, until))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
