package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/abyuwono/bagasi/internal/domain/account"
	authuc "github.com/abyuwono/bagasi/internal/usecase/auth"
	useruc "github.com/abyuwono/bagasi/internal/usecase/user"
)

// AuthStoreAdapter serves registration and login.
type AuthStoreAdapter struct {
	repo *UserRepo
}

func NewAuthStoreAdapter(repo *UserRepo) *AuthStoreAdapter {
	return &AuthStoreAdapter{repo: repo}
}

func (a *AuthStoreAdapter) FindByEmail(ctx context.Context, email string) (*authuc.Credentials, error) {
	row, err := a.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authuc.ErrNotFound
		}
		return nil, err
	}
	return &authuc.Credentials{User: *mapUser(row), PasswordHash: row.PasswordHash}, nil
}

func (a *AuthStoreAdapter) FindByID(ctx context.Context, id string) (*authuc.User, error) {
	row, err := a.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authuc.ErrNotFound
		}
		return nil, err
	}
	return mapUser(row), nil
}

func (a *AuthStoreAdapter) Create(ctx context.Context, in authuc.RegisterInput, passwordHash string) (*authuc.User, error) {
	row, err := a.repo.Create(ctx, UserRow{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: passwordHash,
		Role:         string(in.Role),
		Phone:        in.Phone,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, authuc.ErrEmailTaken
		}
		return nil, err
	}
	return mapUser(row), nil
}

// UserStoreAdapter serves admin user management.
type UserStoreAdapter struct {
	repo *UserRepo
}

func NewUserStoreAdapter(repo *UserRepo) *UserStoreAdapter {
	return &UserStoreAdapter{repo: repo}
}

func (a *UserStoreAdapter) GetByID(ctx context.Context, id string) (*authuc.User, error) {
	row, err := a.repo.GetByID(ctx, id)
	return a.one(row, err)
}

func (a *UserStoreAdapter) List(ctx context.Context, q useruc.ListQuery) ([]authuc.User, error) {
	rows, err := a.repo.List(ctx, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]authuc.User, 0, len(rows))
	for i := range rows {
		out = append(out, *mapUser(&rows[i]))
	}
	return out, nil
}

func (a *UserStoreAdapter) SetActive(ctx context.Context, id string, active bool) (*authuc.User, error) {
	row, err := a.repo.SetActive(ctx, id, active)
	return a.one(row, err)
}

func (a *UserStoreAdapter) ExtendMembership(ctx context.Context, id string, until time.Time) (*authuc.User, error) {
	row, err := a.repo.SetMembership(ctx, id, until)
	return a.one(row, err)
}

func (a *UserStoreAdapter) one(row *UserRow, err error) (*authuc.User, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, useruc.ErrNotFound
		}
		return nil, err
	}
	return mapUser(row), nil
}

func mapUser(r *UserRow) *authuc.User {
	return &authuc.User{
		ID:                  r.ID,
		Name:                r.Name,
		Email:               r.Email,
		Role:                account.Role(r.Role),
		Phone:               r.Phone,
		Rating:              r.Rating,
		Active:              r.IsActive,
		MembershipExpiresAt: r.MembershipExpiresAt,
		CreatedAt:           r.CreatedAt,
	}
}

// Compile-time checks
var (
	_ authuc.Store = (*AuthStoreAdapter)(nil)
	_ useruc.Store = (*UserStoreAdapter)(nil)
)
