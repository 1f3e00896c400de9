package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	authuc "github.com/abyuwono/bagasi/internal/usecase/auth"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

type ListQuery struct {
	Limit  int
	Offset int
}

type Store interface {
	GetByID(ctx context.Context, id string) (*authuc.User, error)
	List(ctx context.Context, q ListQuery) ([]authuc.User, error)
	SetActive(ctx context.Context, id string, active bool) (*authuc.User, error)
	ExtendMembership(ctx context.Context, id string, until time.Time) (*authuc.User, error)
}

type Usecase struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Usecase {
	return &Usecase{store: store, now: time.Now}
}

func (u *Usecase) GetByID(ctx context.Context, id string) (*authuc.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidInput
	}
	return u.store.GetByID(ctx, id)
}

func (u *Usecase) List(ctx context.Context, q ListQuery) ([]authuc.User, error) {
	if q.Limit <= 0 || q.Limit > 200 {
		q.Limit = 50
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return u.store.List(ctx, q)
}

func (u *Usecase) Deactivate(ctx context.Context, id string) (*authuc.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidInput
	}
	return u.store.SetActive(ctx, id, false)
}

func (u *Usecase) Reactivate(ctx context.Context, id string) (*authuc.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidInput
	}
	return u.store.SetActive(ctx, id, true)
}

// GrantMembership extends membership by days, stacking on an unexpired membership.
func (u *Usecase) GrantMembership(ctx context.Context, id string, days int) (*authuc.User, error) {
	if days <= 0 {
		return nil, ErrInvalidInput
	}
	cur, err := u.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := u.now()
	if cur.MembershipExpiresAt != nil && cur.MembershipExpiresAt.After(from) {
		from = *cur.MembershipExpiresAt
	}
	return u.store.ExtendMembership(ctx, id, from.AddDate(0, 0, days))
}
