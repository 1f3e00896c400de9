package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	authuc "github.com/abyuwono/bagasi/internal/usecase/auth"
)

type memStore struct {
	users map[string]*authuc.User
}

func (m *memStore) GetByID(_ context.Context, id string) (*authuc.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) List(_ context.Context, _ ListQuery) ([]authuc.User, error) {
	out := make([]authuc.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memStore) SetActive(ctx context.Context, id string, active bool) (*authuc.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.Active = active
	return m.GetByID(ctx, id)
}

func (m *memStore) ExtendMembership(ctx context.Context, id string, until time.Time) (*authuc.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.MembershipExpiresAt = &until
	return m.GetByID(ctx, id)
}

const userID = "0b7f1f2e-52c4-4bb4-8d0e-8c3a1d5f9a10"

func TestDeactivateReactivate(t *testing.T) {
	store := &memStore{users: map[string]*authuc.User{userID: {ID: userID, Active: true}}}
	uc := New(store)

	u, err := uc.Deactivate(context.Background(), userID)
	require.NoError(t, err)
	require.False(t, u.Active)

	u, err = uc.Reactivate(context.Background(), userID)
	require.NoError(t, err)
	require.True(t, u.Active)

	_, err = uc.Deactivate(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestGrantMembership_Stacks(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	current := now.AddDate(0, 0, 5)
	store := &memStore{users: map[string]*authuc.User{userID: {ID: userID, Active: true, MembershipExpiresAt: &current}}}
	uc := New(store)
	uc.now = func() time.Time { return now }

	u, err := uc.GrantMembership(context.Background(), userID, 30)
	require.NoError(t, err)
	require.Equal(t, current.AddDate(0, 0, 30), *u.MembershipExpiresAt)
	require.True(t, u.HasMembership(now))
}

func TestGrantMembership_ExpiredStartsNow(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	old := now.AddDate(0, -1, 0)
	store := &memStore{users: map[string]*authuc.User{userID: {ID: userID, MembershipExpiresAt: &old}}}
	uc := New(store)
	uc.now = func() time.Time { return now }

	u, err := uc.GrantMembership(context.Background(), userID, 30)
	require.NoError(t, err)
	require.Equal(t, now.AddDate(0, 0, 30), *u.MembershipExpiresAt)
}
