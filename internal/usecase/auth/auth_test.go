package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/abyuwono/bagasi/internal/domain/account"
	"github.com/abyuwono/bagasi/internal/validation"
)

type memStore struct {
	byEmail map[string]*Credentials
}

func newMemStore() *memStore {
	return &memStore{byEmail: map[string]*Credentials{}}
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*Credentials, error) {
	c, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *memStore) FindByID(_ context.Context, id string) (*User, error) {
	for _, c := range m.byEmail {
		if c.ID == id {
			u := c.User
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) Create(_ context.Context, in RegisterInput, hash string) (*User, error) {
	if _, ok := m.byEmail[in.Email]; ok {
		return nil, ErrEmailTaken
	}
	c := &Credentials{
		User:         User{ID: uuid.NewString(), Name: in.Name, Email: in.Email, Role: in.Role, Active: true},
		PasswordHash: hash,
	}
	m.byEmail[in.Email] = c
	u := c.User
	return &u, nil
}

func TestRegisterAndLogin(t *testing.T) {
	store := newMemStore()
	uc := New(store, "test-secret", 60)
	ctx := context.Background()

	reg, err := uc.Register(ctx, RegisterInput{
		Name:     "Sari",
		Email:    " Sari@Example.com ",
		Password: "rahasia123",
		Role:     account.RoleTraveler,
	})
	require.NoError(t, err)
	require.NotEmpty(t, reg.Token)
	require.Equal(t, "sari@example.com", reg.User.Email)

	claims, err := ParseToken([]byte("test-secret"), reg.Token)
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, claims.UserID)
	require.Equal(t, account.RoleTraveler, claims.Role)

	res, err := uc.Login(ctx, LoginInput{Email: "sari@example.com", Password: "rahasia123"})
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, res.User.ID)
	require.Equal(t, 3600, res.ExpiresIn)
}

func TestRegister_ValidationErrors(t *testing.T) {
	uc := New(newMemStore(), "s", 60)

	_, err := uc.Register(context.Background(), RegisterInput{Name: "A", Email: "nope", Password: "short", Role: "pilot"})
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 4)
}

func TestLogin_WrongPassword(t *testing.T) {
	store := newMemStore()
	uc := New(store, "s", 60)
	_, err := uc.Register(context.Background(), RegisterInput{Name: "Budi", Email: "budi@example.com", Password: "password1", Role: account.RoleShopper})
	require.NoError(t, err)

	_, err = uc.Login(context.Background(), LoginInput{Email: "budi@example.com", Password: "password2"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = uc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "password1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginAndMe_Deactivated(t *testing.T) {
	store := newMemStore()
	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)
	store.byEmail["off@example.com"] = &Credentials{
		User:         User{ID: "u-off", Email: "off@example.com", Role: account.RoleShopper, Active: false},
		PasswordHash: string(hash),
	}
	uc := New(store, "s", 60)

	_, err = uc.Login(context.Background(), LoginInput{Email: "off@example.com", Password: "password1"})
	require.ErrorIs(t, err, ErrDeactivated)
	require.Equal(t, account.DeactivatedMessage, err.Error())

	_, err = uc.Me(context.Background(), "u-off")
	require.ErrorIs(t, err, ErrDeactivated)
}

func TestParseToken_Rejects(t *testing.T) {
	_, err := ParseToken([]byte("s"), "not-a-token")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	uc := New(newMemStore(), "other-secret", 60)
	res, err := uc.issue(&User{ID: "u1", Role: account.RoleShopper})
	require.NoError(t, err)

	_, err = ParseToken([]byte("s"), res.Token)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
