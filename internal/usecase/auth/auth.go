package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/abyuwono/bagasi/internal/domain/account"
	"github.com/abyuwono/bagasi/internal/validation"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDeactivated        = errors.New(account.DeactivatedMessage)
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotFound           = errors.New("user not found")
)

type Store interface {
	FindByEmail(ctx context.Context, email string) (*Credentials, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, in RegisterInput, passwordHash string) (*User, error)
}

// Claims carried by user tokens.
type Claims struct {
	UserID string
	Role   account.Role
}

type Usecase struct {
	store     Store
	jwtSecret []byte
	expMin    int
	now       func() time.Time
}

func New(store Store, jwtSecret string, expiresMinutes int) *Usecase {
	if expiresMinutes <= 0 {
		expiresMinutes = 60
	}
	return &Usecase{
		store:     store,
		jwtSecret: []byte(jwtSecret),
		expMin:    expiresMinutes,
		now:       time.Now,
	}
}

func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*LoginResult, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := u.store.Create(ctx, in, string(hash))
	if err != nil {
		return nil, err
	}
	return u.issue(user)
}

func (u *Usecase) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || in.Password == "" {
		return nil, ErrInvalidInput
	}

	cred, err := u.store.FindByEmail(ctx, in.Email)
	if err != nil {
		// Hide whether email exists
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !cred.Active {
		return nil, ErrDeactivated
	}

	return u.issue(&cred.User)
}

// Me returns the account behind a validated token. A deactivated account yields ErrDeactivated.
func (u *Usecase) Me(ctx context.Context, userID string) (*User, error) {
	user, err := u.store.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, ErrDeactivated
	}
	return user, nil
}

func (u *Usecase) issue(user *User) (*LoginResult, error) {
	now := u.now()
	exp := now.Add(time.Duration(u.expMin) * time.Minute)

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"typ":  "user",
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(u.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:     signed,
		ExpiresIn: u.expMin * 60,
		User:      user,
	}, nil
}

// ParseToken validates an HS256 user token.
func ParseToken(secret []byte, tokenStr string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidCredentials
		}
		return secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if typ, _ := mc["typ"].(string); typ != "user" {
		return nil, ErrInvalidCredentials
	}

	sub, _ := mc["sub"].(string)
	role, _ := mc["role"].(string)
	if sub == "" {
		return nil, ErrInvalidCredentials
	}
	return &Claims{UserID: sub, Role: account.Role(role)}, nil
}
