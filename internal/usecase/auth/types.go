package auth

import (
	"time"

	"github.com/abyuwono/bagasi/internal/domain/account"
)

type User struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	Email               string       `json:"email"`
	Role                account.Role `json:"role"`
	Phone               *string      `json:"phone,omitempty"`
	Rating              *string      `json:"rating,omitempty"`
	Active              bool         `json:"active"`
	MembershipExpiresAt *time.Time   `json:"membershipExpiresAt,omitempty"`
	CreatedAt           time.Time    `json:"createdAt"`
}

func (u User) HasMembership(now time.Time) bool {
	return u.MembershipExpiresAt != nil && now.Before(*u.MembershipExpiresAt)
}

// Credentials is a user together with its password hash; never serialized.
type Credentials struct {
	User
	PasswordHash string
}

type RegisterInput struct {
	Name     string       `json:"name" validate:"required,min=2,max=80"`
	Email    string       `json:"email" validate:"required,email"`
	Password string       `json:"password" validate:"required,min=8,max=72"`
	Role     account.Role `json:"role" validate:"required,oneof=shopper traveler"`
	Phone    *string      `json:"phone" validate:"omitempty,min=6,max=20"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"` // seconds
	User      *User  `json:"user"`
}
