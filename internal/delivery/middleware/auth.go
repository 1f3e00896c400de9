package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/abyuwono/bagasi/internal/domain/account"
	authuc "github.com/abyuwono/bagasi/internal/usecase/auth"
)

const (
	localUserID = "user_id"
	localRole   = "role"
	localMember = "member"
)

// ErrUnknownAccount is returned by an AccountLookup when the token's user no longer exists.
var ErrUnknownAccount = errors.New("unknown account")

// AccountState is the caller's current account standing, read on every authenticated request.
type AccountState struct {
	Active bool
	Member bool
}

type AccountLookup func(ctx context.Context, userID string) (AccountState, error)

type AuthConfig struct {
	Secret string
	// Optional lets anonymous requests through; a present but invalid token is still rejected.
	// A deactivated caller is treated as anonymous.
	Optional bool
	Accounts AccountLookup
}

func Auth(cfg AuthConfig) fiber.Handler {
	secret := []byte(cfg.Secret)

	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			if cfg.Optional {
				return c.Next()
			}
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		claims, err := authuc.ParseToken(secret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		member := false
		if cfg.Accounts != nil {
			st, err := cfg.Accounts(c.UserContext(), claims.UserID)
			switch {
			case errors.Is(err, ErrUnknownAccount):
				return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
			case err != nil:
				slog.ErrorContext(c.UserContext(), "account lookup failed", "user_id", claims.UserID, "err", err)
				return fiber.ErrInternalServerError
			case !st.Active:
				if cfg.Optional {
					return c.Next()
				}
				return fiber.NewError(fiber.StatusForbidden, account.DeactivatedMessage)
			}
			member = st.Member
		}

		c.Locals(localUserID, claims.UserID)
		c.Locals(localRole, string(claims.Role))
		c.Locals(localMember, member)
		return c.Next()
	}
}

// RequireAdmin must run after Auth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role, _ := c.Locals(localRole).(string); role != string(account.RoleAdmin) {
			return fiber.NewError(fiber.StatusForbidden, "admin only")
		}
		return c.Next()
	}
}

// ViewerFrom returns the caller set by Auth; anonymous callers get a zero Viewer.
func ViewerFrom(c *fiber.Ctx) account.Viewer {
	id, _ := c.Locals(localUserID).(string)
	role, _ := c.Locals(localRole).(string)
	member, _ := c.Locals(localMember).(bool)
	return account.Viewer{ID: id, Role: account.Role(role), Member: member}
}
