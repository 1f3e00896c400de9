package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/abyuwono/bagasi/internal/delivery/middleware"
	"github.com/abyuwono/bagasi/internal/domain/account"
	authuc "github.com/abyuwono/bagasi/internal/usecase/auth"
	"github.com/abyuwono/bagasi/internal/validation"
)

type Handler struct {
	uc *authuc.Usecase
}

func New(uc *authuc.Usecase) *Handler {
	return &Handler{uc: uc}
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var in authuc.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json body")
	}
	res, err := h.uc.Register(c.UserContext(), in)
	if err != nil {
		return mapErr(err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var in authuc.LoginInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json body")
	}
	res, err := h.uc.Login(c.UserContext(), in)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(res)
}

func (h *Handler) Me(c *fiber.Ctx) error {
	user, err := h.uc.Me(c.UserContext(), middleware.ViewerFrom(c).ID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(user)
}

func mapErr(err error) error {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return err
	case errors.Is(err, authuc.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, authuc.ErrInvalidCredentials), errors.Is(err, authuc.ErrNotFound):
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, authuc.ErrDeactivated):
		return fiber.NewError(fiber.StatusForbidden, account.DeactivatedMessage)
	case errors.Is(err, authuc.ErrEmailTaken):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
