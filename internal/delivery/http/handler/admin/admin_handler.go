package admin

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	useruc "github.com/abyuwono/bagasi/internal/usecase/user"
)

type Handler struct {
	users *useruc.Usecase
}

func New(users *useruc.Usecase) *Handler {
	return &Handler{users: users}
}

func (h *Handler) ListUsers(c *fiber.Ctx) error {
	out, err := h.users.List(c.UserContext(), useruc.ListQuery{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	})
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(fiber.Map{"items": out})
}

func (h *Handler) Deactivate(c *fiber.Ctx) error {
	out, err := h.users.Deactivate(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(out)
}

func (h *Handler) Reactivate(c *fiber.Ctx) error {
	out, err := h.users.Reactivate(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(out)
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, useruc.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, useruc.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return err
	}
}
