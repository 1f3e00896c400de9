package notification

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/abyuwono/bagasi/internal/delivery/middleware"
	notifuc "github.com/abyuwono/bagasi/internal/usecase/notification"
	"github.com/abyuwono/bagasi/internal/validation"
)

type Handler struct {
	uc *notifuc.Usecase
}

func New(uc *notifuc.Usecase) *Handler {
	return &Handler{uc: uc}
}

func (h *Handler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), middleware.ViewerFrom(c).ID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(out)
}

func (h *Handler) Unread(c *fiber.Ctx) error {
	n, err := h.uc.UnreadCount(c.UserContext(), middleware.ViewerFrom(c).ID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(fiber.Map{"count": n})
}

func (h *Handler) MarkAllRead(c *fiber.Ctx) error {
	n, err := h.uc.MarkAllRead(c.UserContext(), middleware.ViewerFrom(c).ID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(fiber.Map{"updated": n})
}

func (h *Handler) SaveSubscription(c *fiber.Ctx) error {
	var sub notifuc.PushSubscription
	if err := c.BodyParser(&sub); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if err := h.uc.SaveSubscription(c.UserContext(), middleware.ViewerFrom(c).ID, sub); err != nil {
		return mapErr(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func mapErr(err error) error {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return err
	case errors.Is(err, notifuc.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return err
	}
}
