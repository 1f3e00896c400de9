package chat

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/abyuwono/bagasi/internal/delivery/middleware"
	"github.com/abyuwono/bagasi/internal/domain/listing"
	chatuc "github.com/abyuwono/bagasi/internal/usecase/chat"
)

type Handler struct {
	uc *chatuc.Usecase
}

func New(uc *chatuc.Usecase) *Handler {
	return &Handler{uc: uc}
}

func (h *Handler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), c.Params("id"), middleware.ViewerFrom(c).ID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(out)
}

type sendRequest struct {
	Body string `json:"body"`
}

func (h *Handler) Send(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	out, err := h.uc.Send(c.UserContext(), c.Params("id"), middleware.ViewerFrom(c).ID, req.Body)
	if err != nil {
		return mapErr(err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, chatuc.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, chatuc.ErrNotFound), errors.Is(err, listing.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, listing.ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	default:
		return err
	}
}
