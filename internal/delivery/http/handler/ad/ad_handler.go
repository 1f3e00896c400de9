package ad

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/abyuwono/bagasi/internal/delivery/middleware"
	"github.com/abyuwono/bagasi/internal/domain/listing"
	aduc "github.com/abyuwono/bagasi/internal/usecase/ad"
	"github.com/abyuwono/bagasi/internal/validation"
)

type Handler struct {
	uc *aduc.Usecase
}

func New(uc *aduc.Usecase) *Handler {
	return &Handler{uc: uc}
}

func (h *Handler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), aduc.ListFilter{
		Departure: c.Query("departure"),
		Arrival:   c.Query("arrival"),
		Status:    listing.Status(c.Query("status")),
	}, middleware.ViewerFrom(c))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(out)
}

func (h *Handler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"), middleware.ViewerFrom(c))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(out)
}

func (h *Handler) Update(c *fiber.Ctx) error {
	var in aduc.UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), middleware.ViewerFrom(c), in)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(out)
}

func (h *Handler) Book(c *fiber.Ctx) error {
	var in aduc.BookInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	out, err := h.uc.Book(c.UserContext(), c.Params("id"), middleware.ViewerFrom(c), in)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(out)
}

func mapErr(err error) error {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return err
	case errors.Is(err, aduc.ErrInvalidInput), errors.Is(err, aduc.ErrOverCapacity):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, aduc.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, listing.ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, listing.ErrInvalidTransition), errors.Is(err, aduc.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
