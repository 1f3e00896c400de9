package review

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/abyuwono/bagasi/internal/delivery/middleware"
	"github.com/abyuwono/bagasi/internal/domain/listing"
	reviewuc "github.com/abyuwono/bagasi/internal/usecase/review"
	"github.com/abyuwono/bagasi/internal/validation"
)

type Handler struct {
	uc *reviewuc.Usecase
}

func New(uc *reviewuc.Usecase) *Handler {
	return &Handler{uc: uc}
}

func (h *Handler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), c.Params("adId"))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(out)
}

func (h *Handler) Create(c *fiber.Ctx) error {
	var in reviewuc.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	out, err := h.uc.Create(c.UserContext(), c.Params("adId"), middleware.ViewerFrom(c).ID, in)
	if err != nil {
		return mapErr(err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *Handler) Report(c *fiber.Ctx) error {
	var in reviewuc.ReportInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	out, err := h.uc.Report(c.UserContext(), c.Params("id"), middleware.ViewerFrom(c).ID, in)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(out)
}

func (h *Handler) HandleReport(c *fiber.Ctx) error {
	var in reviewuc.HandleInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	out, err := h.uc.HandleReport(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(out)
}

func (h *Handler) ListReported(c *fiber.Ctx) error {
	out, err := h.uc.ListReported(c.UserContext())
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
	case errors.Is(err, reviewuc.ErrInvalidInput), errors.Is(err, reviewuc.ErrNotSettled):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, reviewuc.ErrNotFound), errors.Is(err, listing.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, listing.ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, reviewuc.ErrAlreadyReviewed):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
