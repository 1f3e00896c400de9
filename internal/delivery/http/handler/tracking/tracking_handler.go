package tracking

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/abyuwono/bagasi/internal/delivery/middleware"
	"github.com/abyuwono/bagasi/internal/domain/listing"
	sauc "github.com/abyuwono/bagasi/internal/usecase/shopperad"
	trackinguc "github.com/abyuwono/bagasi/internal/usecase/tracking"
)

type Handler struct {
	uc *trackinguc.Usecase
}

func New(uc *trackinguc.Usecase) *Handler {
	return &Handler{uc: uc}
}

func (h *Handler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("adId"), middleware.ViewerFrom(c))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(out)
}

func (h *Handler) URL(c *fiber.Ctx) error {
	u, err := h.uc.URL(c.UserContext(), c.Params("adId"), middleware.ViewerFrom(c))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(fiber.Map{"url": u})
}

type numberRequest struct {
	TrackingNumber string `json:"trackingNumber"`
}

func (h *Handler) AttachNumber(c *fiber.Ctx) error {
	var req numberRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	out, err := h.uc.AttachNumber(c.UserContext(), c.Params("adId"), middleware.ViewerFrom(c), req.TrackingNumber)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(out)
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, sauc.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, sauc.ErrNotFound), errors.Is(err, trackinguc.ErrNoTracking):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, listing.ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, listing.ErrInvalidTransition), errors.Is(err, sauc.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
