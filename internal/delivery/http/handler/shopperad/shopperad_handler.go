package shopperad

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/abyuwono/bagasi/internal/delivery/middleware"
	"github.com/abyuwono/bagasi/internal/domain/listing"
	sauc "github.com/abyuwono/bagasi/internal/usecase/shopperad"
	"github.com/abyuwono/bagasi/internal/validation"
)

type Handler struct {
	uc *sauc.Usecase
}

func New(uc *sauc.Usecase) *Handler {
	return &Handler{uc: uc}
}

func (h *Handler) Create(c *fiber.Ctx) error {
	var in sauc.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	out, err := h.uc.Create(c.UserContext(), middleware.ViewerFrom(c), in)
	if err != nil {
		return mapErr(err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *Handler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), sauc.ListFilter{
		Status: listing.Status(c.Query("status")),
	}, middleware.ViewerFrom(c))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(out)
}

func (h *Handler) Mine(c *fiber.Ctx) error {
	out, err := h.uc.ListMine(c.UserContext(), middleware.ViewerFrom(c))
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
	var in sauc.UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), middleware.ViewerFrom(c), in)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(out)
}

type action func(c *fiber.Ctx, id string, viewer sauc.Viewer) (*sauc.ShopperAd, error)

func (h *Handler) run(fn action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := fn(c, c.Params("id"), middleware.ViewerFrom(c))
		if err != nil {
			return mapErr(err)
		}
		return c.JSON(out)
	}
}

func (h *Handler) Request() fiber.Handler {
	return h.run(func(c *fiber.Ctx, id string, v sauc.Viewer) (*sauc.ShopperAd, error) {
		return h.uc.RequestHelp(c.UserContext(), id, v)
	})
}

func (h *Handler) AcceptTraveler() fiber.Handler {
	return h.run(func(c *fiber.Ctx, id string, v sauc.Viewer) (*sauc.ShopperAd, error) {
		return h.uc.AcceptTraveler(c.UserContext(), id, v)
	})
}

func (h *Handler) RejectTraveler() fiber.Handler {
	return h.run(func(c *fiber.Ctx, id string, v sauc.Viewer) (*sauc.ShopperAd, error) {
		return h.uc.RejectTraveler(c.UserContext(), id, v)
	})
}

func (h *Handler) Cancel() fiber.Handler {
	return h.run(func(c *fiber.Ctx, id string, v sauc.Viewer) (*sauc.ShopperAd, error) {
		return h.uc.Cancel(c.UserContext(), id, v)
	})
}

func (h *Handler) Complete() fiber.Handler {
	return h.run(func(c *fiber.Ctx, id string, v sauc.Viewer) (*sauc.ShopperAd, error) {
		return h.uc.Complete(c.UserContext(), id, v)
	})
}

type scrapeRequest struct {
	URL string `json:"url"`
}

func (h *Handler) Scrape(c *fiber.Ctx) error {
	var req scrapeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	out, err := h.uc.Scrape(c.UserContext(), req.URL)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(out)
}

func (h *Handler) CalculateFees(c *fiber.Ctx) error {
	var in sauc.FeeInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	out, err := h.uc.CalculateFees(in)
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
	case errors.Is(err, sauc.ErrInvalidInput), errors.Is(err, listing.ErrUnknownCurrency):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, sauc.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, listing.ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, listing.ErrInvalidTransition), errors.Is(err, sauc.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, sauc.ErrScrapeFailed):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return err
	}
}
