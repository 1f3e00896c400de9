package search

import (
	"github.com/gofiber/fiber/v2"

	suggestuc "github.com/abyuwono/bagasi/internal/usecase/suggest"
)

type Handler struct {
	uc *suggestuc.Usecase
}

func New(uc *suggestuc.Usecase) *Handler {
	return &Handler{uc: uc}
}

func (h *Handler) Suggestions(c *fiber.Ctx) error {
	out, err := h.uc.Suggest(c.UserContext(), c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}
