package payment

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/abyuwono/bagasi/internal/delivery/middleware"
	"github.com/abyuwono/bagasi/internal/domain/listing"
	aduc "github.com/abyuwono/bagasi/internal/usecase/ad"
	payuc "github.com/abyuwono/bagasi/internal/usecase/payment"
	sauc "github.com/abyuwono/bagasi/internal/usecase/shopperad"
	"github.com/abyuwono/bagasi/internal/validation"
)

const (
	streamMaxAge    = 30 * time.Minute
	streamHeartbeat = 15 * time.Second
)

type StripeWebhooks interface {
	ParseWebhook(payload []byte, signature string) (*payuc.ProviderEvent, error)
}

type MidtransNotifications interface {
	ParseNotification(body []byte) (*payuc.ProviderEvent, error)
}

type Handler struct {
	uc       *payuc.Usecase
	stripe   StripeWebhooks
	midtrans MidtransNotifications
}

// New takes nil for a provider that is not configured; its webhook then answers 404.
func New(uc *payuc.Usecase, stripe StripeWebhooks, midtrans MidtransNotifications) *Handler {
	return &Handler{uc: uc, stripe: stripe, midtrans: midtrans}
}

type shopperAdIntentRequest struct {
	ShopperAdID string `json:"shopperAdId"`
}

func (h *Handler) CreatePaymentIntent(c *fiber.Ctx) error {
	var req shopperAdIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	out, err := h.uc.CreatePaymentIntent(c.UserContext(), middleware.ViewerFrom(c), req.ShopperAdID)
	if err != nil {
		return mapErr(err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

type adPostingIntentRequest struct {
	Ad       aduc.CreateInput `json:"ad"`
	Provider payuc.Provider   `json:"provider"`
}

func (h *Handler) CreateAdPostingIntent(c *fiber.Ctx) error {
	var req adPostingIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	out, err := h.uc.CreateAdPostingIntent(c.UserContext(), middleware.ViewerFrom(c), req.Ad, req.Provider)
	if err != nil {
		return mapErr(err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

type membershipIntentRequest struct {
	Provider payuc.Provider `json:"provider"`
}

func (h *Handler) CreateMembershipIntent(c *fiber.Ctx) error {
	var req membershipIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	out, err := h.uc.CreateMembershipIntent(c.UserContext(), middleware.ViewerFrom(c), req.Provider)
	if err != nil {
		return mapErr(err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *Handler) MembershipPrice(c *fiber.Ctx) error {
	return c.JSON(h.uc.MembershipPrice())
}

func (h *Handler) Status(c *fiber.Ctx) error {
	out, err := h.uc.Status(c.UserContext(), c.Params("orderId"), middleware.ViewerFrom(c).ID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(out)
}

// Stream pushes status changes of one order as server-sent events until it settles.
func (h *Handler) Stream(c *fiber.Ctx) error {
	orderID := c.Params("orderId")
	userID := middleware.ViewerFrom(c).ID

	// subscribe first so a settlement landing during the initial read is not lost
	updates, release := h.uc.Hub().Subscribe(orderID)

	first, err := h.uc.Status(c.UserContext(), orderID, userID)
	if err != nil {
		release()
		return mapErr(err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer release()

		// the request context is recycled once the handler returns
		ctx, cancel := context.WithTimeout(context.Background(), streamMaxAge)
		defer cancel()

		if writeEvent(w, first) != nil || first.Status.Terminal() {
			return
		}

		tick := time.NewTicker(streamHeartbeat)
		defer tick.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case v := <-updates:
				if writeEvent(w, &v) != nil || v.Status.Terminal() {
					return
				}
			case <-tick.C:
				// also covers providers whose webhook never arrives
				v, err := h.uc.Status(ctx, orderID, userID)
				if err != nil {
					slog.Warn("payment stream refresh failed", "order_id", orderID, "err", err)
					if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil || w.Flush() != nil {
						return
					}
					continue
				}
				if writeEvent(w, v) != nil || v.Status.Terminal() {
					return
				}
			}
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, v *payuc.StatusView) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: status\ndata: %s\n\n", b); err != nil {
		return err
	}
	return w.Flush()
}

func (h *Handler) StripeWebhook(c *fiber.Ctx) error {
	if h.stripe == nil {
		return fiber.ErrNotFound
	}
	ev, err := h.stripe.ParseWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		return mapErr(err)
	}
	return h.settle(c, ev)
}

func (h *Handler) MidtransWebhook(c *fiber.Ctx) error {
	if h.midtrans == nil {
		return fiber.ErrNotFound
	}
	ev, err := h.midtrans.ParseNotification(c.Body())
	if err != nil {
		return mapErr(err)
	}
	return h.settle(c, ev)
}

func (h *Handler) settle(c *fiber.Ctx, ev *payuc.ProviderEvent) error {
	if ev != nil {
		if err := h.uc.HandleEvent(c.UserContext(), *ev); err != nil {
			return mapErr(err)
		}
	}
	return c.JSON(fiber.Map{"received": true})
}

func mapErr(err error) error {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return err
	case errors.Is(err, payuc.ErrInvalidInput), errors.Is(err, aduc.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, payuc.ErrInvalidSignature):
		return fiber.NewError(fiber.StatusBadRequest, "invalid signature")
	case errors.Is(err, payuc.ErrNotFound), errors.Is(err, sauc.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, listing.ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, listing.ErrInvalidTransition):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, payuc.ErrPaymentFailed):
		return fiber.NewError(fiber.StatusPaymentRequired, err.Error())
	case errors.Is(err, payuc.ErrProviderDisabled):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, payuc.ErrProviderDown):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return err
	}
}
