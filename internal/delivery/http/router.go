package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abyuwono/bagasi/internal/config"
	adhandler "github.com/abyuwono/bagasi/internal/delivery/http/handler/ad"
	adminhandler "github.com/abyuwono/bagasi/internal/delivery/http/handler/admin"
	authhandler "github.com/abyuwono/bagasi/internal/delivery/http/handler/auth"
	chathandler "github.com/abyuwono/bagasi/internal/delivery/http/handler/chat"
	notifhandler "github.com/abyuwono/bagasi/internal/delivery/http/handler/notification"
	payhandler "github.com/abyuwono/bagasi/internal/delivery/http/handler/payment"
	reviewhandler "github.com/abyuwono/bagasi/internal/delivery/http/handler/review"
	searchhandler "github.com/abyuwono/bagasi/internal/delivery/http/handler/search"
	sahandler "github.com/abyuwono/bagasi/internal/delivery/http/handler/shopperad"
	trackinghandler "github.com/abyuwono/bagasi/internal/delivery/http/handler/tracking"
	"github.com/abyuwono/bagasi/internal/delivery/middleware"
	aduc "github.com/abyuwono/bagasi/internal/usecase/ad"
	authuc "github.com/abyuwono/bagasi/internal/usecase/auth"
	chatuc "github.com/abyuwono/bagasi/internal/usecase/chat"
	notifuc "github.com/abyuwono/bagasi/internal/usecase/notification"
	payuc "github.com/abyuwono/bagasi/internal/usecase/payment"
	reviewuc "github.com/abyuwono/bagasi/internal/usecase/review"
	sauc "github.com/abyuwono/bagasi/internal/usecase/shopperad"
	suggestuc "github.com/abyuwono/bagasi/internal/usecase/suggest"
	trackinguc "github.com/abyuwono/bagasi/internal/usecase/tracking"
	useruc "github.com/abyuwono/bagasi/internal/usecase/user"
)

// Usecases is everything the API serves, wired by the app.
type Usecases struct {
	Auth          *authuc.Usecase
	Users         *useruc.Usecase
	Ads           *aduc.Usecase
	ShopperAds    *sauc.Usecase
	Chat          *chatuc.Usecase
	Notifications *notifuc.Usecase
	Reviews       *reviewuc.Usecase
	Tracking      *trackinguc.Usecase
	Payments      *payuc.Usecase
	Suggest       *suggestuc.Usecase

	StripeWebhooks        payhandler.StripeWebhooks
	MidtransNotifications payhandler.MidtransNotifications
	Accounts              middleware.AccountLookup
}

func RegisterRoutes(app *fiber.App, cfg config.Config, uc Usecases) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	api := app.Group("/api")

	user := middleware.Auth(middleware.AuthConfig{Secret: cfg.JWTSecret, Accounts: uc.Accounts})
	viewer := middleware.Auth(middleware.AuthConfig{Secret: cfg.JWTSecret, Optional: true, Accounts: uc.Accounts})
	limit := middleware.RateLimit(cfg.AuthRatePerSec, cfg.AuthRateBurst)

	// Auth
	authH := authhandler.New(uc.Auth)
	api.Post("/auth/register", limit, authH.Register)
	api.Post("/auth/login", limit, authH.Login)
	api.Get("/auth/me", user, authH.Me)

	// Travel ads; created through the ad posting payment
	adH := adhandler.New(uc.Ads)
	api.Get("/ads", viewer, adH.List)
	api.Get("/ads/:id", viewer, adH.Get)
	api.Patch("/ads/:id", user, adH.Update)
	api.Post("/ads/:id/book", user, adH.Book)

	// Shopper ads
	saH := sahandler.New(uc.ShopperAds)
	api.Post("/shopper-ads/scrape", user, saH.Scrape)
	api.Post("/shopper-ads/calculate-fees", saH.CalculateFees)
	api.Get("/shopper-ads/mine", user, saH.Mine)
	api.Get("/shopper-ads", viewer, saH.List)
	api.Post("/shopper-ads", user, saH.Create)
	api.Get("/shopper-ads/:id", viewer, saH.Get)
	api.Patch("/shopper-ads/:id", user, saH.Update)
	api.Post("/shopper-ads/:id/request", user, saH.Request())
	api.Post("/shopper-ads/:id/accept-traveler", user, saH.AcceptTraveler())
	api.Post("/shopper-ads/:id/reject-traveler", user, saH.RejectTraveler())
	api.Post("/shopper-ads/:id/cancel", user, saH.Cancel())
	api.Post("/shopper-ads/:id/complete", user, saH.Complete())

	// Chat
	chatH := chathandler.New(uc.Chat)
	api.Get("/chat/ad/:id", user, chatH.List)
	api.Get("/chat/ad/:id/messages", user, chatH.List)
	api.Post("/chat/ad/:id/messages", user, chatH.Send)

	// Notifications
	notifH := notifhandler.New(uc.Notifications)
	api.Get("/notifications", user, notifH.List)
	api.Get("/notifications/unread", user, notifH.Unread)
	api.Post("/notifications/read", user, notifH.MarkAllRead)
	api.Post("/notifications/push-subscription", user, notifH.SaveSubscription)

	// Reviews
	reviewH := reviewhandler.New(uc.Reviews)
	api.Get("/reviews/:adId", reviewH.List)
	api.Post("/reviews/:adId", user, reviewH.Create)
	api.Post("/reviews/:id/report", user, reviewH.Report)
	api.Post("/reviews/:id/handle-report", user, middleware.RequireAdmin(), reviewH.HandleReport)

	// Tracking
	trackingH := trackinghandler.New(uc.Tracking)
	api.Get("/tracking/:adId", user, trackingH.Get)
	api.Get("/tracking/:adId/url", user, trackingH.URL)
	api.Post("/tracking/:adId/number", user, trackingH.AttachNumber)

	// Payments
	payH := payhandler.New(uc.Payments, uc.StripeWebhooks, uc.MidtransNotifications)
	pay := api.Group("/payments")
	pay.Post("/create-payment-intent", user, payH.CreatePaymentIntent)
	pay.Post("/create-ad-posting-intent", user, payH.CreateAdPostingIntent)
	pay.Post("/membership/create-intent", user, payH.CreateMembershipIntent)
	pay.Get("/membership-price", payH.MembershipPrice)
	pay.Get("/status/:orderId", user, payH.Status)
	pay.Get("/status/:orderId/stream", user, payH.Stream)
	pay.Post("/webhook/stripe", payH.StripeWebhook)
	pay.Post("/webhook/midtrans", payH.MidtransWebhook)

	// Search
	searchH := searchhandler.New(uc.Suggest)
	api.Get("/search/suggestions", searchH.Suggestions)

	// Admin (MUST be defined after the user middleware)
	admin := api.Group("/admin", user, middleware.RequireAdmin())
	adminH := adminhandler.New(uc.Users)
	admin.Get("/me", func(c *fiber.Ctx) error {
		v := middleware.ViewerFrom(c)
		return c.JSON(fiber.Map{"ok": true, "id": v.ID, "role": v.Role})
	})
	admin.Get("/users", adminH.ListUsers)
	admin.Post("/users/:id/deactivate", adminH.Deactivate)
	admin.Post("/users/:id/reactivate", adminH.Reactivate)
	admin.Get("/reviews/reported", reviewH.ListReported)
	admin.Post("/reviews/:id/handle-report", reviewH.HandleReport)
}
