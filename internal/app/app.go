package app

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abyuwono/bagasi/internal/cache"
	"github.com/abyuwono/bagasi/internal/config"
	"github.com/abyuwono/bagasi/internal/db"
	httpdelivery "github.com/abyuwono/bagasi/internal/delivery/http"
	"github.com/abyuwono/bagasi/internal/delivery/middleware"
	"github.com/abyuwono/bagasi/internal/events"
	adrepo "github.com/abyuwono/bagasi/internal/repository/postgres/ad"
	chatrepo "github.com/abyuwono/bagasi/internal/repository/postgres/chat"
	listingrepo "github.com/abyuwono/bagasi/internal/repository/postgres/listing"
	notifrepo "github.com/abyuwono/bagasi/internal/repository/postgres/notification"
	payrepo "github.com/abyuwono/bagasi/internal/repository/postgres/payment"
	reviewrepo "github.com/abyuwono/bagasi/internal/repository/postgres/review"
	sarepo "github.com/abyuwono/bagasi/internal/repository/postgres/shopperad"
	userrepo "github.com/abyuwono/bagasi/internal/repository/postgres/user"
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

const expirySweepEvery = time.Hour

type App struct {
	f       *fiber.App
	cfg     config.Config
	pool    *pgxpool.Pool
	ads     *aduc.Usecase
	closers []func() error
}

func New() *App {
	cfg := config.Load()

	pool, err := db.NewPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	a := &App{cfg: cfg, pool: pool}

	f := fiber.New(fiber.Config{
		AppName:      "bagasi-api",
		ErrorHandler: httpdelivery.ErrorHandler,
	})

	f.Use(recover.New())
	f.Use(logger.New())

	httpdelivery.RegisterRoutes(f, cfg, a.wire())

	a.f = f
	return a
}

// wire builds stores and usecases. Kafka, RabbitMQ and Redis are optional.
func (a *App) wire() httpdelivery.Usecases {
	cfg := a.cfg

	var listingEvents events.Publisher = events.Nop{}
	if cfg.KafkaBroker != "" {
		p := events.NewKafkaProducer(cfg.KafkaBroker, cfg.KafkaTopic)
		a.closers = append(a.closers, p.Close)
		listingEvents = p
	}

	var push events.Publisher = events.Nop{}
	if cfg.RabbitMQURL != "" {
		p, err := events.NewQueuePublisher(cfg.RabbitMQURL, cfg.PushQueue)
		if err != nil {
			slog.Warn("push queue unavailable, web push disabled", "err", err)
		} else {
			a.closers = append(a.closers, p.Close)
			push = p
		}
	}

	var suggestCache suggestuc.Cache
	if cfg.RedisURL != "" {
		c, err := cache.NewRedisCache(cfg.RedisURL, "bagasi:")
		if err != nil {
			slog.Warn("redis unavailable, suggestions uncached", "err", err)
		} else {
			a.closers = append(a.closers, c.Close)
			suggestCache = c
		}
	}

	// Stores
	users := userrepo.NewUserRepo(a.pool)
	listings := listingrepo.NewListingRepo(a.pool)
	parties := listingrepo.NewPartiesAdapter(listings)

	// Usecases
	usersUC := useruc.New(userrepo.NewUserStoreAdapter(users))
	authUC := authuc.New(userrepo.NewAuthStoreAdapter(users), cfg.JWTSecret, cfg.JWTExpiresMinutes)
	notifUC := notifuc.New(notifrepo.NewNotificationStoreAdapter(notifrepo.NewNotificationRepo(a.pool)), push)
	adUC := aduc.New(adrepo.NewAdStoreAdapter(adrepo.NewAdRepo(a.pool)), notifUC)
	saUC := sauc.New(
		sarepo.NewShopperAdStoreAdapter(sarepo.NewShopperAdRepo(a.pool)),
		sauc.NewFeeCalculator(cfg.Fees),
		sauc.NewHTMLScraper(),
		notifUC,
		listingEvents,
	)
	chatUC := chatuc.New(chatrepo.NewChatStoreAdapter(chatrepo.NewMessageRepo(a.pool)), parties, notifUC)
	reviewUC := reviewuc.New(reviewrepo.NewReviewStoreAdapter(reviewrepo.NewReviewRepo(a.pool)), parties)
	suggestUC := suggestuc.New(listingrepo.NewCityStoreAdapter(listings), suggestCache)

	gateways := map[payuc.Provider]payuc.Gateway{}
	out := httpdelivery.Usecases{}
	if key := cfg.Payments.StripeSecretKey; key != "" {
		sg := payuc.NewStripeGateway(key, cfg.Payments.StripeWebhookSecret)
		gateways[payuc.ProviderStripe] = sg
		out.StripeWebhooks = sg
	}
	if key := cfg.Payments.MidtransServerKey; key != "" {
		mg := payuc.NewMidtransGateway(key, cfg.Payments.MidtransEnv)
		gateways[payuc.ProviderMidtrans] = mg
		out.MidtransNotifications = mg
	}
	payUC := payuc.New(payrepo.NewPaymentStoreAdapter(payrepo.NewPaymentRepo(a.pool)), gateways, adUC, saUC, usersUC, cfg.Payments)

	a.ads = adUC

	out.Auth = authUC
	out.Users = usersUC
	out.Ads = adUC
	out.ShopperAds = saUC
	out.Chat = chatUC
	out.Notifications = notifUC
	out.Reviews = reviewUC
	out.Tracking = trackinguc.New(saUC)
	out.Payments = payUC
	out.Suggest = suggestUC
	out.Accounts = func(ctx context.Context, userID string) (middleware.AccountState, error) {
		u, err := usersUC.GetByID(ctx, userID)
		if errors.Is(err, useruc.ErrNotFound) || errors.Is(err, useruc.ErrInvalidInput) {
			return middleware.AccountState{}, middleware.ErrUnknownAccount
		}
		if err != nil {
			return middleware.AccountState{}, err
		}
		return middleware.AccountState{Active: u.Active, Member: u.HasMembership(time.Now())}, nil
	}
	return out
}

// sweepExpired persists the expired status of travel ads past their expiry date.
func (a *App) sweepExpired(ctx context.Context) {
	t := time.NewTicker(expirySweepEvery)
	defer t.Stop()

	for {
		n, err := a.ads.ExpireDue(ctx)
		if err != nil {
			slog.Error("expiry sweep failed", "err", err)
		} else if n > 0 {
			slog.Info("expired travel ads", "count", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.sweepExpired(ctx)

	defer a.close()
	return a.f.Listen(":" + a.cfg.Port)
}

func (a *App) Shutdown() error {
	return a.f.Shutdown()
}

func (a *App) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			slog.Warn("close failed", "err", err)
		}
	}
	a.pool.Close()
}
