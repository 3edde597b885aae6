package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/custard-wallet/custard_ledger/internal/accounts"
	"github.com/custard-wallet/custard_ledger/internal/config"
	"github.com/custard-wallet/custard_ledger/internal/faucet"
	"github.com/custard-wallet/custard_ledger/internal/ledger"
	"github.com/custard-wallet/custard_ledger/internal/loyalty"
	"github.com/custard-wallet/custard_ledger/internal/middleware"
	"github.com/custard-wallet/custard_ledger/internal/notification"
	"github.com/custard-wallet/custard_ledger/internal/observability"
	"github.com/custard-wallet/custard_ledger/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	Ledger   ledger.Ledger
	DB       *pgxpool.Pool
	Cache    *redis.Client
	NATS     *nats.Conn
	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Ledger == nil {
		return fmt.Errorf("ledger backend is required")
	}
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if d.Cfg.IsDev() {
		// plain text access log: [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	} else {
		app.Use(middleware.Audit(d.Logger))
	}
	if d.Metrics != nil {
		app.Use(d.Metrics.Middleware())
	}

	RegisterHealthRoutes(app, d)
	if d.Registry != nil {
		RegisterMetricsRoute(app, d.Registry)
	}

	notifier := notification.NewLoggerNotifier(d.Logger)
	walletSvc := wallet.NewService(d.Ledger)
	loyaltySvc := loyalty.NewService(d.Ledger, notifier, d.Cfg.CardValidity)
	faucetSvc, err := faucet.NewService(context.Background(), d.Ledger, faucet.StaticRelay{}, notifier, faucet.Config{
		Issuer:        d.Cfg.FaucetIssuer,
		DefaultAmount: d.Cfg.FaucetDefaultAmount,
	}, d.Logger)
	if err != nil {
		return err
	}

	api := app.Group("/api/v1")
	if d.Cache != nil {
		api.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFromContext(c.UserContext()),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAccountRoutes(api, accounts.NewHandler(d.Ledger))
	RegisterWalletRoutes(api, wallet.NewHandler(walletSvc))
	RegisterFaucetRoutes(api, faucet.NewHandler(faucetSvc), middleware.FaucetRateLimit(d.Cache, d.Cfg.FaucetMaxPerMinute, d.Logger))
	RegisterLoyaltyRoutes(api, loyalty.NewHandler(loyaltySvc))

	return nil
}
