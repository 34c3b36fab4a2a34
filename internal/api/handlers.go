package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/JhonesBR/go-ledger/internal/api/account"
	"github.com/JhonesBR/go-ledger/internal/api/funds"
	"github.com/JhonesBR/go-ledger/internal/api/middleware"
	"github.com/JhonesBR/go-ledger/internal/api/staking"
	"github.com/JhonesBR/go-ledger/internal/api/transaction"
	"github.com/JhonesBR/go-ledger/internal/helper"
	"github.com/JhonesBR/go-ledger/internal/idempotency"
	"github.com/JhonesBR/go-ledger/internal/ledger"
	"github.com/JhonesBR/go-ledger/internal/metrics"
)

// Deps is everything the HTTP layer needs from the process.
type Deps struct {
	Service        *ledger.Service
	Idempotency    idempotency.Store
	IdempotencyTTL time.Duration
	// DefaultOwner is used when X-User-Id is missing. Empty means the header
	// is required.
	DefaultOwner   string
	Log            *logrus.Entry
	MetricsEnabled bool
	// Ready reports whether the backing store is reachable. Nil means always.
	Ready func(ctx context.Context) error
}

func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "ledgerd",
		ErrorHandler: helper.ErrorHandler,
		Immutable:    true,
	})
	InitializeRoutes(app, deps)
	return app
}

func InitializeRoutes(app *fiber.App, deps Deps) {
	app.Use(recover.New())
	if deps.MetricsEnabled {
		app.Use(metrics.Middleware())
		app.Get("/metrics", metrics.Handler())
	}
	app.Use(middleware.AccessLog(deps.Log))
	app.Get("/health", HealthHandler(deps.Ready))

	app.Use("/v1",
		middleware.Owner(deps.DefaultOwner),
		middleware.Idempotency(deps.Idempotency, deps.IdempotencyTTL, deps.Log),
	)
	account.InitializeRoutes(app, deps.Service)
	funds.InitializeRoutes(app, deps.Service)
	transaction.InitializeRoutes(app, deps.Service)
	staking.InitializeRoutes(app, deps.Service)
}

func HealthHandler(ready func(ctx context.Context) error) fiber.Handler {
	return func(c fiber.Ctx) error {
		if ready != nil {
			if err := ready(c.RequestCtx()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "unavailable",
				})
			}
		}
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	}
}
