package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"

	"github.com/JhonesBR/go-ledger/internal/api"
	"github.com/JhonesBR/go-ledger/internal/db"
	"github.com/JhonesBR/go-ledger/internal/idempotency"
	"github.com/JhonesBR/go-ledger/internal/ledger"
	"github.com/JhonesBR/go-ledger/internal/ledger/memory"
	"github.com/JhonesBR/go-ledger/internal/ledger/postgres"
	"github.com/JhonesBR/go-ledger/internal/logger"
	"github.com/JhonesBR/go-ledger/internal/metrics"
)

const janitorInterval = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	deps := api.Deps{
		IdempotencyTTL: cfg.IdempotencyTTL,
		Log:            logger.Component(log, "http"),
		MetricsEnabled: cfg.MetricsEnabled,
	}

	var store ledger.Store
	if cfg.DemoMode {
		log.Warn("DEMO_MODE is set: serving seeded in-memory data, nothing is persisted")
		store = memory.NewDemo()
		deps.Idempotency = idempotency.NewMemoryStore()
		deps.DefaultOwner = memory.DemoUserID
	} else {
		if cfg.AutoMigrate {
			if err := db.Migrate(cfg.DatabaseURL); err != nil {
				return err
			}
			log.Info("database schema is up to date")
		}

		pool, err := db.NewConnection(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return err
		}
		defer pool.Close()

		store = postgres.New(pool)
		deps.Idempotency = idempotency.NewPostgresStore(pool)
		deps.Ready = pool.Ping
	}

	deps.Service = ledger.NewService(store,
		ledger.WithLogger(logger.Component(log, "ledger")),
		ledger.WithRecorder(metrics.Recorder{}),
	)

	go idempotency.RunJanitor(ctx, deps.Idempotency, cfg.IdempotencyTTL, janitorInterval, logger.Component(log, "idempotency"))

	app := api.NewApp(deps)

	errc := make(chan error, 1)
	go func() {
		errc <- app.Listen(cfg.Addr(), fiber.ListenConfig{DisableStartupMessage: true})
	}()
	log.WithField("addr", cfg.Addr()).WithField("demo", cfg.DemoMode).Info("ledgerd listening")

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
