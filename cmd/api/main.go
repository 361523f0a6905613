package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-inventory/internal/api/http"
	"github.com/spec-kit/ticket-inventory/internal/api/http/handlers"
	"github.com/spec-kit/ticket-inventory/internal/auth"
	"github.com/spec-kit/ticket-inventory/internal/clock"
	"github.com/spec-kit/ticket-inventory/internal/config"
	"github.com/spec-kit/ticket-inventory/internal/events"
	"github.com/spec-kit/ticket-inventory/internal/observability"
	"github.com/spec-kit/ticket-inventory/internal/persistence"
	"github.com/spec-kit/ticket-inventory/internal/repository"
	"github.com/spec-kit/ticket-inventory/internal/service"
	"github.com/spec-kit/ticket-inventory/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	clk := clock.NewSystem()

	ticketRepo := repository.NewTicketRepository(pg.PoolHandle())
	cache := service.NewRedisTicketCache(redis.Client, cfg.Redis.CacheTTL)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Cache:      cache,
		Dispatcher: dispatcher,
		Clock:      clk,
		Logger:     logger,
	})
	purchaseService := service.NewPurchaseService(service.PurchaseDependencies{
		TicketRepo:  ticketRepo,
		Cache:       cache,
		Dispatcher:  dispatcher,
		Clock:       clk,
		Logger:      logger,
		Metrics:     metrics,
		MaxAttempts: cfg.Purchase.MaxAttempts,
		Backoff:     cfg.Purchase.RetryBackoff,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	sweeper := worker.NewExpirationSweeper(worker.SweeperDependencies{
		TicketRepo:  ticketRepo,
		Cache:       cache,
		Dispatcher:  dispatcher,
		Clock:       clk,
		Logger:      logger,
		Metrics:     metrics,
		Interval:    cfg.Sweeper.Interval,
		Concurrency: cfg.Sweeper.Concurrency,
	})
	go sweeper.Run(ctx)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret)
	authMiddleware := auth.NewAuthMiddleware(tokenManager)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	ticketsHandler := handlers.NewTicketsHandler(ticketService, purchaseService, clk)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Tickets:        ticketsHandler,
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
