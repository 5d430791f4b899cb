package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/deskline/support-tickets/internal/api/http"
	"github.com/deskline/support-tickets/internal/api/http/handlers"
	"github.com/deskline/support-tickets/internal/ai"
	"github.com/deskline/support-tickets/internal/auth"
	"github.com/deskline/support-tickets/internal/config"
	"github.com/deskline/support-tickets/internal/email"
	"github.com/deskline/support-tickets/internal/events"
	"github.com/deskline/support-tickets/internal/observability"
	"github.com/deskline/support-tickets/internal/persistence"
	"github.com/deskline/support-tickets/internal/repository"
	"github.com/deskline/support-tickets/internal/service"
	"github.com/deskline/support-tickets/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Configured() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	store := newDocumentStore(cfg, pg, redis, logger)
	ticketRepo := repository.NewTicketRepository(store, repository.TicketRepositoryOptions{
		StrictDecode: cfg.Storage.StrictDecode,
		Logger:       logger.Named("repository"),
	})

	pool := worker.NewPool(cfg.Notification, logger.Named("worker"), metrics)
	dispatcher := events.NewDispatcher(pool, logger.Named("events"))

	sender := email.NewSender(cfg.Email, logger.Named("email"))
	notificationService := service.NewNotificationService(dispatcher, sender, logger.Named("notifications"), metrics)
	notificationService.RegisterHandlers()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Summarizer: ai.NewSummaryGenerator(cfg.AI, logger.Named("ai")),
		Dispatcher: dispatcher,
		Logger:     logger.Named("tickets"),
		Metrics:    metrics,
	})

	authService, err := service.NewAuthService(cfg.Auth, logger.Named("auth"))
	if err != nil {
		logger.Fatal("failed to init auth", zap.Error(err))
	}
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager())

	app := httptransport.NewApp(cfg.App, logger, metrics)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readinessChecks(ticketRepo, pg, redis)...),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics.Handler(),
	})

	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("storage", cfg.Storage.Backend))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := pool.Shutdown(shutdownCtx); err != nil {
		logger.Warn("notifications still pending at shutdown", zap.Error(err))
	}
}

func newDocumentStore(cfg *config.Config, pg *persistence.Postgres, redis *persistence.Redis, logger *zap.Logger) repository.DocumentStore {
	switch cfg.Storage.Backend {
	case config.StorageBackendRedis:
		return repository.NewRedisDocumentStore(redis.Client, cfg.Storage.RedisKey)
	case config.StorageBackendPostgres:
		return repository.NewPostgresDocumentStore(pg.PoolHandle(), cfg.Storage.DocumentName)
	default:
		logger.Info("using file ticket store", zap.String("path", cfg.Storage.FilePath))
		return repository.NewFileDocumentStore(cfg.Storage.FilePath)
	}
}

func readinessChecks(repo repository.TicketRepository, pg *persistence.Postgres, redis *persistence.Redis) []handlers.Check {
	checks := []handlers.Check{{
		Name: "ticket_store",
		Ping: func(ctx context.Context) error {
			_, err := repo.GetAll(ctx)
			return err
		},
	}}
	if pg.Configured() {
		checks = append(checks, handlers.Check{Name: "postgres", Ping: pg.Ping})
	}
	if redis.Configured() {
		checks = append(checks, handlers.Check{Name: "redis", Ping: redis.Ping})
	}
	return checks
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
