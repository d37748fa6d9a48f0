package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/flexprice/recurring/internal/api"
	"github.com/flexprice/recurring/internal/api/cron"
	v1 "github.com/flexprice/recurring/internal/api/v1"
	"github.com/flexprice/recurring/internal/cache"
	"github.com/flexprice/recurring/internal/config"
	catalogClient "github.com/flexprice/recurring/internal/integration/catalog"
	invoicingClient "github.com/flexprice/recurring/internal/integration/invoicing"
	"github.com/flexprice/recurring/internal/logger"
	"github.com/flexprice/recurring/internal/postgres"
	"github.com/flexprice/recurring/internal/repository"
	"github.com/flexprice/recurring/internal/scheduler"
	"github.com/flexprice/recurring/internal/sentry"
	"github.com/flexprice/recurring/internal/service"
	"github.com/flexprice/recurring/internal/types"
	"github.com/flexprice/recurring/internal/webhook"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// @title Recurring Invoices API
// @version 1.0
// @description Recurring invoice scheduling service
// @BasePath /v1
// @schemes http https

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// Postgres
			postgres.NewDB,
			provideDBClient,

			// Repositories
			repository.NewRecurringInvoiceRepository,
			repository.NewGeneratedInvoiceRepository,

			// External collaborators
			catalogClient.NewClient,
			invoicingClient.NewClient,
		),
		sentry.Module(),
	)

	// Webhook module (must be initialised before services)
	opts = append(opts, webhook.Module)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewRecurringInvoiceService,
			service.NewSchedulerService,
		),
	)

	// API and scheduler
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
			scheduler.NewWorker,
		),
		fx.Invoke(
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideDBClient(db *postgres.DB) postgres.IClient {
	return db
}

func provideHandlers(
	logger *logger.Logger,
	db *postgres.DB,
	recurringInvoiceService service.RecurringInvoiceService,
	schedulerService service.SchedulerService,
) api.Handlers {
	return api.Handlers{
		Health:           v1.NewHealthHandler(db, logger),
		RecurringInvoice: v1.NewRecurringInvoiceHandler(recurringInvoiceService, logger),
		CronRecurring:    cron.NewRecurringInvoiceHandler(schedulerService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	worker *scheduler.Worker,
	webhookService *webhook.WebhookService,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	// every mode publishes lifecycle events, so delivery always runs
	webhook.RegisterHooks(lc, webhookService)

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		scheduler.RegisterHooks(lc, worker)
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	case types.ModeScheduler:
		scheduler.RegisterHooks(lc, worker)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return srv.Shutdown(ctx)
		},
	})
}
