package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reelkit/reelkit/internal/api"
	v1 "github.com/reelkit/reelkit/internal/api/v1"
	"github.com/reelkit/reelkit/internal/cache"
	"github.com/reelkit/reelkit/internal/catalog"
	"github.com/reelkit/reelkit/internal/config"
	stripeclient "github.com/reelkit/reelkit/internal/integration/stripe"
	stripewebhook "github.com/reelkit/reelkit/internal/integration/stripe/webhook"
	"github.com/reelkit/reelkit/internal/logger"
	"github.com/reelkit/reelkit/internal/postgres"
	"github.com/reelkit/reelkit/internal/repository"
	"github.com/reelkit/reelkit/internal/sentry"
	"github.com/reelkit/reelkit/internal/service"
	"github.com/reelkit/reelkit/internal/validator"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Monitoring
			sentry.NewSentryService,

			// Cache
			cache.Initialize,

			// Postgres
			postgres.NewDB,
			postgres.NewClient,

			// Plan catalog
			catalog.NewCatalog,

			// Stripe
			stripeclient.NewClient,

			// Repositories
			repository.NewLedgerRepository,
			repository.NewBillingEventRepository,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewReconciliationService,
			service.NewCreditService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			stripewebhook.NewHandler,
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			sentry.RegisterHooks,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	cfg *config.Configuration,
	logger *logger.Logger,
	stripeClient *stripeclient.Client,
	eventHandler *stripewebhook.Handler,
	creditService service.CreditService,
) api.Handlers {
	return api.NewHandlers(
		v1.NewHealthHandler(logger),
		v1.NewWebhookHandler(cfg, logger, stripeClient, eventHandler),
		v1.NewCreditsHandler(creditService, logger),
	)
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration) *gin.Engine {
	return api.NewRouter(handlers, cfg)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	db *postgres.DB,
	log *logger.Logger,
) {
	startAPIServer(lc, r, cfg, log)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			db.Close()
			return nil
		},
	})
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}
