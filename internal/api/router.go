package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/reelkit/reelkit/internal/api/v1"
	"github.com/reelkit/reelkit/internal/config"
	"github.com/reelkit/reelkit/internal/rest/middleware"
)

type Handlers struct {
	Health  *v1.HealthHandler
	Webhook *v1.WebhookHandler
	Credits *v1.CreditsHandler
}

func NewHandlers(
	health *v1.HealthHandler,
	webhook *v1.WebhookHandler,
	credits *v1.CreditsHandler,
) Handlers {
	return Handlers{
		Health:  health,
		Webhook: webhook,
		Credits: credits,
	}
}

func NewRouter(handlers Handlers, cfg *config.Configuration) *gin.Engine {
	router := gin.New()

	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	// Webhooks bypass the versioned group; providers are configured
	// with a fixed path.
	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/stripe", handlers.Webhook.HandleStripeWebhook)
	}

	// v1 routes
	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	credits := router.Group("/credits")
	{
		credits.GET("/:user_id", handlers.Credits.GetBalance)
		credits.POST("/:user_id/spend", handlers.Credits.SpendCredits)
	}
}
