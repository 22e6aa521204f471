package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reelkit/reelkit/internal/config"
	ierr "github.com/reelkit/reelkit/internal/errors"
	stripeclient "github.com/reelkit/reelkit/internal/integration/stripe"
	"github.com/reelkit/reelkit/internal/integration/stripe/webhook"
	"github.com/reelkit/reelkit/internal/logger"
)

// WebhookHandler handles inbound billing-provider webhooks.
type WebhookHandler struct {
	config       *config.Configuration
	logger       *logger.Logger
	stripeClient *stripeclient.Client
	eventHandler *webhook.Handler
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(
	cfg *config.Configuration,
	logger *logger.Logger,
	stripeClient *stripeclient.Client,
	eventHandler *webhook.Handler,
) *WebhookHandler {
	return &WebhookHandler{
		config:       cfg,
		logger:       logger,
		stripeClient: stripeClient,
		eventHandler: eventHandler,
	}
}

// HandleStripeWebhook handles the POST /webhooks/stripe endpoint.
// Returns 200 for processed and intentionally-skipped events, 400 for
// signature failures, and 500 only for transient faults so the
// provider redelivers.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	// Read the raw request body before any parsing; signature
	// verification needs the exact bytes.
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Errorw("failed to read request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read request body",
		})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		h.logger.Errorw("missing Stripe-Signature header")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing Stripe-Signature header",
		})
		return
	}

	if h.config.Stripe.WebhookSecret == "" {
		h.logger.Errorw("webhook secret not configured")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Webhook secret not configured",
		})
		return
	}

	h.logger.Debugw("processing webhook", "payload_length", len(body))

	event, err := h.stripeClient.ParseWebhookEvent(body, signature)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to verify webhook signature or parse event",
		})
		return
	}

	if err := h.eventHandler.HandleEvent(c.Request.Context(), event); err != nil {
		h.logger.Errorw("failed to process webhook event",
			"error", err,
			"event_id", event.ID,
			"event_type", event.Type)
		// non-2xx forces provider redelivery; safe because every
		// transition is idempotent
		c.JSON(ierr.HTTPStatusFromErr(err), gin.H{
			"error": "Failed to process webhook event",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
