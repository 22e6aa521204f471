package webhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/reelkit/reelkit/internal/logger"
	"github.com/reelkit/reelkit/internal/service"
	"github.com/reelkit/reelkit/internal/types"
	"github.com/stripe/stripe-go/v82"
)

// Handler dispatches verified Stripe events to the reconciliation
// engine. Unrecognized event types and malformed payloads are
// acknowledged and logged; redelivering them would never succeed.
type Handler struct {
	reconciliation service.ReconciliationService
	logger         *logger.Logger
}

func NewHandler(reconciliation service.ReconciliationService, logger *logger.Logger) *Handler {
	return &Handler{
		reconciliation: reconciliation,
		logger:         logger,
	}
}

// checkoutSessionPayload is the lean slice of a checkout session the
// dispatcher reads. Decoding into our own struct keeps the handler
// stable across provider API versions.
type checkoutSessionPayload struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Subscription      string `json:"subscription"`
	ClientReferenceID string `json:"client_reference_id"`
	CustomerEmail     string `json:"customer_email"`
	CustomerDetails   struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

// invoicePayload reads the subscription reference from both the
// current parent.subscription_details location and the legacy
// top-level field.
type invoicePayload struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	Parent       struct {
		SubscriptionDetails struct {
			Subscription string `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

func (p *invoicePayload) subscriptionID() string {
	if p.Parent.SubscriptionDetails.Subscription != "" {
		return p.Parent.SubscriptionDetails.Subscription
	}
	return p.Subscription
}

// HandleEvent routes one verified event to its transition.
func (h *Handler) HandleEvent(ctx context.Context, event *stripe.Event) error {
	h.logger.Infow("processing webhook event",
		"event_id", event.ID,
		"event_type", event.Type)

	switch types.WebhookEventType(event.Type) {
	case types.WebhookEventTypeCheckoutSessionCompleted:
		return h.handleCheckoutSessionCompleted(ctx, event)
	case types.WebhookEventTypeSubscriptionCreated:
		return h.handleSubscriptionCreated(ctx, event)
	case types.WebhookEventTypeInvoicePaymentSucceeded:
		return h.handleInvoicePaymentSucceeded(ctx, event)
	case types.WebhookEventTypeSubscriptionDeleted:
		return h.handleSubscriptionDeleted(ctx, event)
	case types.WebhookEventTypeInvoicePaymentFailed:
		return h.handleInvoicePaymentFailed(ctx, event)
	default:
		h.logger.Debugw("ignoring unhandled event type",
			"event_id", event.ID,
			"event_type", event.Type)
		return nil
	}
}

func (h *Handler) handleCheckoutSessionCompleted(ctx context.Context, event *stripe.Event) error {
	var session checkoutSessionPayload
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		h.logger.Warnw("malformed checkout session payload, skipping",
			"event_id", event.ID,
			"error", err)
		return nil
	}

	email := session.CustomerEmail
	if email == "" {
		email = session.CustomerDetails.Email
	}

	return h.reconciliation.ProcessCheckoutCompleted(ctx, &service.CheckoutCompletedCommand{
		EventID:        event.ID,
		SessionID:      session.ID,
		CustomerID:     session.Customer,
		SubscriptionID: session.Subscription,
		Email:          email,
		UserID:         session.ClientReferenceID,
	})
}

func (h *Handler) handleSubscriptionCreated(ctx context.Context, event *stripe.Event) error {
	var subscription stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		h.logger.Warnw("malformed subscription payload, skipping",
			"event_id", event.ID,
			"error", err)
		return nil
	}
	if subscription.ID == "" || subscription.Customer == nil {
		h.logger.Warnw("subscription payload missing required fields, skipping",
			"event_id", event.ID)
		return nil
	}

	cmd := &service.SubscriptionCreatedCommand{
		EventID:        event.ID,
		SubscriptionID: subscription.ID,
		CustomerID:     subscription.Customer.ID,
		Status:         string(subscription.Status),
	}
	if subscription.Items != nil && len(subscription.Items.Data) > 0 {
		item := subscription.Items.Data[0]
		if item.Price != nil {
			cmd.PriceID = item.Price.ID
		}
		cmd.PeriodStart = time.Unix(item.CurrentPeriodStart, 0).UTC()
		cmd.PeriodEnd = time.Unix(item.CurrentPeriodEnd, 0).UTC()
	}

	return h.reconciliation.ProcessSubscriptionCreated(ctx, cmd)
}

func (h *Handler) handleInvoicePaymentSucceeded(ctx context.Context, event *stripe.Event) error {
	var invoice invoicePayload
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Warnw("malformed invoice payload, skipping",
			"event_id", event.ID,
			"error", err)
		return nil
	}

	return h.reconciliation.ProcessInvoicePaid(ctx, &service.InvoicePaidCommand{
		EventID:        event.ID,
		InvoiceID:      invoice.ID,
		SubscriptionID: invoice.subscriptionID(),
	})
}

func (h *Handler) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) error {
	var subscription stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		h.logger.Warnw("malformed subscription payload, skipping",
			"event_id", event.ID,
			"error", err)
		return nil
	}
	if subscription.ID == "" {
		h.logger.Warnw("subscription payload missing id, skipping",
			"event_id", event.ID)
		return nil
	}

	return h.reconciliation.ProcessSubscriptionDeleted(ctx, &service.SubscriptionDeletedCommand{
		EventID:        event.ID,
		SubscriptionID: subscription.ID,
	})
}

func (h *Handler) handleInvoicePaymentFailed(ctx context.Context, event *stripe.Event) error {
	var invoice invoicePayload
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Warnw("malformed invoice payload, skipping",
			"event_id", event.ID,
			"error", err)
		return nil
	}

	return h.reconciliation.ProcessInvoicePaymentFailed(ctx, &service.InvoicePaymentFailedCommand{
		EventID:        event.ID,
		InvoiceID:      invoice.ID,
		SubscriptionID: invoice.subscriptionID(),
	})
}
