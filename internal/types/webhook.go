package types

// WebhookEventType enumerates the Stripe webhook event types the
// dispatcher understands. Anything else is acknowledged and skipped.
type WebhookEventType string

const (
	WebhookEventTypeCheckoutSessionCompleted WebhookEventType = "checkout.session.completed"
	WebhookEventTypeSubscriptionCreated      WebhookEventType = "customer.subscription.created"
	WebhookEventTypeSubscriptionDeleted      WebhookEventType = "customer.subscription.deleted"
	WebhookEventTypeInvoicePaymentSucceeded  WebhookEventType = "invoice.payment_succeeded"
	WebhookEventTypeInvoicePaymentFailed     WebhookEventType = "invoice.payment_failed"
)
