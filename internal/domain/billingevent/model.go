package billingevent

import (
	"time"

	ierr "github.com/reelkit/reelkit/internal/errors"
	"github.com/reelkit/reelkit/internal/types"
)

// BillingEvent records a provider webhook event that has been fully
// processed. Re-deliveries of the same provider event id are no-ops,
// which makes every reconciliation transition idempotent even when the
// payload carries identical period boundaries.
type BillingEvent struct {
	ID              string    `json:"id"`
	ProviderEventID string    `json:"provider_event_id"`
	EventType       string    `json:"event_type"`
	SubscriptionID  string    `json:"subscription_id,omitempty"`
	ProcessedAt     time.Time `json:"processed_at"`
}

func New(providerEventID, eventType, subscriptionID string) *BillingEvent {
	return &BillingEvent{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_EVENT),
		ProviderEventID: providerEventID,
		EventType:       eventType,
		SubscriptionID:  subscriptionID,
		ProcessedAt:     time.Now().UTC(),
	}
}

func (e *BillingEvent) Validate() error {
	if e.ProviderEventID == "" {
		return ierr.NewError("provider_event_id is required").
			WithHint("Billing events must carry the provider's event id").
			Mark(ierr.ErrValidation)
	}
	if e.EventType == "" {
		return ierr.NewError("event_type is required").
			WithHint("Billing events must carry the provider's event type").
			Mark(ierr.ErrValidation)
	}
	return nil
}
