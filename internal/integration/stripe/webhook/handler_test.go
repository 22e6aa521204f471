package webhook

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/reelkit/reelkit/internal/config"
	"github.com/reelkit/reelkit/internal/logger"
	"github.com/reelkit/reelkit/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

// recordingReconciliation captures the commands the dispatcher emits.
type recordingReconciliation struct {
	checkout      []*service.CheckoutCompletedCommand
	created       []*service.SubscriptionCreatedCommand
	invoicePaid   []*service.InvoicePaidCommand
	deleted       []*service.SubscriptionDeletedCommand
	paymentFailed []*service.InvoicePaymentFailedCommand
}

func (r *recordingReconciliation) ProcessCheckoutCompleted(_ context.Context, cmd *service.CheckoutCompletedCommand) error {
	r.checkout = append(r.checkout, cmd)
	return nil
}

func (r *recordingReconciliation) ProcessSubscriptionCreated(_ context.Context, cmd *service.SubscriptionCreatedCommand) error {
	r.created = append(r.created, cmd)
	return nil
}

func (r *recordingReconciliation) ProcessInvoicePaid(_ context.Context, cmd *service.InvoicePaidCommand) error {
	r.invoicePaid = append(r.invoicePaid, cmd)
	return nil
}

func (r *recordingReconciliation) ProcessSubscriptionDeleted(_ context.Context, cmd *service.SubscriptionDeletedCommand) error {
	r.deleted = append(r.deleted, cmd)
	return nil
}

func (r *recordingReconciliation) ProcessInvoicePaymentFailed(_ context.Context, cmd *service.InvoicePaymentFailedCommand) error {
	r.paymentFailed = append(r.paymentFailed, cmd)
	return nil
}

func newTestHandler(t *testing.T) (*Handler, *recordingReconciliation) {
	t.Helper()
	log, err := logger.NewLogger(config.GetDefaultConfig())
	require.NoError(t, err)

	recorder := &recordingReconciliation{}
	return NewHandler(recorder, log), recorder
}

func makeEvent(t *testing.T, id, eventType string, payload any) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &stripe.Event{
		ID:   id,
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleCheckoutSessionCompleted(t *testing.T) {
	h, recorder := newTestHandler(t)

	event := makeEvent(t, "evt_1", "checkout.session.completed", map[string]any{
		"id":                  "cs_1",
		"customer":            "cus_1",
		"subscription":        "sub_1",
		"client_reference_id": "user_42",
		"customer_details":    map[string]any{"email": "jordan@example.com"},
	})

	require.NoError(t, h.HandleEvent(context.Background(), event))
	require.Len(t, recorder.checkout, 1)

	cmd := recorder.checkout[0]
	assert.Equal(t, "evt_1", cmd.EventID)
	assert.Equal(t, "cs_1", cmd.SessionID)
	assert.Equal(t, "sub_1", cmd.SubscriptionID)
	assert.Equal(t, "user_42", cmd.UserID)
	assert.Equal(t, "jordan@example.com", cmd.Email)
}

func TestHandleSubscriptionCreated(t *testing.T) {
	h, recorder := newTestHandler(t)

	event := makeEvent(t, "evt_2", "customer.subscription.created", map[string]any{
		"id":       "sub_1",
		"customer": "cus_1",
		"status":   "active",
		"items": map[string]any{
			"data": []map[string]any{{
				"price":                map[string]any{"id": "price_starter"},
				"current_period_start": 1742198400,
				"current_period_end":   1744876800,
			}},
		},
	})

	require.NoError(t, h.HandleEvent(context.Background(), event))
	require.Len(t, recorder.created, 1)

	cmd := recorder.created[0]
	assert.Equal(t, "sub_1", cmd.SubscriptionID)
	assert.Equal(t, "cus_1", cmd.CustomerID)
	assert.Equal(t, "price_starter", cmd.PriceID)
	assert.Equal(t, "active", cmd.Status)
	assert.Equal(t, int64(1742198400), cmd.PeriodStart.Unix())
}

func TestInvoiceSubscriptionResolution(t *testing.T) {
	h, recorder := newTestHandler(t)

	t.Run("current parent location", func(t *testing.T) {
		event := makeEvent(t, "evt_3", "invoice.payment_succeeded", map[string]any{
			"id": "in_1",
			"parent": map[string]any{
				"subscription_details": map[string]any{"subscription": "sub_1"},
			},
		})
		require.NoError(t, h.HandleEvent(context.Background(), event))
		require.Len(t, recorder.invoicePaid, 1)
		assert.Equal(t, "sub_1", recorder.invoicePaid[0].SubscriptionID)
	})

	t.Run("legacy top-level field", func(t *testing.T) {
		event := makeEvent(t, "evt_4", "invoice.payment_succeeded", map[string]any{
			"id":           "in_2",
			"subscription": "sub_2",
		})
		require.NoError(t, h.HandleEvent(context.Background(), event))
		require.Len(t, recorder.invoicePaid, 2)
		assert.Equal(t, "sub_2", recorder.invoicePaid[1].SubscriptionID)
	})
}

func TestHandleSubscriptionDeleted(t *testing.T) {
	h, recorder := newTestHandler(t)

	event := makeEvent(t, "evt_5", "customer.subscription.deleted", map[string]any{
		"id": "sub_1",
	})

	require.NoError(t, h.HandleEvent(context.Background(), event))
	require.Len(t, recorder.deleted, 1)
	assert.Equal(t, "sub_1", recorder.deleted[0].SubscriptionID)
}

func TestHandleInvoicePaymentFailed(t *testing.T) {
	h, recorder := newTestHandler(t)

	event := makeEvent(t, "evt_6", "invoice.payment_failed", map[string]any{
		"id":           "in_1",
		"subscription": "sub_1",
	})

	require.NoError(t, h.HandleEvent(context.Background(), event))
	require.Len(t, recorder.paymentFailed, 1)
}

func TestUnhandledEventTypeIsAcknowledged(t *testing.T) {
	h, recorder := newTestHandler(t)

	event := makeEvent(t, "evt_7", "customer.updated", map[string]any{"id": "cus_1"})

	require.NoError(t, h.HandleEvent(context.Background(), event))
	assert.Empty(t, recorder.checkout)
	assert.Empty(t, recorder.created)
	assert.Empty(t, recorder.invoicePaid)
}

func TestMalformedPayloadIsAcknowledged(t *testing.T) {
	h, recorder := newTestHandler(t)

	event := &stripe.Event{
		ID:   "evt_8",
		Type: stripe.EventType("customer.subscription.created"),
		Data: &stripe.EventData{Raw: json.RawMessage(`{"id": 42}`)},
	}

	require.NoError(t, h.HandleEvent(context.Background(), event))
	assert.Empty(t, recorder.created)
}
