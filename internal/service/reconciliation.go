package service

import (
	"context"
	"time"

	"github.com/reelkit/reelkit/internal/credit"
	"github.com/reelkit/reelkit/internal/domain/billingevent"
	"github.com/reelkit/reelkit/internal/domain/ledger"
	ierr "github.com/reelkit/reelkit/internal/errors"
	stripeclient "github.com/reelkit/reelkit/internal/integration/stripe"
	"github.com/reelkit/reelkit/internal/sentry"
	"github.com/reelkit/reelkit/internal/types"
)

// CheckoutCompletedCommand carries the fields the engine needs from a
// checkout.session.completed event.
type CheckoutCompletedCommand struct {
	EventID        string
	SessionID      string
	CustomerID     string
	SubscriptionID string
	Email          string
	UserID         string
}

// SubscriptionCreatedCommand carries the fields from a
// customer.subscription.created event payload.
type SubscriptionCreatedCommand struct {
	EventID        string
	SubscriptionID string
	CustomerID     string
	PriceID        string
	Status         string
	PeriodStart    time.Time
	PeriodEnd      time.Time
}

// InvoicePaidCommand carries the fields from an
// invoice.payment_succeeded event payload.
type InvoicePaidCommand struct {
	EventID        string
	InvoiceID      string
	SubscriptionID string
}

// SubscriptionDeletedCommand carries the fields from a
// customer.subscription.deleted event payload.
type SubscriptionDeletedCommand struct {
	EventID        string
	SubscriptionID string
}

// InvoicePaymentFailedCommand carries the fields from an
// invoice.payment_failed event payload.
type InvoicePaymentFailedCommand struct {
	EventID        string
	InvoiceID      string
	SubscriptionID string
}

// ReconciliationService applies billing events to credit ledgers. Each
// method is idempotent: redeliveries of an already-processed provider
// event id are acknowledged without mutating the ledger, and every
// ledger mutation runs inside a retried transaction holding a row lock
// so concurrent deliveries for the same subscription serialize.
type ReconciliationService interface {
	ProcessCheckoutCompleted(ctx context.Context, cmd *CheckoutCompletedCommand) error
	ProcessSubscriptionCreated(ctx context.Context, cmd *SubscriptionCreatedCommand) error
	ProcessInvoicePaid(ctx context.Context, cmd *InvoicePaidCommand) error
	ProcessSubscriptionDeleted(ctx context.Context, cmd *SubscriptionDeletedCommand) error
	ProcessInvoicePaymentFailed(ctx context.Context, cmd *InvoicePaymentFailedCommand) error
}

type reconciliationService struct {
	ServiceParams
}

func NewReconciliationService(params ServiceParams) ReconciliationService {
	return &reconciliationService{ServiceParams: params}
}

func (s *reconciliationService) ProcessCheckoutCompleted(ctx context.Context, cmd *CheckoutCompletedCommand) error {
	if cmd.SubscriptionID == "" {
		// one-off payment sessions carry no subscription
		s.Logger.Warnw("checkout session without subscription, skipping",
			"event_id", cmd.EventID,
			"session_id", cmd.SessionID)
		return nil
	}

	span, ctx := s.Sentry.MonitorWebhookProcessing(ctx, string(types.WebhookEventTypeCheckoutSessionCompleted), map[string]interface{}{
		"event_id": cmd.EventID,
	})
	defer sentry.FinishSpan(span)

	if done, err := s.alreadyProcessed(ctx, cmd.EventID); err != nil || done {
		return err
	}

	// Fetch the authoritative subscription state before opening the
	// transaction; provider calls must not hold row locks.
	sub, err := s.Provider.GetSubscription(ctx, cmd.SubscriptionID)
	if err != nil {
		s.Sentry.CaptureException(err)
		return err
	}

	email := cmd.Email
	if email == "" {
		cust, err := s.Provider.GetCustomer(ctx, cmd.CustomerID)
		if err != nil {
			s.Sentry.CaptureException(err)
			return err
		}
		email = cust.Email
	}
	if email == "" {
		s.Logger.Warnw("checkout session has no resolvable email, skipping",
			"event_id", cmd.EventID,
			"session_id", cmd.SessionID,
			"customer_id", cmd.CustomerID)
		return nil
	}

	return s.DB.WithTxRetry(ctx, func(ctx context.Context) error {
		claimed, err := s.claimEvent(ctx, cmd.EventID, string(types.WebhookEventTypeCheckoutSessionCompleted), cmd.SubscriptionID)
		if err != nil || !claimed {
			return err
		}

		l, created, err := s.findOrCreateByEmail(ctx, email, cmd.UserID)
		if err != nil {
			return err
		}
		if cmd.UserID != "" {
			l.UserID = cmd.UserID
		}

		s.applySubscription(l, sub, created, time.Now().UTC())
		return s.LedgerRepo.Update(ctx, l)
	})
}

func (s *reconciliationService) ProcessSubscriptionCreated(ctx context.Context, cmd *SubscriptionCreatedCommand) error {
	span, ctx := s.Sentry.MonitorWebhookProcessing(ctx, string(types.WebhookEventTypeSubscriptionCreated), map[string]interface{}{
		"event_id": cmd.EventID,
	})
	defer sentry.FinishSpan(span)

	if done, err := s.alreadyProcessed(ctx, cmd.EventID); err != nil || done {
		return err
	}

	cust, err := s.Provider.GetCustomer(ctx, cmd.CustomerID)
	if err != nil {
		s.Sentry.CaptureException(err)
		return err
	}
	if cust.Email == "" {
		s.Logger.Warnw("subscription customer has no email, skipping",
			"event_id", cmd.EventID,
			"subscription_id", cmd.SubscriptionID,
			"customer_id", cmd.CustomerID)
		return nil
	}

	sub := &stripeclient.SubscriptionInfo{
		ID:          cmd.SubscriptionID,
		CustomerID:  cmd.CustomerID,
		PriceID:     cmd.PriceID,
		Status:      cmd.Status,
		PeriodStart: cmd.PeriodStart,
		PeriodEnd:   cmd.PeriodEnd,
	}

	return s.DB.WithTxRetry(ctx, func(ctx context.Context) error {
		claimed, err := s.claimEvent(ctx, cmd.EventID, string(types.WebhookEventTypeSubscriptionCreated), cmd.SubscriptionID)
		if err != nil || !claimed {
			return err
		}

		l, created, err := s.findOrCreateByEmail(ctx, cust.Email, "")
		if err != nil {
			return err
		}

		s.applySubscription(l, sub, created, time.Now().UTC())
		return s.LedgerRepo.Update(ctx, l)
	})
}

func (s *reconciliationService) ProcessInvoicePaid(ctx context.Context, cmd *InvoicePaidCommand) error {
	if cmd.SubscriptionID == "" {
		// one-off invoices do not touch the ledger
		s.Logger.Debugw("invoice without subscription, skipping",
			"event_id", cmd.EventID,
			"invoice_id", cmd.InvoiceID)
		return nil
	}

	span, ctx := s.Sentry.MonitorWebhookProcessing(ctx, string(types.WebhookEventTypeInvoicePaymentSucceeded), map[string]interface{}{
		"event_id": cmd.EventID,
	})
	defer sentry.FinishSpan(span)

	if done, err := s.alreadyProcessed(ctx, cmd.EventID); err != nil || done {
		return err
	}

	sub, err := s.Provider.GetSubscription(ctx, cmd.SubscriptionID)
	if err != nil {
		s.Sentry.CaptureException(err)
		return err
	}

	return s.DB.WithTxRetry(ctx, func(ctx context.Context) error {
		claimed, err := s.claimEvent(ctx, cmd.EventID, string(types.WebhookEventTypeInvoicePaymentSucceeded), cmd.SubscriptionID)
		if err != nil || !claimed {
			return err
		}

		l, err := s.lockedBySubscription(ctx, cmd.SubscriptionID, cmd.EventID)
		if err != nil || l == nil {
			return err
		}

		now := time.Now().UTC()

		// Late deliveries may find more than one cycle elapsed; each
		// pass advances the anchor by exactly one cycle so the
		// schedule catches up without drifting.
		for credit.ShouldResetCredits(l, now) {
			credit.ResetMonthlyCredits(l, now)
		}

		plan := s.Catalog.ResolveTier(sub.PriceID)
		l.PlanTier = plan.Tier
		l.PriceID = sub.PriceID
		l.UGC.Allowed = plan.UGCCredits
		l.Faceless.Allowed = plan.FacelessCredits
		l.SubscriptionStatus = types.SubscriptionStatusActive
		s.setPeriod(l, sub.PeriodStart, sub.PeriodEnd)

		return s.LedgerRepo.Update(ctx, l)
	})
}

func (s *reconciliationService) ProcessSubscriptionDeleted(ctx context.Context, cmd *SubscriptionDeletedCommand) error {
	span, ctx := s.Sentry.MonitorWebhookProcessing(ctx, string(types.WebhookEventTypeSubscriptionDeleted), map[string]interface{}{
		"event_id": cmd.EventID,
	})
	defer sentry.FinishSpan(span)

	return s.DB.WithTxRetry(ctx, func(ctx context.Context) error {
		claimed, err := s.claimEvent(ctx, cmd.EventID, string(types.WebhookEventTypeSubscriptionDeleted), cmd.SubscriptionID)
		if err != nil || !claimed {
			return err
		}

		l, err := s.lockedBySubscription(ctx, cmd.SubscriptionID, cmd.EventID)
		if err != nil || l == nil {
			return err
		}

		// Usage is kept for audit; the record is never deleted.
		l.SubscriptionStatus = types.SubscriptionStatusCanceled
		l.PlanTier = types.TierNone
		l.UGC.Allowed = 0
		l.Faceless.Allowed = 0
		l.ClearCarryover()

		return s.LedgerRepo.Update(ctx, l)
	})
}

func (s *reconciliationService) ProcessInvoicePaymentFailed(ctx context.Context, cmd *InvoicePaymentFailedCommand) error {
	if cmd.SubscriptionID == "" {
		s.Logger.Debugw("failed invoice without subscription, skipping",
			"event_id", cmd.EventID,
			"invoice_id", cmd.InvoiceID)
		return nil
	}

	span, ctx := s.Sentry.MonitorWebhookProcessing(ctx, string(types.WebhookEventTypeInvoicePaymentFailed), map[string]interface{}{
		"event_id": cmd.EventID,
	})
	defer sentry.FinishSpan(span)

	return s.DB.WithTxRetry(ctx, func(ctx context.Context) error {
		claimed, err := s.claimEvent(ctx, cmd.EventID, string(types.WebhookEventTypeInvoicePaymentFailed), cmd.SubscriptionID)
		if err != nil || !claimed {
			return err
		}

		l, err := s.lockedBySubscription(ctx, cmd.SubscriptionID, cmd.EventID)
		if err != nil || l == nil {
			return err
		}

		l.SubscriptionStatus = types.SubscriptionStatusPastDue

		return s.LedgerRepo.Update(ctx, l)
	})
}

// alreadyProcessed checks the claim table outside any transaction so a
// redelivery can be acknowledged before the provider round-trip. The
// in-transaction claim stays authoritative for races.
func (s *reconciliationService) alreadyProcessed(ctx context.Context, eventID string) (bool, error) {
	done, err := s.BillingEventRepo.IsProcessed(ctx, eventID)
	if err != nil {
		return false, err
	}
	if done {
		s.Logger.Infow("billing event already processed, skipping", "event_id", eventID)
	}
	return done, nil
}

// claimEvent records the provider event id inside the current
// transaction. Returns false when the event was already processed, in
// which case the delivery is acknowledged without touching the ledger.
func (s *reconciliationService) claimEvent(ctx context.Context, eventID, eventType, subscriptionID string) (bool, error) {
	err := s.BillingEventRepo.MarkProcessed(ctx, billingevent.New(eventID, eventType, subscriptionID))
	if err != nil {
		if ierr.IsAlreadyExists(err) {
			s.Logger.Infow("billing event already processed, skipping",
				"event_id", eventID,
				"event_type", eventType)
			return false, nil
		}
		return false, err
	}
	s.Sentry.AddBreadcrumb("billing", "event claimed", map[string]interface{}{
		"event_id":   eventID,
		"event_type": eventType,
	})
	return true, nil
}

// findOrCreateByEmail loads the ledger for an email under a row lock,
// creating an empty one on first contact. The bool reports creation.
func (s *reconciliationService) findOrCreateByEmail(ctx context.Context, email, userID string) (*ledger.Ledger, bool, error) {
	l, err := s.LedgerRepo.GetByEmailForUpdate(ctx, email)
	if err == nil {
		return l, false, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, false, err
	}

	if userID == "" {
		// subscription.created can beat checkout.session.completed;
		// the customer id stands in until the checkout event carries
		// the real user reference.
		userID = email
	}
	l = ledger.New(userID, email)
	if err := s.LedgerRepo.Create(ctx, l); err != nil {
		return nil, false, err
	}
	return l, true, nil
}

// lockedBySubscription loads the ledger for a subscription under a row
// lock. A nil ledger with nil error means no ledger matches and the
// event should be acknowledged and skipped.
func (s *reconciliationService) lockedBySubscription(ctx context.Context, subscriptionID, eventID string) (*ledger.Ledger, error) {
	l, err := s.LedgerRepo.GetBySubscriptionIDForUpdate(ctx, subscriptionID)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Warnw("no ledger for subscription, skipping event",
				"event_id", eventID,
				"subscription_id", subscriptionID)
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

// applySubscription reconciles a subscription-creation style event
// (new subscription, plan change, or duplicate delivery) onto the
// ledger.
func (s *reconciliationService) applySubscription(l *ledger.Ledger, sub *stripeclient.SubscriptionInfo, created bool, now time.Time) {
	// checkout.session.completed and customer.subscription.created
	// both fire at creation under distinct event ids; the second
	// arrival must not re-run carryover.
	if l.SubscriptionID == sub.ID && l.PriceID == sub.PriceID && samePeriodStart(l.PeriodStart, sub.PeriodStart) {
		l.SubscriptionStatus = types.FoldSubscriptionStatus(sub.Status)
		return
	}

	plan := s.Catalog.ResolveTier(sub.PriceID)

	if l.SubscriptionID == "" || created {
		// first subscription: fresh pools and a new reset anchor
		l.UGC = ledger.CreditPool{Allowed: plan.UGCCredits}
		l.Faceless = ledger.CreditPool{Allowed: plan.FacelessCredits}
		l.CarryoverExpiry = nil

		schedule := credit.InitializeCreditReset(sub.PeriodStart)
		l.ResetDay = schedule.ResetDay
		s.setNextReset(l, schedule.NextReset)
	} else {
		// plan change mid-cycle: preserve usage and the reset anchor,
		// carry unused allowance forward with a fresh grace window
		ugc := credit.ComputeCarryover(l.UGC.Allowed, l.UGC.Used, l.UGC.Carryover, l.CarryoverExpiry, now)
		faceless := credit.ComputeCarryover(l.Faceless.Allowed, l.Faceless.Used, l.Faceless.Carryover, l.CarryoverExpiry, now)

		l.UGC.Carryover = ugc.Amount
		l.Faceless.Carryover = faceless.Amount
		l.CarryoverExpiry = credit.LaterExpiry(ugc.Expiry, faceless.Expiry)

		l.UGC.Allowed = plan.UGCCredits
		l.Faceless.Allowed = plan.FacelessCredits
	}

	l.CustomerID = sub.CustomerID
	l.SubscriptionID = sub.ID
	l.PriceID = sub.PriceID
	l.PlanTier = plan.Tier
	l.SubscriptionStatus = types.FoldSubscriptionStatus(sub.Status)
	s.setPeriod(l, sub.PeriodStart, sub.PeriodEnd)
}

// setPeriod updates the billing period bounds, ignoring zero values
// from partial payloads.
func (s *reconciliationService) setPeriod(l *ledger.Ledger, start, end time.Time) {
	if !start.IsZero() {
		t := start
		l.PeriodStart = &t
	}
	if !end.IsZero() {
		t := end
		l.PeriodEnd = &t
	}
}

// setNextReset advances the reset anchor, never moving it earlier.
func (s *reconciliationService) setNextReset(l *ledger.Ledger, next time.Time) {
	if l.NextReset != nil && l.NextReset.After(next) {
		return
	}
	l.NextReset = &next
}

func samePeriodStart(stored *time.Time, incoming time.Time) bool {
	if stored == nil || incoming.IsZero() {
		return false
	}
	return stored.Equal(incoming)
}
