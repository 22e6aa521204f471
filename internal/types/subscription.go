package types

import (
	ierr "github.com/reelkit/reelkit/internal/errors"
)

// SubscriptionStatus is the billing status tracked on a credit ledger.
// This is a closed set: Stripe statuses outside it are folded into the
// nearest member when events are reconciled.
type SubscriptionStatus string

const (
	SubscriptionStatusNone     SubscriptionStatus = "none"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

// FoldSubscriptionStatus maps a raw Stripe subscription status onto the
// closed internal set. Trialing and incomplete count as active, unpaid
// as past due, everything terminal as canceled.
func FoldSubscriptionStatus(providerStatus string) SubscriptionStatus {
	switch providerStatus {
	case "active", "trialing", "incomplete":
		return SubscriptionStatusActive
	case "past_due", "unpaid":
		return SubscriptionStatusPastDue
	case "canceled", "incomplete_expired", "paused":
		return SubscriptionStatusCanceled
	default:
		return SubscriptionStatusNone
	}
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusNone,
		SubscriptionStatusActive,
		SubscriptionStatusPastDue,
		SubscriptionStatusCanceled,
	}
	for _, status := range allowed {
		if s == status {
			return nil
		}
	}
	return ierr.NewError("invalid subscription status").
		WithHintf("Subscription status must be one of %v", allowed).
		Mark(ierr.ErrValidation)
}
