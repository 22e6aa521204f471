package credit

import (
	"time"
)

// GracePeriod is how long carried-over credits stay spendable after a
// plan change: one full billing cycle.
const GracePeriod = 30 * 24 * time.Hour

// CarryoverResult is the outcome of a carryover computation for one
// credit pool.
type CarryoverResult struct {
	Amount int
	Expiry *time.Time
}

// ComputeCarryover calculates the unused allowance to preserve across
// a plan change. If the existing carryover has not expired it stacks
// on top of the new unused amount; expired carryover is forfeited. The
// expiry restarts from now whenever anything is carried.
func ComputeCarryover(allowed, used, existingCarryover int, existingExpiry *time.Time, now time.Time) CarryoverResult {
	unused := allowed - used
	if unused < 0 {
		unused = 0
	}

	amount := unused
	if existingExpiry != nil && now.Before(*existingExpiry) {
		amount += existingCarryover
	}

	if amount == 0 {
		return CarryoverResult{}
	}

	expiry := now.Add(GracePeriod)
	return CarryoverResult{Amount: amount, Expiry: &expiry}
}

// LaterExpiry merges the expiries proposed by the two pools'
// computations into the single shared expiry field: the later of the
// two non-nil values wins, so long-lived credits never expire early
// just because the other pool had nothing to carry.
func LaterExpiry(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.After(*a) {
		return b
	}
	return a
}
