package credit

import (
	"time"

	"github.com/reelkit/reelkit/internal/domain/ledger"
)

// ResetSchedule is the recurring monthly reset anchor derived from a
// billing period start.
type ResetSchedule struct {
	ResetDay  int
	NextReset time.Time
}

// InitializeCreditReset establishes the reset anchor for a brand-new
// subscription: the anchor day is the period start's day of month and
// the first reset lands one cycle later.
func InitializeCreditReset(periodStart time.Time) ResetSchedule {
	return ResetSchedule{
		ResetDay:  periodStart.Day(),
		NextReset: NextAnchor(periodStart, periodStart.Day()),
	}
}

// NextAnchor returns the reset anchor one cycle after prev: resetDay
// in the month following prev, clamped to the last day of shorter
// months. Clamping instead of AddDate keeps a day-31 anchor from
// normalizing past February onto the 3rd of March and sticking there.
// The time of day carries over from prev.
func NextAnchor(prev time.Time, resetDay int) time.Time {
	year, month, _ := prev.Date()
	hour, min, sec := prev.Clock()

	day := resetDay
	if last := daysInMonth(year, month+1); day > last {
		day = last
	}
	return time.Date(year, month+1, day, hour, min, sec, prev.Nanosecond(), prev.Location())
}

func daysInMonth(year int, month time.Month) int {
	// day 0 of the following month
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ShouldResetCredits reports whether the ledger is due for its monthly
// reset at the given instant.
func ShouldResetCredits(l *ledger.Ledger, now time.Time) bool {
	return l.NextReset != nil && !now.Before(*l.NextReset)
}

// ResetMonthlyCredits applies the monthly reset in place: usage is
// zeroed on both pools, unexpired carryover is retained, expired
// carryover is forfeited, and the next reset advances by exactly one
// cycle from the previous anchor. Advancing from the anchor rather
// than from now keeps late-arriving renewal notifications from
// drifting the schedule, and re-applying ResetDay each cycle lets a
// month-end anchor recover after a clamped February. Refreshing each
// pool's allowance from the plan catalog is the caller's job.
func ResetMonthlyCredits(l *ledger.Ledger, now time.Time) {
	l.UGC.Used = 0
	l.Faceless.Used = 0

	if !l.CarryoverActive(now) {
		l.ClearCarryover()
	}

	if l.NextReset != nil {
		next := NextAnchor(*l.NextReset, l.ResetDay)
		l.NextReset = &next
	}
}
