package credit

import (
	"testing"
	"time"

	"github.com/reelkit/reelkit/internal/domain/ledger"
	"github.com/stretchr/testify/assert"
)

func TestInitializeCreditReset(t *testing.T) {
	t.Run("mid-month period start", func(t *testing.T) {
		periodStart := time.Date(2025, 3, 17, 8, 30, 0, 0, time.UTC)

		schedule := InitializeCreditReset(periodStart)

		assert.Equal(t, 17, schedule.ResetDay)
		assert.Equal(t, time.Date(2025, 4, 17, 8, 30, 0, 0, time.UTC), schedule.NextReset)
	})

	t.Run("month-end period start clamps into February", func(t *testing.T) {
		periodStart := time.Date(2025, 1, 31, 8, 30, 0, 0, time.UTC)

		schedule := InitializeCreditReset(periodStart)

		assert.Equal(t, 31, schedule.ResetDay)
		assert.Equal(t, time.Date(2025, 2, 28, 8, 30, 0, 0, time.UTC), schedule.NextReset)
	})
}

func TestNextAnchor(t *testing.T) {
	tests := []struct {
		name     string
		prev     time.Time
		resetDay int
		want     time.Time
	}{
		{
			name:     "plain month advance",
			prev:     time.Date(2025, 4, 17, 8, 0, 0, 0, time.UTC),
			resetDay: 17,
			want:     time.Date(2025, 5, 17, 8, 0, 0, 0, time.UTC),
		},
		{
			name:     "day 31 clamps to February 28",
			prev:     time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC),
			resetDay: 31,
			want:     time.Date(2025, 2, 28, 8, 0, 0, 0, time.UTC),
		},
		{
			name:     "day 31 clamps to February 29 in a leap year",
			prev:     time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC),
			resetDay: 31,
			want:     time.Date(2024, 2, 29, 8, 0, 0, 0, time.UTC),
		},
		{
			name:     "clamped anchor recovers to day 31 in March",
			prev:     time.Date(2025, 2, 28, 8, 0, 0, 0, time.UTC),
			resetDay: 31,
			want:     time.Date(2025, 3, 31, 8, 0, 0, 0, time.UTC),
		},
		{
			name:     "day 31 clamps to 30 in April",
			prev:     time.Date(2025, 3, 31, 8, 0, 0, 0, time.UTC),
			resetDay: 31,
			want:     time.Date(2025, 4, 30, 8, 0, 0, 0, time.UTC),
		},
		{
			name:     "December rolls into January",
			prev:     time.Date(2025, 12, 17, 8, 0, 0, 0, time.UTC),
			resetDay: 17,
			want:     time.Date(2026, 1, 17, 8, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextAnchor(tt.prev, tt.resetDay))
		})
	}
}

func TestShouldResetCredits(t *testing.T) {
	reset := time.Date(2025, 4, 17, 0, 0, 0, 0, time.UTC)
	l := &ledger.Ledger{NextReset: &reset}

	assert.False(t, ShouldResetCredits(l, reset.Add(-time.Second)))
	assert.True(t, ShouldResetCredits(l, reset))
	assert.True(t, ShouldResetCredits(l, reset.Add(time.Hour)))
	assert.False(t, ShouldResetCredits(&ledger.Ledger{}, reset))
}

func TestResetMonthlyCredits(t *testing.T) {
	anchor := time.Date(2025, 4, 17, 0, 0, 0, 0, time.UTC)
	now := anchor.Add(2 * time.Hour)

	t.Run("usage zeroed and anchor advances one cycle", func(t *testing.T) {
		l := &ledger.Ledger{
			UGC:       ledger.CreditPool{Allowed: 5, Used: 3},
			Faceless:  ledger.CreditPool{Allowed: 10, Used: 10},
			ResetDay:  17,
			NextReset: &anchor,
		}

		ResetMonthlyCredits(l, now)

		assert.Equal(t, 0, l.UGC.Used)
		assert.Equal(t, 0, l.Faceless.Used)
		assert.Equal(t, time.Date(2025, 5, 17, 0, 0, 0, 0, time.UTC), *l.NextReset)
	})

	t.Run("anchor advances from itself, not from now", func(t *testing.T) {
		// a renewal notification arriving days late must not drift the
		// schedule
		late := anchor.Add(5 * 24 * time.Hour)
		l := &ledger.Ledger{ResetDay: 17, NextReset: &anchor}

		ResetMonthlyCredits(l, late)

		assert.Equal(t, time.Date(2025, 5, 17, 0, 0, 0, 0, time.UTC), *l.NextReset)
	})

	t.Run("month-end schedule holds its day across the year", func(t *testing.T) {
		// a ledger anchored on the 31st resets on the last day of
		// shorter months and returns to the 31st afterwards
		start := time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC)
		l := &ledger.Ledger{ResetDay: 31}
		next := NextAnchor(start, l.ResetDay)
		l.NextReset = &next

		want := []time.Time{
			time.Date(2025, 3, 31, 8, 0, 0, 0, time.UTC),
			time.Date(2025, 4, 30, 8, 0, 0, 0, time.UTC),
			time.Date(2025, 5, 31, 8, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 30, 8, 0, 0, 0, time.UTC),
			time.Date(2025, 7, 31, 8, 0, 0, 0, time.UTC),
		}
		for _, w := range want {
			ResetMonthlyCredits(l, *l.NextReset)
			assert.Equal(t, w, *l.NextReset)
		}
	})

	t.Run("unexpired carryover is retained", func(t *testing.T) {
		expiry := now.Add(10 * 24 * time.Hour)
		l := &ledger.Ledger{
			UGC:             ledger.CreditPool{Allowed: 5, Used: 2, Carryover: 4},
			CarryoverExpiry: &expiry,
			ResetDay:        17,
			NextReset:       &anchor,
		}

		ResetMonthlyCredits(l, now)

		assert.Equal(t, 4, l.UGC.Carryover)
		assert.Equal(t, &expiry, l.CarryoverExpiry)
	})

	t.Run("expired carryover is cleared", func(t *testing.T) {
		expiry := now.Add(-time.Minute)
		l := &ledger.Ledger{
			UGC:             ledger.CreditPool{Allowed: 5, Used: 2, Carryover: 4},
			Faceless:        ledger.CreditPool{Carryover: 1},
			CarryoverExpiry: &expiry,
			ResetDay:        17,
			NextReset:       &anchor,
		}

		ResetMonthlyCredits(l, now)

		assert.Equal(t, 0, l.UGC.Carryover)
		assert.Equal(t, 0, l.Faceless.Carryover)
		assert.Nil(t, l.CarryoverExpiry)
	})
}
