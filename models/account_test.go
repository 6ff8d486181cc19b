package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthlyResetDue(t *testing.T) {
	tests := []struct {
		name      string
		resetDate time.Time
		now       time.Time
		expectDue bool
	}{
		{
			name:      "same month is not due",
			resetDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			now:       time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC),
			expectDue: false,
		},
		{
			name:      "next month is due",
			resetDate: time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
			now:       time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			expectDue: true,
		},
		{
			name:      "day of month is ignored",
			resetDate: time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC),
			now:       time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC),
			expectDue: true,
		},
		{
			name:      "year rollover is due",
			resetDate: time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC),
			now:       time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
			expectDue: true,
		},
		{
			name:      "later month in an earlier year is due",
			resetDate: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
			now:       time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			expectDue: true,
		},
		{
			name:      "clock behind the reset date is not due",
			resetDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			now:       time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
			expectDue: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := &Account{UsageResetDate: tt.resetDate}
			assert.Equal(t, tt.expectDue, account.MonthlyResetDue(tt.now))
		})
	}
}

func TestWithMonthlyReset(t *testing.T) {
	t.Run("due reset zeroes usage and stamps the date", func(t *testing.T) {
		account := Account{
			SearchesUsed:   42,
			UsageResetDate: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		}
		now := time.Date(2025, 7, 3, 12, 0, 0, 0, time.UTC)

		updated, changed := account.WithMonthlyReset(now)
		assert.True(t, changed)
		assert.Zero(t, updated.SearchesUsed)
		assert.Equal(t, now, updated.UsageResetDate)

		// The receiver is untouched
		assert.Equal(t, 42, account.SearchesUsed)
	})

	t.Run("not due leaves everything alone", func(t *testing.T) {
		account := Account{
			SearchesUsed:   42,
			UsageResetDate: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		}
		now := time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC)

		updated, changed := account.WithMonthlyReset(now)
		assert.False(t, changed)
		assert.Equal(t, 42, updated.SearchesUsed)
		assert.Equal(t, account.UsageResetDate, updated.UsageResetDate)
	})

	t.Run("re-applying after a reset changes nothing", func(t *testing.T) {
		account := Account{
			SearchesUsed:   42,
			UsageResetDate: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		}
		now := time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)

		once, changed := account.WithMonthlyReset(now)
		assert.True(t, changed)

		twice, changed := once.WithMonthlyReset(now)
		assert.False(t, changed)
		assert.Equal(t, once, twice)
	})
}

func TestPlanLimits(t *testing.T) {
	limits := DefaultPlanLimits()

	t.Run("bounded tiers", func(t *testing.T) {
		limit, ok := limits.LimitFor(PlanPro)
		assert.True(t, ok)
		assert.Equal(t, 250, limit)

		limit, ok = limits.LimitFor(PlanAgency)
		assert.True(t, ok)
		assert.Equal(t, 1000, limit)
	})

	t.Run("unbounded tiers", func(t *testing.T) {
		assert.True(t, limits.IsUnbounded(PlanUnlimited))
		assert.True(t, limits.IsUnbounded(PlanAdmin))
		assert.False(t, limits.IsUnbounded(PlanPro))
		assert.False(t, limits.IsUnbounded("free"))
	})

	t.Run("unknown tier", func(t *testing.T) {
		_, ok := limits.LimitFor("free")
		assert.False(t, ok)
	})
}

func TestIsValidPlan(t *testing.T) {
	assert.True(t, IsValidPlan(PlanPro))
	assert.True(t, IsValidPlan(PlanAgency))
	assert.True(t, IsValidPlan(PlanUnlimited))
	assert.True(t, IsValidPlan(PlanAdmin))
	assert.False(t, IsValidPlan("free"))
	assert.False(t, IsValidPlan(""))
	assert.False(t, IsValidPlan("Pro"))
}
