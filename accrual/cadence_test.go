package accrual_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kopichu/savings-engine/accrual"
)

// =============================================================================
// ADVANCE - Calendar arithmetic
// =============================================================================

func TestCadence_Advance(t *testing.T) {
	tests := []struct {
		name    string
		cadence accrual.Cadence
		from    time.Time
		want    time.Time
	}{
		{
			name:    "daily adds one day",
			cadence: accrual.CadenceDaily,
			from:    date(2024, time.March, 10),
			want:    date(2024, time.March, 11),
		},
		{
			name:    "daily crosses month boundary",
			cadence: accrual.CadenceDaily,
			from:    date(2024, time.April, 30),
			want:    date(2024, time.May, 1),
		},
		{
			name:    "weekly adds seven days",
			cadence: accrual.CadenceWeekly,
			from:    date(2024, time.March, 10),
			want:    date(2024, time.March, 17),
		},
		{
			name:    "weekly crosses year boundary",
			cadence: accrual.CadenceWeekly,
			from:    date(2024, time.December, 28),
			want:    date(2025, time.January, 4),
		},
		{
			name:    "monthly preserves day of month",
			cadence: accrual.CadenceMonthly,
			from:    date(2024, time.March, 15),
			want:    date(2024, time.April, 15),
		},
		{
			name:    "monthly from December wraps year",
			cadence: accrual.CadenceMonthly,
			from:    date(2024, time.December, 5),
			want:    date(2025, time.January, 5),
		},
		{
			name:    "monthly clamps Jan 31 to Feb 29 in leap year",
			cadence: accrual.CadenceMonthly,
			from:    date(2024, time.January, 31),
			want:    date(2024, time.February, 29),
		},
		{
			name:    "monthly clamps Jan 31 to Feb 28 in common year",
			cadence: accrual.CadenceMonthly,
			from:    date(2023, time.January, 31),
			want:    date(2023, time.February, 28),
		},
		{
			name:    "monthly clamps Mar 31 to Apr 30",
			cadence: accrual.CadenceMonthly,
			from:    date(2024, time.March, 31),
			want:    date(2024, time.April, 30),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cadence.Advance(tt.from)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestCadence_Advance_PreservesClock(t *testing.T) {
	// GIVEN: A due date with a time-of-day component
	// WHEN: Advancing by a month
	// THEN: The clock is preserved, only the date moves

	from := time.Date(2024, time.January, 31, 9, 30, 0, 0, time.UTC)
	got := accrual.CadenceMonthly.Advance(from)

	assert.Equal(t, time.Date(2024, time.February, 29, 9, 30, 0, 0, time.UTC), got)
}

// =============================================================================
// MINIMUMS AND ESTIMATION FACTORS
// =============================================================================

func TestCadence_MinimumAmount(t *testing.T) {
	assert.True(t, accrual.CadenceDaily.MinimumAmount().Equal(accrual.NewMoney(100)))
	assert.True(t, accrual.CadenceWeekly.MinimumAmount().Equal(accrual.NewMoney(700)))
	assert.True(t, accrual.CadenceMonthly.MinimumAmount().Equal(accrual.NewMoney(3000)))
}

func TestCadence_PeriodsPerMonth(t *testing.T) {
	assert.Equal(t, 30.0, accrual.CadenceDaily.PeriodsPerMonth())
	assert.Equal(t, 4.345, accrual.CadenceWeekly.PeriodsPerMonth())
	assert.Equal(t, 1.0, accrual.CadenceMonthly.PeriodsPerMonth())
}

// =============================================================================
// PARSING
// =============================================================================

func TestParseCadence(t *testing.T) {
	for _, valid := range []string{"daily", "weekly", "monthly"} {
		c, err := accrual.ParseCadence(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, c.String())
	}

	_, err := accrual.ParseCadence("yearly")
	assert.ErrorIs(t, err, accrual.ErrInvalidCadence)

	_, err = accrual.ParseCadence("")
	assert.ErrorIs(t, err, accrual.ErrInvalidCadence)
}

// date is a test helper for midnight-UTC dates.
func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
