/*
cadence.go - Payment frequency and calendar arithmetic

PURPOSE:
  Cadence is the payment frequency of a savings plan (daily, weekly,
  monthly). This file holds the pure calendar math: advancing a due date
  by one period, the minimum payment amount per cadence, and the
  periods-per-month factor used for display estimates.

MONTH-END CLAMPING:
  Advancing a monthly cadence preserves the day of month. When the target
  month is shorter, the date clamps to its last day:
    Jan 31 + monthly -> Feb 29 (leap year) or Feb 28
  Note this is NOT what time.AddDate does (it normalizes Jan 31 + 1 month
  to Mar 2/3), so the clamping is explicit here.

MINIMUM AMOUNTS:
  daily: 100, weekly: 700, monthly: 3000 (whole rubles). These are product
  floors, not financial constraints: a daily saver below 100/day is not a
  meaningful savings trajectory.

SEE ALSO:
  - plan.go: Validates payment amount against MinimumAmount
  - progress.go: Uses PeriodsPerMonth for time-remaining estimates
*/
package accrual

import (
	"fmt"
	"time"
)

// =============================================================================
// CADENCE - Payment frequency
// =============================================================================

// Cadence is how often a payment is applied to a plan.
type Cadence string

const (
	CadenceDaily   Cadence = "daily"
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
)

// ParseCadence validates and converts a string to a Cadence.
func ParseCadence(s string) (Cadence, error) {
	switch Cadence(s) {
	case CadenceDaily, CadenceWeekly, CadenceMonthly:
		return Cadence(s), nil
	default:
		return "", fmt.Errorf("unknown cadence %q: %w", s, ErrInvalidCadence)
	}
}

// IsValid reports whether the cadence is one of the known values.
func (c Cadence) IsValid() bool {
	switch c {
	case CadenceDaily, CadenceWeekly, CadenceMonthly:
		return true
	}
	return false
}

func (c Cadence) String() string { return string(c) }

// =============================================================================
// CALENDAR ARITHMETIC
// =============================================================================

// Advance returns the next due date one period after the given date.
//
// daily adds one calendar day, weekly adds seven. monthly adds one calendar
// month preserving the day of month; if the target month has fewer days the
// result clamps to its last day (Jan 31 -> Feb 28/29).
func (c Cadence) Advance(date time.Time) time.Time {
	switch c {
	case CadenceDaily:
		return date.AddDate(0, 0, 1)
	case CadenceWeekly:
		return date.AddDate(0, 0, 7)
	case CadenceMonthly:
		return addMonthClamped(date)
	default:
		return date
	}
}

// addMonthClamped adds one month with end-of-month clamping. time.AddDate
// normalizes overflow (Jan 31 + 1 month = Mar 2/3), which is wrong for
// billing dates, so the day is clamped against the target month's length.
func addMonthClamped(date time.Time) time.Time {
	year, month, day := date.Date()
	month++
	if month > time.December {
		month = time.January
		year++
	}
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	h, m, s := date.Clock()
	return time.Date(year, month, day, h, m, s, date.Nanosecond(), date.Location())
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// =============================================================================
// CADENCE CONSTANTS
// =============================================================================

// MinimumAmount returns the floor for per-payment amounts at this cadence.
func (c Cadence) MinimumAmount() Money {
	switch c {
	case CadenceDaily:
		return NewMoney(100)
	case CadenceWeekly:
		return NewMoney(700)
	case CadenceMonthly:
		return NewMoney(3000)
	default:
		return Zero
	}
}

// PeriodsPerMonth returns the approximate number of payment periods in one
// month. Used only for display estimates ("about 4 months to go"), never
// for financial arithmetic.
func (c Cadence) PeriodsPerMonth() float64 {
	switch c {
	case CadenceDaily:
		return 30
	case CadenceWeekly:
		return 4.345
	case CadenceMonthly:
		return 1
	default:
		return 0
	}
}
