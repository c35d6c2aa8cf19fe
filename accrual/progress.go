/*
progress.go - Derived progress calculators

PURPOSE:
  Pure read-only functions over a (Plan, Ledger) snapshot: how far along
  the saver is, how many payments are left, and roughly when the goal
  lands. This is the single home for all progress math - the API layer
  serializes these values verbatim and never re-derives them, so display
  and source of truth cannot drift.

ESTIMATES VS GUARANTEES:
  EstimatedCompletionDate and EstimatedMonthsRemaining are estimates for
  display. They assume every future payment is the plan amount, on
  schedule, starting from now. Manual top-ups, pauses, and plan edits all
  move the real date; nothing here is a payment schedule guarantee.

ACHIEVEMENTS:
  Achievements are recomputed from the snapshot on every read rather than
  stored, so they can never disagree with the balance that earned them.

SEE ALSO:
  - ledger.go: The state these functions read
  - api/dto.go: Serializes Progress for clients
*/
package accrual

import (
	"math"
	"time"
)

// =============================================================================
// ACHIEVEMENTS
// =============================================================================

// Achievement is a saving milestone derived from progress.
type Achievement string

const (
	AchievementFirstPayment Achievement = "first_payment"
	AchievementQuarter      Achievement = "quarter"
	AchievementHalf         Achievement = "half"
)

// =============================================================================
// PROGRESS CALCULATOR
// =============================================================================

// PercentComplete returns 100 * TotalPaid / TargetPrice, clamped to [0, 100].
//
// The zero-target guard is defensive: NewPlan rejects zero targets, so
// ErrZeroTarget indicates a Plan constructed outside validation and should
// be logged as a bug, not shown to users.
func PercentComplete(plan Plan, l Ledger) (float64, error) {
	if plan.TargetPrice.IsZero() {
		return 0, ErrZeroTarget
	}
	pct, _ := l.TotalPaid.Decimal().
		Div(plan.TargetPrice.Decimal()).
		Mul(hundred).
		Float64()
	return math.Min(100, math.Max(0, pct)), nil
}

// PaymentsRemaining returns how many plan-sized payments are still needed to
// reach the target, rounding up. Zero once the target is reached.
func PaymentsRemaining(plan Plan, l Ledger) int {
	remaining := plan.Remaining(l)
	if remaining.IsZero() || !plan.PaymentAmount.IsPositive() {
		return 0
	}
	n := remaining.Decimal().Div(plan.PaymentAmount.Decimal()).Ceil().IntPart()
	return int(n)
}

// EstimatedCompletionDate projects when the target is reached if every
// remaining payment is the plan amount, applied on cadence starting from now.
// Estimate only; see the package comment on estimates vs guarantees.
func EstimatedCompletionDate(plan Plan, l Ledger, now time.Time) time.Time {
	date := now
	for i := PaymentsRemaining(plan, l); i > 0; i-- {
		date = plan.Cadence.Advance(date)
	}
	return date
}

// EstimatedMonthsRemaining returns the rough number of months to completion
// using the cadence's periods-per-month factor. Closed-form counterpart to
// EstimatedCompletionDate for "about N months" display copy.
func EstimatedMonthsRemaining(plan Plan, l Ledger) int {
	remaining := PaymentsRemaining(plan, l)
	if remaining == 0 {
		return 0
	}
	per := plan.Cadence.PeriodsPerMonth()
	if per <= 0 {
		return 0
	}
	return int(math.Ceil(float64(remaining) / per))
}

// Achievements returns the milestones unlocked by the current snapshot.
// Derived, never stored; a snapshot that earned "half" always reports
// "quarter" and "first_payment" too.
func Achievements(plan Plan, l Ledger) []Achievement {
	var unlocked []Achievement
	if l.TotalPaid.IsPositive() {
		unlocked = append(unlocked, AchievementFirstPayment)
	}
	pct, err := PercentComplete(plan, l)
	if err != nil {
		return unlocked
	}
	if pct >= 25 {
		unlocked = append(unlocked, AchievementQuarter)
	}
	if pct >= 50 {
		unlocked = append(unlocked, AchievementHalf)
	}
	return unlocked
}

// =============================================================================
// SNAPSHOT - One-call progress summary
// =============================================================================

// Progress is a full progress summary for presentation.
type Progress struct {
	PercentComplete     float64
	TotalPaid           Money
	Remaining           Money
	PaymentsRemaining   int
	EstimatedCompletion time.Time
	EstimatedMonths     int
	Achievements        []Achievement
}

// Summarize computes the complete progress view in one call.
func Summarize(plan Plan, l Ledger, now time.Time) (Progress, error) {
	pct, err := PercentComplete(plan, l)
	if err != nil {
		return Progress{}, err
	}
	return Progress{
		PercentComplete:     pct,
		TotalPaid:           l.TotalPaid,
		Remaining:           plan.Remaining(l),
		PaymentsRemaining:   PaymentsRemaining(plan, l),
		EstimatedCompletion: EstimatedCompletionDate(plan, l, now),
		EstimatedMonths:     EstimatedMonthsRemaining(plan, l),
		Achievements:        Achievements(plan, l),
	}, nil
}

var hundred = NewMoney(100).Decimal()
