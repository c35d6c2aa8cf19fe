/*
plan.go - Immutable savings plan parameters

PURPOSE:
  A Plan is the contract half of a subscription: the target price, the
  payment cadence, and the per-payment amount. It never changes once
  validated; "editing" a subscription produces a new Plan (UpdateAmount)
  while the Ledger carries on.

VALIDATION:
  - TargetPrice must be strictly positive
  - PaymentAmount must meet the cadence minimum (100/700/3000)

  Validation lives in NewPlan. A Plan obtained any other way is not
  guaranteed to hold the invariants downstream code relies on (notably
  the zero-target guard in progress.go).

SEE ALSO:
  - ledger.go: The mutable state paired with a Plan
  - cadence.go: MinimumAmount per cadence
*/
package accrual

import "fmt"

// =============================================================================
// PLAN - Immutable subscription parameters
// =============================================================================

// Plan holds the immutable parameters of a savings subscription.
type Plan struct {
	TargetPrice   Money
	Cadence       Cadence
	PaymentAmount Money
}

// NewPlan validates and creates a Plan.
func NewPlan(targetPrice Money, cadence Cadence, paymentAmount Money) (Plan, error) {
	if !cadence.IsValid() {
		return Plan{}, fmt.Errorf("new plan: %w", ErrInvalidCadence)
	}
	if !targetPrice.IsPositive() {
		return Plan{}, &InvalidAmountError{
			Amount: targetPrice,
			Reason: "target price must be positive",
		}
	}
	if err := validatePaymentAmount(paymentAmount, cadence); err != nil {
		return Plan{}, err
	}
	return Plan{
		TargetPrice:   targetPrice,
		Cadence:       cadence,
		PaymentAmount: paymentAmount,
	}, nil
}

// UpdateAmount derives a new Plan with a different payment amount and cadence.
// Legal only while the ledger is active or paused; the target price is fixed
// for the life of the subscription.
func (p Plan) UpdateAmount(l Ledger, newAmount Money, cadence Cadence) (Plan, error) {
	if l.Status != StatusActive && l.Status != StatusPaused {
		return Plan{}, &InvalidStateError{Op: "update plan", Status: l.Status}
	}
	if !cadence.IsValid() {
		return Plan{}, fmt.Errorf("update plan: %w", ErrInvalidCadence)
	}
	if err := validatePaymentAmount(newAmount, cadence); err != nil {
		return Plan{}, err
	}
	return Plan{
		TargetPrice:   p.TargetPrice,
		Cadence:       cadence,
		PaymentAmount: newAmount,
	}, nil
}

// Remaining returns the unpaid balance toward the target, floored at zero.
func (p Plan) Remaining(l Ledger) Money {
	remaining := p.TargetPrice.Sub(l.TotalPaid)
	if remaining.IsNegative() {
		return Zero
	}
	return remaining
}

func validatePaymentAmount(amount Money, cadence Cadence) error {
	if !amount.IsPositive() {
		return &InvalidAmountError{
			Amount: amount,
			Reason: "payment amount must be positive",
		}
	}
	if min := cadence.MinimumAmount(); amount.LessThan(min) {
		return &InvalidAmountError{
			Amount:  amount,
			Minimum: min,
			Reason:  fmt.Sprintf("payment amount for %s cadence", cadence),
		}
	}
	return nil
}
