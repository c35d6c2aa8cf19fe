/*
errors.go - Centralized error types for the accrual engine

PURPOSE:
  All engine error types in one place for consistency and discoverability.
  Callers dispatch with errors.Is/errors.As; the structured types carry
  enough context to build a user-facing message without string parsing.

ERROR CATEGORIES:
  1. Amount errors - Non-positive or below-minimum payment amounts
  2. State errors  - Operation illegal for the ledger's current status
  3. Target errors - Defensive zero-target guard (a Plan construction bug)

USAGE:
  if errors.Is(err, accrual.ErrInvalidState) {
      // reject with a validation message
  }
  var stateErr *accrual.InvalidStateError
  if errors.As(err, &stateErr) {
      fmt.Printf("cannot %s while %s", stateErr.Op, stateErr.Status)
  }

SEE ALSO:
  - ledger.go: Returns these errors from state transitions
  - plan.go: Returns amount errors from validation
*/
package accrual

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned for non-positive payment amounts, or plan
	// amounts below the cadence minimum.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidState is returned when an operation is illegal for the
	// ledger's current status (e.g. recording a payment while paused).
	ErrInvalidState = errors.New("operation invalid for current status")

	// ErrInvalidCadence is returned for an unknown cadence value.
	ErrInvalidCadence = errors.New("invalid cadence")

	// ErrZeroTarget is the defensive division-by-zero guard. Plan validation
	// makes it unreachable; seeing it means a Plan was constructed without
	// NewPlan and should be treated as a bug, not user error.
	ErrZeroTarget = errors.New("plan target price is zero")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidStateError reports an operation attempted in a status that does not
// permit it.
type InvalidStateError struct {
	Op     string
	Status Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s: subscription is %s", e.Op, e.Status)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// InvalidAmountError reports a payment or plan amount that failed validation.
// Minimum is zero-valued when the failure is non-positivity rather than a
// cadence floor.
type InvalidAmountError struct {
	Amount  Money
	Minimum Money
	Reason  string
}

func (e *InvalidAmountError) Error() string {
	if e.Minimum.IsPositive() {
		return fmt.Sprintf("%s: %v is below minimum %v", e.Reason, e.Amount, e.Minimum)
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Amount)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input and
// should surface as a validation message rather than a server fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrInvalidCadence)
}
