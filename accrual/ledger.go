/*
ledger.go - Accrual state machine

PURPOSE:
  The Ledger is the mutable half of a subscription: how much has been
  paid, when the last payment landed, when the next one is due, and the
  lifecycle status. Every operation here is side-effect-free: it takes a
  Ledger value and returns a new one, and the caller persists the result.

STATE MACHINE:
  active  <->  paused
    |            |
    +--> completed (absorbing)
    |            |
    +--> cancelled (absorbing)

  - Payments are accepted only while active.
  - pause/resume toggle active<->paused without touching totals.
  - completed fires exactly once, when TotalPaid reaches the target.
  - cancel is legal from active or paused and idempotent when already
    cancelled; TotalPaid is preserved for the historical record.

CRITICAL INVARIANTS:
  1. TotalPaid is monotonically non-decreasing
  2. TotalPaid never exceeds Plan.TargetPrice (overshoot cap: the final
     payment is clamped to the remaining balance)
  3. NextDueDate is set only while active/paused; terminal states clear it
  4. Terminal states accept no further mutation except idempotent cancel

CONCURRENCY:
  None here. The at-most-one-writer guarantee per subscription belongs to
  the storage layer (optimistic versioning in store/sqlite); the engine is
  a pure function and safe to call from anywhere.

SEE ALSO:
  - plan.go: The immutable parameters a Ledger accrues against
  - progress.go: Read-only calculators over (Plan, Ledger)
  - subscription/service.go: Persists ledger transitions atomically
*/
package accrual

import "time"

// =============================================================================
// STATUS - Subscription lifecycle
// =============================================================================

// Status is the lifecycle state of a subscription ledger.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether the status is absorbing.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// =============================================================================
// LEDGER - Mutable accrual state
// =============================================================================

// Ledger is the accrual state of one subscription. The zero value is not
// valid; use NewLedger.
//
// NextDueDate and the other pointer fields use *time.Time so that "absent"
// is representable: terminal states carry no due date at all.
type Ledger struct {
	TotalPaid       Money
	LastPaymentDate *time.Time
	NextDueDate     *time.Time
	Status          Status
	CompletedAt     *time.Time
}

// NewLedger creates the initial ledger for a plan opened at the given time.
// The first payment falls one cadence period after creation.
func NewLedger(plan Plan, createdAt time.Time) Ledger {
	due := plan.Cadence.Advance(createdAt)
	return Ledger{
		TotalPaid:   Zero,
		NextDueDate: &due,
		Status:      StatusActive,
	}
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// RecordPayment applies a payment to the ledger and returns the new snapshot.
//
// The effective amount is capped at the remaining balance so the target is
// never overshot. Reaching the target transitions to completed and clears
// the due date; otherwise the due date advances one cadence period from now.
func (l Ledger) RecordPayment(plan Plan, amount Money, now time.Time) (Ledger, error) {
	if l.Status != StatusActive {
		return l, &InvalidStateError{Op: "record payment", Status: l.Status}
	}
	if !amount.IsPositive() {
		return l, &InvalidAmountError{
			Amount: amount,
			Reason: "payment amount must be positive",
		}
	}

	effective := amount.Min(plan.TargetPrice.Sub(l.TotalPaid))

	next := l
	next.TotalPaid = l.TotalPaid.Add(effective)
	paidAt := now
	next.LastPaymentDate = &paidAt

	if next.TotalPaid.GreaterThanOrEqual(plan.TargetPrice) {
		completedAt := now
		next.Status = StatusCompleted
		next.CompletedAt = &completedAt
		next.NextDueDate = nil
	} else {
		due := plan.Cadence.Advance(now)
		next.NextDueDate = &due
	}
	return next, nil
}

// Pause suspends payments. Legal only from active. The due date is retained
// unchanged so a resume before it elapses does not reset the schedule.
func (l Ledger) Pause() (Ledger, error) {
	if l.Status != StatusActive {
		return l, &InvalidStateError{Op: "pause", Status: l.Status}
	}
	next := l
	next.Status = StatusPaused
	return next, nil
}

// Resume reactivates a paused ledger. If the retained due date already
// elapsed while paused, it is recomputed from the resume time so the saver
// does not face an immediate backlog of missed payments.
func (l Ledger) Resume(plan Plan, now time.Time) (Ledger, error) {
	if l.Status != StatusPaused {
		return l, &InvalidStateError{Op: "resume", Status: l.Status}
	}
	next := l
	next.Status = StatusActive
	if l.NextDueDate != nil && !l.NextDueDate.After(now) {
		due := plan.Cadence.Advance(now)
		next.NextDueDate = &due
	}
	return next, nil
}

// Cancel terminates the subscription. Legal from active or paused, and
// idempotent when already cancelled. TotalPaid is preserved for the
// historical record, never reset.
func (l Ledger) Cancel() (Ledger, error) {
	switch l.Status {
	case StatusCancelled:
		return l, nil
	case StatusActive, StatusPaused:
		next := l
		next.Status = StatusCancelled
		next.NextDueDate = nil
		return next, nil
	default:
		return l, &InvalidStateError{Op: "cancel", Status: l.Status}
	}
}

// IsDue reports whether an automatic payment should be applied: active with
// a due date at or before now.
func (l Ledger) IsDue(now time.Time) bool {
	return l.Status == StatusActive && l.NextDueDate != nil && !l.NextDueDate.After(now)
}
