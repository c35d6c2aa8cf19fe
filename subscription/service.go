/*
service.go - Subscription lifecycle operations

PURPOSE:
  The Service is the single writer path for subscriptions. Every mutation
  follows the same shape: load the snapshot, run the pure accrual engine
  transition, persist the result with a version check, and retry once or
  twice if another writer got there first. Handlers and the scheduler both
  go through here; nothing else writes subscriptions.

RETRY POLICY:
  Version conflicts are retried up to maxRetries with a fresh snapshot.
  Payments stay safe under retry because the payment key travels with the
  update: if the first attempt actually committed before the error was
  observed, the replay fails with ErrDuplicatePayment instead of
  double-counting.

SEE ALSO:
  - accrual/ledger.go: The pure transitions this service persists
  - api/scheduler.go: Drives ApplyDuePayment on a timer
*/
package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kopichu/savings-engine/accrual"
)

// maxRetries bounds reload-and-retry on version conflicts.
const maxRetries = 3

// Service owns the subscription write path.
type Service struct {
	store Store
}

// NewService creates a Service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// =============================================================================
// OPEN
// =============================================================================

// OpenParams are the validated inputs for opening a subscription.
type OpenParams struct {
	SaverID string
	PhoneID string
	Cadence accrual.Cadence
	Amount  accrual.Money
}

// Open creates a subscription: the plan targets the phone's current price,
// the first payment falls one cadence period after now.
func (s *Service) Open(ctx context.Context, p OpenParams, now time.Time) (Subscription, error) {
	if _, err := s.store.GetSaver(ctx, p.SaverID); err != nil {
		return Subscription{}, err
	}
	phone, err := s.store.GetPhone(ctx, p.PhoneID)
	if err != nil {
		return Subscription{}, err
	}

	plan, err := accrual.NewPlan(phone.Price, p.Cadence, p.Amount)
	if err != nil {
		return Subscription{}, err
	}

	sub := Subscription{
		ID:        uuid.NewString(),
		SaverID:   p.SaverID,
		PhoneID:   p.PhoneID,
		Plan:      plan,
		Ledger:    accrual.NewLedger(plan, now),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

// RecordPayment applies a payment identified by key. Replaying the same key
// returns ErrDuplicatePayment without changing state.
func (s *Service) RecordPayment(ctx context.Context, subID, key string, amount accrual.Money, source PaymentSource, now time.Time) (Subscription, error) {
	return s.withRetry(ctx, subID, now, func(sub Subscription) (Subscription, *Payment, error) {
		ledger, err := sub.Ledger.RecordPayment(sub.Plan, amount, now)
		if err != nil {
			return Subscription{}, nil, err
		}
		applied := ledger.TotalPaid.Sub(sub.Ledger.TotalPaid)
		payment := &Payment{
			ID:             uuid.NewString(),
			SubscriptionID: sub.ID,
			Key:            key,
			Requested:      amount,
			Applied:        applied,
			Source:         source,
			PaidAt:         now,
		}
		sub.Ledger = ledger
		return sub, payment, nil
	})
}

// ApplyDuePayment applies the plan amount to a due subscription with a
// deterministic key derived from the due date. Ticking twice over the same
// due date is therefore harmless.
func (s *Service) ApplyDuePayment(ctx context.Context, sub Subscription, now time.Time) (Subscription, error) {
	if !sub.Ledger.IsDue(now) {
		return sub, &accrual.InvalidStateError{Op: "apply due payment", Status: sub.Ledger.Status}
	}
	key := fmt.Sprintf("auto:%s:%s", sub.ID, sub.Ledger.NextDueDate.UTC().Format("2006-01-02"))
	return s.RecordPayment(ctx, sub.ID, key, sub.Plan.PaymentAmount, SourceScheduled, now)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Pause suspends an active subscription.
func (s *Service) Pause(ctx context.Context, subID string, now time.Time) (Subscription, error) {
	return s.transition(ctx, subID, now, func(sub Subscription) (accrual.Ledger, error) {
		return sub.Ledger.Pause()
	})
}

// Resume reactivates a paused subscription, recomputing the due date if it
// elapsed while paused.
func (s *Service) Resume(ctx context.Context, subID string, now time.Time) (Subscription, error) {
	return s.transition(ctx, subID, now, func(sub Subscription) (accrual.Ledger, error) {
		return sub.Ledger.Resume(sub.Plan, now)
	})
}

// Cancel terminates a subscription, preserving the payment history.
func (s *Service) Cancel(ctx context.Context, subID string, now time.Time) (Subscription, error) {
	return s.transition(ctx, subID, now, func(sub Subscription) (accrual.Ledger, error) {
		return sub.Ledger.Cancel()
	})
}

// ChangePlan swaps the payment amount and cadence. The target price never
// changes; the next due date keeps its schedule.
func (s *Service) ChangePlan(ctx context.Context, subID string, amount accrual.Money, cadence accrual.Cadence, now time.Time) (Subscription, error) {
	return s.withRetry(ctx, subID, now, func(sub Subscription) (Subscription, *Payment, error) {
		plan, err := sub.Plan.UpdateAmount(sub.Ledger, amount, cadence)
		if err != nil {
			return Subscription{}, nil, err
		}
		sub.Plan = plan
		return sub, nil, nil
	})
}

// =============================================================================
// READS
// =============================================================================

// Get returns one subscription.
func (s *Service) Get(ctx context.Context, subID string) (Subscription, error) {
	return s.store.GetSubscription(ctx, subID)
}

// ListForSaver returns a saver's subscriptions.
func (s *Service) ListForSaver(ctx context.Context, saverID string) ([]Subscription, error) {
	if _, err := s.store.GetSaver(ctx, saverID); err != nil {
		return nil, err
	}
	return s.store.ListBySaver(ctx, saverID)
}

// DueForPayment returns subscriptions the scheduler should debit.
func (s *Service) DueForPayment(ctx context.Context, now time.Time) ([]Subscription, error) {
	return s.store.ListDue(ctx, now)
}

// Progress returns the full presentation summary for a subscription.
func (s *Service) Progress(ctx context.Context, subID string, now time.Time) (Subscription, accrual.Progress, error) {
	sub, err := s.store.GetSubscription(ctx, subID)
	if err != nil {
		return Subscription{}, accrual.Progress{}, err
	}
	progress, err := accrual.Summarize(sub.Plan, sub.Ledger, now)
	if err != nil {
		return Subscription{}, accrual.Progress{}, err
	}
	return sub, progress, nil
}

// Payments returns the applied-payment history for a subscription.
func (s *Service) Payments(ctx context.Context, subID string) ([]Payment, error) {
	if _, err := s.store.GetSubscription(ctx, subID); err != nil {
		return nil, err
	}
	return s.store.ListPayments(ctx, subID)
}

// =============================================================================
// WRITE PLUMBING
// =============================================================================

// transition runs a ledger-only mutation through the retry loop.
func (s *Service) transition(ctx context.Context, subID string, now time.Time, fn func(Subscription) (accrual.Ledger, error)) (Subscription, error) {
	return s.withRetry(ctx, subID, now, func(sub Subscription) (Subscription, *Payment, error) {
		ledger, err := fn(sub)
		if err != nil {
			return Subscription{}, nil, err
		}
		sub.Ledger = ledger
		return sub, nil, nil
	})
}

// withRetry loads the subscription, applies fn, and persists with a version
// check, reloading on conflict up to maxRetries. Returns the snapshot as
// persisted, version included.
func (s *Service) withRetry(ctx context.Context, subID string, now time.Time, fn func(Subscription) (Subscription, *Payment, error)) (Subscription, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		sub, err := s.store.GetSubscription(ctx, subID)
		if err != nil {
			return Subscription{}, err
		}

		next, payment, err := fn(sub)
		if err != nil {
			return Subscription{}, err
		}
		next.UpdatedAt = now
		next.Version = sub.Version + 1

		err = s.store.ApplyUpdate(ctx, next, sub.Version, payment)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return Subscription{}, err
		}
		lastErr = err
	}
	return Subscription{}, fmt.Errorf("update subscription %s: %w", subID, lastErr)
}
