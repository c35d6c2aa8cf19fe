/*
store.go - Persistence contract for savers, phones, and subscriptions

PURPOSE:
  Defines the interface between the subscription service and the database,
  plus the sentinel errors both sides dispatch on. The engine itself is
  pure; everything stateful funnels through this interface.

CONCURRENCY CONTRACT:
  ApplyUpdate is a compare-and-swap on the subscription's version: the
  write succeeds only if the stored version still equals expectedVersion,
  and increments it. Combined with the unique payment key, this gives the
  at-most-one-writer guarantee: the record-payment -> overshoot-cap ->
  completion-check sequence is applied atomically per subscription, and a
  retried payment with the same key is rejected instead of double-counted.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - subscription/store: In-memory for tests

SEE ALSO:
  - service.go: The only intended caller of ApplyUpdate
*/
package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/kopichu/savings-engine/catalog"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	ErrSaverNotFound        = errors.New("saver not found")
	ErrPhoneNotFound        = errors.New("phone not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrEmailTaken is returned when creating a saver with an email that
	// already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrVersionConflict is returned by ApplyUpdate when another writer won
	// the race. Retry by reloading the subscription.
	ErrVersionConflict = errors.New("subscription modified concurrently")

	// ErrDuplicatePayment is returned when a payment key was already
	// applied. Expected on retries; the original application stands.
	ErrDuplicatePayment = errors.New("payment already applied")
)

// IsRetryable returns true if the error might succeed on a reload-and-retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSaverNotFound) ||
		errors.Is(err, ErrPhoneNotFound) ||
		errors.Is(err, ErrSubscriptionNotFound)
}

// =============================================================================
// STORE - Persistence interface
// =============================================================================

// Store persists savers, phones, subscriptions, and applied payments.
type Store interface {
	// Savers.
	CreateSaver(ctx context.Context, s Saver) error
	GetSaver(ctx context.Context, id string) (Saver, error)
	ListSavers(ctx context.Context) ([]Saver, error)

	// Phones. PutPhones upserts by ID, so reseeding is idempotent.
	PutPhones(ctx context.Context, phones []catalog.Phone) error
	GetPhone(ctx context.Context, id string) (catalog.Phone, error)
	ListPhones(ctx context.Context) ([]catalog.Phone, error)

	// Subscriptions.
	CreateSubscription(ctx context.Context, sub Subscription) error
	GetSubscription(ctx context.Context, id string) (Subscription, error)
	ListBySaver(ctx context.Context, saverID string) ([]Subscription, error)

	// ListDue returns subscriptions that are active with a due date at or
	// before now. The scheduler's scan.
	ListDue(ctx context.Context, now time.Time) ([]Subscription, error)

	// ApplyUpdate persists a new subscription snapshot iff the stored
	// version equals expectedVersion (sub.Version carries the incremented
	// value). When payment is non-nil it is recorded in the same atomic
	// write; a duplicate payment key fails the whole update with
	// ErrDuplicatePayment.
	ApplyUpdate(ctx context.Context, sub Subscription, expectedVersion int64, payment *Payment) error

	// PaymentExists reports whether a payment key was already applied.
	PaymentExists(ctx context.Context, key string) (bool, error)

	// ListPayments returns a subscription's applied payments, oldest first.
	ListPayments(ctx context.Context, subscriptionID string) ([]Payment, error)
}
