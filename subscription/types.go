/*
Package subscription ties savers, phones, and the accrual engine together.

PURPOSE:
  A Subscription is the aggregate the product revolves around: one saver
  putting recurring payments toward one phone. The accrual engine
  (accrual.Plan + accrual.Ledger) carries the money semantics; this
  package adds identity, ownership, persistence, and the concurrency
  contract - each ledger has exactly one logical writer, enforced with
  optimistic versioning in the store.

KEY CONCEPTS IN THIS FILE (types.go):
  - Saver: The account saving toward a purchase
  - Subscription: Plan + Ledger + identity + version
  - Payment: The applied-payment record backing idempotency

SEE ALSO:
  - store.go: Persistence contract and sentinel errors
  - service.go: Lifecycle operations over the store
*/
package subscription

import (
	"time"

	"github.com/kopichu/savings-engine/accrual"
)

// =============================================================================
// SAVER - The account accumulating toward a purchase
// =============================================================================

// Saver is a person saving toward a phone.
type Saver struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// =============================================================================
// SUBSCRIPTION - The saver/phone/accrual aggregate
// =============================================================================

// Subscription is one saver's recurring savings plan toward one phone.
//
// Version implements optimistic concurrency: every persisted update checks
// and increments it, so two writers racing on the same subscription cannot
// both win. See Store.ApplyUpdate.
type Subscription struct {
	ID        string
	SaverID   string
	PhoneID   string
	Plan      accrual.Plan
	Ledger    accrual.Ledger
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
}

// =============================================================================
// PAYMENT - Applied-payment record
// =============================================================================

// PaymentSource distinguishes scheduler-applied payments from manual top-ups.
type PaymentSource string

const (
	SourceScheduled PaymentSource = "scheduled"
	SourceManual    PaymentSource = "manual"
)

// Payment records one applied payment. Key is the idempotency key: the store
// enforces uniqueness, so replaying the same payment (scheduler re-tick,
// client retry) cannot double-count.
type Payment struct {
	ID             string
	SubscriptionID string
	Key            string
	Requested      accrual.Money
	Applied        accrual.Money
	Source         PaymentSource
	PaidAt         time.Time
}
