/*
scheduler_test.go - Unit tests for the payment scheduler

Tests for:
- Collecting due payments on a sweep
- Idempotency across double sweeps (same cycle collected once)
- Skipping paused and not-yet-due subscriptions
*/
package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kopichu/savings-engine/accrual"
	"github.com/kopichu/savings-engine/catalog"
	"github.com/kopichu/savings-engine/subscription"
	"github.com/kopichu/savings-engine/subscription/store"
)

func newTestScheduler(t *testing.T) (*PaymentScheduler, *store.Memory, *time.Time) {
	t.Helper()

	mem := store.NewMemory()
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, mem.CreateSaver(ctx, subscription.Saver{
		ID: "saver-1", Name: "Dana", Email: "dana@example.com", CreatedAt: now,
	}))
	require.NoError(t, mem.PutPhones(ctx, []catalog.Phone{{
		ID: "phone-1", Brand: "Samsung", Model: "Galaxy A55",
		Price: accrual.NewMoney(10000), Category: catalog.CategoryMidrange,
		InStock: true, Popularity: 80,
	}}))

	clock := now
	ps := NewPaymentScheduler(subscription.NewService(mem))
	ps.Now = func() time.Time { return clock }
	return ps, mem, &clock
}

func openWeeklySub(t *testing.T, ps *PaymentScheduler, now time.Time) subscription.Subscription {
	t.Helper()
	sub, err := ps.Subs.Open(context.Background(), subscription.OpenParams{
		SaverID: "saver-1",
		PhoneID: "phone-1",
		Cadence: accrual.CadenceWeekly,
		Amount:  accrual.NewMoney(700),
	}, now)
	require.NoError(t, err)
	return sub
}

func TestScheduler_CollectsDuePayment(t *testing.T) {
	// GIVEN: A weekly subscription one week past its due date
	ps, mem, clock := newTestScheduler(t)
	sub := openWeeklySub(t, ps, *clock)
	*clock = clock.AddDate(0, 0, 7)

	// WHEN: The scheduler sweeps
	collected := ps.CollectDue(context.Background())

	// THEN: One payment is applied and the next cycle is scheduled
	assert.Equal(t, 1, collected)
	stored, err := mem.GetSubscription(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.True(t, stored.Ledger.TotalPaid.Equal(accrual.NewMoney(700)))
	require.NotNil(t, stored.Ledger.NextDueDate)
	assert.Equal(t, clock.AddDate(0, 0, 7), *stored.Ledger.NextDueDate)

	payments, err := mem.ListPayments(context.Background(), sub.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, subscription.SourceScheduled, payments[0].Source)
}

func TestScheduler_NothingDue(t *testing.T) {
	// GIVEN: A fresh subscription whose first cycle has not arrived
	ps, _, clock := newTestScheduler(t)
	openWeeklySub(t, ps, *clock)

	// WHEN: The scheduler sweeps immediately
	collected := ps.CollectDue(context.Background())

	// THEN: Nothing is collected
	assert.Equal(t, 0, collected)
}

func TestScheduler_DoubleSweepCollectsOnce(t *testing.T) {
	// GIVEN: A due subscription already swept once; the ledger was then
	// rolled back to simulate a second replica racing on the same cycle
	ps, mem, clock := newTestScheduler(t)
	sub := openWeeklySub(t, ps, *clock)
	*clock = clock.AddDate(0, 0, 7)

	require.Equal(t, 1, ps.CollectDue(context.Background()))

	// Force the ledger back to the swept cycle so the store lists it as
	// due again. Only the deterministic payment key stands in the way.
	stale, err := mem.GetSubscription(context.Background(), sub.ID)
	require.NoError(t, err)
	rewound := stale
	rewound.Ledger.TotalPaid = accrual.Zero
	due := sub.CreatedAt.AddDate(0, 0, 7)
	rewound.Ledger.NextDueDate = &due
	rewound.Version = stale.Version + 1
	require.NoError(t, mem.ApplyUpdate(context.Background(), rewound, stale.Version, nil))

	// WHEN: The scheduler sweeps the same cycle again
	collected := ps.CollectDue(context.Background())

	// THEN: The duplicate key blocks the debit
	assert.Equal(t, 0, collected)
	payments, err := mem.ListPayments(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestScheduler_SkipsPaused(t *testing.T) {
	// GIVEN: A due subscription that the saver paused
	ps, mem, clock := newTestScheduler(t)
	sub := openWeeklySub(t, ps, *clock)
	_, err := ps.Subs.Pause(context.Background(), sub.ID, *clock)
	require.NoError(t, err)
	*clock = clock.AddDate(0, 0, 7)

	// WHEN: The scheduler sweeps
	collected := ps.CollectDue(context.Background())

	// THEN: Nothing is debited
	assert.Equal(t, 0, collected)
	stored, err := mem.GetSubscription(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.True(t, stored.Ledger.TotalPaid.IsZero())
}

func TestScheduler_StartStop(t *testing.T) {
	// GIVEN: A scheduler with a long interval
	ps, _, _ := newTestScheduler(t)
	ps.CheckInterval = time.Hour

	// WHEN: Started and stopped
	ps.Start()
	ps.Stop()

	// THEN: The background goroutine has exited (Stop waits on it)
}

func TestScheduler_DisabledDoesNotStart(t *testing.T) {
	ps, _, _ := newTestScheduler(t)
	ps.Enabled = false

	ps.Start()

	// Stop is safe when the scheduler never started.
	ps.Stop()
}
