/*
scheduler.go - Automated payment scheduler

PURPOSE:
  Periodically sweeps active subscriptions whose next due date has arrived
  and debits one scheduled payment from each.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - The due query is a store-side filter (status=active, due date passed)
  - Each debit carries a deterministic idempotency key derived from the
    subscription and its due date, so a double tick (or two replicas
    sweeping the same store) cannot debit the same cycle twice; the
    second attempt fails the key's unique constraint and is counted as
    a skip
  - Per-subscription failures are logged and do not stop the sweep

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewPaymentScheduler(svc)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - subscription/service.go: ApplyDuePayment, DueForPayment
  - handlers.go: RecordPayment endpoint (manual top-ups)
*/
package api

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/kopichu/savings-engine/subscription"
)

// PaymentScheduler drives automatic payment collection.
type PaymentScheduler struct {
	Subs          *subscription.Service
	CheckInterval time.Duration
	Enabled       bool

	// Now is the clock, injectable for tests. Defaults to time.Now.
	Now func() time.Time

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPaymentScheduler creates a new scheduler over the subscription service.
func NewPaymentScheduler(subs *subscription.Service) *PaymentScheduler {
	return &PaymentScheduler{
		Subs:          subs,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Now:           time.Now,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ps *PaymentScheduler) Start() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	ps.ticker = time.NewTicker(ps.CheckInterval)
	ps.wg.Add(1)

	go ps.run()

	log.Printf("[Scheduler] Started with check interval: %v", ps.CheckInterval)
}

// Stop stops the scheduler.
func (ps *PaymentScheduler) Stop() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker != nil {
		ps.ticker.Stop()
		close(ps.stop)
		ps.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (ps *PaymentScheduler) run() {
	defer ps.wg.Done()

	// Run immediately on start
	ps.CollectDue(context.Background())

	for {
		select {
		case <-ps.ticker.C:
			ps.CollectDue(context.Background())
		case <-ps.stop:
			return
		}
	}
}

// CollectDue sweeps every due subscription once and debits one scheduled
// payment from each. Returns how many payments were applied.
func (ps *PaymentScheduler) CollectDue(ctx context.Context) int {
	now := ps.Now()
	schedulerTicks.Inc()

	due, err := ps.Subs.DueForPayment(ctx, now)
	if err != nil {
		log.Printf("[Scheduler] Error listing due subscriptions: %v", err)
		schedulerFailures.Inc()
		return 0
	}
	if len(due) == 0 {
		return 0
	}

	processed := 0
	skipped := 0
	failed := 0

	for _, sub := range due {
		_, err := ps.Subs.ApplyDuePayment(ctx, sub, now)
		switch {
		case err == nil:
			processed++
			paymentsApplied.WithLabelValues(string(subscription.SourceScheduled)).Inc()
		case errors.Is(err, subscription.ErrDuplicatePayment):
			// Another sweep already collected this cycle.
			skipped++
			schedulerSkips.Inc()
		default:
			failed++
			schedulerFailures.Inc()
			log.Printf("[Scheduler] Error collecting payment for %s: %v", sub.ID, err)
		}
	}

	log.Printf("[Scheduler] Completed: %d collected, %d skipped (already done), %d failed",
		processed, skipped, failed)
	return processed
}

// RunNow triggers an immediate sweep (for testing/admin).
func (ps *PaymentScheduler) RunNow() {
	ps.CollectDue(context.Background())
}

// GetNextRunTime returns when the next scheduled check will occur.
func (ps *PaymentScheduler) GetNextRunTime() time.Time {
	return ps.Now().Add(ps.CheckInterval)
}
