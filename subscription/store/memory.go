// Package store provides subscription.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kopichu/savings-engine/catalog"
	"github.com/kopichu/savings-engine/subscription"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu            sync.RWMutex
	savers        map[string]subscription.Saver
	phones        map[string]catalog.Phone
	subscriptions map[string]subscription.Subscription
	payments      map[string][]subscription.Payment // keyed by subscription ID
	paymentKeys   map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		savers:        make(map[string]subscription.Saver),
		phones:        make(map[string]catalog.Phone),
		subscriptions: make(map[string]subscription.Subscription),
		payments:      make(map[string][]subscription.Payment),
		paymentKeys:   make(map[string]bool),
	}
}

var _ subscription.Store = (*Memory)(nil)

// =============================================================================
// SAVERS
// =============================================================================

func (m *Memory) CreateSaver(_ context.Context, s subscription.Saver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.savers {
		if existing.Email == s.Email {
			return subscription.ErrEmailTaken
		}
	}
	m.savers[s.ID] = s
	return nil
}

func (m *Memory) GetSaver(_ context.Context, id string) (subscription.Saver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.savers[id]
	if !ok {
		return subscription.Saver{}, subscription.ErrSaverNotFound
	}
	return s, nil
}

func (m *Memory) ListSavers(_ context.Context) ([]subscription.Saver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]subscription.Saver, 0, len(m.savers))
	for _, s := range m.savers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// =============================================================================
// PHONES
// =============================================================================

func (m *Memory) PutPhones(_ context.Context, phones []catalog.Phone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range phones {
		m.phones[p.ID] = p
	}
	return nil
}

func (m *Memory) GetPhone(_ context.Context, id string) (catalog.Phone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.phones[id]
	if !ok {
		return catalog.Phone{}, subscription.ErrPhoneNotFound
	}
	return p, nil
}

func (m *Memory) ListPhones(_ context.Context) ([]catalog.Phone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]catalog.Phone, 0, len(m.phones))
	for _, p := range m.phones {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

func (m *Memory) CreateSubscription(_ context.Context, sub subscription.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[sub.ID] = sub
	return nil
}

func (m *Memory) GetSubscription(_ context.Context, id string) (subscription.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.subscriptions[id]
	if !ok {
		return subscription.Subscription{}, subscription.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (m *Memory) ListBySaver(_ context.Context, saverID string) ([]subscription.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []subscription.Subscription
	for _, sub := range m.subscriptions {
		if sub.SaverID == saverID {
			out = append(out, sub)
		}
	}
	// Newest first, the order the app shows them.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListDue(_ context.Context, now time.Time) ([]subscription.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []subscription.Subscription
	for _, sub := range m.subscriptions {
		if sub.Ledger.IsDue(now) {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ApplyUpdate(_ context.Context, sub subscription.Subscription, expectedVersion int64, payment *subscription.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.subscriptions[sub.ID]
	if !ok {
		return subscription.ErrSubscriptionNotFound
	}
	if current.Version != expectedVersion {
		return subscription.ErrVersionConflict
	}
	if payment != nil && m.paymentKeys[payment.Key] {
		return subscription.ErrDuplicatePayment
	}

	m.subscriptions[sub.ID] = sub
	if payment != nil {
		m.paymentKeys[payment.Key] = true
		m.payments[sub.ID] = append(m.payments[sub.ID], *payment)
	}
	return nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (m *Memory) PaymentExists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paymentKeys[key], nil
}

func (m *Memory) ListPayments(_ context.Context, subscriptionID string) ([]subscription.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]subscription.Payment, len(m.payments[subscriptionID]))
	copy(out, m.payments[subscriptionID])
	return out, nil
}
