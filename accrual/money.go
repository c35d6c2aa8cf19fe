/*
Package accrual implements the savings accrual engine.

PURPOSE:
  This package contains the domain model for incremental saving toward a
  purchase: a Plan (immutable subscription parameters), a Ledger (mutable
  accrual state), and the pure calculators derived from them. The engine
  knows nothing about HTTP, persistence, or scheduling - every operation
  is a deterministic function from (current state, inputs) to new state,
  and the caller persists the result.

KEY CONCEPTS IN THIS FILE (money.go):
  - Money: A fixed-point currency value (rubles, minor-unit-free)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors in
     percentage and remainder math
  2. Immutability: Money values are never mutated, only derived
  3. Explicitness: No implicit currency conversion; one currency only

USAGE:
  price := accrual.NewMoney(89990)
  payment := accrual.NewMoney(700)
  remaining := price.Sub(payment)

SEE ALSO:
  - cadence.go: Payment frequency and minimums
  - plan.go: Immutable subscription parameters
  - ledger.go: Accrual state machine
*/
package accrual

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Fixed-point currency value
// =============================================================================

// Money is a currency amount. The unit is whole rubles (the product does not
// deal in kopecks), but decimal arithmetic is used throughout so derived
// values like percentages never accumulate float drift.
type Money struct {
	value decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// NewMoney creates a Money from a whole-unit integer amount.
func NewMoney(value int64) Money {
	return Money{value: decimal.NewFromInt(value)}
}

// NewMoneyFromFloat creates a Money from a float. Use only at API boundaries
// where JSON numbers arrive; domain code should stay in Money.
func NewMoneyFromFloat(value float64) Money {
	return Money{value: decimal.NewFromFloat(value)}
}

// ParseMoney parses a decimal string ("700", "149.50").
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	return Money{value: d}, nil
}

// Arithmetic. All operations return new values.

func (m Money) Add(other Money) Money { return Money{value: m.value.Add(other.value)} }
func (m Money) Sub(other Money) Money { return Money{value: m.value.Sub(other.value)} }

func (m Money) Mul(factor decimal.Decimal) Money { return Money{value: m.value.Mul(factor)} }

// Comparison.

func (m Money) Equal(other Money) bool       { return m.value.Equal(other.value) }
func (m Money) LessThan(other Money) bool    { return m.value.LessThan(other.value) }
func (m Money) GreaterThan(other Money) bool { return m.value.GreaterThan(other.value) }

func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.value.GreaterThanOrEqual(other.value)
}

func (m Money) IsZero() bool     { return m.value.IsZero() }
func (m Money) IsPositive() bool { return m.value.IsPositive() }
func (m Money) IsNegative() bool { return m.value.IsNegative() }

// Min returns the smaller of two amounts.
func (m Money) Min(other Money) Money {
	if m.LessThan(other) {
		return m
	}
	return other
}

// Decimal exposes the underlying decimal for calculators that need division.
func (m Money) Decimal() decimal.Decimal { return m.value }

// Float64 returns the amount as a float for display serialization only.
func (m Money) Float64() float64 {
	f, _ := m.value.Float64()
	return f
}

// String returns the canonical decimal representation, e.g. "700".
func (m Money) String() string { return m.value.String() }

// MarshalJSON serializes Money as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.value.String()), nil
}

// UnmarshalJSON accepts a JSON number or numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	d := decimal.Decimal{}
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	m.value = d
	return nil
}
