package accrual_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kopichu/savings-engine/accrual"
)

// =============================================================================
// LEDGER CREATION
// =============================================================================

func TestNewLedger_InitialState(t *testing.T) {
	plan := weeklyPlan(t, 10000, 700)
	opened := date(2024, time.March, 1)

	ledger := accrual.NewLedger(plan, opened)

	assert.Equal(t, accrual.StatusActive, ledger.Status)
	assert.True(t, ledger.TotalPaid.IsZero())
	assert.Nil(t, ledger.LastPaymentDate)
	require.NotNil(t, ledger.NextDueDate)
	assert.True(t, ledger.NextDueDate.Equal(date(2024, time.March, 8)), "first due date is one cadence after opening")
}

// =============================================================================
// RECORD PAYMENT
// =============================================================================

func TestLedger_RecordPayment_AccruesAndAdvancesDueDate(t *testing.T) {
	// GIVEN: A fresh weekly plan for a 10000 target at 700/payment
	// WHEN: Three payments of 700 land
	// THEN: TotalPaid is 2100 and the due date tracks the last payment

	plan := weeklyPlan(t, 10000, 700)
	ledger := accrual.NewLedger(plan, date(2024, time.March, 1))

	now := date(2024, time.March, 8)
	for i := 0; i < 3; i++ {
		var err error
		ledger, err = ledger.RecordPayment(plan, accrual.NewMoney(700), now)
		require.NoError(t, err)
		now = now.AddDate(0, 0, 7)
	}

	assert.True(t, ledger.TotalPaid.Equal(accrual.NewMoney(2100)))
	assert.Equal(t, accrual.StatusActive, ledger.Status)
	require.NotNil(t, ledger.LastPaymentDate)
	assert.True(t, ledger.LastPaymentDate.Equal(date(2024, time.March, 22)))
	require.NotNil(t, ledger.NextDueDate)
	assert.True(t, ledger.NextDueDate.Equal(date(2024, time.March, 29)))
}

func TestLedger_RecordPayment_IsSideEffectFree(t *testing.T) {
	plan := weeklyPlan(t, 10000, 700)
	before := accrual.NewLedger(plan, date(2024, time.March, 1))

	after, err := before.RecordPayment(plan, accrual.NewMoney(700), date(2024, time.March, 8))
	require.NoError(t, err)

	// The input snapshot is untouched; only the returned value changed.
	assert.True(t, before.TotalPaid.IsZero())
	assert.True(t, after.TotalPaid.Equal(accrual.NewMoney(700)))
}

func TestLedger_RecordPayment_OvershootCappedAndCompletes(t *testing.T) {
	// GIVEN: 9800 already paid toward a 10000 target
	// WHEN: A 700 payment lands
	// THEN: Only 200 is applied, status flips to completed, due date clears

	plan := weeklyPlan(t, 10000, 700)
	ledger := paidUpTo(t, plan, 9800)

	now := date(2024, time.June, 1)
	ledger, err := ledger.RecordPayment(plan, accrual.NewMoney(700), now)
	require.NoError(t, err)

	assert.True(t, ledger.TotalPaid.Equal(accrual.NewMoney(10000)), "effective amount capped at remaining 200")
	assert.Equal(t, accrual.StatusCompleted, ledger.Status)
	assert.Nil(t, ledger.NextDueDate, "due date is absent once completed")
	require.NotNil(t, ledger.CompletedAt)
	assert.True(t, ledger.CompletedAt.Equal(now))
}

func TestLedger_RecordPayment_ExactTargetCompletes(t *testing.T) {
	plan := weeklyPlan(t, 1400, 700)
	ledger := accrual.NewLedger(plan, date(2024, time.March, 1))

	ledger, err := ledger.RecordPayment(plan, accrual.NewMoney(700), date(2024, time.March, 8))
	require.NoError(t, err)
	assert.Equal(t, accrual.StatusActive, ledger.Status)

	ledger, err = ledger.RecordPayment(plan, accrual.NewMoney(700), date(2024, time.March, 15))
	require.NoError(t, err)
	assert.Equal(t, accrual.StatusCompleted, ledger.Status)
}

func TestLedger_RecordPayment_RejectsNonPositiveAmount(t *testing.T) {
	plan := weeklyPlan(t, 10000, 700)
	ledger := accrual.NewLedger(plan, date(2024, time.March, 1))

	for _, amount := range []int64{0, -700} {
		_, err := ledger.RecordPayment(plan, accrual.NewMoney(amount), date(2024, time.March, 8))
		assert.ErrorIs(t, err, accrual.ErrInvalidAmount)
	}
}

func TestLedger_RecordPayment_RejectedOutsideActive(t *testing.T) {
	// Payments must fail with InvalidState and leave the ledger unchanged
	// in every non-active status.

	plan := weeklyPlan(t, 10000, 700)
	base := accrual.NewLedger(plan, date(2024, time.March, 1))

	paused, err := base.Pause()
	require.NoError(t, err)

	cancelled, err := base.Cancel()
	require.NoError(t, err)

	completed := paidUpTo(t, plan, 9800)
	completed, err = completed.RecordPayment(plan, accrual.NewMoney(700), date(2024, time.June, 1))
	require.NoError(t, err)
	require.Equal(t, accrual.StatusCompleted, completed.Status)

	for _, tt := range []struct {
		name   string
		ledger accrual.Ledger
	}{
		{"paused", paused},
		{"cancelled", cancelled},
		{"completed", completed},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.ledger.RecordPayment(plan, accrual.NewMoney(700), date(2024, time.July, 1))

			assert.ErrorIs(t, err, accrual.ErrInvalidState)
			var stateErr *accrual.InvalidStateError
			require.ErrorAs(t, err, &stateErr)
			assert.Equal(t, tt.ledger.Status, stateErr.Status)
			assert.Equal(t, tt.ledger, got, "failed payment must not mutate the snapshot")
		})
	}
}

func TestLedger_TotalPaidIsMonotonic(t *testing.T) {
	// Property: for any sequence of positive payments, TotalPaid never
	// decreases and never exceeds the target.

	plan := weeklyPlan(t, 10000, 700)
	ledger := accrual.NewLedger(plan, date(2024, time.March, 1))

	now := date(2024, time.March, 8)
	prev := ledger.TotalPaid
	for _, amount := range []int64{700, 1, 5000, 3000, 9999, 700} {
		next, err := ledger.RecordPayment(plan, accrual.NewMoney(amount), now)
		if err != nil {
			// Only acceptable failure is completion.
			assert.ErrorIs(t, err, accrual.ErrInvalidState)
			break
		}
		ledger = next
		assert.True(t, ledger.TotalPaid.GreaterThanOrEqual(prev), "TotalPaid must not decrease")
		assert.False(t, ledger.TotalPaid.GreaterThan(plan.TargetPrice), "TotalPaid must not exceed target")
		prev = ledger.TotalPaid
		now = now.AddDate(0, 0, 7)
	}
}

// =============================================================================
// PAUSE / RESUME
// =============================================================================

func TestLedger_PauseRetainsSchedule(t *testing.T) {
	plan := weeklyPlan(t, 10000, 700)
	ledger := accrual.NewLedger(plan, date(2024, time.March, 1))
	originalDue := *ledger.NextDueDate

	paused, err := ledger.Pause()
	require.NoError(t, err)

	assert.Equal(t, accrual.StatusPaused, paused.Status)
	require.NotNil(t, paused.NextDueDate)
	assert.True(t, paused.NextDueDate.Equal(originalDue), "pausing keeps the due date")
}

func TestLedger_Pause_OnlyFromActive(t *testing.T) {
	plan := weeklyPlan(t, 10000, 700)
	ledger := accrual.NewLedger(plan, date(2024, time.March, 1))

	paused, err := ledger.Pause()
	require.NoError(t, err)

	_, err = paused.Pause()
	assert.ErrorIs(t, err, accrual.ErrInvalidState)

	cancelled, err := ledger.Cancel()
	require.NoError(t, err)
	_, err = cancelled.Pause()
	assert.ErrorIs(t, err, accrual.ErrInvalidState)
}

func TestLedger_Resume_BeforeDueDateKeepsSchedule(t *testing.T) {
	// GIVEN: Paused with a due date of March 8
	// WHEN: Resuming on March 5, before the due date
	// THEN: The original schedule is kept

	plan := weeklyPlan(t, 10000, 700)
	ledger := accrual.NewLedger(plan, date(2024, time.March, 1))
	paused, err := ledger.Pause()
	require.NoError(t, err)

	resumed, err := paused.Resume(plan, date(2024, time.March, 5))
	require.NoError(t, err)

	assert.Equal(t, accrual.StatusActive, resumed.Status)
	require.NotNil(t, resumed.NextDueDate)
	assert.True(t, resumed.NextDueDate.Equal(date(2024, time.March, 8)))
}

func TestLedger_Resume_AfterDueDateRecomputesSchedule(t *testing.T) {
	// GIVEN: Paused with a due date of March 8
	// WHEN: Resuming on April 1, well past the due date
	// THEN: The due date recomputes from the resume time - no backlog of
	//       missed payments is owed

	plan := weeklyPlan(t, 10000, 700)
	ledger := accrual.NewLedger(plan, date(2024, time.March, 1))
	paused, err := ledger.Pause()
	require.NoError(t, err)

	resumed, err := paused.Resume(plan, date(2024, time.April, 1))
	require.NoError(t, err)

	require.NotNil(t, resumed.NextDueDate)
	assert.True(t, resumed.NextDueDate.Equal(date(2024, time.April, 8)),
		"due date recomputed from resume time, not original schedule")
}

func TestLedger_Resume_OnlyFromPaused(t *testing.T) {
	plan := weeklyPlan(t, 10000, 700)
	ledger := accrual.NewLedger(plan, date(2024, time.March, 1))

	_, err := ledger.Resume(plan, date(2024, time.March, 5))
	assert.ErrorIs(t, err, accrual.ErrInvalidState)
}

// =============================================================================
// CANCEL
// =============================================================================

func TestLedger_Cancel(t *testing.T) {
	plan := weeklyPlan(t, 10000, 700)
	ledger := paidUpTo(t, plan, 2100)

	cancelled, err := ledger.Cancel()
	require.NoError(t, err)

	assert.Equal(t, accrual.StatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.NextDueDate)
	assert.True(t, cancelled.TotalPaid.Equal(accrual.NewMoney(2100)), "history preserved on cancel")
}

func TestLedger_Cancel_FromPaused(t *testing.T) {
	plan := weeklyPlan(t, 10000, 700)
	ledger := accrual.NewLedger(plan, date(2024, time.March, 1))

	paused, err := ledger.Pause()
	require.NoError(t, err)

	cancelled, err := paused.Cancel()
	require.NoError(t, err)
	assert.Equal(t, accrual.StatusCancelled, cancelled.Status)
}

func TestLedger_Cancel_Idempotent(t *testing.T) {
	plan := weeklyPlan(t, 10000, 700)
	ledger := accrual.NewLedger(plan, date(2024, time.March, 1))

	cancelled, err := ledger.Cancel()
	require.NoError(t, err)

	again, err := cancelled.Cancel()
	assert.NoError(t, err, "cancelling twice is a no-op, not an error")
	assert.Equal(t, cancelled, again)
}

func TestLedger_Cancel_RejectedWhenCompleted(t *testing.T) {
	plan := weeklyPlan(t, 1400, 700)
	ledger := accrual.NewLedger(plan, date(2024, time.March, 1))

	ledger, err := ledger.RecordPayment(plan, accrual.NewMoney(1400), date(2024, time.March, 8))
	require.NoError(t, err)
	require.Equal(t, accrual.StatusCompleted, ledger.Status)

	_, err = ledger.Cancel()
	assert.ErrorIs(t, err, accrual.ErrInvalidState, "completed is absorbing")
}

// =============================================================================
// DUE CHECK
// =============================================================================

func TestLedger_IsDue(t *testing.T) {
	plan := weeklyPlan(t, 10000, 700)
	ledger := accrual.NewLedger(plan, date(2024, time.March, 1)) // due March 8

	assert.False(t, ledger.IsDue(date(2024, time.March, 7)))
	assert.True(t, ledger.IsDue(date(2024, time.March, 8)), "due date itself counts")
	assert.True(t, ledger.IsDue(date(2024, time.March, 20)))

	paused, err := ledger.Pause()
	require.NoError(t, err)
	assert.False(t, paused.IsDue(date(2024, time.March, 20)), "paused ledgers are never due")

	cancelled, err := ledger.Cancel()
	require.NoError(t, err)
	assert.False(t, cancelled.IsDue(date(2024, time.March, 20)))
}

// paidUpTo drives a fresh ledger to the given total via one payment.
func paidUpTo(t *testing.T, plan accrual.Plan, total int64) accrual.Ledger {
	t.Helper()
	ledger := accrual.NewLedger(plan, date(2024, time.March, 1))
	ledger, err := ledger.RecordPayment(plan, accrual.NewMoney(total), date(2024, time.March, 8))
	require.NoError(t, err)
	require.True(t, ledger.TotalPaid.Equal(accrual.NewMoney(total)))
	return ledger
}
