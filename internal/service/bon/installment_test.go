package bon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/bon-backend-go/internal/domain/bon"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) seedApprovedBon(t *testing.T, principal, installment int64) bon.Bon {
	t.Helper()

	b, err := e.bonRepo.Create(context.Background(), bon.Bon{
		EmployeeID:         "emp-1",
		PrincipalAmount:    decimal.NewFromInt(principal),
		RemainingBalance:   decimal.NewFromInt(principal),
		MonthlyInstallment: decimal.NewFromInt(installment),
		InstallmentPeriod:  3,
		ApplicationDate:    time.Now().AddDate(0, -2, 0),
		Status:             bon.BonStatusApproved,
	})
	require.NoError(t, err)
	return b
}

func TestProcessPeriod_FinalInstallmentCappedAtBalance(t *testing.T) {
	env := newTestEnv(t)
	env.seedEmployee("emp-1", 5_000_000, 12)
	b := env.seedApprovedBon(t, 1_200_000, 500_000)

	periods := []string{"2026-01", "2026-02", "2026-03"}
	wantAmounts := []int64{500_000, 500_000, 200_000}

	for i, period := range periods {
		processed, failed, err := env.installments.ProcessPeriod(context.Background(), period)
		require.NoError(t, err)
		assert.Empty(t, failed)
		require.Len(t, processed, 1, "period %s", period)
		assert.True(t, processed[0].Amount.Equal(decimal.NewFromInt(wantAmounts[i])),
			"period %s deducted %s", period, processed[0].Amount)
	}

	final, err := env.bonRepo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, bon.BonStatusCompleted, final.Status)
	assert.True(t, final.RemainingBalance.IsZero())

	// A completed bon is no longer deductible.
	processed, failed, err := env.installments.ProcessPeriod(context.Background(), "2026-04")
	require.NoError(t, err)
	assert.Empty(t, processed)
	assert.Empty(t, failed)
}

func TestProcessPeriod_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	env.seedEmployee("emp-1", 5_000_000, 12)
	b := env.seedApprovedBon(t, 3_000_000, 1_000_000)

	processed, _, err := env.installments.ProcessPeriod(context.Background(), "2026-01")
	require.NoError(t, err)
	require.Len(t, processed, 1)

	// Re-running the same period deducts nothing further.
	processed, failed, err := env.installments.ProcessPeriod(context.Background(), "2026-01")
	require.NoError(t, err)
	assert.Empty(t, processed)
	assert.Empty(t, failed)

	after, err := env.bonRepo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.True(t, after.RemainingBalance.Equal(decimal.NewFromInt(2_000_000)),
		"balance was %s", after.RemainingBalance)

	cicilans, err := env.cicilanRepo.GetByBonID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Len(t, cicilans, 1)
}

func TestProcessPeriod_SkipsPendingBons(t *testing.T) {
	env := newTestEnv(t)
	env.seedEmployee("emp-1", 5_000_000, 12)

	_, err := env.bonRepo.Create(context.Background(), bon.Bon{
		EmployeeID:         "emp-1",
		PrincipalAmount:    decimal.NewFromInt(3_000_000),
		RemainingBalance:   decimal.NewFromInt(3_000_000),
		MonthlyInstallment: decimal.NewFromInt(1_000_000),
		InstallmentPeriod:  3,
		ApplicationDate:    time.Now(),
		Status:             bon.BonStatusPending,
	})
	require.NoError(t, err)

	processed, failed, err := env.installments.ProcessPeriod(context.Background(), "2026-01")
	require.NoError(t, err)
	assert.Empty(t, processed)
	assert.Empty(t, failed)
}

func TestProcessPeriod_RejectsMalformedPeriod(t *testing.T) {
	env := newTestEnv(t)

	for _, period := range []string{"2026-13", "2026-1", "202601", "jan-2026", ""} {
		_, _, err := env.installments.ProcessPeriod(context.Background(), period)
		assert.Error(t, err, "period %q", period)
	}
}

func TestUpdateStatus_CancelRestoresBalance(t *testing.T) {
	env := newTestEnv(t)
	env.seedEmployee("emp-1", 5_000_000, 12)
	b := env.seedApprovedBon(t, 3_000_000, 1_000_000)

	processed, _, err := env.installments.ProcessPeriod(context.Background(), "2026-01")
	require.NoError(t, err)
	require.Len(t, processed, 1)

	cancelled, err := env.installments.UpdateStatus(context.Background(), bon.UpdateCicilanStatusRequest{
		ID:     processed[0].ID,
		Status: bon.CicilanStatusCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, bon.CicilanStatusCancelled, cancelled.Status)

	after, err := env.bonRepo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.True(t, after.RemainingBalance.Equal(decimal.NewFromInt(3_000_000)),
		"balance was %s", after.RemainingBalance)

	// The period is open again.
	reprocessed, failed, err := env.installments.ProcessPeriod(context.Background(), "2026-01")
	require.NoError(t, err)
	assert.Empty(t, failed)
	assert.Len(t, reprocessed, 1)
}

func TestUpdateStatus_CancelFinalInstallmentReopensBon(t *testing.T) {
	env := newTestEnv(t)
	env.seedEmployee("emp-1", 5_000_000, 12)
	b := env.seedApprovedBon(t, 1_000_000, 1_000_000)

	processed, _, err := env.installments.ProcessPeriod(context.Background(), "2026-01")
	require.NoError(t, err)
	require.Len(t, processed, 1)

	completed, err := env.bonRepo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	require.Equal(t, bon.BonStatusCompleted, completed.Status)

	_, err = env.installments.UpdateStatus(context.Background(), bon.UpdateCicilanStatusRequest{
		ID:     processed[0].ID,
		Status: bon.CicilanStatusCancelled,
	})
	require.NoError(t, err)

	reopened, err := env.bonRepo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, bon.BonStatusApproved, reopened.Status)
	assert.True(t, reopened.RemainingBalance.Equal(decimal.NewFromInt(1_000_000)))
}

func TestUpdateStatus_CancelTwice(t *testing.T) {
	env := newTestEnv(t)
	env.seedEmployee("emp-1", 5_000_000, 12)
	env.seedApprovedBon(t, 3_000_000, 1_000_000)

	processed, _, err := env.installments.ProcessPeriod(context.Background(), "2026-01")
	require.NoError(t, err)
	require.Len(t, processed, 1)

	_, err = env.installments.UpdateStatus(context.Background(), bon.UpdateCicilanStatusRequest{
		ID:     processed[0].ID,
		Status: bon.CicilanStatusCancelled,
	})
	require.NoError(t, err)

	_, err = env.installments.UpdateStatus(context.Background(), bon.UpdateCicilanStatusRequest{
		ID:     processed[0].ID,
		Status: bon.CicilanStatusCancelled,
	})
	assert.ErrorIs(t, err, bon.ErrCicilanAlreadyCancelled)
}

func TestUpdateStatus_ReprocessCancelledInstallment(t *testing.T) {
	env := newTestEnv(t)
	env.seedEmployee("emp-1", 5_000_000, 12)
	b := env.seedApprovedBon(t, 3_000_000, 1_000_000)

	processed, _, err := env.installments.ProcessPeriod(context.Background(), "2026-01")
	require.NoError(t, err)
	require.Len(t, processed, 1)

	_, err = env.installments.UpdateStatus(context.Background(), bon.UpdateCicilanStatusRequest{
		ID:     processed[0].ID,
		Status: bon.CicilanStatusCancelled,
	})
	require.NoError(t, err)

	reprocessed, err := env.installments.UpdateStatus(context.Background(), bon.UpdateCicilanStatusRequest{
		ID:     processed[0].ID,
		Status: bon.CicilanStatusProcessed,
	})
	require.NoError(t, err)
	assert.Equal(t, bon.CicilanStatusProcessed, reprocessed.Status)

	after, err := env.bonRepo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.True(t, after.RemainingBalance.Equal(decimal.NewFromInt(2_000_000)),
		"balance was %s", after.RemainingBalance)
}

func TestUpdateStatus_ReprocessBlockedWhenPeriodTaken(t *testing.T) {
	env := newTestEnv(t)
	env.seedEmployee("emp-1", 5_000_000, 12)
	env.seedApprovedBon(t, 3_000_000, 1_000_000)

	processed, _, err := env.installments.ProcessPeriod(context.Background(), "2026-01")
	require.NoError(t, err)
	require.Len(t, processed, 1)

	_, err = env.installments.UpdateStatus(context.Background(), bon.UpdateCicilanStatusRequest{
		ID:     processed[0].ID,
		Status: bon.CicilanStatusCancelled,
	})
	require.NoError(t, err)

	// Another run fills the period with a fresh installment.
	refilled, _, err := env.installments.ProcessPeriod(context.Background(), "2026-01")
	require.NoError(t, err)
	require.Len(t, refilled, 1)

	// The cancelled row can no longer come back for that period.
	_, err = env.installments.UpdateStatus(context.Background(), bon.UpdateCicilanStatusRequest{
		ID:     processed[0].ID,
		Status: bon.CicilanStatusProcessed,
	})
	assert.ErrorIs(t, err, bon.ErrPeriodAlreadyProcessed)
}

func TestUpdateStatus_UnknownInstallment(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.installments.UpdateStatus(context.Background(), bon.UpdateCicilanStatusRequest{
		ID:     "missing",
		Status: bon.CicilanStatusCancelled,
	})
	assert.ErrorIs(t, err, bon.ErrCicilanNotFound)
}

func TestUpdateStatus_ConcurrentCancelRestoresOnce(t *testing.T) {
	env := newTestEnv(t)
	env.seedEmployee("emp-1", 5_000_000, 12)
	b := env.seedApprovedBon(t, 3_000_000, 1_000_000)

	processed, _, err := env.installments.ProcessPeriod(context.Background(), "2026-01")
	require.NoError(t, err)
	require.Len(t, processed, 1)

	const workers = 8
	start := make(chan struct{})
	errs := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := env.installments.UpdateStatus(context.Background(), bon.UpdateCicilanStatusRequest{
				ID:     processed[0].ID,
				Status: bon.CicilanStatusCancelled,
			})
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	var succeeded, alreadyCancelled int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, bon.ErrCicilanAlreadyCancelled):
			alreadyCancelled++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, alreadyCancelled)

	// The amount came back exactly once.
	after, err := env.bonRepo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.True(t, after.RemainingBalance.Equal(after.PrincipalAmount),
		"balance %s, principal %s", after.RemainingBalance, after.PrincipalAmount)
}

func TestProcessPeriod_ConcurrentRunsDeductOnce(t *testing.T) {
	env := newTestEnv(t)
	env.seedEmployee("emp-1", 5_000_000, 12)
	b := env.seedApprovedBon(t, 3_000_000, 1_000_000)

	const workers = 8
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, failed, err := env.installments.ProcessPeriod(context.Background(), "2026-01")
			assert.NoError(t, err)
			assert.Empty(t, failed)
		}()
	}
	close(start)
	wg.Wait()

	after, err := env.bonRepo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.True(t, after.RemainingBalance.Equal(decimal.NewFromInt(2_000_000)),
		"balance was %s", after.RemainingBalance)

	var active int
	cicilans, err := env.cicilanRepo.GetByBonID(context.Background(), b.ID)
	require.NoError(t, err)
	for _, c := range cicilans {
		if c.Status != bon.CicilanStatusCancelled {
			active++
		}
	}
	assert.Equal(t, 1, active)
}
