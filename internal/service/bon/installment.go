package bon

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/bon-backend-go/internal/domain/bon"
	"github.com/cmlabs-hris/bon-backend-go/internal/pkg/cache"
	"github.com/shopspring/decimal"
)

type InstallmentServiceImpl struct {
	bonRepo     bon.BonRepository
	cicilanRepo bon.CicilanRepository
	cache       cache.Cache
}

func NewInstallmentService(
	bonRepo bon.BonRepository,
	cicilanRepo bon.CicilanRepository,
	c cache.Cache,
) bon.InstallmentService {
	return &InstallmentServiceImpl{
		bonRepo:     bonRepo,
		cicilanRepo: cicilanRepo,
		cache:       c,
	}
}

// ProcessPeriod runs the monthly deduction for every approved bon with an
// outstanding balance. Re-running the same period is a no-op for bons that
// already hold a non-cancelled installment in it. One bon failing never stops
// the rest of the run.
func (s *InstallmentServiceImpl) ProcessPeriod(ctx context.Context, period string) ([]bon.Cicilan, []bon.ProcessFailure, error) {
	req := bon.ProcessPeriodRequest{Period: period}
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	deductible, err := s.bonRepo.ListDeductible(ctx)
	if err != nil {
		return nil, nil, err
	}

	var processed []bon.Cicilan
	var failed []bon.ProcessFailure

	for _, candidate := range deductible {
		cicilan, err := s.processBon(ctx, candidate.ID, period)
		if err != nil {
			if errors.Is(err, bon.ErrPeriodAlreadyProcessed) {
				continue
			}
			slog.Error("Installment deduction failed", "bon_id", candidate.ID, "period", period, "error", err)
			failed = append(failed, bon.ProcessFailure{BonID: candidate.ID, Error: err.Error()})
			continue
		}
		processed = append(processed, cicilan)
	}

	slog.Info("Installment period processed", "period", period, "processed", len(processed), "failed", len(failed))
	return processed, failed, nil
}

// processBon deducts one installment from one bon under its lock. The status
// and balance are re-checked inside the lock; the listing outside it is only
// a candidate set.
func (s *InstallmentServiceImpl) processBon(ctx context.Context, bonID, period string) (bon.Cicilan, error) {
	var created bon.Cicilan

	err := s.bonRepo.WithBonLock(ctx, bonID, func(ctx context.Context, b bon.Bon) error {
		if b.Status != bon.BonStatusApproved || !b.RemainingBalance.IsPositive() {
			return bon.ErrPeriodAlreadyProcessed
		}

		if _, err := s.cicilanRepo.GetActiveByBonAndPeriod(ctx, b.ID, period); err == nil {
			return bon.ErrPeriodAlreadyProcessed
		} else if !errors.Is(err, bon.ErrCicilanNotFound) {
			return err
		}

		// The final installment is capped at the remaining balance.
		deduction := decimal.Min(b.MonthlyInstallment, b.RemainingBalance)

		cicilan, err := s.cicilanRepo.Create(ctx, bon.Cicilan{
			BonID:         b.ID,
			Period:        period,
			Amount:        deduction,
			DeductionDate: time.Now(),
			Status:        bon.CicilanStatusProcessed,
		})
		if err != nil {
			return err
		}

		balance := b.RemainingBalance.Sub(deduction)
		status := b.Status
		if balance.IsZero() {
			status = bon.BonStatusCompleted
		}
		if err := s.bonRepo.UpdateBalance(ctx, b.ID, balance, status); err != nil {
			return err
		}

		created = cicilan
		return nil
	})
	if err != nil {
		return bon.Cicilan{}, err
	}

	s.invalidateEligibilityForBon(ctx, bonID)
	return created, nil
}

// UpdateStatus corrects a single installment. Cancelling a processed row
// restores its amount to the bon and reopens a completed bon; re-processing a
// cancelled row re-applies the deduction.
func (s *InstallmentServiceImpl) UpdateStatus(ctx context.Context, req bon.UpdateCicilanStatusRequest) (bon.Cicilan, error) {
	if err := req.Validate(); err != nil {
		return bon.Cicilan{}, err
	}

	cicilan, err := s.cicilanRepo.GetByID(ctx, req.ID)
	if err != nil {
		return bon.Cicilan{}, err
	}
	err = s.bonRepo.WithBonLock(ctx, cicilan.BonID, func(ctx context.Context, b bon.Bon) error {
		// The copy fetched above only located the bon to lock. Re-read
		// under the lock so a concurrent status change is visible before
		// the guards run; every cicilan writer holds this same lock.
		current, err := s.cicilanRepo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}

		switch req.Status {
		case bon.CicilanStatusCancelled:
			return s.cancelCicilan(ctx, b, current)
		case bon.CicilanStatusProcessed:
			return s.reprocessCicilan(ctx, b, current)
		default:
			return bon.ErrCicilanNotFound
		}
	})
	if err != nil {
		return bon.Cicilan{}, err
	}

	s.invalidateEligibilityForBon(ctx, cicilan.BonID)
	return s.cicilanRepo.GetByID(ctx, req.ID)
}

func (s *InstallmentServiceImpl) cancelCicilan(ctx context.Context, b bon.Bon, cicilan bon.Cicilan) error {
	if cicilan.Status == bon.CicilanStatusCancelled {
		return bon.ErrCicilanAlreadyCancelled
	}

	if err := s.cicilanRepo.UpdateStatus(ctx, cicilan.ID, bon.CicilanStatusCancelled); err != nil {
		return err
	}

	if cicilan.Status != bon.CicilanStatusProcessed {
		return nil
	}

	// The deduction never happened after all; hand the amount back. A bon
	// that had been closed by this installment is open again.
	balance := b.RemainingBalance.Add(cicilan.Amount)
	status := b.Status
	if status == bon.BonStatusCompleted {
		status = bon.BonStatusApproved
	}
	return s.bonRepo.UpdateBalance(ctx, b.ID, balance, status)
}

func (s *InstallmentServiceImpl) reprocessCicilan(ctx context.Context, b bon.Bon, cicilan bon.Cicilan) error {
	if _, err := s.cicilanRepo.GetActiveByBonAndPeriod(ctx, b.ID, cicilan.Period); err == nil {
		return bon.ErrPeriodAlreadyProcessed
	} else if !errors.Is(err, bon.ErrCicilanNotFound) {
		return err
	}

	if cicilan.Amount.GreaterThan(b.RemainingBalance) {
		return bon.ErrInsufficientBalance
	}

	if err := s.cicilanRepo.UpdateStatus(ctx, cicilan.ID, bon.CicilanStatusProcessed); err != nil {
		return err
	}

	balance := b.RemainingBalance.Sub(cicilan.Amount)
	status := b.Status
	if balance.IsZero() {
		status = bon.BonStatusCompleted
	}
	return s.bonRepo.UpdateBalance(ctx, b.ID, balance, status)
}

func (s *InstallmentServiceImpl) invalidateEligibilityForBon(ctx context.Context, bonID string) {
	if s.cache == nil {
		return
	}
	b, err := s.bonRepo.GetByID(ctx, bonID)
	if err != nil {
		return
	}
	if err := s.cache.Delete(ctx, eligibilityCachePrefix+b.EmployeeID); err != nil {
		slog.Warn("Failed to invalidate eligibility cache", "employee_id", b.EmployeeID, "error", err)
	}
}
