package bon

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/bon-backend-go/internal/domain/bon"
	"github.com/cmlabs-hris/bon-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/bon-backend-go/internal/pkg/cache"
	"github.com/shopspring/decimal"
)

const eligibilityCachePrefix = "bon:eligibility:"

type BonServiceImpl struct {
	bonRepo      bon.BonRepository
	cicilanRepo  bon.CicilanRepository
	employeeRepo employee.EmployeeRepository
	rules        bon.Rules
	cache        cache.Cache
	cacheTTL     time.Duration
}

func NewBonService(
	bonRepo bon.BonRepository,
	cicilanRepo bon.CicilanRepository,
	employeeRepo employee.EmployeeRepository,
	rules bon.Rules,
	c cache.Cache,
	cacheTTL time.Duration,
) bon.BonService {
	return &BonServiceImpl{
		bonRepo:      bonRepo,
		cicilanRepo:  cicilanRepo,
		employeeRepo: employeeRepo,
		rules:        rules,
		cache:        c,
		cacheTTL:     cacheTTL,
	}
}

// GetEligibility computes the borrowing-capacity snapshot for an employee.
// The plain snapshot (no proposed amount) is served through the cache; a
// proposed amount personalizes the recommendation, so it bypasses it.
func (s *BonServiceImpl) GetEligibility(ctx context.Context, employeeID string, proposedAmount *decimal.Decimal) (bon.Eligibility, error) {
	cacheable := proposedAmount == nil && s.cache != nil
	cacheKey := eligibilityCachePrefix + employeeID

	if cacheable {
		if cached, ok := s.cache.Get(ctx, cacheKey); ok {
			var result bon.Eligibility
			if err := json.Unmarshal([]byte(cached), &result); err == nil {
				return result, nil
			}
		}
	}

	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return bon.Eligibility{}, err
	}
	existing, err := s.bonRepo.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		return bon.Eligibility{}, err
	}

	result := bon.EvaluateEligibility(emp, existing, s.rules, time.Now())
	if proposedAmount != nil && result.IsEligible {
		result.RecommendedPeriod = bon.RecommendedPeriod(*proposedAmount, emp.BaseSalary, s.rules)
	}

	if cacheable {
		if payload, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(payload), s.cacheTTL); err != nil {
				slog.Warn("Failed to cache eligibility", "employee_id", employeeID, "error", err)
			}
		}
	}

	return result, nil
}

// Submit files a new bon application. Every violated business rule is
// reported together in the returned ValidationResult; the bon is only
// created when the result is valid.
func (s *BonServiceImpl) Submit(ctx context.Context, req bon.CreateBonRequest) (bon.Bon, bon.ValidationResult, error) {
	if err := req.Validate(); err != nil {
		return bon.Bon{}, bon.ValidationResult{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return bon.Bon{}, bon.ValidationResult{}, err
	}
	existing, err := s.bonRepo.GetByEmployeeID(ctx, req.EmployeeID)
	if err != nil {
		return bon.Bon{}, bon.ValidationResult{}, err
	}

	now := time.Now()
	period := req.InstallmentPeriod()

	result := bon.ValidateApplication(emp, req.Amount, period, existing, s.rules, now)
	eligibility := bon.EvaluateEligibility(emp, existing, s.rules, now)
	result.Merge(eligibility.Reasons)
	if !result.IsValid {
		return bon.Bon{}, result, nil
	}

	created, err := s.bonRepo.Create(ctx, bon.Bon{
		EmployeeID:         req.EmployeeID,
		PrincipalAmount:    req.Amount,
		RemainingBalance:   req.Amount,
		MonthlyInstallment: req.MonthlyInstallment,
		InstallmentPeriod:  period,
		ApplicationDate:    now,
		Status:             bon.BonStatusPending,
		Note:               req.Note,
	})
	if err != nil {
		return bon.Bon{}, result, err
	}
	created.EmployeeName = &emp.FullName

	s.invalidateEligibility(ctx, req.EmployeeID)
	slog.Info("Bon application submitted", "bon_id", created.ID, "employee_id", req.EmployeeID, "amount", req.Amount)

	return created, result, nil
}

func (s *BonServiceImpl) List(ctx context.Context, filter bon.BonFilter) ([]bon.Bon, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 10
	}
	return s.bonRepo.List(ctx, filter)
}

func (s *BonServiceImpl) Get(ctx context.Context, id string) (bon.Bon, error) {
	return s.bonRepo.GetByID(ctx, id)
}

func (s *BonServiceImpl) GetInstallments(ctx context.Context, bonID string) ([]bon.Cicilan, error) {
	if _, err := s.bonRepo.GetByID(ctx, bonID); err != nil {
		return nil, err
	}
	return s.cicilanRepo.GetByBonID(ctx, bonID)
}

// Update edits a pending application. A changed monthly installment re-derives
// the repayment period from the principal.
func (s *BonServiceImpl) Update(ctx context.Context, req bon.UpdateBonRequest) (bon.Bon, error) {
	if err := req.Validate(); err != nil {
		return bon.Bon{}, err
	}

	b, err := s.bonRepo.GetByID(ctx, req.ID)
	if err != nil {
		return bon.Bon{}, err
	}
	if b.Status != bon.BonStatusPending {
		return bon.Bon{}, bon.ErrBonNotUpdatable
	}

	if req.MonthlyInstallment != nil {
		period := int(b.PrincipalAmount.Div(*req.MonthlyInstallment).Ceil().IntPart())
		req.InstallmentPeriod = &period
	}

	if err := s.bonRepo.Update(ctx, req); err != nil {
		return bon.Bon{}, err
	}

	s.invalidateEligibility(ctx, b.EmployeeID)
	return s.bonRepo.GetByID(ctx, req.ID)
}

func (s *BonServiceImpl) Approve(ctx context.Context, id, actorID string) (bon.Bon, error) {
	return s.decide(ctx, id, actorID, bon.BonStatusApproved)
}

func (s *BonServiceImpl) Reject(ctx context.Context, id, actorID string) (bon.Bon, error) {
	return s.decide(ctx, id, actorID, bon.BonStatusRejected)
}

func (s *BonServiceImpl) decide(ctx context.Context, id, actorID string, status bon.BonStatus) (bon.Bon, error) {
	b, err := s.bonRepo.GetByID(ctx, id)
	if err != nil {
		return bon.Bon{}, err
	}
	if b.Status != bon.BonStatusPending {
		return bon.Bon{}, bon.ErrBonNotPending
	}

	var approvedAt *time.Time
	if status == bon.BonStatusApproved {
		now := time.Now()
		approvedAt = &now
	}

	if err := s.bonRepo.UpdateDecision(ctx, id, status, actorID, approvedAt); err != nil {
		return bon.Bon{}, err
	}

	s.invalidateEligibility(ctx, b.EmployeeID)
	slog.Info("Bon decision recorded", "bon_id", id, "status", status, "decided_by", actorID)

	return s.bonRepo.GetByID(ctx, id)
}

// Cancel withdraws an application that never became a debt. Approved and
// completed bons stay on the ledger.
func (s *BonServiceImpl) Cancel(ctx context.Context, id string) error {
	b, err := s.bonRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if b.Status != bon.BonStatusPending && b.Status != bon.BonStatusRejected {
		return bon.ErrBonNotDeletable
	}

	if err := s.bonRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateEligibility(ctx, b.EmployeeID)
	slog.Info("Bon cancelled", "bon_id", id, "employee_id", b.EmployeeID)
	return nil
}

func (s *BonServiceImpl) invalidateEligibility(ctx context.Context, employeeID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, eligibilityCachePrefix+employeeID); err != nil {
		slog.Warn("Failed to invalidate eligibility cache", "employee_id", employeeID, "error", err)
	}
}
