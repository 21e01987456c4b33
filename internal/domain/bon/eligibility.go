package bon

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/bon-backend-go/internal/domain/employee"
	"github.com/shopspring/decimal"
)

// Rule violation messages. The eligibility evaluator and the validation
// engine share these so overlapping findings carry identical wording.
const (
	msgEmployeeNotActive   = "employee is not active"
	msgEmploymentTooShort  = "employment duration %d month(s) is below the minimum of %d month(s)"
	msgTooManyActiveBons   = "employee already has %d active bon(s), maximum is %d"
	msgNoBorrowingCapacity = "no remaining borrowing capacity"
)

// Eligibility is the borrowing-capacity snapshot for one employee. Reasons
// lists every failing condition, never just the first.
type Eligibility struct {
	IsEligible        bool            `json:"is_eligible"`
	Reasons           []string        `json:"reasons,omitempty"`
	MaxAmount         decimal.Decimal `json:"max_amount"`
	RecommendedPeriod int             `json:"recommended_period,omitempty"`

	// Capacity breakdown
	EmploymentMonths             int             `json:"employment_months"`
	ActiveBonCount               int             `json:"active_bon_count"`
	MaxBySalary                  decimal.Decimal `json:"max_by_salary"`
	MaxInstallmentBySalary       decimal.Decimal `json:"max_installment_by_salary"`
	CurrentInstallmentBurden     decimal.Decimal `json:"current_installment_burden"`
	AvailableInstallmentCapacity decimal.Decimal `json:"available_installment_capacity"`
}

// EmploymentMonths derives tenure in months at the given instant.
//
// The default policy approximates a month as 30 days, which misclassifies
// some boundary cases around 29/31-day months; it is kept as configurable
// behavior rather than silently corrected.
func EmploymentMonths(hireDate, now time.Time, policy TenurePolicy) int {
	if policy == TenurePolicyCalendar {
		years := now.Year() - hireDate.Year()
		months := int(now.Month()) - int(hireDate.Month())
		total := years*12 + months
		if now.Day() < hireDate.Day() {
			total--
		}
		if total < 0 {
			total = 0
		}
		return total
	}

	days := int(now.Sub(hireDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days / 30
}

// ActiveBons filters the bons that still bind the employee's capacity.
func ActiveBons(bons []Bon) []Bon {
	var active []Bon
	for _, b := range bons {
		if b.IsActive() {
			active = append(active, b)
		}
	}
	return active
}

// EvaluateEligibility computes the employee's borrowing capacity against the
// rules. Pure over its inputs; every failing condition is reported.
func EvaluateEligibility(emp employee.Employee, existing []Bon, rules Rules, now time.Time) Eligibility {
	months := EmploymentMonths(emp.HireDate, now, rules.TenurePolicy)
	active := ActiveBons(existing)

	maxBySalary := rules.MaxBySalary(emp.BaseSalary)
	maxInstallment := rules.MaxInstallmentBySalary(emp.BaseSalary)

	burden := decimal.Zero
	for _, b := range active {
		burden = burden.Add(b.MonthlyInstallment)
	}
	available := maxInstallment.Sub(burden)

	// The shortest allowed period is taken as the binding case when
	// estimating the largest affordable principal.
	maxByCapacity := available.Mul(decimal.NewFromInt(int64(rules.MinInstallmentPeriod)))

	maxAmount := decimal.Min(maxBySalary, rules.MaxBonAmount, maxByCapacity)
	if maxAmount.IsNegative() {
		maxAmount = decimal.Zero
	}

	var reasons []string
	if emp.EmploymentStatus != employee.EmploymentStatusActive {
		reasons = append(reasons, msgEmployeeNotActive)
	}
	if months < rules.MinEmploymentDuration {
		reasons = append(reasons, fmt.Sprintf(msgEmploymentTooShort, months, rules.MinEmploymentDuration))
	}
	if len(active) >= rules.MaxActiveBonPerEmployee {
		reasons = append(reasons, fmt.Sprintf(msgTooManyActiveBons, len(active), rules.MaxActiveBonPerEmployee))
	}
	if !maxAmount.IsPositive() {
		reasons = append(reasons, msgNoBorrowingCapacity)
	}

	result := Eligibility{
		IsEligible:                   len(reasons) == 0,
		Reasons:                      reasons,
		MaxAmount:                    maxAmount,
		EmploymentMonths:             months,
		ActiveBonCount:               len(active),
		MaxBySalary:                  maxBySalary,
		MaxInstallmentBySalary:       maxInstallment,
		CurrentInstallmentBurden:     burden,
		AvailableInstallmentCapacity: available,
	}
	if result.IsEligible {
		result.RecommendedPeriod = RecommendedPeriod(maxAmount, emp.BaseSalary, rules)
	}
	return result
}

// RecommendedPeriod returns the shortest repayment period that keeps the
// monthly installment within the salary cap, clamped to the allowed bounds.
func RecommendedPeriod(amount, salary decimal.Decimal, rules Rules) int {
	maxInstallment := rules.MaxInstallmentBySalary(salary)
	if !maxInstallment.IsPositive() {
		return rules.MaxInstallmentPeriod
	}

	period := int(amount.Div(maxInstallment).Ceil().IntPart())
	if period < rules.MinInstallmentPeriod {
		period = rules.MinInstallmentPeriod
	}
	if period > rules.MaxInstallmentPeriod {
		period = rules.MaxInstallmentPeriod
	}
	return period
}
