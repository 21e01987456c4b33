package bon

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TenurePolicy selects how employment duration is derived from the hire date.
type TenurePolicy string

const (
	// TenurePolicyDayApproximation counts floor(days since hire / 30).
	TenurePolicyDayApproximation TenurePolicy = "day_approximation"
	// TenurePolicyCalendar counts whole calendar months since hire.
	TenurePolicyCalendar TenurePolicy = "calendar"
)

// Rules holds the business parameters of the bon engine. Every value is
// externally configurable; Validate rejects out-of-range values at load time
// so a bad configuration never reaches request handling.
type Rules struct {
	MaxBonPercentage           int64           // % of base salary a single bon may reach
	MaxBonAmount               decimal.Decimal // absolute cap on a single bon
	MinInstallmentPeriod       int             // months
	MaxInstallmentPeriod       int             // months
	MaxActiveBonPerEmployee    int
	MinEmploymentDuration      int   // months of tenure before the first bon
	MaxInstallmentPercentage   int64 // % of base salary the monthly burden may reach
	MinTimeBetweenApplications int   // months between consecutive applications
	TenurePolicy               TenurePolicy
}

// DefaultRules returns the standard company policy.
func DefaultRules() Rules {
	return Rules{
		MaxBonPercentage:           80,
		MaxBonAmount:               decimal.NewFromInt(10_000_000),
		MinInstallmentPeriod:       3,
		MaxInstallmentPeriod:       24,
		MaxActiveBonPerEmployee:    1,
		MinEmploymentDuration:      6,
		MaxInstallmentPercentage:   30,
		MinTimeBetweenApplications: 1,
		TenurePolicy:               TenurePolicyDayApproximation,
	}
}

// Validate checks the rule values for sane ranges.
func (r Rules) Validate() error {
	if r.MaxBonPercentage <= 0 || r.MaxBonPercentage > 100 {
		return fmt.Errorf("max bon percentage must be in (0, 100], got %d", r.MaxBonPercentage)
	}
	if !r.MaxBonAmount.IsPositive() {
		return fmt.Errorf("max bon amount must be positive, got %s", r.MaxBonAmount)
	}
	if r.MinInstallmentPeriod <= 0 {
		return fmt.Errorf("min installment period must be positive, got %d", r.MinInstallmentPeriod)
	}
	if r.MaxInstallmentPeriod < r.MinInstallmentPeriod {
		return fmt.Errorf("max installment period %d is below min installment period %d",
			r.MaxInstallmentPeriod, r.MinInstallmentPeriod)
	}
	if r.MaxActiveBonPerEmployee <= 0 {
		return fmt.Errorf("max active bon per employee must be positive, got %d", r.MaxActiveBonPerEmployee)
	}
	if r.MinEmploymentDuration < 0 {
		return fmt.Errorf("min employment duration must be non-negative, got %d", r.MinEmploymentDuration)
	}
	if r.MaxInstallmentPercentage <= 0 || r.MaxInstallmentPercentage > 100 {
		return fmt.Errorf("max installment percentage must be in (0, 100], got %d", r.MaxInstallmentPercentage)
	}
	if r.MinTimeBetweenApplications < 0 {
		return fmt.Errorf("min time between applications must be non-negative, got %d", r.MinTimeBetweenApplications)
	}
	if r.TenurePolicy != TenurePolicyDayApproximation && r.TenurePolicy != TenurePolicyCalendar {
		return fmt.Errorf("unknown tenure policy %q", r.TenurePolicy)
	}
	return nil
}

// MaxBySalary returns the salary-based cap on a single bon principal.
func (r Rules) MaxBySalary(salary decimal.Decimal) decimal.Decimal {
	return salary.Mul(decimal.NewFromInt(r.MaxBonPercentage)).Div(decimal.NewFromInt(100))
}

// MaxInstallmentBySalary returns the cap on the employee's total monthly
// installment burden.
func (r Rules) MaxInstallmentBySalary(salary decimal.Decimal) decimal.Decimal {
	return salary.Mul(decimal.NewFromInt(r.MaxInstallmentPercentage)).Div(decimal.NewFromInt(100))
}
