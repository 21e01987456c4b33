package bon

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/bon-backend-go/internal/domain/employee"
	"github.com/shopspring/decimal"
)

// ValidationResult carries every violated business rule for a proposed
// application, plus non-blocking advisory warnings.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Merge folds additional findings into the result, skipping messages that
// are already present so evaluator and validator output stays deduplicated.
func (r *ValidationResult) Merge(errs []string) {
	for _, e := range errs {
		found := false
		for _, existing := range r.Errors {
			if existing == e {
				found = true
				break
			}
		}
		if !found {
			r.Errors = append(r.Errors, e)
		}
	}
	r.IsValid = len(r.Errors) == 0
}

// ValidateApplication applies every application rule as an independent
// predicate, in a fixed order, and reports all violations together. It never
// short-circuits and has no side effects.
func ValidateApplication(
	emp employee.Employee,
	requestedAmount decimal.Decimal,
	installmentPeriod int,
	existing []Bon,
	rules Rules,
	now time.Time,
) ValidationResult {
	var errs, warnings []string

	months := EmploymentMonths(emp.HireDate, now, rules.TenurePolicy)
	active := ActiveBons(existing)
	maxBySalary := rules.MaxBySalary(emp.BaseSalary)
	maxInstallment := rules.MaxInstallmentBySalary(emp.BaseSalary)

	// 1. Employment status
	if emp.EmploymentStatus != employee.EmploymentStatusActive {
		errs = append(errs, msgEmployeeNotActive)
	}

	// 2. Employment duration
	if months < rules.MinEmploymentDuration {
		errs = append(errs, fmt.Sprintf(msgEmploymentTooShort, months, rules.MinEmploymentDuration))
	}

	// 3. Salary-based cap
	if requestedAmount.GreaterThan(maxBySalary) {
		errs = append(errs, fmt.Sprintf(
			"requested amount %s exceeds the salary-based cap %s (%d%% of base salary)",
			requestedAmount, maxBySalary, rules.MaxBonPercentage))
	}

	// 4. Absolute cap
	if requestedAmount.GreaterThan(rules.MaxBonAmount) {
		errs = append(errs, fmt.Sprintf(
			"requested amount %s exceeds the maximum bon amount %s",
			requestedAmount, rules.MaxBonAmount))
	}

	// 5. Installment period bounds
	if installmentPeriod < rules.MinInstallmentPeriod || installmentPeriod > rules.MaxInstallmentPeriod {
		errs = append(errs, fmt.Sprintf(
			"installment period %d month(s) is outside the allowed range [%d, %d]",
			installmentPeriod, rules.MinInstallmentPeriod, rules.MaxInstallmentPeriod))
	}

	// 6. Monthly installment vs salary
	monthly := decimal.Zero
	if installmentPeriod > 0 {
		monthly = requestedAmount.Div(decimal.NewFromInt(int64(installmentPeriod)))
	}
	if monthly.GreaterThan(maxInstallment) {
		errs = append(errs, fmt.Sprintf(
			"monthly installment %s exceeds the maximum installment %s (%d%% of base salary)",
			monthly, maxInstallment, rules.MaxInstallmentPercentage))
	}

	// 7. Active bon count
	if len(active) >= rules.MaxActiveBonPerEmployee {
		errs = append(errs, fmt.Sprintf(msgTooManyActiveBons, len(active), rules.MaxActiveBonPerEmployee))
	}

	// 8. Minimum time between applications
	cutoff := now.AddDate(0, -rules.MinTimeBetweenApplications, 0)
	for _, b := range existing {
		if b.ApplicationDate.After(cutoff) {
			errs = append(errs, fmt.Sprintf(
				"previous application on %s is within the minimum %d month(s) between applications",
				b.ApplicationDate.Format("2006-01-02"), rules.MinTimeBetweenApplications))
			break
		}
	}

	// 9. Total installment burden
	burden := monthly
	for _, b := range active {
		burden = burden.Add(b.MonthlyInstallment)
	}
	if burden.GreaterThan(maxInstallment) {
		errs = append(errs, fmt.Sprintf(
			"total monthly installment burden %s exceeds the maximum installment %s",
			burden, maxInstallment))
	}

	// Advisory warnings, non-blocking.
	if requestedAmount.GreaterThan(maxBySalary.Mul(decimal.NewFromFloat(0.7))) {
		warnings = append(warnings, fmt.Sprintf(
			"requested amount %s is above 70%% of the salary-based cap %s",
			requestedAmount, maxBySalary))
	}
	if installmentPeriod > 12 {
		warnings = append(warnings, fmt.Sprintf(
			"installment period %d months is longer than one year", installmentPeriod))
	}

	return ValidationResult{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}
