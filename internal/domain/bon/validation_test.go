package bon

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateApplication_Valid(t *testing.T) {
	rules := DefaultRules()
	emp := testEmployee(5_000_000, 12)

	// 3,000,000 over 3 months: 1,000,000 per month, within every cap.
	result := ValidateApplication(emp, decimal.NewFromInt(3_000_000), 3, nil, rules, time.Now())

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidateApplication_BurdenIncludesActiveBons(t *testing.T) {
	rules := DefaultRules()
	rules.MaxActiveBonPerEmployee = 2
	emp := testEmployee(5_000_000, 12)
	existing := []Bon{{
		ID:                 "bon-1",
		Status:             BonStatusApproved,
		RemainingBalance:   decimal.NewFromInt(2_000_000),
		MonthlyInstallment: decimal.NewFromInt(500_000),
		ApplicationDate:    time.Now().AddDate(0, -3, -1),
	}}

	// New installment of 1,200,000 is fine on its own (max 1,500,000) but
	// the combined burden of 1,700,000 is not.
	result := ValidateApplication(emp, decimal.NewFromInt(3_600_000), 3, existing, rules, time.Now())

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "1700000")
	assert.Contains(t, result.Errors[0], "1500000")
}

func TestValidateApplication_CollectsEveryViolation(t *testing.T) {
	rules := DefaultRules()
	emp := testEmployee(5_000_000, 2)
	existing := []Bon{{
		ID:                 "bon-1",
		Status:             BonStatusApproved,
		RemainingBalance:   decimal.NewFromInt(5_000_000),
		MonthlyInstallment: decimal.NewFromInt(1_000_000),
		ApplicationDate:    time.Now().AddDate(0, 0, -10),
	}}

	// Far too much, over too few months, too soon, on top of an active bon.
	result := ValidateApplication(emp, decimal.NewFromInt(20_000_000), 2, existing, rules, time.Now())

	assert.False(t, result.IsValid)
	// duration, salary cap, absolute cap, period bounds, installment cap,
	// active count, cooldown, burden
	assert.Len(t, result.Errors, 8)
}

func TestValidateApplication_PeriodBounds(t *testing.T) {
	rules := DefaultRules()
	emp := testEmployee(10_000_000, 12)

	tests := []struct {
		name   string
		period int
		valid  bool
	}{
		{"below minimum", 2, false},
		{"at minimum", 3, true},
		{"at maximum", 24, true},
		{"above maximum", 25, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateApplication(emp, decimal.NewFromInt(6_000_000), tt.period, nil, rules, time.Now())
			assert.Equal(t, tt.valid, result.IsValid, "errors: %v", result.Errors)
		})
	}
}

func TestValidateApplication_CooldownUsesApplicationDate(t *testing.T) {
	rules := DefaultRules()
	emp := testEmployee(5_000_000, 12)

	recent := []Bon{{
		ID:              "bon-1",
		Status:          BonStatusRejected,
		ApplicationDate: time.Now().AddDate(0, 0, -10),
	}}
	result := ValidateApplication(emp, decimal.NewFromInt(3_000_000), 3, recent, rules, time.Now())
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "between applications")

	old := []Bon{{
		ID:              "bon-1",
		Status:          BonStatusRejected,
		ApplicationDate: time.Now().AddDate(0, -2, 0),
	}}
	result = ValidateApplication(emp, decimal.NewFromInt(3_000_000), 3, old, rules, time.Now())
	assert.True(t, result.IsValid, "errors: %v", result.Errors)
}

func TestValidateApplication_Warnings(t *testing.T) {
	rules := DefaultRules()
	emp := testEmployee(10_000_000, 12)

	// 7,500,000 is above 70% of the 8,000,000 salary cap, and 15 months is
	// longer than a year. Both warn, neither blocks.
	result := ValidateApplication(emp, decimal.NewFromInt(7_500_000), 15, nil, rules, time.Now())

	assert.True(t, result.IsValid, "errors: %v", result.Errors)
	assert.Len(t, result.Warnings, 2)
}

func TestValidationResult_MergeDeduplicates(t *testing.T) {
	result := ValidationResult{
		IsValid: false,
		Errors:  []string{"employee is not active"},
	}

	result.Merge([]string{"employee is not active", "no remaining borrowing capacity"})

	assert.Equal(t, []string{"employee is not active", "no remaining borrowing capacity"}, result.Errors)
	assert.False(t, result.IsValid)
}

func TestValidationResult_MergeIntoValidResult(t *testing.T) {
	result := ValidationResult{IsValid: true}

	result.Merge([]string{"employee is not active"})

	assert.False(t, result.IsValid)
	assert.Len(t, result.Errors, 1)
}
