package bon

import (
	"time"

	"github.com/shopspring/decimal"
)

type BonStatus string

const (
	BonStatusPending   BonStatus = "pending"
	BonStatusApproved  BonStatus = "approved"
	BonStatusRejected  BonStatus = "rejected"
	BonStatusCompleted BonStatus = "completed"
	BonStatusCancelled BonStatus = "cancelled"
)

// Bon entity - an employee salary advance repaid through monthly deductions.
type Bon struct {
	ID                 string
	EmployeeID         string
	PrincipalAmount    decimal.Decimal
	RemainingBalance   decimal.Decimal
	MonthlyInstallment decimal.Decimal
	InstallmentPeriod  int // months
	ApplicationDate    time.Time
	ApprovalDate       *time.Time
	ApprovedBy         *string
	Status             BonStatus
	Note               *string
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Relationships (for responses)
	EmployeeName *string
}

// IsActive reports whether the bon still counts against the employee's
// borrowing capacity: pending or approved, with an outstanding balance.
func (b Bon) IsActive() bool {
	return (b.Status == BonStatusPending || b.Status == BonStatusApproved) &&
		b.RemainingBalance.IsPositive()
}

type CicilanStatus string

const (
	CicilanStatusPending   CicilanStatus = "pending"
	CicilanStatusProcessed CicilanStatus = "processed"
	CicilanStatusCancelled CicilanStatus = "cancelled"
)

// Cicilan entity - one billing period's installment deduction against a bon.
// At most one non-cancelled cicilan may exist per (bon, period).
type Cicilan struct {
	ID            string
	BonID         string
	Period        string // calendar year-month key, "2006-01"
	Amount        decimal.Decimal
	DeductionDate time.Time
	Status        CicilanStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
