package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type EmploymentStatus string

const (
	EmploymentStatusActive   EmploymentStatus = "active"
	EmploymentStatusInactive EmploymentStatus = "inactive"
)

// Employee is the read-only projection of a directory record that the bon
// engine consumes. The directory service owns the full record.
type Employee struct {
	ID               string
	FullName         string
	BaseSalary       decimal.Decimal
	HireDate         time.Time
	EmploymentStatus EmploymentStatus
}
