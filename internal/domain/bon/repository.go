package bon

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BonRepository - the ledger's bon store.
//
// WithBonLock is the atomic read-modify-write primitive: fn runs with
// exclusive ownership of the bon identified by id, and every repository call
// made through the ctx it receives joins the same unit of work. Concurrent
// callers for the same bon serialize; the balance and idempotence invariants
// rely on it.
type BonRepository interface {
	Create(ctx context.Context, b Bon) (Bon, error)
	GetByID(ctx context.Context, id string) (Bon, error)
	GetByEmployeeID(ctx context.Context, employeeID string) ([]Bon, error)
	List(ctx context.Context, filter BonFilter) ([]Bon, int64, error)
	Update(ctx context.Context, req UpdateBonRequest) error
	UpdateDecision(ctx context.Context, id string, status BonStatus, approvedBy string, approvedAt *time.Time) error
	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal, status BonStatus) error
	Delete(ctx context.Context, id string) error

	// ListDeductible returns approved bons with an outstanding balance.
	ListDeductible(ctx context.Context) ([]Bon, error)

	WithBonLock(ctx context.Context, id string, fn func(ctx context.Context, b Bon) error) error
}

// CicilanRepository - interface for installment rows.
type CicilanRepository interface {
	Create(ctx context.Context, c Cicilan) (Cicilan, error)
	GetByID(ctx context.Context, id string) (Cicilan, error)
	GetByBonID(ctx context.Context, bonID string) ([]Cicilan, error)

	// GetActiveByBonAndPeriod returns the non-cancelled cicilan for the
	// (bon, period) pair, or ErrCicilanNotFound.
	GetActiveByBonAndPeriod(ctx context.Context, bonID, period string) (Cicilan, error)

	UpdateStatus(ctx context.Context, id string, status CicilanStatus) error
}
