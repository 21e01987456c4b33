package bon

import (
	"context"

	"github.com/shopspring/decimal"
)

type BonService interface {
	GetEligibility(ctx context.Context, employeeID string, proposedAmount *decimal.Decimal) (Eligibility, error)
	Submit(ctx context.Context, req CreateBonRequest) (Bon, ValidationResult, error)
	List(ctx context.Context, filter BonFilter) ([]Bon, int64, error)
	Get(ctx context.Context, id string) (Bon, error)
	GetInstallments(ctx context.Context, bonID string) ([]Cicilan, error)
	Update(ctx context.Context, req UpdateBonRequest) (Bon, error)
	Approve(ctx context.Context, id, actorID string) (Bon, error)
	Reject(ctx context.Context, id, actorID string) (Bon, error)
	Cancel(ctx context.Context, id string) error
}

type InstallmentService interface {
	ProcessPeriod(ctx context.Context, period string) ([]Cicilan, []ProcessFailure, error)
	UpdateStatus(ctx context.Context, req UpdateCicilanStatusRequest) (Cicilan, error)
}
