package postgresql

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/bon-backend-go/internal/domain/bon"
	"github.com/cmlabs-hris/bon-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type cicilanRepositoryImpl struct {
	db *database.DB
}

func NewCicilanRepository(db *database.DB) bon.CicilanRepository {
	return &cicilanRepositoryImpl{db: db}
}

func (r *cicilanRepositoryImpl) Create(ctx context.Context, c bon.Cicilan) (bon.Cicilan, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO bon_installments (bon_id, period, amount, deduction_date, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, bon_id, period, amount, deduction_date, status, created_at, updated_at
	`

	var created bon.Cicilan
	err := q.QueryRow(ctx, query,
		c.BonID, c.Period, c.Amount, c.DeductionDate, c.Status,
	).Scan(
		&created.ID, &created.BonID, &created.Period, &created.Amount,
		&created.DeductionDate, &created.Status, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "uk_bon_installment_period") {
			return bon.Cicilan{}, bon.ErrPeriodAlreadyProcessed
		}
		return bon.Cicilan{}, fmt.Errorf("failed to create installment: %w", err)
	}

	return created, nil
}

func (r *cicilanRepositoryImpl) GetByID(ctx context.Context, id string) (bon.Cicilan, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, bon_id, period, amount, deduction_date, status, created_at, updated_at
		FROM bon_installments
		WHERE id = $1
	`

	var c bon.Cicilan
	err := q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.BonID, &c.Period, &c.Amount, &c.DeductionDate, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return bon.Cicilan{}, bon.ErrCicilanNotFound
		}
		return bon.Cicilan{}, fmt.Errorf("failed to get installment: %w", err)
	}

	return c, nil
}

func (r *cicilanRepositoryImpl) GetByBonID(ctx context.Context, bonID string) ([]bon.Cicilan, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, bon_id, period, amount, deduction_date, status, created_at, updated_at
		FROM bon_installments
		WHERE bon_id = $1
		ORDER BY period ASC, created_at ASC
	`

	rows, err := q.Query(ctx, query, bonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list installments: %w", err)
	}
	defer rows.Close()

	var cicilans []bon.Cicilan
	for rows.Next() {
		var c bon.Cicilan
		err := rows.Scan(
			&c.ID, &c.BonID, &c.Period, &c.Amount, &c.DeductionDate, &c.Status, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}
		cicilans = append(cicilans, c)
	}

	return cicilans, nil
}

// GetActiveByBonAndPeriod implements bon.CicilanRepository. Cancelled rows do
// not count against the period.
func (r *cicilanRepositoryImpl) GetActiveByBonAndPeriod(ctx context.Context, bonID, period string) (bon.Cicilan, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, bon_id, period, amount, deduction_date, status, created_at, updated_at
		FROM bon_installments
		WHERE bon_id = $1 AND period = $2 AND status <> $3
	`

	var c bon.Cicilan
	err := q.QueryRow(ctx, query, bonID, period, bon.CicilanStatusCancelled).Scan(
		&c.ID, &c.BonID, &c.Period, &c.Amount, &c.DeductionDate, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return bon.Cicilan{}, bon.ErrCicilanNotFound
		}
		return bon.Cicilan{}, fmt.Errorf("failed to get installment for period: %w", err)
	}

	return c, nil
}

func (r *cicilanRepositoryImpl) UpdateStatus(ctx context.Context, id string, status bon.CicilanStatus) error {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE bon_installments SET status = $1, updated_at = NOW() WHERE id = $2`

	tag, err := q.Exec(ctx, query, status, id)
	if err != nil {
		if strings.Contains(err.Error(), "uk_bon_installment_period") {
			return bon.ErrPeriodAlreadyProcessed
		}
		return fmt.Errorf("failed to update installment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return bon.ErrCicilanNotFound
	}

	return nil
}
