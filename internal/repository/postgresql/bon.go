package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/bon-backend-go/internal/domain/bon"
	"github.com/cmlabs-hris/bon-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type bonRepositoryImpl struct {
	db *database.DB
}

func NewBonRepository(db *database.DB) bon.BonRepository {
	return &bonRepositoryImpl{db: db}
}

func (r *bonRepositoryImpl) Create(ctx context.Context, b bon.Bon) (bon.Bon, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO bons (
			employee_id, principal_amount, remaining_balance, monthly_installment,
			installment_period, application_date, status, note
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, employee_id, principal_amount, remaining_balance, monthly_installment,
			installment_period, application_date, approval_date, approved_by, status, note,
			created_at, updated_at
	`

	var created bon.Bon
	err := q.QueryRow(ctx, query,
		b.EmployeeID, b.PrincipalAmount, b.RemainingBalance, b.MonthlyInstallment,
		b.InstallmentPeriod, b.ApplicationDate, b.Status, b.Note,
	).Scan(
		&created.ID, &created.EmployeeID, &created.PrincipalAmount, &created.RemainingBalance,
		&created.MonthlyInstallment, &created.InstallmentPeriod, &created.ApplicationDate,
		&created.ApprovalDate, &created.ApprovedBy, &created.Status, &created.Note,
		&created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return bon.Bon{}, fmt.Errorf("failed to create bon: %w", err)
	}

	return created, nil
}

func (r *bonRepositoryImpl) GetByID(ctx context.Context, id string) (bon.Bon, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT b.id, b.employee_id, b.principal_amount, b.remaining_balance, b.monthly_installment,
			b.installment_period, b.application_date, b.approval_date, b.approved_by, b.status, b.note,
			b.created_at, b.updated_at, e.full_name
		FROM bons b
		JOIN employees e ON e.id = b.employee_id
		WHERE b.id = $1
	`

	var b bon.Bon
	err := q.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.EmployeeID, &b.PrincipalAmount, &b.RemainingBalance, &b.MonthlyInstallment,
		&b.InstallmentPeriod, &b.ApplicationDate, &b.ApprovalDate, &b.ApprovedBy, &b.Status, &b.Note,
		&b.CreatedAt, &b.UpdatedAt, &b.EmployeeName,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return bon.Bon{}, bon.ErrBonNotFound
		}
		return bon.Bon{}, fmt.Errorf("failed to get bon: %w", err)
	}

	return b, nil
}

func (r *bonRepositoryImpl) GetByEmployeeID(ctx context.Context, employeeID string) ([]bon.Bon, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, principal_amount, remaining_balance, monthly_installment,
			installment_period, application_date, approval_date, approved_by, status, note,
			created_at, updated_at
		FROM bons
		WHERE employee_id = $1
		ORDER BY application_date DESC
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bons by employee: %w", err)
	}
	defer rows.Close()

	return scanBons(rows)
}

func (r *bonRepositoryImpl) List(ctx context.Context, filter bon.BonFilter) ([]bon.Bon, int64, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if filter.Search != nil && *filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("e.full_name ILIKE $%d", argIdx))
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("b.status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("b.employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM bons b
		JOIN employees e ON e.id = b.employee_id
		WHERE %s
	`, whereClause)

	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bons: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	listQuery := fmt.Sprintf(`
		SELECT b.id, b.employee_id, b.principal_amount, b.remaining_balance, b.monthly_installment,
			b.installment_period, b.application_date, b.approval_date, b.approved_by, b.status, b.note,
			b.created_at, b.updated_at, e.full_name
		FROM bons b
		JOIN employees e ON e.id = b.employee_id
		WHERE %s
		ORDER BY b.application_date DESC, b.created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bons: %w", err)
	}
	defer rows.Close()

	var bons []bon.Bon
	for rows.Next() {
		var b bon.Bon
		err := rows.Scan(
			&b.ID, &b.EmployeeID, &b.PrincipalAmount, &b.RemainingBalance, &b.MonthlyInstallment,
			&b.InstallmentPeriod, &b.ApplicationDate, &b.ApprovalDate, &b.ApprovedBy, &b.Status, &b.Note,
			&b.CreatedAt, &b.UpdatedAt, &b.EmployeeName,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan bon: %w", err)
		}
		bons = append(bons, b)
	}

	return bons, total, nil
}

func (r *bonRepositoryImpl) Update(ctx context.Context, req bon.UpdateBonRequest) error {
	q := GetQuerier(ctx, r.db)

	setParts := []string{}
	args := []interface{}{}
	argIdx := 1

	if req.MonthlyInstallment != nil {
		setParts = append(setParts, fmt.Sprintf("monthly_installment = $%d", argIdx))
		args = append(args, *req.MonthlyInstallment)
		argIdx++
	}
	if req.InstallmentPeriod != nil {
		setParts = append(setParts, fmt.Sprintf("installment_period = $%d", argIdx))
		args = append(args, *req.InstallmentPeriod)
		argIdx++
	}
	if req.Note != nil {
		setParts = append(setParts, fmt.Sprintf("note = $%d", argIdx))
		args = append(args, *req.Note)
		argIdx++
	}

	if len(setParts) == 0 {
		return nil
	}

	setParts = append(setParts, "updated_at = NOW()")
	query := fmt.Sprintf("UPDATE bons SET %s WHERE id = $%d", strings.Join(setParts, ", "), argIdx)
	args = append(args, req.ID)

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update bon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return bon.ErrBonNotFound
	}

	return nil
}

func (r *bonRepositoryImpl) UpdateDecision(ctx context.Context, id string, status bon.BonStatus, approvedBy string, approvedAt *time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE bons
		SET status = $1, approved_by = $2, approval_date = $3, updated_at = NOW()
		WHERE id = $4
	`

	tag, err := q.Exec(ctx, query, status, approvedBy, approvedAt, id)
	if err != nil {
		return fmt.Errorf("failed to record bon decision: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return bon.ErrBonNotFound
	}

	return nil
}

func (r *bonRepositoryImpl) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal, status bon.BonStatus) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE bons
		SET remaining_balance = $1, status = $2, updated_at = NOW()
		WHERE id = $3
	`

	tag, err := q.Exec(ctx, query, balance, status, id)
	if err != nil {
		return fmt.Errorf("failed to update bon balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return bon.ErrBonNotFound
	}

	return nil
}

func (r *bonRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE bons SET status = $1, updated_at = NOW() WHERE id = $2`

	tag, err := q.Exec(ctx, query, bon.BonStatusCancelled, id)
	if err != nil {
		return fmt.Errorf("failed to cancel bon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return bon.ErrBonNotFound
	}

	return nil
}

func (r *bonRepositoryImpl) ListDeductible(ctx context.Context) ([]bon.Bon, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, principal_amount, remaining_balance, monthly_installment,
			installment_period, application_date, approval_date, approved_by, status, note,
			created_at, updated_at
		FROM bons
		WHERE status = $1 AND remaining_balance > 0
		ORDER BY application_date ASC
	`

	rows, err := q.Query(ctx, query, bon.BonStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to list deductible bons: %w", err)
	}
	defer rows.Close()

	return scanBons(rows)
}

// WithBonLock serializes writers on one bon row. The callback sees the row as
// of the lock and every repository call made through its ctx joins the same
// transaction.
func (r *bonRepositoryImpl) WithBonLock(ctx context.Context, id string, fn func(ctx context.Context, b bon.Bon) error) error {
	return WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			SELECT id, employee_id, principal_amount, remaining_balance, monthly_installment,
				installment_period, application_date, approval_date, approved_by, status, note,
				created_at, updated_at
			FROM bons
			WHERE id = $1
			FOR UPDATE
		`

		var b bon.Bon
		err := tx.QueryRow(ctx, query, id).Scan(
			&b.ID, &b.EmployeeID, &b.PrincipalAmount, &b.RemainingBalance, &b.MonthlyInstallment,
			&b.InstallmentPeriod, &b.ApplicationDate, &b.ApprovalDate, &b.ApprovedBy, &b.Status, &b.Note,
			&b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			if err == pgx.ErrNoRows {
				return bon.ErrBonNotFound
			}
			return fmt.Errorf("failed to lock bon: %w", err)
		}

		return fn(WithTx(ctx, tx), b)
	})
}

func scanBons(rows pgx.Rows) ([]bon.Bon, error) {
	var bons []bon.Bon
	for rows.Next() {
		var b bon.Bon
		err := rows.Scan(
			&b.ID, &b.EmployeeID, &b.PrincipalAmount, &b.RemainingBalance, &b.MonthlyInstallment,
			&b.InstallmentPeriod, &b.ApplicationDate, &b.ApprovalDate, &b.ApprovedBy, &b.Status, &b.Note,
			&b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bon: %w", err)
		}
		bons = append(bons, b)
	}
	return bons, nil
}
