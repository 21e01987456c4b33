package bon

import (
	"github.com/cmlabs-hris/bon-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== APPLICATION DTOs ==========

type CreateBonRequest struct {
	EmployeeID         string          `json:"employee_id"`
	Amount             decimal.Decimal `json:"amount"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	Note               *string         `json:"note,omitempty"`
}

func (r *CreateBonRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be greater than zero"})
	}
	if !r.MonthlyInstallment.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "monthly_installment", Message: "must be greater than zero"})
	} else if r.MonthlyInstallment.GreaterThan(r.Amount) {
		errs = append(errs, validator.ValidationError{Field: "monthly_installment", Message: "must not exceed the requested amount"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// InstallmentPeriod derives the repayment period in months from the
// requested amount and the proposed monthly installment.
func (r *CreateBonRequest) InstallmentPeriod() int {
	if !r.MonthlyInstallment.IsPositive() {
		return 0
	}
	return int(r.Amount.Div(r.MonthlyInstallment).Ceil().IntPart())
}

// ========== DECISION DTOs ==========

type DecisionAction string

const (
	DecisionApprove DecisionAction = "approve"
	DecisionReject  DecisionAction = "reject"
)

// DecideBonRequest is a closed decision variant: the only legal status
// mutations of a pending bon are the two enumerated actions.
type DecideBonRequest struct {
	ID     string
	Action DecisionAction `json:"action"`
}

func (r *DecideBonRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Action != DecisionApprove && r.Action != DecisionReject {
		errs = append(errs, validator.ValidationError{Field: "action", Message: "must be 'approve' or 'reject'"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdateBonRequest is the closed set of fields that may change while a bon
// is pending. Anything else is immutable once the application is filed.
type UpdateBonRequest struct {
	ID                 string
	MonthlyInstallment *decimal.Decimal `json:"monthly_installment,omitempty"`
	Note               *string          `json:"note,omitempty"`

	// Derived by the service when MonthlyInstallment changes.
	InstallmentPeriod *int `json:"-"`
}

func (r *UpdateBonRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.MonthlyInstallment != nil && !r.MonthlyInstallment.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "monthly_installment", Message: "must be greater than zero"})
	}
	if r.MonthlyInstallment == nil && r.Note == nil {
		errs = append(errs, validator.ValidationError{Field: "body", Message: "no updatable fields provided"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== INSTALLMENT DTOs ==========

type ProcessPeriodRequest struct {
	Period string `json:"period"`
}

func (r *ProcessPeriodRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidPeriod(r.Period) {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "must be a year-month key in YYYY-MM format"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateCicilanStatusRequest struct {
	ID     string
	Status CicilanStatus `json:"status"`
}

func (r *UpdateCicilanStatusRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Status != CicilanStatusProcessed && r.Status != CicilanStatusCancelled {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "must be 'processed' or 'cancelled'"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== FILTERS & RESPONSES ==========

type BonFilter struct {
	Search     *string
	Status     *string
	EmployeeID *string
	Page       int
	Limit      int
}

type BonResponse struct {
	ID                 string          `json:"id"`
	EmployeeID         string          `json:"employee_id"`
	EmployeeName       *string         `json:"employee_name,omitempty"`
	PrincipalAmount    decimal.Decimal `json:"principal_amount"`
	RemainingBalance   decimal.Decimal `json:"remaining_balance"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	InstallmentPeriod  int             `json:"installment_period"`
	ApplicationDate    string          `json:"application_date"`
	ApprovalDate       *string         `json:"approval_date,omitempty"`
	ApprovedBy         *string         `json:"approved_by,omitempty"`
	Status             string          `json:"status"`
	Note               *string         `json:"note,omitempty"`
}

func ToBonResponse(b Bon) BonResponse {
	resp := BonResponse{
		ID:                 b.ID,
		EmployeeID:         b.EmployeeID,
		EmployeeName:       b.EmployeeName,
		PrincipalAmount:    b.PrincipalAmount,
		RemainingBalance:   b.RemainingBalance,
		MonthlyInstallment: b.MonthlyInstallment,
		InstallmentPeriod:  b.InstallmentPeriod,
		ApplicationDate:    b.ApplicationDate.Format("2006-01-02"),
		ApprovedBy:         b.ApprovedBy,
		Status:             string(b.Status),
		Note:               b.Note,
	}
	if b.ApprovalDate != nil {
		approval := b.ApprovalDate.Format("2006-01-02")
		resp.ApprovalDate = &approval
	}
	return resp
}

type SubmitBonResponse struct {
	Bon      BonResponse `json:"bon"`
	Warnings []string    `json:"warnings,omitempty"`
}

type CicilanResponse struct {
	ID            string          `json:"id"`
	BonID         string          `json:"bon_id"`
	Period        string          `json:"period"`
	Amount        decimal.Decimal `json:"amount"`
	DeductionDate string          `json:"deduction_date"`
	Status        string          `json:"status"`
}

func ToCicilanResponse(c Cicilan) CicilanResponse {
	return CicilanResponse{
		ID:            c.ID,
		BonID:         c.BonID,
		Period:        c.Period,
		Amount:        c.Amount,
		DeductionDate: c.DeductionDate.Format("2006-01-02"),
		Status:        string(c.Status),
	}
}

// ProcessFailure reports one bon that could not be deducted during a period
// close. Other bons in the same run are unaffected.
type ProcessFailure struct {
	BonID string `json:"bon_id"`
	Error string `json:"error"`
}

type ProcessPeriodResponse struct {
	Period    string            `json:"period"`
	Processed []CicilanResponse `json:"processed"`
	Failed    []ProcessFailure  `json:"failed,omitempty"`
}
