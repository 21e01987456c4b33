package bon

import "errors"

var (
	ErrBonNotFound     = errors.New("Bon not found")
	ErrCicilanNotFound = errors.New("Installment not found")

	ErrBonNotPending           = errors.New("Bon is not awaiting a decision")
	ErrBonNotUpdatable         = errors.New("Only pending bons can be updated")
	ErrBonNotDeletable         = errors.New("Only pending or rejected bons can be cancelled")
	ErrPeriodAlreadyProcessed  = errors.New("Installment already exists for this bon and period")
	ErrCicilanAlreadyCancelled = errors.New("Installment is already cancelled")
	ErrInsufficientBalance     = errors.New("Installment amount exceeds the remaining balance")
)
