package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/bon-backend-go/internal/domain/bon"
	"github.com/cmlabs-hris/bon-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/bon-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Not found
	case errors.Is(err, bon.ErrBonNotFound):
		NotFound(w, "Bon not found")
	case errors.Is(err, bon.ErrCicilanNotFound):
		NotFound(w, "Installment not found")
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Lifecycle conflicts
	case errors.Is(err, bon.ErrBonNotPending):
		Conflict(w, "Bon is not awaiting a decision")
	case errors.Is(err, bon.ErrBonNotUpdatable):
		Conflict(w, "Only pending bons can be updated")
	case errors.Is(err, bon.ErrBonNotDeletable):
		Conflict(w, "Only pending or rejected bons can be cancelled")
	case errors.Is(err, bon.ErrPeriodAlreadyProcessed):
		Conflict(w, "Installment already exists for this bon and period")
	case errors.Is(err, bon.ErrCicilanAlreadyCancelled):
		Conflict(w, "Installment is already cancelled")
	case errors.Is(err, bon.ErrInsufficientBalance):
		Conflict(w, "Installment amount exceeds the remaining balance")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
