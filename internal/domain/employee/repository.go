package employee

import "context"

// EmployeeRepository reads employee records from the directory store.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
}
