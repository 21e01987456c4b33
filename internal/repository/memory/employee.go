package memory

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/bon-backend-go/internal/domain/employee"
)

// EmployeeRepository is an in-memory employee.EmployeeRepository for tests.
type EmployeeRepository struct {
	mu        sync.Mutex
	employees map[string]employee.Employee
}

func NewEmployeeRepository() *EmployeeRepository {
	return &EmployeeRepository{employees: make(map[string]employee.Employee)}
}

func (r *EmployeeRepository) Seed(emp employee.Employee) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.employees[emp.ID] = emp
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	emp, ok := r.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}
