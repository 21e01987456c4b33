package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/bon-backend-go/internal/domain/bon"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BonRepository is an in-memory bon.BonRepository. It backs the service tests
// and keeps the same locking contract as the PostgreSQL implementation: fn in
// WithBonLock runs with exclusive ownership of the bon.
type BonRepository struct {
	mu    sync.Mutex
	bons  map[string]bon.Bon
	locks map[string]*sync.Mutex
}

func NewBonRepository() *BonRepository {
	return &BonRepository{
		bons:  make(map[string]bon.Bon),
		locks: make(map[string]*sync.Mutex),
	}
}

func (r *BonRepository) Create(ctx context.Context, b bon.Bon) (bon.Bon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	r.bons[b.ID] = b
	return b, nil
}

func (r *BonRepository) GetByID(ctx context.Context, id string) (bon.Bon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bons[id]
	if !ok {
		return bon.Bon{}, bon.ErrBonNotFound
	}
	return b, nil
}

func (r *BonRepository) GetByEmployeeID(ctx context.Context, employeeID string) ([]bon.Bon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var bons []bon.Bon
	for _, b := range r.bons {
		if b.EmployeeID == employeeID {
			bons = append(bons, b)
		}
	}
	sortByApplicationDateDesc(bons)
	return bons, nil
}

func (r *BonRepository) List(ctx context.Context, filter bon.BonFilter) ([]bon.Bon, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []bon.Bon
	for _, b := range r.bons {
		if filter.Status != nil && *filter.Status != "" && string(b.Status) != *filter.Status {
			continue
		}
		if filter.EmployeeID != nil && *filter.EmployeeID != "" && b.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Search != nil && *filter.Search != "" {
			if b.EmployeeName == nil || !strings.Contains(strings.ToLower(*b.EmployeeName), strings.ToLower(*filter.Search)) {
				continue
			}
		}
		matched = append(matched, b)
	}
	sortByApplicationDateDesc(matched)

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *BonRepository) Update(ctx context.Context, req bon.UpdateBonRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bons[req.ID]
	if !ok {
		return bon.ErrBonNotFound
	}
	if req.MonthlyInstallment != nil {
		b.MonthlyInstallment = *req.MonthlyInstallment
	}
	if req.InstallmentPeriod != nil {
		b.InstallmentPeriod = *req.InstallmentPeriod
	}
	if req.Note != nil {
		b.Note = req.Note
	}
	b.UpdatedAt = time.Now()
	r.bons[req.ID] = b
	return nil
}

func (r *BonRepository) UpdateDecision(ctx context.Context, id string, status bon.BonStatus, approvedBy string, approvedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bons[id]
	if !ok {
		return bon.ErrBonNotFound
	}
	b.Status = status
	b.ApprovedBy = &approvedBy
	b.ApprovalDate = approvedAt
	b.UpdatedAt = time.Now()
	r.bons[id] = b
	return nil
}

func (r *BonRepository) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal, status bon.BonStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bons[id]
	if !ok {
		return bon.ErrBonNotFound
	}
	b.RemainingBalance = balance
	b.Status = status
	b.UpdatedAt = time.Now()
	r.bons[id] = b
	return nil
}

func (r *BonRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bons[id]
	if !ok {
		return bon.ErrBonNotFound
	}
	b.Status = bon.BonStatusCancelled
	b.UpdatedAt = time.Now()
	r.bons[id] = b
	return nil
}

func (r *BonRepository) ListDeductible(ctx context.Context) ([]bon.Bon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var bons []bon.Bon
	for _, b := range r.bons {
		if b.Status == bon.BonStatusApproved && b.RemainingBalance.IsPositive() {
			bons = append(bons, b)
		}
	}
	sort.Slice(bons, func(i, j int) bool {
		return bons[i].ApplicationDate.Before(bons[j].ApplicationDate)
	})
	return bons, nil
}

func (r *BonRepository) WithBonLock(ctx context.Context, id string, fn func(ctx context.Context, b bon.Bon) error) error {
	r.mu.Lock()
	lock, ok := r.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	r.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	b, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return fn(ctx, b)
}

func sortByApplicationDateDesc(bons []bon.Bon) {
	sort.Slice(bons, func(i, j int) bool {
		return bons[i].ApplicationDate.After(bons[j].ApplicationDate)
	})
}
