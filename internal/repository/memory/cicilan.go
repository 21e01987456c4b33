package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/bon-backend-go/internal/domain/bon"
	"github.com/google/uuid"
)

// CicilanRepository is an in-memory bon.CicilanRepository. It enforces the
// same uniqueness the database does: one non-cancelled installment per
// (bon, period) pair.
type CicilanRepository struct {
	mu       sync.Mutex
	cicilans map[string]bon.Cicilan
}

func NewCicilanRepository() *CicilanRepository {
	return &CicilanRepository{cicilans: make(map[string]bon.Cicilan)}
}

func (r *CicilanRepository) Create(ctx context.Context, c bon.Cicilan) (bon.Cicilan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.Status != bon.CicilanStatusCancelled {
		for _, existing := range r.cicilans {
			if existing.BonID == c.BonID && existing.Period == c.Period && existing.Status != bon.CicilanStatusCancelled {
				return bon.Cicilan{}, bon.ErrPeriodAlreadyProcessed
			}
		}
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	r.cicilans[c.ID] = c
	return c, nil
}

func (r *CicilanRepository) GetByID(ctx context.Context, id string) (bon.Cicilan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cicilans[id]
	if !ok {
		return bon.Cicilan{}, bon.ErrCicilanNotFound
	}
	return c, nil
}

func (r *CicilanRepository) GetByBonID(ctx context.Context, bonID string) ([]bon.Cicilan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cicilans []bon.Cicilan
	for _, c := range r.cicilans {
		if c.BonID == bonID {
			cicilans = append(cicilans, c)
		}
	}
	sort.Slice(cicilans, func(i, j int) bool {
		if cicilans[i].Period != cicilans[j].Period {
			return cicilans[i].Period < cicilans[j].Period
		}
		return cicilans[i].CreatedAt.Before(cicilans[j].CreatedAt)
	})
	return cicilans, nil
}

func (r *CicilanRepository) GetActiveByBonAndPeriod(ctx context.Context, bonID, period string) (bon.Cicilan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.cicilans {
		if c.BonID == bonID && c.Period == period && c.Status != bon.CicilanStatusCancelled {
			return c, nil
		}
	}
	return bon.Cicilan{}, bon.ErrCicilanNotFound
}

func (r *CicilanRepository) UpdateStatus(ctx context.Context, id string, status bon.CicilanStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cicilans[id]
	if !ok {
		return bon.ErrCicilanNotFound
	}
	if status != bon.CicilanStatusCancelled {
		for _, existing := range r.cicilans {
			if existing.ID != id && existing.BonID == c.BonID && existing.Period == c.Period && existing.Status != bon.CicilanStatusCancelled {
				return bon.ErrPeriodAlreadyProcessed
			}
		}
	}
	c.Status = status
	c.UpdatedAt = time.Now()
	r.cicilans[id] = c
	return nil
}
