package cron

import (
	"context"
	"time"

	"github.com/cmlabs-hris/bon-backend-go/internal/domain/bon"
)

type BonJobs struct {
	installmentService bon.InstallmentService
}

func NewBonJobs(installmentService bon.InstallmentService) *BonJobs {
	return &BonJobs{installmentService: installmentService}
}

func (j *BonJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("process_monthly_installments", interval, j.ProcessMonthlyInstallments)
}

// ProcessMonthlyInstallments closes the current period on the first of the
// month. The deduction itself is idempotent, so firing more than once that
// day is harmless.
func (j *BonJobs) ProcessMonthlyInstallments(ctx context.Context) error {
	now := time.Now().UTC()
	if now.Day() != 1 {
		return nil
	}

	period := now.Format("2006-01")
	_, _, err := j.installmentService.ProcessPeriod(ctx, period)
	return err
}
