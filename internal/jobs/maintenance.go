package jobs

import (
	"context"

	"github.com/wonny/sectrack/internal/store"
	"github.com/wonny/sectrack/pkg/logger"
)

// StoreMaintenanceJob compacts the sqlite file. Removals leave free pages
// behind; a weekly vacuum keeps the file small.
type StoreMaintenanceJob struct {
	store  *store.Store
	logger *logger.Logger
}

// NewStoreMaintenanceJob creates the job.
func NewStoreMaintenanceJob(st *store.Store, log *logger.Logger) *StoreMaintenanceJob {
	return &StoreMaintenanceJob{store: st, logger: log}
}

// Name returns the job name.
func (j *StoreMaintenanceJob) Name() string {
	return "store_maintenance"
}

// Schedule returns the cron schedule (Sunday at 3 AM).
func (j *StoreMaintenanceJob) Schedule() string {
	return "0 0 3 * * 0"
}

// Run vacuums the store.
func (j *StoreMaintenanceJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting store maintenance")

	if err := j.store.Vacuum(ctx); err != nil {
		return err
	}

	j.logger.Info("Store maintenance completed")
	return nil
}
