// Package jobs holds the periodic sync, refresh and alert jobs.
package jobs

import (
	"github.com/wonny/valuescope/backend/internal/scheduler"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

// All returns every periodic job in pipeline order
func All(s Syncer, r Refresher, c AlertChecker, log *logger.Logger) []scheduler.Job {
	return []scheduler.Job{
		NewStockListSyncJob(s, log),
		NewDailySyncJob(s, log),
		NewFinancialSyncJob(s, log),
		NewDividendSyncJob(s, log),
		NewIndicatorRefreshJob(r, log),
		NewAlertCheckJob(c, log),
	}
}
