package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/valuescope/backend/internal/data/collector"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

// Syncer is the collector surface the sync jobs drive
type Syncer interface {
	SyncStockList(ctx context.Context) (*collector.Result, error)
	SyncDaily(ctx context.Context, codes []string, from, to time.Time) (*collector.Result, error)
	SyncFinancials(ctx context.Context, codes []string) (*collector.Result, error)
	SyncDividends(ctx context.Context, codes []string) (*collector.Result, error)
}

// checkResult fails the run when every stock failed, so the scheduler retries it
func checkResult(log *logger.Logger, res *collector.Result, err error) error {
	if err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"total":   res.Total,
		"success": res.Success,
		"failed":  res.Failed,
		"rows":    res.Rows,
	}).Info("Sync finished")

	if res.Total > 0 && res.Success == 0 {
		return fmt.Errorf("all %d stocks failed", res.Total)
	}
	return nil
}

// StockListSyncJob refreshes the stock catalog
// ⭐ SSOT: 종목 목록 동기화 스케줄은 이 Job에서만
type StockListSyncJob struct {
	syncer Syncer
	logger *logger.Logger
}

// NewStockListSyncJob creates a new stock list sync job
func NewStockListSyncJob(s Syncer, log *logger.Logger) *StockListSyncJob {
	return &StockListSyncJob{syncer: s, logger: log.WithField("job", "stock_list_sync")}
}

// Name returns the job name
func (j *StockListSyncJob) Name() string { return "stock_list_sync" }

// Schedule returns the cron schedule (Monday 8 AM)
func (j *StockListSyncJob) Schedule() string { return "0 0 8 * * MON" }

// Run executes the stock list sync
func (j *StockListSyncJob) Run(ctx context.Context) error {
	res, err := j.syncer.SyncStockList(ctx)
	return checkResult(j.logger, res, err)
}

// DailySyncJob pulls the last 30 days of bars for every active stock
type DailySyncJob struct {
	syncer Syncer
	logger *logger.Logger
	now    func() time.Time
}

// NewDailySyncJob creates a new daily sync job
func NewDailySyncJob(s Syncer, log *logger.Logger) *DailySyncJob {
	return &DailySyncJob{syncer: s, logger: log.WithField("job", "daily_sync"), now: time.Now}
}

// Name returns the job name
func (j *DailySyncJob) Name() string { return "daily_sync" }

// Schedule returns the cron schedule (weekdays 4 PM, after the close)
func (j *DailySyncJob) Schedule() string { return "0 0 16 * * MON-FRI" }

// Run executes the daily sync
func (j *DailySyncJob) Run(ctx context.Context) error {
	to := j.now()
	from := to.Add(-collector.AllStocksWindow)

	res, err := j.syncer.SyncDaily(ctx, nil, from, to)
	return checkResult(j.logger, res, err)
}

// FinancialSyncJob refreshes financial reports weekly
type FinancialSyncJob struct {
	syncer Syncer
	logger *logger.Logger
}

// NewFinancialSyncJob creates a new financial sync job
func NewFinancialSyncJob(s Syncer, log *logger.Logger) *FinancialSyncJob {
	return &FinancialSyncJob{syncer: s, logger: log.WithField("job", "financial_sync")}
}

// Name returns the job name
func (j *FinancialSyncJob) Name() string { return "financial_sync" }

// Schedule returns the cron schedule (Saturday 2 AM)
func (j *FinancialSyncJob) Schedule() string { return "0 0 2 * * SAT" }

// Run executes the financial sync
func (j *FinancialSyncJob) Run(ctx context.Context) error {
	res, err := j.syncer.SyncFinancials(ctx, nil)
	return checkResult(j.logger, res, err)
}

// DividendSyncJob refreshes dividend records weekly
type DividendSyncJob struct {
	syncer Syncer
	logger *logger.Logger
}

// NewDividendSyncJob creates a new dividend sync job
func NewDividendSyncJob(s Syncer, log *logger.Logger) *DividendSyncJob {
	return &DividendSyncJob{syncer: s, logger: log.WithField("job", "dividend_sync")}
}

// Name returns the job name
func (j *DividendSyncJob) Name() string { return "dividend_sync" }

// Schedule returns the cron schedule (Saturday 3 AM)
func (j *DividendSyncJob) Schedule() string { return "0 0 3 * * SAT" }

// Run executes the dividend sync
func (j *DividendSyncJob) Run(ctx context.Context) error {
	res, err := j.syncer.SyncDividends(ctx, nil)
	return checkResult(j.logger, res, err)
}
