package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/valuescope/backend/internal/alert"
	"github.com/wonny/valuescope/backend/internal/valuation"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

// Refresher rebuilds indicator snapshots
type Refresher interface {
	RefreshAll(ctx context.Context) (*valuation.RefreshResult, error)
}

// AlertChecker evaluates enabled alerts
type AlertChecker interface {
	CheckAll(ctx context.Context) (*alert.CheckResult, error)
}

// IndicatorRefreshJob rebuilds snapshots after the daily sync
type IndicatorRefreshJob struct {
	refresher Refresher
	logger    *logger.Logger
}

// NewIndicatorRefreshJob creates a new indicator refresh job
func NewIndicatorRefreshJob(r Refresher, log *logger.Logger) *IndicatorRefreshJob {
	return &IndicatorRefreshJob{refresher: r, logger: log.WithField("job", "indicator_refresh")}
}

// Name returns the job name
func (j *IndicatorRefreshJob) Name() string { return "indicator_refresh" }

// Schedule returns the cron schedule (weekdays 5 PM)
func (j *IndicatorRefreshJob) Schedule() string { return "0 0 17 * * MON-FRI" }

// Run executes the refresh
func (j *IndicatorRefreshJob) Run(ctx context.Context) error {
	res, err := j.refresher.RefreshAll(ctx)
	if err != nil {
		return err
	}
	if res.Failed > 0 && res.Success == 0 {
		return fmt.Errorf("all %d snapshot builds failed", res.Failed)
	}
	return nil
}

// AlertCheckJob evaluates alerts against fresh snapshots
type AlertCheckJob struct {
	checker AlertChecker
	logger  *logger.Logger
}

// NewAlertCheckJob creates a new alert check job
func NewAlertCheckJob(c AlertChecker, log *logger.Logger) *AlertCheckJob {
	return &AlertCheckJob{checker: c, logger: log.WithField("job", "alert_check")}
}

// Name returns the job name
func (j *AlertCheckJob) Name() string { return "alert_check" }

// Schedule returns the cron schedule (weekdays 5:30 PM, after the refresh)
func (j *AlertCheckJob) Schedule() string { return "0 30 17 * * MON-FRI" }

// Run executes the check
func (j *AlertCheckJob) Run(ctx context.Context) error {
	res, err := j.checker.CheckAll(ctx)
	if err != nil {
		return err
	}
	j.logger.WithFields(map[string]interface{}{
		"checked":   res.Checked,
		"triggered": res.Triggered,
		"failed":    res.Failed,
	}).Info("Alert check finished")
	return nil
}
