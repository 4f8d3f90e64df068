package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

// Checker evaluates every enabled alert and dispatches the ones that fire
// ⭐ SSOT: 알림 트리거 판정은 여기서만
type Checker struct {
	alerts    contracts.AlertRepository
	snapshots contracts.SnapshotRepository
	notifiers map[string]Notifier
	fallback  Notifier
	cooldown  time.Duration
	logger    *logger.Logger
	now       func() time.Time
}

// NewChecker creates a checker. Channels without a registered notifier go to the log.
func NewChecker(alerts contracts.AlertRepository, snapshots contracts.SnapshotRepository, cooldown time.Duration, log *logger.Logger) *Checker {
	return &Checker{
		alerts:    alerts,
		snapshots: snapshots,
		notifiers: make(map[string]Notifier),
		fallback:  NewLogNotifier(log),
		cooldown:  cooldown,
		logger:    log.WithField("module", "alert_checker"),
		now:       time.Now,
	}
}

// Register routes a notify channel to n
func (c *Checker) Register(channel string, n Notifier) {
	c.notifiers[channel] = n
}

// CheckResult summarizes one CheckAll run
type CheckResult struct {
	Checked   int `json:"checked"`
	Triggered int `json:"triggered"`
	Cooldown  int `json:"cooldown"`
	NoData    int `json:"no_data"`
	Failed    int `json:"failed"`
}

// CheckAll evaluates enabled alerts against the latest snapshots
func (c *Checker) CheckAll(ctx context.Context) (*CheckResult, error) {
	alerts, err := c.alerts.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enabled alerts: %w", err)
	}

	res := &CheckResult{}
	snapshots := make(map[string]*contracts.IndicatorSnapshot)
	now := c.now()

	for _, a := range alerts {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Checked++

		if a.LastTriggered != nil && now.Sub(*a.LastTriggered) < c.cooldown {
			res.Cooldown++
			continue
		}

		snap, ok := snapshots[a.StockCode]
		if !ok {
			snap, err = c.snapshots.GetByCode(ctx, a.StockCode)
			if err != nil && !errors.Is(err, contracts.ErrNotFound) {
				c.logger.WithError(err).WithField("stock_code", a.StockCode).Error("Failed to load snapshot")
				res.Failed++
				continue
			}
			snapshots[a.StockCode] = snap
		}
		if snap == nil {
			res.NoData++
			continue
		}

		value, fired := Evaluate(a, snap)
		if !fired {
			continue
		}

		if err := c.fire(ctx, a, value, now); err != nil {
			c.logger.WithError(err).WithField("alert_id", a.ID).Error("Failed to dispatch alert")
			res.Failed++
			continue
		}
		res.Triggered++
	}

	c.logger.WithFields(map[string]interface{}{
		"checked":   res.Checked,
		"triggered": res.Triggered,
		"cooldown":  res.Cooldown,
		"failed":    res.Failed,
	}).Info("Alert check completed")

	return res, nil
}

func (c *Checker) fire(ctx context.Context, a *contracts.Alert, value decimal.Decimal, now time.Time) error {
	if err := c.alerts.MarkTriggered(ctx, a.ID, now); err != nil {
		return err
	}
	a.LastTriggered = &now

	n, ok := c.notifiers[a.NotifyChannel]
	if !ok {
		n = c.fallback
	}
	return n.Notify(ctx, contracts.AlertEvent{Alert: *a, Value: value, TriggeredAt: now})
}
