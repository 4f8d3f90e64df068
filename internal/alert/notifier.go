package alert

import (
	"context"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

// Notifier delivers a fired alert to its owner
type Notifier interface {
	Notify(ctx context.Context, event contracts.AlertEvent) error
}

// LogNotifier records events in the log. It backs channels without a delivery integration.
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier creates a logging notifier
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log.WithField("module", "alert_notifier")}
}

// Notify logs the event
func (n *LogNotifier) Notify(ctx context.Context, event contracts.AlertEvent) error {
	n.logger.WithFields(map[string]interface{}{
		"alert_id":   event.Alert.ID,
		"user_id":    event.Alert.UserID,
		"stock_code": event.Alert.StockCode,
		"alert_type": event.Alert.AlertType,
		"condition":  event.Alert.Condition,
		"threshold":  event.Alert.Threshold.String(),
		"value":      event.Value.String(),
		"channel":    event.Alert.NotifyChannel,
	}).Info("Alert triggered")
	return nil
}
