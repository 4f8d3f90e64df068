package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Alert types
const (
	AlertDividend = "dividend"
	AlertPE       = "pe"
	AlertPB       = "pb"
	AlertPrice    = "price"
)

// Alert conditions
const (
	ConditionGT = "gt"
	ConditionLT = "lt"
	ConditionEQ = "eq"
)

// Notify channels
const (
	ChannelWebsocket = "websocket"
	ChannelEmail     = "email"
	ChannelWechat    = "wechat"
)

// Alert is a user's threshold rule on one stock metric
type Alert struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	StockID       string          `json:"-"`
	StockCode     string          `json:"stock_code"`
	AlertType     string          `json:"alert_type"`
	Condition     string          `json:"condition"`
	Threshold     decimal.Decimal `json:"threshold"`
	Enabled       bool            `json:"enabled"`
	NotifyChannel string          `json:"notify_channel"`
	LastTriggered *time.Time      `json:"last_triggered"`
	CreatedAt     time.Time       `json:"created_at"`
}

// AlertPatch is a partial update; nil fields are left unchanged
type AlertPatch struct {
	Threshold     *decimal.Decimal
	Condition     *string
	Enabled       *bool
	NotifyChannel *string
}

// AlertEvent is emitted when an alert fires
type AlertEvent struct {
	Alert       Alert           `json:"alert"`
	Value       decimal.Decimal `json:"value"`
	TriggeredAt time.Time       `json:"triggered_at"`
}
