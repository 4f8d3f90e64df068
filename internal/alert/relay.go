package alert

import (
	"context"
	"encoding/json"

	"github.com/wonny/valuescope/backend/internal/contracts"
	"github.com/wonny/valuescope/backend/pkg/logger"
)

// EventChannel is the pub/sub channel fired alerts travel on between processes
const EventChannel = "valuescope:alerts"

// Broker publishes and subscribes JSON messages. *redis.Client implements it.
type Broker interface {
	Publish(ctx context.Context, channel string, value interface{}) error
	Subscribe(ctx context.Context, channel string, handle func(payload []byte)) error
}

// Publisher is a Notifier that hands events to the API process over the broker
type Publisher struct {
	broker Broker
}

// NewPublisher creates a broker-backed notifier
func NewPublisher(b Broker) *Publisher {
	return &Publisher{broker: b}
}

// Notify publishes the event
func (p *Publisher) Notify(ctx context.Context, event contracts.AlertEvent) error {
	return p.broker.Publish(ctx, EventChannel, event)
}

// Relay forwards published events to n (the websocket hub) until ctx is done
func Relay(ctx context.Context, b Broker, n Notifier, log *logger.Logger) error {
	log = log.WithField("module", "alert_relay")

	return b.Subscribe(ctx, EventChannel, func(payload []byte) {
		var event contracts.AlertEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			log.WithError(err).Warn("Dropping malformed alert event")
			return
		}
		if err := n.Notify(ctx, event); err != nil {
			log.WithError(err).WithField("alert_id", event.Alert.ID).Error("Failed to relay alert")
		}
	})
}
