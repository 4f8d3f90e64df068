package redis

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publish sends value as JSON on channel. No-op when disabled.
func (c *Client) Publish(ctx context.Context, channel string, value interface{}) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("publish marshal failed: %w", err)
	}
	if err := c.rdb.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe calls handle for each message on channel until ctx is done.
// It returns immediately when disabled.
func (c *Client) Subscribe(ctx context.Context, channel string, handle func(payload []byte)) error {
	if !c.enabled {
		return nil
	}

	sub := c.rdb.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			handle([]byte(msg.Payload))
		}
	}
}
