package cache

import (
	"context"
	"fmt"
	"time"
)

// Cooldown allows one action per key per window
type Cooldown struct {
	client *Client
	window time.Duration
	prefix string
}

func NewCooldown(client *Client, prefix string, window time.Duration) *Cooldown {
	return &Cooldown{client: client, window: window, prefix: prefix}
}

// Acquire reports whether the caller may act now. The first caller in a
// window takes the slot; the key expires on its own.
func (c *Cooldown) Acquire(ctx context.Context, key string) (bool, error) {
	if c == nil || c.client == nil {
		return true, nil
	}
	ok, err := c.client.rdb.SetNX(ctx, fmt.Sprintf("cooldown:%s:%s", c.prefix, key), 1, c.window).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
