package supabase

import (
	"context"
	"errors"
	"time"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/logx"
)

// AutoRefresh checks the session every interval and refreshes it when it
// is within the refresh margin of expiry. It returns when ctx is done.
func (c *Client) AutoRefresh(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.refreshIfDue(ctx)
		}
	}
}

func (c *Client) refreshIfDue(ctx context.Context) {
	s := c.current()
	if s == nil || !s.ExpiresWithin(c.now(), c.margin) {
		return
	}
	if _, err := c.refresh(ctx); err != nil && !errors.Is(err, gateway.ErrNoSession) {
		logx.FromContext(ctx).Warn("session refresh failed", logx.Error(err))
	}
}
