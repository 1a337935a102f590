package auth

import (
	"context"
	"time"
)

// AutoRefreshTick is how often the auto-refresh loop checks the session.
const AutoRefreshTick = 30 * time.Second

// StartAutoRefresh keeps the session fresh in the background until ctx is
// done or StopAutoRefresh is called. Starting it twice is a no-op.
func (c *Client) StartAutoRefresh(ctx context.Context) {
	c.autoMu.Lock()
	defer c.autoMu.Unlock()
	if c.autoCancel != nil || c.placeholder {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.autoCancel = cancel
	c.autoDone = done

	go func() {
		defer close(done)
		ticker := c.clock.NewTicker(AutoRefreshTick)
		defer ticker.Stop()

		c.refreshIfDue(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				c.refreshIfDue(ctx)
			}
		}
	}()
}

// StopAutoRefresh stops the background loop and waits for it to exit.
func (c *Client) StopAutoRefresh() {
	c.autoMu.Lock()
	cancel, done := c.autoCancel, c.autoDone
	c.autoCancel, c.autoDone = nil, nil
	c.autoMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *Client) refreshIfDue(ctx context.Context) {
	s, err := c.currentSession()
	if err != nil {
		c.log.Debugf("auto refresh: %v", err)
		return
	}
	if s == nil || s.RefreshToken == "" || !s.ExpiresWithin(ExpiryMargin, c.clock.Now()) {
		return
	}
	if _, err := c.refresh(ctx, s); err != nil {
		c.log.Warnf("auto refresh failed: %v", err)
	}
}
