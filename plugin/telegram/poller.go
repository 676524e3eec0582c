package telegram

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// UpdateHandler processes one update.
type UpdateHandler func(ctx context.Context, update *Update)

// Poller receives updates with getUpdates long polling.
type Poller struct {
	client  *Client
	timeout int
	backoff time.Duration
	logger  *slog.Logger
}

// NewPoller creates a poller that waits up to timeout seconds per request.
func NewPoller(client *Client, timeout int) *Poller {
	if timeout <= 0 {
		timeout = 30
	}
	return &Poller{
		client:  client,
		timeout: timeout,
		backoff: 3 * time.Second,
		logger:  slog.Default(),
	}
}

// Run polls until ctx is done, handing each update to handle in order.
func (p *Poller) Run(ctx context.Context, handle UpdateHandler) error {
	// Polling and a webhook are mutually exclusive.
	if err := p.client.DeleteWebhook(ctx); err != nil {
		p.logger.Warn("failed to delete webhook", "error", err)
	}
	p.logger.Info("telegram polling started", "timeout", p.timeout)

	var offset int64
	for {
		updates, err := p.client.GetUpdates(ctx, offset, p.timeout)
		if ctx.Err() != nil {
			p.logger.Info("telegram polling stopped")
			return nil
		}
		if err != nil {
			wait := p.backoff
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
				wait = time.Duration(apiErr.RetryAfter) * time.Second
			}
			p.logger.Error("failed to get updates", "error", err, "retry_in", wait)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}

		for i := range updates {
			update := &updates[i]
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			handle(ctx, update)
		}
	}
}
