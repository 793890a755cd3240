package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"gearshare/internal/pkg/config"
	"gearshare/internal/usecase/commands"
)

// Client delivers lifecycle events to an external webhook. Delivery is best
// effort: failures are logged and swallowed so a dead notification endpoint
// never blocks a state transition. With no endpoint configured, events are
// only logged.
type Client struct {
	http     *http.Client
	endpoint string
}

func NewClient(cfg config.NotifyConfig) *Client {
	return &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		endpoint: cfg.BaseURL,
	}
}

func (c *Client) Publish(ctx context.Context, event commands.LifecycleEvent) {
	slog.InfoContext(ctx, "reservation lifecycle event",
		slog.String("kind", event.Kind),
		slog.String("reservation_id", event.ReservationID.String()),
		slog.String("reference", event.Reference),
	)

	if c.endpoint == "" {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode lifecycle event", slog.Any("error", err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		slog.ErrorContext(ctx, "failed to build notification request", slog.Any("error", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "notification delivery failed",
			slog.String("kind", event.Kind),
			slog.Any("error", err),
		)
		return
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		slog.WarnContext(ctx, "notification endpoint returned error",
			slog.String("kind", event.Kind),
			slog.Int("status", resp.StatusCode),
		)
	}
}
