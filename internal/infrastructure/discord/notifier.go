// Package discord delivers run notifications to a Discord webhook as embeds.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ContentPipeline/internal/config"
	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
)

// Embed colors by severity.
const (
	colorSuccess = 5814783  // sage green
	colorError   = 15548997 // red
	colorInfo    = 3447003  // blue
)

// Notifier posts human-readable messages to a Discord webhook. Callers treat
// delivery as best-effort and swallow returned errors.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers the webhook endpoint.
func NewNotifier(cfg config.DiscordConfig) *Notifier {
	return &Notifier{
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// Notify posts one embed with a severity-specific color.
func (n *Notifier) Notify(ctx context.Context, message string, severity domain.Severity) error {
	if n.webhookURL == "" || n.client == nil {
		return fmt.Errorf("discord notifier misconfigured")
	}

	payload, err := json.Marshal(map[string]any{
		"embeds": []map[string]any{{
			"description": message,
			"color":       colorFor(severity),
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		}},
	})
	if err != nil {
		return fmt.Errorf("marshal embed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("discord error: %s", resp.Status)
	}
	return nil
}

func colorFor(severity domain.Severity) int {
	switch severity {
	case domain.SeveritySuccess:
		return colorSuccess
	case domain.SeverityError:
		return colorError
	default:
		return colorInfo
	}
}
