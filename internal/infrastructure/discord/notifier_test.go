package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ContentPipeline/internal/config"
	"ContentPipeline/internal/domain"
)

func TestNotifySendsEmbed(t *testing.T) {
	t.Parallel()

	var payload struct {
		Embeds []struct {
			Description string `json:"description"`
			Color       int    `json:"color"`
			Timestamp   string `json:"timestamp"`
		} `json:"embeds"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n := NewNotifier(config.DiscordConfig{WebhookURL: server.URL})
	if err := n.Notify(context.Background(), "Published: Ginger for Nausea", domain.SeveritySuccess); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(payload.Embeds) != 1 {
		t.Fatalf("expected one embed, got %d", len(payload.Embeds))
	}
	embed := payload.Embeds[0]
	if embed.Description != "Published: Ginger for Nausea" {
		t.Fatalf("unexpected description: %q", embed.Description)
	}
	if embed.Color != colorSuccess {
		t.Fatalf("unexpected color: %d", embed.Color)
	}
	if embed.Timestamp == "" {
		t.Fatal("timestamp missing")
	}
}

func TestNotifyColorsBySeverity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		severity domain.Severity
		want     int
	}{
		{domain.SeveritySuccess, colorSuccess},
		{domain.SeverityError, colorError},
		{domain.SeverityInfo, colorInfo},
	}
	for _, tc := range cases {
		if got := colorFor(tc.severity); got != tc.want {
			t.Fatalf("severity %q: got color %d, want %d", tc.severity, got, tc.want)
		}
	}
}

func TestNotifyWithoutWebhookErrors(t *testing.T) {
	t.Parallel()

	n := NewNotifier(config.DiscordConfig{})
	if err := n.Notify(context.Background(), "x", domain.SeverityInfo); err == nil {
		t.Fatal("expected error without webhook URL")
	}
}
