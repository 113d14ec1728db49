package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")

	cfg := Load()

	if cfg.Store.Backend != "airtable" {
		t.Fatalf("unexpected default backend: %s", cfg.Store.Backend)
	}
	if cfg.Retrieval.TopK != 5 || cfg.Retrieval.MaxQueryChars != 300 {
		t.Fatalf("unexpected retrieval defaults: %+v", cfg.Retrieval)
	}
	if cfg.Publisher.SchedulePolicy != "due" {
		t.Fatalf("unexpected schedule policy: %s", cfg.Publisher.SchedulePolicy)
	}
	if cfg.Synthesis.WriterPrompt == "" || cfg.Synthesis.MetadataPrompt == "" {
		t.Fatal("default prompts missing")
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("store:\n  backend: postgres\ncontroller:\n  batchSize: 2\npublisher:\n  schedulePolicy: any\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()

	if cfg.Store.Backend != "postgres" {
		t.Fatalf("file override ignored: %s", cfg.Store.Backend)
	}
	if cfg.Controller.BatchSize != 2 {
		t.Fatalf("batch size override ignored: %d", cfg.Controller.BatchSize)
	}
	if cfg.Publisher.SchedulePolicy != "any" {
		t.Fatalf("schedule policy override ignored: %s", cfg.Publisher.SchedulePolicy)
	}
	if cfg.Store.Airtable.Endpoint == "" {
		t.Fatal("defaults lost during merge")
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(anthropicKeyEnv, "env-key")
	t.Setenv(discordWebhookEnv, "https://discord.example/hook")

	cfg := Load()

	if cfg.Synthesis.APIKey != "env-key" {
		t.Fatalf("env key not applied: %s", cfg.Synthesis.APIKey)
	}
	if cfg.Notifications.Discord.WebhookURL != "https://discord.example/hook" {
		t.Fatalf("webhook env not applied: %s", cfg.Notifications.Discord.WebhookURL)
	}
}

func TestIntervalDuration(t *testing.T) {
	cases := []struct {
		interval string
		want     time.Duration
	}{
		{"", defaultInterval},
		{"1h30m", 90 * time.Minute},
		{"nonsense", defaultInterval},
		{"-5m", defaultInterval},
	}
	for _, tc := range cases {
		if got := (SchedulerConfig{Interval: tc.interval}).IntervalDuration(); got != tc.want {
			t.Fatalf("interval %q: got %s, want %s", tc.interval, got, tc.want)
		}
	}
}
