package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultInterval = 24 * time.Hour

	configPathEnv     = "CONTENT_PIPELINE_CONFIG"
	airtableKeyEnv    = "AIRTABLE_API_KEY"
	databaseDSNEnv    = "DATABASE_DSN"
	anthropicKeyEnv   = "ANTHROPIC_API_KEY"
	discordWebhookEnv = "DISCORD_WEBHOOK_URL"
	wordpressPassEnv  = "WORDPRESS_APP_PASSWORD"
	vectorKeyEnv      = "VECTOR_API_KEY"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Store         StoreConfig        `yaml:"store"`
	Retrieval     RetrievalConfig    `yaml:"retrieval"`
	Synthesis     SynthesisConfig    `yaml:"synthesis"`
	Controller    ControllerConfig   `yaml:"controller"`
	Publisher     PublisherConfig    `yaml:"publisher"`
	WordPress     WordPressConfig    `yaml:"wordpress"`
	Notifications NotificationConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StoreConfig selects and configures the record-store backend.
type StoreConfig struct {
	Backend  string         `yaml:"backend"` // "airtable" or "postgres"
	Airtable AirtableConfig `yaml:"airtable"`
	Database DatabaseConfig `yaml:"database"`
}

// AirtableConfig describes the Airtable base holding the articles table.
type AirtableConfig struct {
	Endpoint string `yaml:"endpoint"`
	BaseID   string `yaml:"baseId"`
	TableID  string `yaml:"tableId"`
	APIKey   string `yaml:"apiKey"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// RetrievalConfig defines how evidence search is performed.
type RetrievalConfig struct {
	Endpoint      string `yaml:"endpoint"`
	APIKey        string `yaml:"apiKey"`
	TopK          int    `yaml:"topK"`
	MaxQueryChars int    `yaml:"maxQueryChars"`
}

// SynthesisConfig defines how to contact the generation backend.
type SynthesisConfig struct {
	Model             string `yaml:"model"`
	APIKey            string `yaml:"apiKey"`
	ArticleMaxTokens  int    `yaml:"articleMaxTokens"`
	MetadataMaxTokens int    `yaml:"metadataMaxTokens"`
	WriterPrompt      string `yaml:"writerPrompt"`
	MetadataPrompt    string `yaml:"metadataPrompt"`
	DefaultCategory   string `yaml:"defaultCategory"`
}

// ControllerConfig bounds a single writing run.
type ControllerConfig struct {
	BatchSize int `yaml:"batchSize"`
}

// PublisherConfig bounds a single publishing run and fixes its policy.
type PublisherConfig struct {
	BatchSize        int    `yaml:"batchSize"`
	SchedulePolicy   string `yaml:"schedulePolicy"` // "due" or "any"
	CategoryTaxonomy string `yaml:"categoryTaxonomy"`
	TagTaxonomy      string `yaml:"tagTaxonomy"`
}

// WordPressConfig wires the CMS endpoint and credentials.
type WordPressConfig struct {
	BaseURL     string `yaml:"baseUrl"`
	Username    string `yaml:"username"`
	AppPassword string `yaml:"appPassword"`
}

// NotificationConfig encapsulates outbound channels (Discord, etc.).
type NotificationConfig struct {
	Discord DiscordConfig `yaml:"discord"`
}

// DiscordConfig wires the webhook used for run notifications.
type DiscordConfig struct {
	WebhookURL string `yaml:"webhookUrl"`
}

// SchedulerConfig defines the cadence of daemon-mode runs.
type SchedulerConfig struct {
	Interval string `yaml:"interval"`
}

// IntervalDuration resolves the configured interval string, falling back to
// one run per day when absent or unparseable.
func (s SchedulerConfig) IntervalDuration() time.Duration {
	if s.Interval == "" {
		return defaultInterval
	}
	d, err := time.ParseDuration(s.Interval)
	if err != nil || d <= 0 {
		log.Printf("config: invalid scheduler interval %q, using %s", s.Interval, defaultInterval)
		return defaultInterval
	}
	return d
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(airtableKeyEnv); v != "" {
		c.Store.Airtable.APIKey = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Store.Database.DSN = v
	}

	if v := os.Getenv(anthropicKeyEnv); v != "" {
		c.Synthesis.APIKey = v
	}

	if v := os.Getenv(discordWebhookEnv); v != "" {
		c.Notifications.Discord.WebhookURL = v
	}

	if v := os.Getenv(wordpressPassEnv); v != "" {
		c.WordPress.AppPassword = v
	}

	if v := os.Getenv(vectorKeyEnv); v != "" {
		c.Retrieval.APIKey = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Store.Backend != "" {
		base.Store.Backend = override.Store.Backend
	}
	if override.Store.Airtable.Endpoint != "" {
		base.Store.Airtable.Endpoint = override.Store.Airtable.Endpoint
	}
	if override.Store.Airtable.BaseID != "" {
		base.Store.Airtable.BaseID = override.Store.Airtable.BaseID
	}
	if override.Store.Airtable.TableID != "" {
		base.Store.Airtable.TableID = override.Store.Airtable.TableID
	}
	if override.Store.Airtable.APIKey != "" {
		base.Store.Airtable.APIKey = override.Store.Airtable.APIKey
	}
	if override.Store.Database.DSN != "" {
		base.Store.Database.DSN = override.Store.Database.DSN
	}
	if override.Store.Database.Table != "" {
		base.Store.Database.Table = override.Store.Database.Table
	}

	if override.Retrieval.Endpoint != "" {
		base.Retrieval.Endpoint = override.Retrieval.Endpoint
	}
	if override.Retrieval.APIKey != "" {
		base.Retrieval.APIKey = override.Retrieval.APIKey
	}
	if override.Retrieval.TopK > 0 {
		base.Retrieval.TopK = override.Retrieval.TopK
	}
	if override.Retrieval.MaxQueryChars > 0 {
		base.Retrieval.MaxQueryChars = override.Retrieval.MaxQueryChars
	}

	if override.Synthesis.Model != "" {
		base.Synthesis.Model = override.Synthesis.Model
	}
	if override.Synthesis.APIKey != "" {
		base.Synthesis.APIKey = override.Synthesis.APIKey
	}
	if override.Synthesis.ArticleMaxTokens > 0 {
		base.Synthesis.ArticleMaxTokens = override.Synthesis.ArticleMaxTokens
	}
	if override.Synthesis.MetadataMaxTokens > 0 {
		base.Synthesis.MetadataMaxTokens = override.Synthesis.MetadataMaxTokens
	}
	if override.Synthesis.WriterPrompt != "" {
		base.Synthesis.WriterPrompt = override.Synthesis.WriterPrompt
	}
	if override.Synthesis.MetadataPrompt != "" {
		base.Synthesis.MetadataPrompt = override.Synthesis.MetadataPrompt
	}
	if override.Synthesis.DefaultCategory != "" {
		base.Synthesis.DefaultCategory = override.Synthesis.DefaultCategory
	}

	if override.Controller.BatchSize > 0 {
		base.Controller.BatchSize = override.Controller.BatchSize
	}

	if override.Publisher.BatchSize > 0 {
		base.Publisher.BatchSize = override.Publisher.BatchSize
	}
	if override.Publisher.SchedulePolicy != "" {
		base.Publisher.SchedulePolicy = override.Publisher.SchedulePolicy
	}
	if override.Publisher.CategoryTaxonomy != "" {
		base.Publisher.CategoryTaxonomy = override.Publisher.CategoryTaxonomy
	}
	if override.Publisher.TagTaxonomy != "" {
		base.Publisher.TagTaxonomy = override.Publisher.TagTaxonomy
	}

	if override.WordPress.BaseURL != "" {
		base.WordPress.BaseURL = override.WordPress.BaseURL
	}
	if override.WordPress.Username != "" {
		base.WordPress.Username = override.WordPress.Username
	}
	if override.WordPress.AppPassword != "" {
		base.WordPress.AppPassword = override.WordPress.AppPassword
	}

	if override.Notifications.Discord.WebhookURL != "" {
		base.Notifications.Discord.WebhookURL = override.Notifications.Discord.WebhookURL
	}

	if override.Scheduler.Interval != "" {
		base.Scheduler.Interval = override.Scheduler.Interval
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Store: StoreConfig{
			Backend: "airtable",
			Airtable: AirtableConfig{
				Endpoint: "https://api.airtable.com/v0",
			},
			Database: DatabaseConfig{Table: "records"},
		},
		Retrieval: RetrievalConfig{
			TopK:          5,
			MaxQueryChars: 300,
		},
		Synthesis: SynthesisConfig{
			Model:             "claude-sonnet-4-20250514",
			ArticleMaxTokens:  6000,
			MetadataMaxTokens: 1500,
			WriterPrompt:      defaultWriterPrompt,
			MetadataPrompt:    defaultMetadataPrompt,
			DefaultCategory:   "Natural Remedies",
		},
		Controller: ControllerConfig{BatchSize: 5},
		Publisher: PublisherConfig{
			BatchSize:        5,
			SchedulePolicy:   "due",
			CategoryTaxonomy: "categories",
			TagTaxonomy:      "tags",
		},
		Scheduler: SchedulerConfig{Interval: "24h"},
	}
}

const defaultWriterPrompt = `You are a long-form content writer for a natural health publication.
Write a complete markdown article for the given title and brief.
Ground every factual claim in the supplied evidence when evidence is present.
Start with a level-1 heading, use level-2 headings for sections, and keep the tone practical.`

const defaultMetadataPrompt = `You derive structured metadata from a finished article.
Respond with a single JSON object containing the keys:
tags (array of strings), excerpt, seo_keyword, social_short, social_thread,
video_script, image_prompt, categories (array of strings).
Respond with JSON only, no commentary.`
