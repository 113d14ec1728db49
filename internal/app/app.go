package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ContentPipeline/internal/config"
	"ContentPipeline/internal/infrastructure/airtable"
	"ContentPipeline/internal/infrastructure/assets"
	"ContentPipeline/internal/infrastructure/discord"
	"ContentPipeline/internal/infrastructure/llm"
	"ContentPipeline/internal/infrastructure/scheduler"
	"ContentPipeline/internal/infrastructure/storage"
	"ContentPipeline/internal/infrastructure/vector"
	"ContentPipeline/internal/infrastructure/wordpress"
	"ContentPipeline/internal/logging"
	"ContentPipeline/internal/ports"
	"ContentPipeline/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	controller *usecase.Controller
	publisher  *usecase.Publisher
}

// New builds a runnable application instance. DryRun propagates to both
// stages: selection and logging happen, mutations and notifications do not.
func New(cfg config.Config, baseLogger *slog.Logger, dryRun bool) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := buildStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("build record store: %w", err)
	}

	var notifier ports.Notifier
	if cfg.Notifications.Discord.WebhookURL != "" {
		notifier = discord.NewNotifier(cfg.Notifications.Discord)
	}

	retriever := vector.NewClient(cfg.Retrieval, baseLogger.With("component", "retriever"))
	synth := llm.NewClient(cfg.Synthesis)

	controller := usecase.NewController(usecase.ControllerDeps{
		Store:     store,
		Retriever: retriever,
		Synth:     synth,
		Notifier:  notifier,
		Logger:    baseLogger.With("component", "controller"),
		Options: usecase.ControllerOptions{
			BatchSize:         cfg.Controller.BatchSize,
			TopK:              cfg.Retrieval.TopK,
			MaxQueryChars:     cfg.Retrieval.MaxQueryChars,
			WriterPrompt:      cfg.Synthesis.WriterPrompt,
			MetadataPrompt:    cfg.Synthesis.MetadataPrompt,
			ArticleMaxTokens:  cfg.Synthesis.ArticleMaxTokens,
			MetadataMaxTokens: cfg.Synthesis.MetadataMaxTokens,
			DefaultCategory:   cfg.Synthesis.DefaultCategory,
			DryRun:            dryRun,
		},
	})

	publisher := usecase.NewPublisher(usecase.PublisherDeps{
		Store:    store,
		CMS:      wordpress.NewClient(cfg.WordPress),
		Assets:   assets.NewFetcher(),
		Notifier: notifier,
		Logger:   baseLogger.With("component", "publisher"),
		Options: usecase.PublisherOptions{
			BatchSize:        cfg.Publisher.BatchSize,
			SchedulePolicy:   usecase.SchedulePolicy(cfg.Publisher.SchedulePolicy),
			CategoryTaxonomy: cfg.Publisher.CategoryTaxonomy,
			TagTaxonomy:      cfg.Publisher.TagTaxonomy,
			DryRun:           dryRun,
		},
	})

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		controller: controller,
		publisher:  publisher,
	}, nil
}

func buildStore(cfg config.StoreConfig) (ports.RecordStore, error) {
	switch cfg.Backend {
	case "", "airtable":
		return airtable.NewStore(cfg.Airtable), nil
	case "postgres":
		db, err := storage.Open(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		return storage.NewPostgresStore(db, cfg.Database.Table), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// RunWrite executes one writing batch. The returned error marks a run-level
// fatal failure; per-record failures are reflected in the summary only.
func (a *Application) RunWrite(ctx context.Context) error {
	summary, err := a.controller.Run(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("write run complete", "succeeded", summary.Succeeded, "failed", summary.Failed)
	return nil
}

// RunPublish executes one publishing batch.
func (a *Application) RunPublish(ctx context.Context) error {
	summary, err := a.publisher.Run(ctx, time.Now())
	if err != nil {
		return err
	}
	a.logger.Info("publish run complete", "succeeded", summary.Succeeded, "failed", summary.Failed)
	return nil
}

// Serve runs both stages on the configured interval until the context ends.
func (a *Application) Serve(ctx context.Context) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.IntervalDuration())
	recurring := usecase.NewScheduler(driver, a.controller, a.publisher, a.logger.With("component", "scheduler"))

	if err := recurring.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	return recurring.Stop(context.Background())
}
