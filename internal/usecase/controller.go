package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
)

// ControllerOptions bound a single writing run and fix its prompts.
type ControllerOptions struct {
	BatchSize         int
	TopK              int
	MaxQueryChars     int
	WriterPrompt      string
	MetadataPrompt    string
	ArticleMaxTokens  int
	MetadataMaxTokens int
	DefaultCategory   string
	DryRun            bool
}

// ControllerDeps wires all driven adapters into the writing stage.
type ControllerDeps struct {
	Store     ports.RecordStore
	Retriever ports.Retriever
	Synth     ports.Synthesizer
	Notifier  ports.Notifier
	Logger    *slog.Logger
	Options   ControllerOptions
}

// Controller selects queued records, claims them, and drives each one through
// evidence retrieval, synthesis, and persistence. Records fail in isolation;
// only a failed selection aborts the run.
type Controller struct {
	store     ports.RecordStore
	retriever ports.Retriever
	synth     ports.Synthesizer
	notifier  ports.Notifier
	logger    *slog.Logger
	opts      ControllerOptions
}

// NewController constructs the writing-stage orchestrator.
func NewController(deps ControllerDeps) *Controller {
	return &Controller{
		store:     deps.Store,
		retriever: deps.Retriever,
		synth:     deps.Synth,
		notifier:  deps.Notifier,
		logger:    deps.Logger,
		opts:      deps.Options,
	}
}

// eligibilityQuery selects records that entered the pipeline but have no
// article yet: queued status, empty article, non-empty brief, oldest first.
func (c *Controller) eligibilityQuery() ports.Query {
	return ports.Query{
		Where: []ports.Clause{
			{Field: domain.FieldPipelineStatus, Op: ports.OpEq, Value: string(domain.StatusQueued)},
			{Field: domain.FieldArticle, Op: ports.OpEmpty},
			{Field: domain.FieldBrief, Op: ports.OpNotEmpty},
		},
		OrderBy:   domain.FieldCreatedAt,
		Ascending: true,
		Limit:     c.opts.BatchSize,
	}
}

// Run executes one writing batch and reports per-record outcomes.
func (c *Controller) Run(ctx context.Context) (domain.RunSummary, error) {
	var summary domain.RunSummary

	records, err := c.store.SelectWhere(ctx, c.eligibilityQuery())
	if err != nil {
		c.notify(ctx, fmt.Sprintf("Writing run aborted: cannot select queued records: %v", err), domain.SeverityError)
		return summary, fmt.Errorf("select queued records: %w", err)
	}

	c.logger.Info("writing run started", "selected", len(records), "dry_run", c.opts.DryRun)

	if c.opts.DryRun {
		for _, rec := range records {
			c.logger.Info("dry run: would write", "id", rec.ID, "title", rec.Title)
		}
		return summary, nil
	}

	for _, rec := range records {
		if err := c.processRecord(ctx, rec); err != nil {
			summary.Failed++
			c.logger.Error("record failed", "id", rec.ID, "title", rec.Title, "error", err)
			c.markError(ctx, rec)
			c.notify(ctx, fmt.Sprintf("Writing failed for %q: %v", rec.Title, err), domain.SeverityError)
			continue
		}
		summary.Succeeded++
	}

	c.logger.Info("writing run finished", "succeeded", summary.Succeeded, "failed", summary.Failed)
	return summary, nil
}

func (c *Controller) processRecord(ctx context.Context, rec domain.Record) error {
	if err := c.store.UpdateFields(ctx, rec.ID, map[string]any{
		domain.FieldPipelineStatus: string(domain.StatusWriting),
	}); err != nil {
		return fmt.Errorf("claim record: %w", err)
	}

	evidence := c.retrieveEvidence(ctx, rec)

	article, err := c.synth.Complete(ctx, c.opts.WriterPrompt, c.articlePrompt(rec, evidence), c.opts.ArticleMaxTokens)
	if err != nil {
		return fmt.Errorf("synthesize article: %w", err)
	}
	if strings.TrimSpace(article) == "" {
		return fmt.Errorf("synthesize article: empty output")
	}

	metaRaw, err := c.synth.Complete(ctx, c.opts.MetadataPrompt, article, c.opts.MetadataMaxTokens)
	if err != nil {
		return fmt.Errorf("synthesize metadata: %w", err)
	}

	meta := ParseDerivedMetadata(metaRaw)
	meta = ApplyMetadataDefaults(meta, c.opts.DefaultCategory)

	if err := c.store.UpdateFields(ctx, rec.ID, map[string]any{
		domain.FieldArticle:      article,
		domain.FieldTags:         meta.Tags,
		domain.FieldExcerpt:      meta.Excerpt,
		domain.FieldSEOKeyword:   meta.SEOKeyword,
		domain.FieldSocialShort:  meta.SocialShort,
		domain.FieldSocialThread: meta.SocialThread,
		domain.FieldVideoScript:  meta.VideoScript,
		domain.FieldImagePrompt:  meta.ImagePrompt,
		domain.FieldCategories:   meta.Categories,
	}); err != nil {
		return fmt.Errorf("persist article: %w", err)
	}

	if err := c.store.UpdateFields(ctx, rec.ID, map[string]any{
		domain.FieldPipelineStatus: string(domain.StatusReview),
	}); err != nil {
		return fmt.Errorf("advance to review: %w", err)
	}

	c.notify(ctx, fmt.Sprintf("Article ready for review: %q\nCategories: %s\nOpen the record, review the draft, then set the release approval.",
		rec.Title, strings.Join(meta.Categories, ", ")), domain.SeveritySuccess)
	return nil
}

// retrieveEvidence searches the knowledge corpus with a bounded query built
// from title and brief. Evidence is an enrichment, not a precondition: an
// empty result is a valid outcome.
func (c *Controller) retrieveEvidence(ctx context.Context, rec domain.Record) string {
	terms := strings.TrimSpace(rec.Title + " " + rec.Brief)
	if c.opts.MaxQueryChars > 0 && len(terms) > c.opts.MaxQueryChars {
		cut := c.opts.MaxQueryChars
		for cut > 0 && !utf8.RuneStart(terms[cut]) {
			cut--
		}
		terms = terms[:cut]
	}

	passages := c.retriever.Search(ctx, terms, c.opts.TopK)
	if len(passages) == 0 {
		c.logger.Warn("no evidence retrieved", "id", rec.ID, "title", rec.Title)
		return ""
	}
	return strings.Join(passages, "\n\n")
}

func (c *Controller) articlePrompt(rec domain.Record, evidence string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n\nBrief:\n%s\n", rec.Title, rec.Brief)
	if rec.SEOKeyword != "" {
		fmt.Fprintf(&b, "\nPrimary keyword: %s\n", rec.SEOKeyword)
	}
	if rec.TargetWordCount > 0 {
		fmt.Fprintf(&b, "\nTarget length: about %d words\n", rec.TargetWordCount)
	}
	if evidence != "" {
		fmt.Fprintf(&b, "\nEvidence:\n%s\n", evidence)
	}
	return b.String()
}

// markError reverts a failed record out of the writing state. A failure to
// even write the error status is logged, not escalated: a degraded record
// store must not cascade into a run abort.
func (c *Controller) markError(ctx context.Context, rec domain.Record) {
	err := c.store.UpdateFields(ctx, rec.ID, map[string]any{
		domain.FieldPipelineStatus: string(domain.StatusError),
	})
	if err != nil {
		c.logger.Error("cannot mark record as error", "id", rec.ID, "error", err)
	}
}

func (c *Controller) notify(ctx context.Context, message string, severity domain.Severity) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(ctx, message, severity); err != nil {
		c.logger.Warn("notification failed", "error", err)
	}
}
