package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/markup"
	"ContentPipeline/internal/ports"
)

const maxSlugLen = 80

// SchedulePolicy decides how the publication date gates eligibility.
type SchedulePolicy string

const (
	// PolicyDue selects only records whose publication date is set and due.
	PolicyDue SchedulePolicy = "due"
	// PolicyAny ignores the publication date entirely.
	PolicyAny SchedulePolicy = "any"
)

// PublisherOptions bound a single publishing run and fix its policy.
type PublisherOptions struct {
	BatchSize        int
	SchedulePolicy   SchedulePolicy
	CategoryTaxonomy string
	TagTaxonomy      string
	DryRun           bool
}

// PublisherDeps wires all driven adapters into the publishing stage.
type PublisherDeps struct {
	Store    ports.RecordStore
	CMS      ports.CMS
	Assets   ports.AssetFetcher
	Notifier ports.Notifier
	Logger   *slog.Logger
	Options  PublisherOptions
}

// Publisher cross-posts approved, content-ready records to the CMS. A record
// is published at most once across any number of runs: the selection filter
// excludes anything with a permalink already recorded.
type Publisher struct {
	store    ports.RecordStore
	cms      ports.CMS
	assets   ports.AssetFetcher
	notifier ports.Notifier
	logger   *slog.Logger
	opts     PublisherOptions

	// termCache maps "taxonomy/lowercased name" to a resolved term id so
	// identical names within one run reconcile to a single term.
	termCache map[string]int
}

// NewPublisher constructs the publishing-stage orchestrator.
func NewPublisher(deps PublisherDeps) *Publisher {
	return &Publisher{
		store:     deps.Store,
		cms:       deps.CMS,
		assets:    deps.Assets,
		notifier:  deps.Notifier,
		logger:    deps.Logger,
		opts:      deps.Options,
		termCache: map[string]int{},
	}
}

// eligibilityQuery selects approved, unpublished records with content and an
// image reference. The date clause depends on the configured policy.
func (p *Publisher) eligibilityQuery(now time.Time) ports.Query {
	where := []ports.Clause{
		{Field: domain.FieldReleaseApproved, Op: ports.OpIsTrue},
		{Field: domain.FieldPublishedURL, Op: ports.OpEmpty},
		{Field: domain.FieldArticle, Op: ports.OpNotEmpty},
		{Field: domain.FieldFeaturedImageRef, Op: ports.OpNotEmpty},
	}
	if p.opts.SchedulePolicy != PolicyAny {
		where = append(where, ports.Clause{
			Field: domain.FieldPublicationDate,
			Op:    ports.OpOnOrBefore,
			Value: now,
		})
	}
	return ports.Query{
		Where:     where,
		OrderBy:   domain.FieldPublicationDate,
		Ascending: true,
		Limit:     p.opts.BatchSize,
	}
}

// Run executes one publishing batch and reports per-record outcomes.
func (p *Publisher) Run(ctx context.Context, now time.Time) (domain.RunSummary, error) {
	var summary domain.RunSummary

	records, err := p.store.SelectWhere(ctx, p.eligibilityQuery(now))
	if err != nil {
		p.notify(ctx, fmt.Sprintf("Publishing run aborted: cannot select approved records: %v", err), domain.SeverityError)
		return summary, fmt.Errorf("select approved records: %w", err)
	}

	p.logger.Info("publishing run started", "selected", len(records), "dry_run", p.opts.DryRun)

	if p.opts.DryRun {
		for _, rec := range records {
			p.logger.Info("dry run: would publish", "id", rec.ID, "title", rec.Title)
		}
		return summary, nil
	}

	for _, rec := range records {
		link, err := p.publishRecord(ctx, rec)
		if err != nil {
			summary.Failed++
			p.logger.Error("publish failed", "id", rec.ID, "title", rec.Title, "error", err)
			p.notify(ctx, fmt.Sprintf("Publishing failed for %q: %v", rec.Title, err), domain.SeverityError)
			continue
		}
		summary.Succeeded++
		p.notify(ctx, fmt.Sprintf("Published %q\n%s", rec.Title, link), domain.SeveritySuccess)
	}

	p.logger.Info("publishing run finished", "succeeded", summary.Succeeded, "failed", summary.Failed)
	return summary, nil
}

func (p *Publisher) publishRecord(ctx context.Context, rec domain.Record) (string, error) {
	mediaID, err := p.uploadFeaturedImage(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("featured image: %w", err)
	}

	categoryIDs, err := p.resolveTerms(ctx, p.opts.CategoryTaxonomy, rec.Metadata.Categories)
	if err != nil {
		return "", fmt.Errorf("resolve categories: %w", err)
	}

	tagIDs, err := p.resolveTerms(ctx, p.opts.TagTaxonomy, splitTags(rec.Metadata.Tags))
	if err != nil {
		return "", fmt.Errorf("resolve tags: %w", err)
	}

	created, err := p.cms.CreatePost(ctx, ports.Post{
		Title:      rec.Title,
		Content:    markup.ToHTML(rec.Article),
		Excerpt:    rec.Metadata.Excerpt,
		MediaID:    mediaID,
		Categories: categoryIDs,
		Tags:       tagIDs,
	})
	if err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}

	if err := p.store.UpdateFields(ctx, rec.ID, map[string]any{
		domain.FieldPublishedURL:   created.Link,
		domain.FieldPipelineStatus: string(domain.StatusPublished),
	}); err != nil {
		return "", fmt.Errorf("record permalink: %w", err)
	}

	return created.Link, nil
}

// uploadFeaturedImage fetches the referenced asset and pushes it to the CMS
// media endpoint. A record without an image reference publishes without one.
func (p *Publisher) uploadFeaturedImage(ctx context.Context, rec domain.Record) (int, error) {
	if rec.FeaturedImage == "" {
		return 0, nil
	}

	data, contentType, err := p.assets.Fetch(ctx, rec.FeaturedImage)
	if err != nil {
		return 0, fmt.Errorf("fetch asset: %w", err)
	}

	filename := Slugify(rec.Title) + extensionFor(contentType, rec.FeaturedImage)
	id, err := p.cms.UploadMedia(ctx, data, filename, contentType)
	if err != nil {
		return 0, fmt.Errorf("upload media: %w", err)
	}
	return id, nil
}

// resolveTerms maps taxonomy names to CMS term ids, reusing existing terms on
// a case-insensitive match and creating missing ones exactly once per run.
func (p *Publisher) resolveTerms(ctx context.Context, taxonomy string, names []string) ([]int, error) {
	var ids []int
	seen := map[int]bool{}

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		id, err := p.resolveTerm(ctx, taxonomy, name)
		if err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (p *Publisher) resolveTerm(ctx context.Context, taxonomy, name string) (int, error) {
	key := taxonomy + "/" + strings.ToLower(name)
	if id, ok := p.termCache[key]; ok {
		return id, nil
	}

	terms, err := p.cms.SearchTerms(ctx, taxonomy, name)
	if err != nil {
		return 0, fmt.Errorf("search %s %q: %w", taxonomy, name, err)
	}
	for _, term := range terms {
		if strings.EqualFold(term.Name, name) {
			p.termCache[key] = term.ID
			return term.ID, nil
		}
	}

	term, err := p.cms.CreateTerm(ctx, taxonomy, name)
	if err != nil {
		return 0, fmt.Errorf("create %s %q: %w", taxonomy, name, err)
	}
	p.termCache[key] = term.ID
	return term.ID, nil
}

func (p *Publisher) notify(ctx context.Context, message string, severity domain.Severity) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Notify(ctx, message, severity); err != nil {
		p.logger.Warn("notification failed", "error", err)
	}
}

// Slugify derives a filesystem-safe slug from a title: lowercased, runs of
// non-alphanumerics collapsed to single dashes, length-capped.
func Slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		slug = "untitled"
	}
	return slug
}

// splitTags normalizes tag entries that may themselves be comma-separated
// free text into a flat list of names.
func splitTags(tags []string) []string {
	var out []string
	for _, entry := range tags {
		for _, part := range strings.Split(entry, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func extensionFor(contentType, ref string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	if ext := path.Ext(ref); ext != "" && len(ext) <= 5 {
		return ext
	}
	return ".jpg"
}
