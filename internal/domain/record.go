package domain

import "time"

// PipelineStatus enumerates the lifecycle states of a content record.
type PipelineStatus string

const (
	// StatusNone marks a record that has not entered the pipeline yet.
	StatusNone      PipelineStatus = ""
	StatusQueued    PipelineStatus = "queued"
	StatusWriting   PipelineStatus = "writing"
	StatusReview    PipelineStatus = "review"
	StatusError     PipelineStatus = "error"
	StatusPublished PipelineStatus = "published"
)

// Canonical record field names shared by every record-store adapter.
const (
	FieldTitle            = "title"
	FieldBrief            = "brief"
	FieldPipelineStatus   = "pipeline_status"
	FieldArticle          = "article"
	FieldTags             = "tags"
	FieldExcerpt          = "excerpt"
	FieldSEOKeyword       = "seo_keyword"
	FieldSocialShort      = "social_short"
	FieldSocialThread     = "social_thread"
	FieldVideoScript      = "video_script"
	FieldImagePrompt      = "image_prompt"
	FieldCategories       = "categories"
	FieldReleaseApproved  = "release_approved"
	FieldPublicationDate  = "publication_date"
	FieldFeaturedImageRef = "featured_image_url"
	FieldPublishedURL     = "published_url"
	FieldAngle            = "angle"
	FieldSubject          = "subject"
	FieldBatchID          = "batch_id"
	FieldTargetWordCount  = "target_word_count"
	FieldPriorityOrder    = "priority_order"
	FieldHeadlineQueueID  = "headline_queue_id"
	FieldCreatedAt        = "created_at"
)

// Record is one unit of content moving through the pipeline.
type Record struct {
	ID              string
	Title           string
	Brief           string
	PipelineStatus  PipelineStatus
	Article         string
	Metadata        DerivedMetadata
	ReleaseApproved bool
	PublicationDate *time.Time
	FeaturedImage   string
	PublishedURL    string

	SEOKeyword      string
	Angle           string
	Subject         string
	BatchID         string
	TargetWordCount int
	PriorityOrder   int
	HeadlineQueueID string

	CreatedAt time.Time
}

// DerivedMetadata is the structured bundle produced from a generated article.
// Every field is independently optional; absent values take policy defaults.
type DerivedMetadata struct {
	Tags         []string `json:"tags"`
	Excerpt      string   `json:"excerpt"`
	SEOKeyword   string   `json:"seo_keyword"`
	SocialShort  string   `json:"social_short"`
	SocialThread string   `json:"social_thread"`
	VideoScript  string   `json:"video_script"`
	ImagePrompt  string   `json:"image_prompt"`
	Categories   []string `json:"categories"`
}

// RunSummary aggregates per-run outcomes; it is the externally observable
// result of a controller or publisher invocation.
type RunSummary struct {
	Succeeded int
	Failed    int
}

// Severity labels outbound notifications for channel-specific rendering.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)
