package ports

import (
	"context"
	"time"

	"ContentPipeline/internal/domain"
)

// Op is a predicate operator supported by every record-store adapter.
type Op string

const (
	OpEq         Op = "eq"           // field equals Value
	OpEmpty      Op = "empty"        // field is empty/unset
	OpNotEmpty   Op = "not_empty"    // field is non-empty
	OpIsTrue     Op = "is_true"      // boolean field is true
	OpOnOrBefore Op = "on_or_before" // date field <= Value (time.Time)
)

// Clause is a single condition over one record field.
type Clause struct {
	Field string
	Op    Op
	Value any
}

// Query is a conjunction of clauses with ordering and a result cap.
type Query struct {
	Where     []Clause
	OrderBy   string
	Ascending bool
	Limit     int
}

// RecordStore persists records and their state transitions.
type RecordStore interface {
	SelectWhere(ctx context.Context, q Query) ([]domain.Record, error)
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	FindByID(ctx context.Context, id string) (domain.Record, error)
}

// Retriever searches a knowledge corpus for supporting passages. A backend
// failure yields an empty result, not an error; callers log and proceed.
type Retriever interface {
	Search(ctx context.Context, text string, topK int) []string
}

// Synthesizer produces text from a system instruction and a user prompt.
// Errors are fatal to the generation step that requested them.
type Synthesizer interface {
	Complete(ctx context.Context, system, prompt string, maxTokens int) (string, error)
}

// Term is a named taxonomy entry in the publishing system.
type Term struct {
	ID   int
	Name string
}

// Post carries everything needed to create a remote CMS post.
type Post struct {
	Title      string
	Content    string
	Excerpt    string
	MediaID    int
	Categories []int
	Tags       []int
}

// CreatedPost is the remote identity of a published post.
type CreatedPost struct {
	ID   int
	Link string
}

// CMS is the remote publishing endpoint.
type CMS interface {
	ListTerms(ctx context.Context, taxonomy string) ([]Term, error)
	SearchTerms(ctx context.Context, taxonomy, query string) ([]Term, error)
	CreateTerm(ctx context.Context, taxonomy, name string) (Term, error)
	UploadMedia(ctx context.Context, data []byte, filename, contentType string) (int, error)
	CreatePost(ctx context.Context, post Post) (CreatedPost, error)
}

// AssetFetcher downloads externally hosted binary assets (featured images).
type AssetFetcher interface {
	Fetch(ctx context.Context, url string) (data []byte, contentType string, err error)
}

// Notifier delivers human-readable run outcomes. Delivery is best-effort:
// callers swallow and log returned errors, never propagate them.
type Notifier interface {
	Notify(ctx context.Context, message string, severity domain.Severity) error
}

// Scheduler controls when recurring pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
