// Package airtable implements the record store against the Airtable REST API.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ContentPipeline/internal/config"
	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
)

const pageSize = 100

// Store talks to a single Airtable table holding pipeline records.
type Store struct {
	endpoint string
	baseID   string
	tableID  string
	apiKey   string
	client   *http.Client
}

var _ ports.RecordStore = (*Store)(nil)

// NewStore builds a store from configuration.
func NewStore(cfg config.AirtableConfig) *Store {
	return &Store{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		baseID:   cfg.BaseID,
		tableID:  cfg.TableID,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type apiRecord struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime"`
	Fields      map[string]any `json:"fields"`
}

type listResponse struct {
	Records []apiRecord `json:"records"`
	Offset  string      `json:"offset"`
}

// SelectWhere lists records matching the predicate, following Airtable
// pagination until the limit is reached.
func (s *Store) SelectWhere(ctx context.Context, q ports.Query) ([]domain.Record, error) {
	params := url.Values{}
	if formula := buildFormula(q.Where); formula != "" {
		params.Set("filterByFormula", formula)
	}
	if q.OrderBy != "" {
		params.Set("sort[0][field]", q.OrderBy)
		direction := "desc"
		if q.Ascending {
			direction = "asc"
		}
		params.Set("sort[0][direction]", direction)
	}
	if q.Limit > 0 {
		params.Set("maxRecords", strconv.Itoa(q.Limit))
	}
	params.Set("pageSize", strconv.Itoa(pageSize))

	var records []domain.Record
	for {
		var page listResponse
		if err := s.do(ctx, http.MethodGet, s.tableURL()+"?"+params.Encode(), nil, &page); err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}

		for _, raw := range page.Records {
			records = append(records, toRecord(raw))
		}

		if page.Offset == "" || (q.Limit > 0 && len(records) >= q.Limit) {
			break
		}
		params.Set("offset", page.Offset)
	}

	if q.Limit > 0 && len(records) > q.Limit {
		records = records[:q.Limit]
	}
	return records, nil
}

// UpdateFields patches the named fields of one record.
func (s *Store) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	payload := map[string]any{"fields": toAPIFields(fields)}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	if err := s.do(ctx, http.MethodPatch, s.tableURL()+"/"+url.PathEscape(id), body, nil); err != nil {
		return fmt.Errorf("update record %s: %w", id, err)
	}
	return nil
}

// FindByID fetches a single record.
func (s *Store) FindByID(ctx context.Context, id string) (domain.Record, error) {
	var raw apiRecord
	if err := s.do(ctx, http.MethodGet, s.tableURL()+"/"+url.PathEscape(id), nil, &raw); err != nil {
		return domain.Record{}, fmt.Errorf("find record %s: %w", id, err)
	}
	return toRecord(raw), nil
}

func (s *Store) tableURL() string {
	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.baseID, s.tableID)
}

func (s *Store) do(ctx context.Context, method, target string, body []byte, v any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("airtable error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// buildFormula translates a clause conjunction into filterByFormula syntax.
func buildFormula(clauses []ports.Clause) string {
	if len(clauses) == 0 {
		return ""
	}

	parts := make([]string, 0, len(clauses))
	for _, clause := range clauses {
		parts = append(parts, clauseFormula(clause))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "AND(" + strings.Join(parts, ", ") + ")"
}

func clauseFormula(clause ports.Clause) string {
	field := "{" + clause.Field + "}"
	switch clause.Op {
	case ports.OpEq:
		return fmt.Sprintf("%s = %s", field, quoteFormula(clause.Value))
	case ports.OpEmpty:
		return fmt.Sprintf("%s = \"\"", field)
	case ports.OpNotEmpty:
		return fmt.Sprintf("%s != \"\"", field)
	case ports.OpIsTrue:
		return fmt.Sprintf("%s = TRUE()", field)
	case ports.OpOnOrBefore:
		day := "TODAY()"
		if t, ok := clause.Value.(time.Time); ok {
			day = fmt.Sprintf("\"%s\"", t.Format("2006-01-02"))
		}
		// IS_AFTER(BLANK(), d) is blank and NOT(blank) passes, so an unset
		// date needs its own guard.
		return fmt.Sprintf("AND(%s != \"\", NOT(IS_AFTER(%s, %s)))", field, field, day)
	default:
		return "TRUE()"
	}
}

func quoteFormula(v any) string {
	text := fmt.Sprintf("%v", v)
	return "\"" + strings.ReplaceAll(text, "\"", "\\\"") + "\""
}

// toAPIFields adapts canonical field values to Airtable column values. List
// fields live in long-text columns as comma-separated text.
func toAPIFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for name, value := range fields {
		if list, ok := value.([]string); ok {
			out[name] = strings.Join(list, ", ")
			continue
		}
		out[name] = value
	}
	return out
}

func toRecord(raw apiRecord) domain.Record {
	f := fieldReader{fields: raw.Fields}

	rec := domain.Record{
		ID:              raw.ID,
		Title:           f.str(domain.FieldTitle),
		Brief:           f.str(domain.FieldBrief),
		PipelineStatus:  domain.PipelineStatus(f.str(domain.FieldPipelineStatus)),
		Article:         f.str(domain.FieldArticle),
		ReleaseApproved: f.boolean(domain.FieldReleaseApproved),
		PublicationDate: f.date(domain.FieldPublicationDate),
		FeaturedImage:   f.str(domain.FieldFeaturedImageRef),
		PublishedURL:    f.str(domain.FieldPublishedURL),
		SEOKeyword:      f.str(domain.FieldSEOKeyword),
		Angle:           f.str(domain.FieldAngle),
		Subject:         f.str(domain.FieldSubject),
		BatchID:         f.str(domain.FieldBatchID),
		TargetWordCount: f.number(domain.FieldTargetWordCount),
		PriorityOrder:   f.number(domain.FieldPriorityOrder),
		HeadlineQueueID: f.str(domain.FieldHeadlineQueueID),
		Metadata: domain.DerivedMetadata{
			Tags:         f.list(domain.FieldTags),
			Excerpt:      f.str(domain.FieldExcerpt),
			SEOKeyword:   f.str(domain.FieldSEOKeyword),
			SocialShort:  f.str(domain.FieldSocialShort),
			SocialThread: f.str(domain.FieldSocialThread),
			VideoScript:  f.str(domain.FieldVideoScript),
			ImagePrompt:  f.str(domain.FieldImagePrompt),
			Categories:   f.list(domain.FieldCategories),
		},
	}

	if created, err := time.Parse(time.RFC3339, raw.CreatedTime); err == nil {
		rec.CreatedAt = created
	}
	return rec
}

type fieldReader struct {
	fields map[string]any
}

func (f fieldReader) str(name string) string {
	if v, ok := f.fields[name].(string); ok {
		return v
	}
	return ""
}

func (f fieldReader) boolean(name string) bool {
	if v, ok := f.fields[name].(bool); ok {
		return v
	}
	return false
}

func (f fieldReader) number(name string) int {
	if v, ok := f.fields[name].(float64); ok {
		return int(v)
	}
	return 0
}

// list reads either a comma-separated text column or a multi-select array.
func (f fieldReader) list(name string) []string {
	switch v := f.fields[name].(type) {
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (f fieldReader) date(name string) *time.Time {
	raw, ok := f.fields[name].(string)
	if !ok || raw == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
