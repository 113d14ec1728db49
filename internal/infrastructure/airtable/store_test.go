package airtable

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"ContentPipeline/internal/config"
	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
)

func newTestStore(serverURL string) *Store {
	return NewStore(config.AirtableConfig{
		Endpoint: serverURL,
		BaseID:   "appBASE",
		TableID:  "tblTABLE",
		APIKey:   "secret",
	})
}

func TestSelectWhereBuildsFormula(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/appBASE/tblTABLE" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("unexpected auth header: %s", auth)
		}
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"records":[]}`))
	}))
	defer server.Close()

	store := newTestStore(server.URL)
	day := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)

	_, err := store.SelectWhere(context.Background(), ports.Query{
		Where: []ports.Clause{
			{Field: domain.FieldReleaseApproved, Op: ports.OpIsTrue},
			{Field: domain.FieldPublishedURL, Op: ports.OpEmpty},
			{Field: domain.FieldArticle, Op: ports.OpNotEmpty},
			{Field: domain.FieldPublicationDate, Op: ports.OpOnOrBefore, Value: day},
		},
		OrderBy:   domain.FieldPublicationDate,
		Ascending: true,
		Limit:     5,
	})
	if err != nil {
		t.Fatalf("select: %v", err)
	}

	wantFormula := `AND({release_approved} = TRUE(), {published_url} = "", {article} != "", AND({publication_date} != "", NOT(IS_AFTER({publication_date}, "2026-08-31"))))`
	if got := gotQuery.Get("filterByFormula"); got != wantFormula {
		t.Fatalf("unexpected formula:\n got: %s\nwant: %s", got, wantFormula)
	}
	if gotQuery.Get("sort[0][field]") != "publication_date" || gotQuery.Get("sort[0][direction]") != "asc" {
		t.Fatalf("unexpected sort params: %v", gotQuery)
	}
	if gotQuery.Get("maxRecords") != "5" {
		t.Fatalf("unexpected maxRecords: %s", gotQuery.Get("maxRecords"))
	}
}

func TestSelectWhereSingleClauseHasNoAnd(t *testing.T) {
	t.Parallel()

	formula := buildFormula([]ports.Clause{
		{Field: domain.FieldPipelineStatus, Op: ports.OpEq, Value: "queued"},
	})
	if formula != `{pipeline_status} = "queued"` {
		t.Fatalf("unexpected formula: %s", formula)
	}
}

func TestOnOrBeforeExcludesBlankDates(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)
	formula := buildFormula([]ports.Clause{
		{Field: domain.FieldPublicationDate, Op: ports.OpOnOrBefore, Value: day},
	})
	want := `AND({publication_date} != "", NOT(IS_AFTER({publication_date}, "2026-08-31")))`
	if formula != want {
		t.Fatalf("unexpected formula:\n got: %s\nwant: %s", formula, want)
	}

	// Without a bound the clause compares against the current day.
	formula = buildFormula([]ports.Clause{
		{Field: domain.FieldPublicationDate, Op: ports.OpOnOrBefore},
	})
	want = `AND({publication_date} != "", NOT(IS_AFTER({publication_date}, TODAY())))`
	if formula != want {
		t.Fatalf("unexpected formula:\n got: %s\nwant: %s", formula, want)
	}
}

func TestSelectWherePagination(t *testing.T) {
	t.Parallel()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			if r.URL.Query().Get("offset") != "" {
				t.Errorf("first page should have no offset")
			}
			_, _ = w.Write([]byte(`{"records":[{"id":"rec1","createdTime":"2026-08-01T10:00:00Z","fields":{"title":"One"}}],"offset":"page2"}`))
			return
		}
		if r.URL.Query().Get("offset") != "page2" {
			t.Errorf("second page missing offset, got %q", r.URL.Query().Get("offset"))
		}
		_, _ = w.Write([]byte(`{"records":[{"id":"rec2","createdTime":"2026-08-02T10:00:00Z","fields":{"title":"Two"}}]}`))
	}))
	defer server.Close()

	records, err := newTestStore(server.URL).SelectWhere(context.Background(), ports.Query{})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 page fetches, got %d", calls)
	}
	if len(records) != 2 || records[0].ID != "rec1" || records[1].ID != "rec2" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestFindByIDMapsFields(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/appBASE/tblTABLE/rec9" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"id": "rec9",
			"createdTime": "2026-08-20T08:30:00Z",
			"fields": {
				"title": "Ginger for Nausea",
				"brief": "ginger for nausea",
				"pipeline_status": "review",
				"article": "body",
				"tags": "ginger, nausea",
				"categories": ["Natural Remedies"],
				"release_approved": true,
				"publication_date": "2026-08-30",
				"target_word_count": 1200,
				"priority_order": 2
			}
		}`))
	}))
	defer server.Close()

	rec, err := newTestStore(server.URL).FindByID(context.Background(), "rec9")
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	if rec.Title != "Ginger for Nausea" || rec.PipelineStatus != domain.StatusReview {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(rec.Metadata.Tags) != 2 || rec.Metadata.Tags[0] != "ginger" {
		t.Fatalf("comma tags not split: %v", rec.Metadata.Tags)
	}
	if len(rec.Metadata.Categories) != 1 || rec.Metadata.Categories[0] != "Natural Remedies" {
		t.Fatalf("multi-select categories not read: %v", rec.Metadata.Categories)
	}
	if !rec.ReleaseApproved {
		t.Fatal("approval flag not read")
	}
	if rec.PublicationDate == nil || rec.PublicationDate.Format("2006-01-02") != "2026-08-30" {
		t.Fatalf("publication date not parsed: %v", rec.PublicationDate)
	}
	if rec.TargetWordCount != 1200 || rec.PriorityOrder != 2 {
		t.Fatalf("numeric fields not read: %+v", rec)
	}
	if rec.CreatedAt.IsZero() {
		t.Fatal("created time not parsed")
	}
}

func TestUpdateFieldsPatches(t *testing.T) {
	t.Parallel()

	var gotMethod string
	var gotBody map[string]map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":"rec1","fields":{}}`))
	}))
	defer server.Close()

	err := newTestStore(server.URL).UpdateFields(context.Background(), "rec1", map[string]any{
		domain.FieldPipelineStatus: "review",
		domain.FieldCategories:     []string{"Natural Remedies", "Herbal Teas"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Fatalf("expected PATCH, got %s", gotMethod)
	}
	fields := gotBody["fields"]
	if fields["pipeline_status"] != "review" {
		t.Fatalf("unexpected status field: %v", fields)
	}
	if fields["categories"] != "Natural Remedies, Herbal Teas" {
		t.Fatalf("list field not joined: %v", fields["categories"])
	}
}

func TestUpdateFieldsErrorSurfacesStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"INVALID_REQUEST"}`, http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	err := newTestStore(server.URL).UpdateFields(context.Background(), "rec1", map[string]any{"title": "x"})
	if err == nil {
		t.Fatal("expected error from 422 response")
	}
}
