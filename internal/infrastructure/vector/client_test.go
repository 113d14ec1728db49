package vector

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"ContentPipeline/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSearchReturnsPassages(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer vec-key" {
			t.Errorf("unexpected auth header: %s", auth)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["query"] != "ginger for nausea" || body["top_k"] != float64(3) {
			t.Errorf("unexpected request body: %v", body)
		}
		_, _ = w.Write([]byte(`{"passages":[{"text":"Ginger reduces nausea.","score":0.91},{"text":"","score":0.4},{"text":"Second passage.","score":0.2}]}`))
	}))
	defer server.Close()

	client := NewClient(config.RetrievalConfig{Endpoint: server.URL, APIKey: "vec-key"}, testLogger())
	passages := client.Search(context.Background(), "ginger for nausea", 3)

	if len(passages) != 2 {
		t.Fatalf("expected 2 non-empty passages, got %v", passages)
	}
	if passages[0] != "Ginger reduces nausea." {
		t.Fatalf("unexpected first passage: %q", passages[0])
	}
}

func TestSearchFailuresDegradeToEmpty(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(config.RetrievalConfig{Endpoint: server.URL}, testLogger())
	if passages := client.Search(context.Background(), "anything", 5); passages != nil {
		t.Fatalf("expected nil on backend failure, got %v", passages)
	}
}

func TestSearchWithoutEndpointIsNoop(t *testing.T) {
	t.Parallel()

	client := NewClient(config.RetrievalConfig{}, testLogger())
	if passages := client.Search(context.Background(), "anything", 5); passages != nil {
		t.Fatalf("expected nil without endpoint, got %v", passages)
	}
}
