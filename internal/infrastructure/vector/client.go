// Package vector talks to an external vector-search service that returns
// ranked passages from the knowledge corpus.
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ContentPipeline/internal/config"
	"ContentPipeline/internal/ports"
)

// Client implements ports.Retriever over a JSON search endpoint. Retrieval is
// an enrichment: every failure path degrades to an empty result.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
}

var _ ports.Retriever = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(cfg config.RetrievalConfig, logger *slog.Logger) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

// Search returns up to topK passages ranked by relevance. Backend failures
// are logged and yield an empty slice, never an error.
func (c *Client) Search(ctx context.Context, text string, topK int) []string {
	if c.endpoint == "" {
		return nil
	}

	passages, err := c.search(ctx, text, topK)
	if err != nil {
		c.logger.Warn("evidence search failed", "error", err)
		return nil
	}
	return passages
}

func (c *Client) search(ctx context.Context, text string, topK int) ([]string, error) {
	body, err := json.Marshal(map[string]any{
		"query": text,
		"top_k": topK,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var payload struct {
		Passages []struct {
			Text  string  `json:"text"`
			Score float64 `json:"score"`
		} `json:"passages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	passages := make([]string, 0, len(payload.Passages))
	for _, p := range payload.Passages {
		if p.Text != "" {
			passages = append(passages, p.Text)
		}
	}
	return passages, nil
}
