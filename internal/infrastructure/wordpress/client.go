// Package wordpress implements the CMS collaborator over the WordPress REST
// API (taxonomy terms, media uploads, post creation).
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ContentPipeline/internal/config"
	"ContentPipeline/internal/ports"
)

// Client talks to a single WordPress site using application-password auth.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

var _ ports.CMS = (*Client)(nil)

// NewClient builds a CMS client from configuration.
func NewClient(cfg config.WordPressConfig) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.AppPassword,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

type termPayload struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ListTerms returns all terms of a taxonomy (first page, 100 entries).
func (c *Client) ListTerms(ctx context.Context, taxonomy string) ([]ports.Term, error) {
	return c.fetchTerms(ctx, taxonomy, url.Values{"per_page": {"100"}})
}

// SearchTerms returns terms of a taxonomy matching the query.
func (c *Client) SearchTerms(ctx context.Context, taxonomy, query string) ([]ports.Term, error) {
	return c.fetchTerms(ctx, taxonomy, url.Values{"search": {query}, "per_page": {"100"}})
}

func (c *Client) fetchTerms(ctx context.Context, taxonomy string, params url.Values) ([]ports.Term, error) {
	var payload []termPayload
	target := c.routeURL(taxonomy) + "?" + params.Encode()
	if err := c.do(ctx, http.MethodGet, target, nil, "", &payload); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", taxonomy, err)
	}

	terms := make([]ports.Term, 0, len(payload))
	for _, t := range payload {
		terms = append(terms, ports.Term{ID: t.ID, Name: t.Name})
	}
	return terms, nil
}

// CreateTerm creates a new taxonomy term and returns its identity.
func (c *Client) CreateTerm(ctx context.Context, taxonomy, name string) (ports.Term, error) {
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return ports.Term{}, fmt.Errorf("marshal term: %w", err)
	}

	var created termPayload
	if err := c.do(ctx, http.MethodPost, c.routeURL(taxonomy), body, "application/json", &created); err != nil {
		return ports.Term{}, fmt.Errorf("create %s term: %w", taxonomy, err)
	}
	return ports.Term{ID: created.ID, Name: created.Name}, nil
}

// UploadMedia pushes a binary asset to the media endpoint and returns its id.
func (c *Client) UploadMedia(ctx context.Context, data []byte, filename, contentType string) (int, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.routeURL("media"), bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	var created struct {
		ID int `json:"id"`
	}
	if err := c.send(req, &created); err != nil {
		return 0, fmt.Errorf("upload media: %w", err)
	}
	return created.ID, nil
}

// CreatePost creates an immediately visible post; no draft stage.
func (c *Client) CreatePost(ctx context.Context, post ports.Post) (ports.CreatedPost, error) {
	fields := map[string]any{
		"title":   post.Title,
		"content": post.Content,
		"excerpt": post.Excerpt,
		"status":  "publish",
	}
	if post.MediaID > 0 {
		fields["featured_media"] = post.MediaID
	}
	if len(post.Categories) > 0 {
		fields["categories"] = post.Categories
	}
	if len(post.Tags) > 0 {
		fields["tags"] = post.Tags
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return ports.CreatedPost{}, fmt.Errorf("marshal post: %w", err)
	}

	var created struct {
		ID   int    `json:"id"`
		Link string `json:"link"`
	}
	if err := c.do(ctx, http.MethodPost, c.routeURL("posts"), body, "application/json", &created); err != nil {
		return ports.CreatedPost{}, fmt.Errorf("create post: %w", err)
	}
	return ports.CreatedPost{ID: created.ID, Link: created.Link}, nil
}

func (c *Client) routeURL(route string) string {
	return c.baseURL + "/wp-json/wp/v2/" + route
}

func (c *Client) do(ctx context.Context, method, target string, body []byte, contentType string, v any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return c.send(req, v)
}

func (c *Client) send(req *http.Request, v any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("wordpress error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
