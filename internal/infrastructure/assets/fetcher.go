// Package assets downloads externally hosted binary assets, currently the
// featured images referenced by pipeline records.
package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ContentPipeline/internal/ports"
)

// Asset downloads are capped; featured images larger than this fail the fetch.
const maxAssetBytes = 20 << 20

// Fetcher implements ports.AssetFetcher over plain HTTP.
type Fetcher struct {
	http *http.Client
}

var _ ports.AssetFetcher = (*Fetcher)(nil)

// NewFetcher creates a reusable asset downloader.
func NewFetcher() *Fetcher {
	return &Fetcher{http: &http.Client{Timeout: 60 * time.Second}}
}

// Fetch downloads the asset and reports its content type.
func (f *Fetcher) Fetch(ctx context.Context, target string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("new request: %w", err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxAssetBytes {
		return nil, "", fmt.Errorf("asset exceeds %d bytes", maxAssetBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if idx := strings.IndexByte(contentType, ';'); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	return data, contentType, nil
}
