// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haxny/archivist/internal/discovery"
	"github.com/haxny/archivist/internal/models"
)

// WebpageSaver fetches an Episode's source page and saves a copy alongside
// its other assets. Ported from downloader.py's _download_webpage: GET
// with redirects followed, Content-Type must be text/html, and the body is
// written to disk unchanged (no charset conversion).
type WebpageSaver struct {
	httpClient *http.Client
}

// NewWebpageSaver builds a WebpageSaver with the given request timeout.
func NewWebpageSaver(timeout time.Duration) *WebpageSaver {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebpageSaver{httpClient: &http.Client{Timeout: timeout}}
}

// FetchWebpage implements WebpageFetcher.
func (w *WebpageSaver) FetchWebpage(ctx context.Context, ep models.Episode, paths Paths) (FetchResult, error) {
	if ep.URL == "" {
		return FetchResult{}, fmt.Errorf("download: episode %d has no URL", ep.ID)
	}
	if err := os.MkdirAll(paths.BaseDir, 0o755); err != nil {
		return FetchResult{}, fmt.Errorf("download: create %s: %w", paths.BaseDir, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.URL, nil)
	if err != nil {
		return FetchResult{}, fmt.Errorf("download: build webpage request: %w", err)
	}
	req.Header.Set("User-Agent", discovery.BrowserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return FetchResult{}, fmt.Errorf("download: fetch webpage %s: %w", ep.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return FetchResult{}, &ErrUpstreamGone{Cause: fmt.Errorf("webpage %s: HTTP %d", ep.URL, resp.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return FetchResult{}, fmt.Errorf("download: webpage %s: HTTP %d", ep.URL, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/html") {
		return FetchResult{}, fmt.Errorf("download: expected text/html, got Content-Type=%q", contentType)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FetchResult{}, fmt.Errorf("download: read webpage body: %w", err)
	}

	htmlPath := filepath.Join(paths.BaseDir, paths.Stem+".html")
	if err := os.WriteFile(htmlPath, body, 0o644); err != nil {
		return FetchResult{}, fmt.Errorf("download: write webpage %s: %w", htmlPath, err)
	}

	return FetchResult{FilePath: htmlPath, SizeBytes: int64(len(body))}, nil
}
