// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

// LinkGrabber is a thin, opaque REST client for the JDownloader2-compatible
// alternate download backend: it only shapes the three named calls and
// passes field names through unchanged; the link-grabber server itself is
// out of scope to reimplement, same boundary the executor holds toward
// the extractor binary and the tagger collaborator.
package download

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// LinkGrabber talks to a local JDownloader2-compatible instance.
type LinkGrabber struct {
	baseURL    string
	httpClient *http.Client
}

// NewLinkGrabber builds a LinkGrabber targeting http://host:port.
func NewLinkGrabber(host string, port int, timeout time.Duration) *LinkGrabber {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &LinkGrabber{
		baseURL:    fmt.Sprintf("http://%s:%d", host, port),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// AddLinksRequest is passed through to POST /linkgrabberv2/addLinks
// unchanged; field names follow the JDownloader2 API verbatim.
type AddLinksRequest struct {
	Links       string `json:"links"`
	PackageName string `json:"packageName,omitempty"`
	DestFolder  string `json:"destinationFolder,omitempty"`
	AutoStart   bool   `json:"autostart"`
}

// AddLinks submits one or more URLs to the link grabber. Submission is
// fire-and-forget: a 2xx response means the grabber accepted the job, not
// that the download has completed — completion is observed later by a
// reconciliation sweep over the library directory.
func (g *LinkGrabber) AddLinks(ctx context.Context, req AddLinksRequest) error {
	return g.post(ctx, "/linkgrabberv2/addLinks", req, nil)
}

// QueryPackagesRequest controls which fields queryPackages returns.
type QueryPackagesRequest struct {
	BytesTotal bool `json:"bytesTotal"`
	Status     bool `json:"status"`
	SaveTo     bool `json:"saveTo"`
}

// Package is one entry from POST /downloadsV2/queryPackages.
type Package struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	SaveTo     string `json:"saveTo"`
	BytesTotal int64  `json:"bytesTotal"`
}

// QueryPackages lists packages currently known to the grabber, used by the
// post-processing sweep to discover finished downloads.
func (g *LinkGrabber) QueryPackages(ctx context.Context, req QueryPackagesRequest) ([]Package, error) {
	var out []Package
	if err := g.post(ctx, "/downloadsV2/queryPackages", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Version reports the grabber's version string, used as a lightweight
// reachability check.
func (g *LinkGrabber) Version(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/jd/version", nil)
	if err != nil {
		return "", fmt.Errorf("download: build version request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: link-grabber version: %w", err)
	}
	defer resp.Body.Close()
	var out struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("download: decode version response: %w", err)
	}
	return out.Version, nil
}

func (g *LinkGrabber) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("download: marshal %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("download: build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download: link-grabber %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download: link-grabber %s: HTTP %d", path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("download: decode %s response: %w", path, err)
		}
	}
	return nil
}
