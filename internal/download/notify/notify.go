// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

// Package notify triggers a library-manager (Audiobookshelf-compatible)
// scan after a download completes, so newly written files get picked up
// without waiting on that system's own filesystem watch.
//
// Ported from original_source/audiobiblio/abs_client.py's
// trigger_library_scan: best-effort, never returns an error to the
// caller, and falls back to the first library returned by
// GET /api/libraries when no library id is configured.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/haxny/archivist/internal/config"
	"github.com/haxny/archivist/internal/logging"
)

// Notifier triggers a library scan on a configured library manager.
type Notifier struct {
	baseURL    string
	apiKey     string
	libraryID  string
	httpClient *http.Client
}

// New builds a Notifier from LibraryNotifyConfig. A Notifier with an empty
// URL is valid; TriggerScan on it is a documented no-op.
func New(cfg config.LibraryNotifyConfig) *Notifier {
	return &Notifier{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		libraryID:  cfg.LibraryID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// TriggerScan asks the library manager to rescan. It never returns an
// error to the caller — a failed notification must not fail a download
// job — but reports whether the scan request was accepted, for metrics
// and logging.
func (n *Notifier) TriggerScan(ctx context.Context) bool {
	if n.baseURL == "" {
		logging.Ctx(ctx).Warn().Msg("library notify not configured, skipping scan trigger")
		return false
	}

	libraryID := n.libraryID
	if libraryID == "" {
		id, err := n.firstLibraryID(ctx)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("library notify: list libraries failed")
			return false
		}
		if id == "" {
			logging.Ctx(ctx).Warn().Msg("library notify: no libraries found")
			return false
		}
		libraryID = id
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/libraries/%s/scan", n.baseURL, libraryID), nil)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("library notify: build scan request failed")
		return false
	}
	n.setHeaders(req)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("library notify: scan request failed")
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logging.Ctx(ctx).Error().Int("status", resp.StatusCode).Msg("library notify: scan request rejected")
		return false
	}

	logging.Ctx(ctx).Info().Str("library_id", libraryID).Msg("library scan triggered")
	return true
}

func (n *Notifier) firstLibraryID(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/api/libraries", nil)
	if err != nil {
		return "", fmt.Errorf("notify: build list request: %w", err)
	}
	n.setHeaders(req)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("notify: list libraries: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("notify: list libraries: HTTP %d", resp.StatusCode)
	}

	var out struct {
		Libraries []struct {
			ID string `json:"id"`
		} `json:"libraries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("notify: decode libraries response: %w", err)
	}
	if len(out.Libraries) == 0 {
		return "", nil
	}
	return out.Libraries[0].ID, nil
}

func (n *Notifier) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")
}
