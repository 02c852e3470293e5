// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package discovery

import (
	"net/url"
	"strings"

	"github.com/haxny/archivist/internal/models"
)

// normalizeURLForMerge lowercases the host and strips a trailing slash so
// trivially-different URLs from different adapters compare equal.
func normalizeURLForMerge(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimRight(strings.TrimSpace(raw), "/")
	}
	host := strings.ToLower(u.Host)
	path := strings.TrimRight(u.Path, "/")
	return u.Scheme + "://" + host + path
}

// mergeDiscovered folds same-episode entries from every adapter into one
// record per episode, preferring ytdlp as primary and filling empty fields
// from the other layers in priority order (ytdlp, ajax, html, rapi).
// Matching is by ext_id first, then by normalized URL.
func mergeDiscovered(ytdlp, ajax, html, rapi []models.DiscoveredEpisode) []models.DiscoveredEpisode {
	byURL := make(map[string]*models.DiscoveredEpisode)
	byExtID := make(map[string]*models.DiscoveredEpisode)
	var order []string

	add := func(ep models.DiscoveredEpisode) {
		norm := normalizeURLForMerge(ep.URL)

		if ep.ExtID != "" {
			if existing, ok := byExtID[ep.ExtID]; ok {
				enrich(existing, ep)
				return
			}
		}
		if existing, ok := byURL[norm]; ok {
			learnedExtID := enrich(existing, ep)
			if learnedExtID != "" {
				byExtID[learnedExtID] = existing
			}
			return
		}

		copied := ep
		if copied.Sources == nil {
			copied.Sources = map[string]struct{}{}
			for s := range ep.Sources {
				copied.Sources[s] = struct{}{}
			}
		}
		byURL[norm] = &copied
		if ep.ExtID != "" {
			byExtID[ep.ExtID] = &copied
		}
		order = append(order, norm)
	}

	for _, batch := range [][]models.DiscoveredEpisode{ytdlp, ajax, html, rapi} {
		for _, ep := range batch {
			add(ep)
		}
	}

	out := make([]models.DiscoveredEpisode, 0, len(order))
	for _, norm := range order {
		out = append(out, *byURL[norm])
	}
	return out
}

// enrich fills target's empty fields from source, merging Sources
// unconditionally. When target had no ExtID and source supplies one, the
// caller must re-index that id in byExtID (enrich has no access to the
// map itself) — the learned id is returned for that purpose, or "" if
// ExtID was already set or source had none.
func enrich(target *models.DiscoveredEpisode, source models.DiscoveredEpisode) (learnedExtID string) {
	if target.Sources == nil {
		target.Sources = map[string]struct{}{}
	}
	for s := range source.Sources {
		target.Sources[s] = struct{}{}
	}
	if target.Title == "" && source.Title != "" {
		target.Title = source.Title
	}
	if target.ExtID == "" && source.ExtID != "" {
		target.ExtID = source.ExtID
		learnedExtID = source.ExtID
	}
	if target.DurationS == nil && source.DurationS != nil {
		target.DurationS = source.DurationS
	}
	if target.Description == "" && source.Description != "" {
		target.Description = source.Description
	}
	if target.PublishedAt == nil && source.PublishedAt != nil {
		target.PublishedAt = source.PublishedAt
	}
	if target.Author == "" && source.Author != "" {
		target.Author = source.Author
	}
	if target.Uploader == "" && source.Uploader != "" {
		target.Uploader = source.Uploader
	}
	if target.Series == "" && source.Series != "" {
		target.Series = source.Series
	}
	if target.EpisodeNumber == nil && source.EpisodeNumber != nil {
		target.EpisodeNumber = source.EpisodeNumber
	}
	if source.IsSeriesEpisode {
		target.IsSeriesEpisode = true
	}
	return learnedExtID
}
