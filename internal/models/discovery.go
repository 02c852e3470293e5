// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package models

import "time"

// DiscoveredEpisode is one episode record as produced by a discovery
// source adapter, before dedupe/ingest. Source-specific fields that don't
// map onto the named properties below are carried opaquely in Original so
// merge logic never needs to know a source's exact shape.
type DiscoveredEpisode struct {
	URL            string     `json:"url"`
	Title          string     `json:"title"`
	ExtID          string     `json:"ext_id,omitempty"`
	DurationS      *int       `json:"duration_s,omitempty"`
	Description    string     `json:"description,omitempty"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	Series         string     `json:"series,omitempty"`
	Author         string     `json:"author,omitempty"`
	Uploader       string     `json:"uploader,omitempty"`
	IsSeriesEpisode bool      `json:"is_series_episode,omitempty"`
	EpisodeNumber  *int       `json:"episode_number,omitempty"`

	// Sources names every adapter that contributed to this merged record.
	Sources map[string]struct{} `json:"sources"`
	// Original carries adapter-specific fields merge logic never reads.
	Original map[string]any `json:"original,omitempty"`
}

// MatchReason names why a discovered entry was folded into an existing
// canonical one.
type MatchReason string

const (
	MatchExtID        MatchReason = "ext_id"
	MatchURLExact      MatchReason = "url_exact"
	MatchURLReair      MatchReason = "url_reair"
	MatchTitleFuzzy    MatchReason = "title_fuzzy"
	MatchExistingInDB  MatchReason = "existing_in_db"
)

// DuplicateEntry records one discovered item folded into a canonical one.
type DuplicateEntry struct {
	URL    string      `json:"url"`
	Title  string      `json:"title"`
	Reason MatchReason `json:"reason"`
}

// DuplicateGroup records a canonical discovered/existing target and every
// candidate folded into it.
type DuplicateGroup struct {
	CanonicalURL   string           `json:"canonical_url"`
	CanonicalTitle string           `json:"canonical_title"`
	Duplicates     []DuplicateEntry `json:"duplicates"`
}
