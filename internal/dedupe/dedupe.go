// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

// Package dedupe implements the three-tier deduplication cascade (C3):
// ext_id exact match, then normalized-URL match (with and without a
// trailing re-air suffix), then fuzzy title match over diacritic- and
// series-prefix-stripped titles. It never touches the database directly —
// callers pre-populate the existing side of the cascade from the catalog.
package dedupe

import (
	"github.com/haxny/archivist/internal/metrics"
	"github.com/haxny/archivist/internal/models"
)

// fuzzyTitleThreshold is the minimum similarityRatio for two titles to be
// considered the same episode; below this, distinct episodes with similar
// names (e.g. consecutive numbered parts) would otherwise collide.
const fuzzyTitleThreshold = 0.90

// minFuzzyTitleLength is the shortest normalized title considered for
// fuzzy matching; shorter titles produce too many false positives.
const minFuzzyTitleLength = 6

// ExistingEpisode is the subset of a catalog Episode the dedupe cascade
// needs to seed its "already known" index before scanning freshly
// discovered entries.
type ExistingEpisode struct {
	ExtID string
	URL   string
}

// Dedupe runs the three-tier cascade over freshly discovered entries,
// seeded with already-known episodes so discovery re-runs fold into
// existing catalog rows rather than creating duplicates. seriesPrefix, when
// non-empty, is stripped from the front of every title before comparison.
func Dedupe(entries []models.DiscoveredEpisode, existing []ExistingEpisode, seriesPrefix string) ([]models.DiscoveredEpisode, []models.DuplicateGroup) {
	const existingSentinel = -1

	seenExtIDs := make(map[string]int)
	seenURLs := make(map[string]int)
	seenURLsStripped := make(map[string]int)
	seenTitles := make(map[string]int)

	for _, ep := range existing {
		if ep.ExtID != "" {
			seenExtIDs[ep.ExtID] = existingSentinel
		}
		if ep.URL != "" {
			seenURLs[normalizeURL(ep.URL)] = existingSentinel
			seenURLsStripped[normalizeURLStripReair(ep.URL)] = existingSentinel
		}
	}

	var unique []models.DiscoveredEpisode
	var groups []models.DuplicateGroup

	for _, entry := range entries {
		normURL := normalizeURL(entry.URL)
		strippedURL := normalizeURLStripReair(entry.URL)
		normTitle := normalizeTitle(entry.Title, seriesPrefix)

		reason, targetIdx, isDup := classify(entry, normURL, strippedURL, normTitle, seenExtIDs, seenURLs, seenURLsStripped, seenTitles)

		if isDup {
			metrics.DedupeDuplicatesFound.WithLabelValues(string(reason)).Inc()
			if targetIdx >= 0 {
				canonical := unique[targetIdx]
				groups = append(groups, models.DuplicateGroup{
					CanonicalURL:   canonical.URL,
					CanonicalTitle: canonical.Title,
					Duplicates: []models.DuplicateEntry{
						{URL: entry.URL, Title: entry.Title, Reason: reason},
					},
				})
			} else {
				groups = append(groups, models.DuplicateGroup{
					CanonicalURL:   "(existing in catalog)",
					CanonicalTitle: "",
					Duplicates: []models.DuplicateEntry{
						{URL: entry.URL, Title: entry.Title, Reason: reason},
					},
				})
			}
			continue
		}

		idx := len(unique)
		unique = append(unique, entry)
		if entry.ExtID != "" {
			seenExtIDs[entry.ExtID] = idx
		}
		if normURL != "" {
			seenURLs[normURL] = idx
		}
		if strippedURL != "" {
			seenURLsStripped[strippedURL] = idx
		}
		if normTitle != "" {
			seenTitles[normTitle] = idx
		}
	}

	return unique, groups
}

func classify(
	entry models.DiscoveredEpisode,
	normURL, strippedURL, normTitle string,
	seenExtIDs, seenURLs, seenURLsStripped, seenTitles map[string]int,
) (models.MatchReason, int, bool) {
	if entry.ExtID != "" {
		if idx, ok := seenExtIDs[entry.ExtID]; ok {
			return models.MatchExtID, idx, true
		}
	}
	if normURL != "" {
		if idx, ok := seenURLs[normURL]; ok {
			return models.MatchURLExact, idx, true
		}
	}
	if strippedURL != "" {
		if idx, ok := seenURLsStripped[strippedURL]; ok {
			return models.MatchURLReair, idx, true
		}
	}
	if len(normTitle) >= minFuzzyTitleLength {
		for seenTitle, idx := range seenTitles {
			if similarityRatio(normTitle, seenTitle) > fuzzyTitleThreshold {
				return models.MatchTitleFuzzy, idx, true
			}
		}
	}
	return "", 0, false
}
