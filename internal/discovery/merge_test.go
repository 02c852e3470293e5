// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package discovery

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haxny/archivist/internal/models"
)

func TestNormalizeRozhlasURL(t *testing.T) {
	got := NormalizeRozhlasURL("https://plus.rozhlas.cz/hlasy-pameti-9391766")
	require.Equal(t, "https://www.mujrozhlas.cz/hlasy-pameti", got)

	// Already-mujrozhlas URLs pass through unchanged.
	unchanged := "https://www.mujrozhlas.cz/hlasy-pameti"
	require.Equal(t, unchanged, NormalizeRozhlasURL(unchanged))

	// Non rozhlas.cz hosts pass through unchanged.
	other := "https://example.test/show"
	require.Equal(t, other, NormalizeRozhlasURL(other))
}

func TestIsRozhlasVsMujRozhlas(t *testing.T) {
	require.True(t, isRozhlas("https://plus.rozhlas.cz/show-123"))
	require.False(t, isRozhlas("https://www.mujrozhlas.cz/show"))
	require.True(t, isMujRozhlas("https://www.mujrozhlas.cz/show"))
	require.False(t, isMujRozhlas("https://plus.rozhlas.cz/show-123"))
}

func TestMergeDiscovered_MatchesByExtIDAcrossSources(t *testing.T) {
	ytdlp := []models.DiscoveredEpisode{
		{URL: "https://www.mujrozhlas.cz/show/ep1", Title: "Episode One", ExtID: "abc-123", Sources: map[string]struct{}{"ytdlp": {}}},
	}
	ajax := []models.DiscoveredEpisode{
		{URL: "https://www.mujrozhlas.cz/show/ep1/", ExtID: "abc-123", DurationS: intPtr(600), Sources: map[string]struct{}{"ajax": {}}},
	}

	merged := mergeDiscovered(ytdlp, ajax, nil, nil)
	require.Len(t, merged, 1)
	require.Equal(t, "Episode One", merged[0].Title)
	require.NotNil(t, merged[0].DurationS)
	require.Equal(t, 600, *merged[0].DurationS)
	_, hasYtdlp := merged[0].Sources["ytdlp"]
	_, hasAjax := merged[0].Sources["ajax"]
	require.True(t, hasYtdlp)
	require.True(t, hasAjax)
}

func TestMergeDiscovered_MatchesByNormalizedURLWhenNoExtID(t *testing.T) {
	ytdlp := []models.DiscoveredEpisode{
		{URL: "https://www.mujrozhlas.cz/show/EP1", Title: "Episode One", Sources: map[string]struct{}{"ytdlp": {}}},
	}
	html := []models.DiscoveredEpisode{
		{URL: "https://WWW.mujrozhlas.cz/show/EP1/", Title: "", Sources: map[string]struct{}{"html": {}}},
	}

	merged := mergeDiscovered(ytdlp, nil, html, nil)
	require.Len(t, merged, 1)
	require.Equal(t, "Episode One", merged[0].Title)
}

func TestMergeDiscovered_DoesNotOverwriteExistingFields(t *testing.T) {
	ytdlp := []models.DiscoveredEpisode{
		{URL: "https://www.mujrozhlas.cz/show/ep1", Title: "Original Title", Description: "original", Sources: map[string]struct{}{"ytdlp": {}}},
	}
	ajax := []models.DiscoveredEpisode{
		{URL: "https://www.mujrozhlas.cz/show/ep1", Title: "Should Not Win", Description: "should not win", Sources: map[string]struct{}{"ajax": {}}},
	}

	merged := mergeDiscovered(ytdlp, ajax, nil, nil)
	require.Len(t, merged, 1)
	require.Equal(t, "Original Title", merged[0].Title)
	require.Equal(t, "original", merged[0].Description)
}

func TestMergeDiscovered_DistinctEpisodesStaySeparate(t *testing.T) {
	ytdlp := []models.DiscoveredEpisode{
		{URL: "https://www.mujrozhlas.cz/show/ep1", Title: "Episode One", Sources: map[string]struct{}{"ytdlp": {}}},
		{URL: "https://www.mujrozhlas.cz/show/ep2", Title: "Episode Two", Sources: map[string]struct{}{"ytdlp": {}}},
	}
	merged := mergeDiscovered(ytdlp, nil, nil, nil)
	require.Len(t, merged, 2)
}

func TestMergeDiscovered_LearnedExtIDReindexedForLaterMatch(t *testing.T) {
	// ytdlp has no ext_id under URL U1; ajax enriches that same URL with
	// ext_id X. A later rapi entry carrying ext_id X under a different
	// synthesized URL U2 must still merge into the same record rather
	// than becoming a spurious duplicate.
	ytdlp := []models.DiscoveredEpisode{
		{URL: "https://www.mujrozhlas.cz/show/ep1", Title: "Episode One", Sources: map[string]struct{}{"ytdlp": {}}},
	}
	ajax := []models.DiscoveredEpisode{
		{URL: "https://www.mujrozhlas.cz/show/ep1", ExtID: "ext-X", Sources: map[string]struct{}{"ajax": {}}},
	}
	rapi := []models.DiscoveredEpisode{
		{URL: "https://prehravac.rozhlas.cz/audio/ext-X", ExtID: "ext-X", DurationS: intPtr(900), Sources: map[string]struct{}{"rapi": {}}},
	}

	merged := mergeDiscovered(ytdlp, ajax, nil, rapi)
	require.Len(t, merged, 1)
	require.Equal(t, "Episode One", merged[0].Title)
	require.NotNil(t, merged[0].DurationS)
	require.Equal(t, 900, *merged[0].DurationS)
	_, hasRapi := merged[0].Sources["rapi"]
	require.True(t, hasRapi)
}

func intPtr(n int) *int { return &n }
