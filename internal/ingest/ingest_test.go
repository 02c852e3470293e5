// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/haxny/archivist/internal/catalog"
	"github.com/haxny/archivist/internal/config"
	"github.com/haxny/archivist/internal/models"
)

func newTestStore(t *testing.T) *catalog.Store {
	t.Helper()
	ctx := context.Background()
	store, err := catalog.Open(ctx, config.CatalogConfig{
		DBPath:      t.TempDir() + "/catalog.db",
		BusyTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBatch_CreatesNewEpisodeAndPlansAssets(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	entries := []models.DiscoveredEpisode{
		{
			URL:      "https://www.mujrozhlas.cz/detektivky/pripad-modreho-psa",
			Title:    "Případ modrého psa",
			ExtID:    "abc-1",
			Uploader: "Vltava",
			Series:   "Detektivky",
			Sources:  map[string]struct{}{"ajax": {}},
		},
	}

	results, err := Batch(ctx, store, entries, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, OutcomeCreated, results[0].Outcome)
	require.Equal(t, 3, results[0].JobsPlanned)
	require.Equal(t, models.AvailabilityAvailable, results[0].Episode.AvailabilityStatus)

	station, err := store.FindStationByCode(ctx, "CRo3")
	require.NoError(t, err)
	require.Equal(t, "Vltava", station.Name)
}

func TestBatch_PriorityAssignedByPublishedAtDescending(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	older := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []models.DiscoveredEpisode{
		{URL: "https://www.mujrozhlas.cz/a", Title: "A", PublishedAt: &older},
		{URL: "https://www.mujrozhlas.cz/b", Title: "B", PublishedAt: &newer},
	}

	results, err := Batch(ctx, store, entries, "Show")
	require.NoError(t, err)
	require.Len(t, results, 2)

	var newest, oldest *Result
	for i := range results {
		if results[i].Episode.URL == "https://www.mujrozhlas.cz/b" {
			newest = &results[i]
		} else {
			oldest = &results[i]
		}
	}
	require.NotNil(t, newest)
	require.NotNil(t, oldest)
	require.Greater(t, newest.Episode.Priority, oldest.Episode.Priority)
}

func TestBatch_RevivesGoneEpisodeOnReappearance(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := []models.DiscoveredEpisode{
		{URL: "https://www.mujrozhlas.cz/detektivky/pripad-1", Title: "Případ", ExtID: "ext-1", Uploader: "Vltava", Series: "Detektivky"},
	}
	results, err := Batch(ctx, store, first, "")
	require.NoError(t, err)
	episodeID := results[0].Episode.ID

	require.NoError(t, store.SetAvailability(ctx, episodeID, models.AvailabilityGone))
	jobs, err := store.ClaimNextJobs(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, jobs)
	require.NoError(t, store.FinishJob(ctx, jobs[0].ID, models.JobError, "410 gone"))

	second := []models.DiscoveredEpisode{
		{URL: "https://www.mujrozhlas.cz/detektivky/pripad-1-2941669", Title: "Případ", ExtID: "ext-1", Uploader: "Vltava", Series: "Detektivky"},
	}
	results2, err := Batch(ctx, store, second, "")
	require.NoError(t, err)
	require.Len(t, results2, 1)
	require.Equal(t, OutcomeRevived, results2[0].Outcome)
	require.Equal(t, models.AvailabilityAvailable, results2[0].Episode.AvailabilityStatus)

	ep, err := store.GetEpisode(ctx, episodeID)
	require.NoError(t, err)
	require.Equal(t, models.AvailabilityAvailable, ep.AvailabilityStatus)

	refreshed, err := store.GetAsset(ctx, episodeID, models.AssetAudio)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.ID)
}

func TestBatch_FillsEmptyFieldsWithoutShrinking(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := []models.DiscoveredEpisode{
		{URL: "https://www.mujrozhlas.cz/a", Title: "Short", ExtID: "ext-2"},
	}
	_, err := Batch(ctx, store, first, "Show")
	require.NoError(t, err)

	dur := 120
	second := []models.DiscoveredEpisode{
		{URL: "https://www.mujrozhlas.cz/a-alt", Title: "Much Longer Title", ExtID: "ext-2", DurationS: &dur},
	}
	results, err := Batch(ctx, store, second, "Show")
	require.NoError(t, err)
	require.Equal(t, OutcomeUpdated, results[0].Outcome)
	require.Equal(t, "Much Longer Title", results[0].Episode.Title)
	require.NotNil(t, results[0].Episode.DurationMS)
	require.EqualValues(t, 120000, *results[0].Episode.DurationMS)
}

func TestGuessStation_MatchesSubstringCaseInsensitively(t *testing.T) {
	code, name, _ := guessStation("Radio Plus Morning Show")
	require.Equal(t, "CRoPlus", code)
	require.Equal(t, "Plus", name)

	code, _, _ = guessStation("")
	require.Equal(t, genericCode, code)
}
