// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/haxny/archivist/internal/config"
	"github.com/haxny/archivist/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "archivist.db")
	store, err := Open(context.Background(), config.CatalogConfig{
		DBPath:      dbPath,
		BusyTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedWork(t *testing.T, s *Store) *models.Work {
	t.Helper()
	ctx := context.Background()

	st, err := s.UpsertStation(ctx, "plus", "Český rozhlas Plus", "https://plus.rozhlas.cz")
	require.NoError(t, err)

	p, err := s.UpsertProgram(ctx, models.Program{StationID: st.ID, Name: "Detektivky"})
	require.NoError(t, err)

	sr, err := s.UpsertSeries(ctx, models.Series{ProgramID: p.ID, Name: "Detektivky"})
	require.NoError(t, err)

	w, err := s.UpsertWork(ctx, models.Work{SeriesID: sr.ID, Title: "Případ modrého psa"})
	require.NoError(t, err)
	return w
}

func TestOpen_AppliesMigrations(t *testing.T) {
	s := newTestStore(t)
	var count int
	err := s.db.Get(&count, `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'episodes'`)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestUpsertStation_IdempotentOnCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.UpsertStation(ctx, "d1", "Dvojka", "https://dvojka.rozhlas.cz")
	require.NoError(t, err)

	second, err := s.UpsertStation(ctx, "d1", "ignored name", "ignored website")
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "Dvojka", second.Name, "first-write-wins: later calls must not overwrite station fields")
}

func TestUpsertProgram_FillsEmptyFieldsOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	st, err := s.UpsertStation(ctx, "plus", "Plus", "")
	require.NoError(t, err)

	p1, err := s.UpsertProgram(ctx, models.Program{StationID: st.ID, Name: "Show", Genre: "drama"})
	require.NoError(t, err)
	require.Equal(t, "drama", p1.Genre)

	p2, err := s.UpsertProgram(ctx, models.Program{StationID: st.ID, Name: "Show", Genre: "comedy", URL: "https://example.test/show"})
	require.NoError(t, err)
	require.Equal(t, p1.ID, p2.ID)
	require.Equal(t, "drama", p2.Genre, "existing non-empty genre must not be overwritten")
	require.Equal(t, "https://example.test/show", p2.URL, "previously-empty url should be filled in")
}

func TestEpisodeLifecycle_InsertFindAlias(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := seedWork(t, s)

	ep, err := s.InsertEpisode(ctx, models.Episode{
		WorkID:             w.ID,
		ExtID:              "ext-123",
		Title:              "Díl 1",
		URL:                "https://mujrozhlas.cz/detektivky/dil-1",
		AvailabilityStatus: models.AvailabilityAvailable,
	})
	require.NoError(t, err)
	require.NotZero(t, ep.ID)

	byExt, err := s.FindEpisodeByExtID(ctx, "ext-123")
	require.NoError(t, err)
	require.Equal(t, ep.ID, byExt.ID)

	require.NoError(t, s.AddAlias(ctx, models.EpisodeAlias{
		EpisodeID: ep.ID,
		URL:       "https://mujrozhlas.cz/detektivky/dil-1-2024-05-06",
	}))
	// Adding the same alias twice must be a no-op, not a constraint error.
	require.NoError(t, s.AddAlias(ctx, models.EpisodeAlias{
		EpisodeID: ep.ID,
		URL:       "https://mujrozhlas.cz/detektivky/dil-1-2024-05-06",
	}))

	byAlias, err := s.FindAliasByURL(ctx, "https://mujrozhlas.cz/detektivky/dil-1-2024-05-06")
	require.NoError(t, err)
	require.Equal(t, ep.ID, byAlias.ID)

	_, err = s.FindEpisodeByExtID(ctx, "does-not-exist")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPlanAssets_CreatesRequiredTypesAndJobs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := seedWork(t, s)

	ep, err := s.InsertEpisode(ctx, models.Episode{WorkID: w.ID, Title: "Díl 1", URL: "https://mujrozhlas.cz/x"})
	require.NoError(t, err)

	created, err := s.PlanAssets(ctx, ep.ID, ep.URL)
	require.NoError(t, err)
	require.Equal(t, len(models.RequiredAssetTypes), created)

	// Calling again must not duplicate assets or jobs.
	created, err = s.PlanAssets(ctx, ep.ID, ep.URL)
	require.NoError(t, err)
	require.Equal(t, 0, created)

	jobs, err := s.ClaimNextJobs(ctx, 100)
	require.NoError(t, err)
	require.Len(t, jobs, len(models.RequiredAssetTypes))
	for _, j := range jobs {
		require.Equal(t, models.JobRunning, j.Status)
	}

	// A second claim must see nothing left pending.
	more, err := s.ClaimNextJobs(ctx, 100)
	require.NoError(t, err)
	require.Empty(t, more)
}

func TestClaimNextJobs_OrdersByEpisodePriorityThenID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := seedWork(t, s)

	low, err := s.InsertEpisode(ctx, models.Episode{WorkID: w.ID, Title: "Low", URL: "https://mujrozhlas.cz/low", Priority: 1})
	require.NoError(t, err)
	high, err := s.InsertEpisode(ctx, models.Episode{WorkID: w.ID, Title: "High", URL: "https://mujrozhlas.cz/high", Priority: 10})
	require.NoError(t, err)

	_, err = s.PlanAssets(ctx, low.ID, low.URL)
	require.NoError(t, err)
	_, err = s.PlanAssets(ctx, high.ID, high.URL)
	require.NoError(t, err)

	jobs, err := s.ClaimNextJobs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, high.ID, jobs[0].EpisodeID, "higher-priority episode's job must claim first")
}

func TestWatchJob_RequeuedOnAvailabilityRestored(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := seedWork(t, s)

	ep, err := s.InsertEpisode(ctx, models.Episode{WorkID: w.ID, Title: "Díl", URL: "https://mujrozhlas.cz/x"})
	require.NoError(t, err)
	_, err = s.PlanAssets(ctx, ep.ID, ep.URL)
	require.NoError(t, err)

	jobs, err := s.ClaimNextJobs(ctx, 100)
	require.NoError(t, err)
	require.NotEmpty(t, jobs)

	require.NoError(t, s.WatchJob(ctx, jobs[0].ID, "upstream_gone"))
	watch, err := s.ListWatchJobs(ctx)
	require.NoError(t, err)
	require.Len(t, watch, 1)

	n, err := s.RequeueWatchJobsForEpisode(ctx, ep.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	watch, err = s.ListWatchJobs(ctx)
	require.NoError(t, err)
	require.Empty(t, watch)
}

func TestReapStaleRunning_ResetsOldRunningJobs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := seedWork(t, s)

	ep, err := s.InsertEpisode(ctx, models.Episode{WorkID: w.ID, Title: "Díl", URL: "https://mujrozhlas.cz/x"})
	require.NoError(t, err)
	_, err = s.PlanAssets(ctx, ep.ID, ep.URL)
	require.NoError(t, err)

	jobs, err := s.ClaimNextJobs(ctx, 100)
	require.NoError(t, err)
	require.NotEmpty(t, jobs)

	// Backdate started_at past the grace window to simulate a crashed executor.
	_, err = s.db.ExecContext(ctx,
		`UPDATE download_jobs SET started_at = ? WHERE id = ?`,
		time.Now().Add(-1*time.Hour), jobs[0].ID)
	require.NoError(t, err)

	n, err := s.ReapStaleRunning(ctx, 15*time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	reclaimed, err := s.ClaimNextJobs(ctx, 100)
	require.NoError(t, err)
	found := false
	for _, j := range reclaimed {
		if j.ID == jobs[0].ID {
			found = true
		}
	}
	require.True(t, found, "reaped job must become claimable again")
}

func TestCrawlTarget_CreateAndListDue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateCrawlTarget(ctx, models.CrawlTarget{
		URL:  "https://www.mujrozhlas.cz/detektivky",
		Kind: models.CrawlTargetSeries,
		Name: "Detektivky",
	})
	require.NoError(t, err)

	due, err := s.ListDueCrawlTargets(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)

	require.NoError(t, s.MarkCrawlTargetCrawled(ctx, due[0].ID, 24*time.Hour))
	due, err = s.ListDueCrawlTargets(ctx)
	require.NoError(t, err)
	require.Empty(t, due, "target just crawled with a 24h interval must not be due again immediately")
}
