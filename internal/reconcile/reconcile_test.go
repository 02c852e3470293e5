// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package reconcile

import (
	"context"
	"os"
	"path/filepath"
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

func seedProgramWithEpisodes(t *testing.T, store *catalog.Store, episodes []models.Episode) (programID int64, seeded []models.Episode) {
	t.Helper()
	ctx := context.Background()
	station, err := store.UpsertStation(ctx, "mujrozhlas", "mujrozhlas.cz", "")
	require.NoError(t, err)
	program, err := store.UpsertProgram(ctx, models.Program{StationID: station.ID, Name: "Pribehy 20. stoleti"})
	require.NoError(t, err)
	series, err := store.UpsertSeries(ctx, models.Series{ProgramID: program.ID, Name: "Pribehy 20. stoleti"})
	require.NoError(t, err)
	work, err := store.UpsertWork(ctx, models.Work{SeriesID: series.ID, Title: "Pribehy 20. stoleti"})
	require.NoError(t, err)

	for _, ep := range episodes {
		ep.WorkID = work.ID
		created, err := store.InsertEpisode(ctx, ep)
		require.NoError(t, err)
		seeded = append(seeded, *created)
	}
	return program.ID, seeded
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("not real audio, tags unreadable"), 0o644))
	return path
}

func TestReconcile_MatchesByEpisodeNumberFromFilename(t *testing.T) {
	store := newTestStore(t)
	num1, num2 := 1, 2
	programID, _ := seedProgramWithEpisodes(t, store, []models.Episode{
		{Title: "Prvni dil", EpisodeNumber: &num1},
		{Title: "Druhy dil", EpisodeNumber: &num2},
	})

	dir := t.TempDir()
	writeFile(t, dir, "001 - Something Else.mp3")
	writeFile(t, dir, "002 - Another Name.mp3")

	r := New(store)
	res, err := r.Run(t.Context(), programID, dir)
	require.NoError(t, err)
	require.Equal(t, 2, res.FilesScanned)
	require.Equal(t, 2, res.Matched)
	require.Equal(t, 2, res.Imported)
	require.Zero(t, res.UnmatchedFiles)

	asset, err := store.GetAsset(t.Context(), matchedEpisodeID(t, store, programID, 1), models.AssetAudio)
	require.NoError(t, err)
	require.Equal(t, models.AssetComplete, asset.Status)
	require.Contains(t, asset.FilePath, "001 - Something Else.mp3")
}

func matchedEpisodeID(t *testing.T, store *catalog.Store, programID int64, episodeNumber int) int64 {
	t.Helper()
	episodes, err := store.ListEpisodesByProgram(t.Context(), programID)
	require.NoError(t, err)
	for _, ep := range episodes {
		if ep.EpisodeNumber != nil && *ep.EpisodeNumber == episodeNumber {
			return ep.ID
		}
	}
	t.Fatalf("no episode with number %d", episodeNumber)
	return 0
}

func TestReconcile_FallsBackToFuzzyTitleMatch(t *testing.T) {
	store := newTestStore(t)
	programID, _ := seedProgramWithEpisodes(t, store, []models.Episode{
		{Title: "Dobrodruzstvi Toma Sawyera"},
	})

	dir := t.TempDir()
	writeFile(t, dir, "Dobrodruzstvi Toma Sawyera (1).mp3")

	r := New(store)
	res, err := r.Run(t.Context(), programID, dir)
	require.NoError(t, err)
	require.Equal(t, 1, res.Matched)
	require.Equal(t, 1, res.Imported)
}

func TestReconcile_UnmatchedFileIsReportedNotImported(t *testing.T) {
	store := newTestStore(t)
	programID, _ := seedProgramWithEpisodes(t, store, []models.Episode{
		{Title: "Zcela jina pohadka"},
	})

	dir := t.TempDir()
	writeFile(t, dir, "Naprosto nesouvisejici nazev souboru.mp3")

	r := New(store)
	res, err := r.Run(t.Context(), programID, dir)
	require.NoError(t, err)
	require.Equal(t, 0, res.Matched)
	require.Equal(t, 1, res.UnmatchedFiles)
	require.Equal(t, 1, res.UnmatchedEpisodes)
}

func TestReconcile_AlreadyCompleteAssetIsSkippedNotOverwritten(t *testing.T) {
	store := newTestStore(t)
	num1 := 1
	programID, seeded := seedProgramWithEpisodes(t, store, []models.Episode{
		{Title: "Prvni dil", EpisodeNumber: &num1},
	})

	existingPath := "/already/imported/path.mp3"
	require.NoError(t, store.UpdateAsset(t.Context(), mustPlanThenGet(t, store, seeded[0].ID, existingPath)))

	dir := t.TempDir()
	writeFile(t, dir, "001 - Something Else.mp3")

	r := New(store)
	res, err := r.Run(t.Context(), programID, dir)
	require.NoError(t, err)
	require.Equal(t, 1, res.Matched)
	require.Equal(t, 0, res.Imported)
	require.Equal(t, 1, res.SkippedComplete)

	asset, err := store.GetAsset(t.Context(), seeded[0].ID, models.AssetAudio)
	require.NoError(t, err)
	require.Equal(t, existingPath, asset.FilePath)
}

func mustPlanThenGet(t *testing.T, store *catalog.Store, episodeID int64, filePath string) models.Asset {
	t.Helper()
	_, err := store.PlanAssets(t.Context(), episodeID, "https://mujrozhlas.cz/episode")
	require.NoError(t, err)
	asset, err := store.GetAsset(t.Context(), episodeID, models.AssetAudio)
	require.NoError(t, err)
	asset.Status = models.AssetComplete
	asset.FilePath = filePath
	return *asset
}
