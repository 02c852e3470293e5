// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
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

func seedEpisodeWithURL(t *testing.T, store *catalog.Store, episodeURL string) int64 {
	t.Helper()
	ctx := context.Background()
	station, err := store.UpsertStation(ctx, "d2", "Dvojka", "https://dvojka.rozhlas.cz")
	require.NoError(t, err)
	program, err := store.UpsertProgram(ctx, models.Program{StationID: station.ID, Name: "Show"})
	require.NoError(t, err)
	series, err := store.UpsertSeries(ctx, models.Series{ProgramID: program.ID, Name: "Show"})
	require.NoError(t, err)
	work, err := store.UpsertWork(ctx, models.Work{SeriesID: series.ID, Title: "Show", Author: "Author"})
	require.NoError(t, err)
	ep, err := store.InsertEpisode(ctx, models.Episode{
		WorkID:             work.ID,
		Title:              "Episode",
		URL:                episodeURL,
		AvailabilityStatus: models.AvailabilityAvailable,
		AutoDownload:       true,
	})
	require.NoError(t, err)
	_, err = store.PlanAssets(ctx, ep.ID, episodeURL)
	require.NoError(t, err)
	return ep.ID
}

func TestExecutor_ExtractorNotInstalledMarksJobError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	epID := seedEpisodeWithURL(t, store, "https://www.mujrozhlas.cz/show/ep1")

	exec := New(store,
		config.LibraryConfig{LibraryDir: t.TempDir()},
		config.DownloadConfig{ExtractorPath: "/no/such/binary-xyz", BatchSize: 10, Concurrency: 1},
		config.LinkGrabberConfig{},
		config.LibraryNotifyConfig{},
		nil,
	)

	done, err := exec.RunPendingJobs(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 0, done)

	asset, err := store.GetAsset(ctx, epID, models.AssetAudio)
	require.NoError(t, err)
	require.Equal(t, models.AssetFailed, asset.Status)
}

func TestExecutor_LinkGrabberBackend_SubmitsAndMarksAssetQueued(t *testing.T) {
	ctx := context.Background()

	var gotLinks string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/linkgrabberv2/addLinks" {
			gotLinks = "called"
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host := u.Hostname()
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	store := newTestStore(t)
	epID := seedEpisodeWithURL(t, store, "https://plus.rozhlas.cz/show-1234567")

	exec := New(store,
		config.LibraryConfig{LibraryDir: t.TempDir()},
		config.DownloadConfig{ExtractorPath: "/no/such/binary-xyz", BatchSize: 10, Concurrency: 1},
		config.LinkGrabberConfig{Host: host, Port: port},
		config.LibraryNotifyConfig{},
		nil,
	)

	_, err = exec.RunPendingJobs(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, "called", gotLinks)

	asset, err := store.GetAsset(ctx, epID, models.AssetAudio)
	require.NoError(t, err)
	require.Equal(t, models.AssetQueued, asset.Status)
}

func TestExecutor_UpstreamGoneMarksJobWatchNotError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	epID := seedEpisodeWithURL(t, store, "https://www.mujrozhlas.cz/show/gone")

	exec := New(store,
		config.LibraryConfig{LibraryDir: t.TempDir()},
		config.DownloadConfig{ExtractorPath: "/no/such/binary-xyz", BatchSize: 10, Concurrency: 1},
		config.LinkGrabberConfig{},
		config.LibraryNotifyConfig{},
		nil,
	)

	jobs, err := store.ClaimNextJobs(ctx, 1)
	require.NoError(t, err)
	require.NotEmpty(t, jobs)

	status := exec.classify(ctx, jobs[0], &ErrUpstreamGone{Cause: assertErr("video unavailable")})
	require.Equal(t, models.JobWatch, status)

	watchJobs, err := store.ListWatchJobs(ctx)
	require.NoError(t, err)
	require.Len(t, watchJobs, 1)
	require.Equal(t, epID, watchJobs[0].EpisodeID)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
