// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package download

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haxny/archivist/internal/models"
)

func TestWebpageSaver_SavesHTMLBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body>ahoj</body></html>"))
	}))
	defer srv.Close()

	saver := NewWebpageSaver(0)
	dir := t.TempDir()
	result, err := saver.FetchWebpage(t.Context(), models.Episode{ID: 1, URL: srv.URL}, Paths{BaseDir: dir, Stem: "episode"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "episode.html"), result.FilePath)

	body, err := os.ReadFile(result.FilePath)
	require.NoError(t, err)
	require.Contains(t, string(body), "ahoj")
}

func TestWebpageSaver_NonHTMLContentTypeFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	saver := NewWebpageSaver(0)
	_, err := saver.FetchWebpage(t.Context(), models.Episode{ID: 1, URL: srv.URL}, Paths{BaseDir: t.TempDir(), Stem: "episode"})
	require.Error(t, err)
}

func TestWebpageSaver_404ClassifiesAsUpstreamGone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	saver := NewWebpageSaver(0)
	_, err := saver.FetchWebpage(t.Context(), models.Episode{ID: 1, URL: srv.URL}, Paths{BaseDir: t.TempDir(), Stem: "episode"})
	require.Error(t, err)

	var gone *ErrUpstreamGone
	require.ErrorAs(t, err, &gone)
}
