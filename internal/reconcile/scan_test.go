// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package reconcile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanFolder_ExtractsLeadingNumberAndTitleFromFilename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "007 - Tajemstvi hradu.mp3")
	require.NoError(t, os.WriteFile(path, []byte("not real audio"), 0o644))

	files, err := ScanFolder(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.NotNil(t, files[0].EpisodeNumber)
	require.Equal(t, 7, *files[0].EpisodeNumber)
	require.Equal(t, "Tajemstvi hradu", files[0].TitleFromFilename)
}

func TestScanFolder_AltDelimiterNumberFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "SFT_042_Pribeh.mp3")
	require.NoError(t, os.WriteFile(path, []byte("not real audio"), 0o644))

	files, err := ScanFolder(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.NotNil(t, files[0].EpisodeNumber)
	require.Equal(t, 42, *files[0].EpisodeNumber)
}

func TestScanFolder_IgnoresNonAudioFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "episode.nfo"), []byte("x"), 0o644))

	files, err := ScanFolder(dir)
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestSimilarityRatio_IdenticalStringsIsOne(t *testing.T) {
	require.Equal(t, 1.0, similarityRatio("pribehy", "pribehy"))
}

func TestNormalizeTitle_StripsDiacriticsAndCase(t *testing.T) {
	require.Equal(t, "pribeh modreho psa", normalizeTitle("Příběh   Modrého Psa"))
}
