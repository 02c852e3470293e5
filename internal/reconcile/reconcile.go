// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package reconcile

import (
	"context"
	"fmt"
	"os"

	"github.com/haxny/archivist/internal/catalog"
	"github.com/haxny/archivist/internal/logging"
	"github.com/haxny/archivist/internal/metrics"
)

// Reconciler runs the one-shot library-folder import: a control-plane
// POST /submit/reconcile call, never a scheduled tick,
// since it exists only for seeding a catalog from a pre-existing file
// collection rather than steady-state operation.
type Reconciler struct {
	store *catalog.Store
}

// New builds a Reconciler over store.
func New(store *catalog.Store) *Reconciler {
	return &Reconciler{store: store}
}

// Result summarizes one Run.
type Result struct {
	FilesScanned      int
	Matched           int
	Imported          int
	SkippedComplete   int
	UnmatchedFiles    int
	UnmatchedEpisodes int
}

// Run scans folder for audio files, matches them against programID's
// Episodes, and imports matched pairs as complete audio Assets. It never
// moves, renames, or deletes the scanned files.
func (r *Reconciler) Run(ctx context.Context, programID int64, folder string) (Result, error) {
	log := logging.Ctx(ctx).With().Int64("program_id", programID).Str("folder", folder).Logger()

	if _, err := os.Stat(folder); err != nil {
		return Result{}, fmt.Errorf("reconcile: folder %s: %w", folder, err)
	}

	scanned, err := ScanFolder(folder)
	if err != nil {
		return Result{}, err
	}

	episodes, err := r.store.ListEpisodesByProgram(ctx, programID)
	if err != nil {
		return Result{}, fmt.Errorf("reconcile: list episodes for program %d: %w", programID, err)
	}

	matchResult := MatchFilesToEpisodes(scanned, episodes)

	res := Result{
		FilesScanned:      len(scanned),
		Matched:           len(matchResult.Matched),
		UnmatchedFiles:    len(matchResult.UnmatchedFiles),
		UnmatchedEpisodes: len(matchResult.UnmatchedEpisodes),
	}
	metrics.ReconcileFilesTotal.WithLabelValues("matched").Add(float64(len(matchResult.Matched)))
	metrics.ReconcileFilesTotal.WithLabelValues("unmatched").Add(float64(len(matchResult.UnmatchedFiles)))

	for _, m := range matchResult.Matched {
		info, statErr := os.Stat(m.File.Path)
		if statErr != nil {
			log.Warn().Err(statErr).Str("path", m.File.Path).Msg("reconcile: stat matched file failed")
			continue
		}
		skipped, impErr := r.store.ImportLocalAudioFile(ctx, m.Episode.ID, m.File.Path, info.Size())
		if impErr != nil {
			log.Error().Err(impErr).Int64("episode_id", m.Episode.ID).Msg("reconcile: import matched file failed")
			continue
		}
		if skipped {
			res.SkippedComplete++
			continue
		}
		res.Imported++
		metrics.ReconcileAssetsImported.Inc()
	}

	log.Info().
		Int("files_scanned", res.FilesScanned).
		Int("matched", res.Matched).
		Int("imported", res.Imported).
		Int("skipped_complete", res.SkippedComplete).
		Int("unmatched_files", res.UnmatchedFiles).
		Int("unmatched_episodes", res.UnmatchedEpisodes).
		Msg("reconcile: run complete")

	return res, nil
}
