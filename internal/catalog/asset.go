// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/haxny/archivist/internal/models"
)

// PlanAssets ensures every type in models.RequiredAssetTypes has an Asset
// row for episodeID, creating missing ones as status "missing", and
// enqueues one pending DownloadJob for every Asset currently in status
// missing, stale, or failed — whether created just now or left over from an
// earlier pass — unless a pending or running job for that episode/type
// already exists. Returns the number of jobs newly created.
func (s *Store) PlanAssets(ctx context.Context, episodeID int64, sourceURL string) (int, error) {
	created := 0
	for _, t := range models.RequiredAssetTypes {
		var existing models.Asset
		err := s.db.GetContext(ctx, &existing,
			`SELECT * FROM assets WHERE episode_id = ? AND type = ?`, episodeID, t)
		switch {
		case err == nil:
			if existing.Status != models.AssetMissing && existing.Status != models.AssetStale && existing.Status != models.AssetFailed {
				continue
			}
			hasJob, err := s.hasActiveJob(ctx, episodeID, t)
			if err != nil {
				return created, err
			}
			if hasJob {
				continue
			}
			if err := s.enqueueJob(ctx, episodeID, t, "replan"); err != nil {
				return created, err
			}
			created++
			continue
		case errors.Is(err, sql.ErrNoRows):
			// fall through to insert below
		default:
			return created, fmt.Errorf("catalog: lookup asset %s for episode %d: %w", t, episodeID, err)
		}

		_, err = s.db.ExecContext(ctx, `
			INSERT INTO assets (episode_id, type, status, source_url)
			VALUES (?, ?, ?, ?)`,
			episodeID, t, models.AssetMissing, sourceURL,
		)
		if err != nil {
			if isUniqueConstraintErr(err) {
				continue
			}
			return created, fmt.Errorf("catalog: insert asset %s for episode %d: %w", t, episodeID, err)
		}

		if err := s.enqueueJob(ctx, episodeID, t, "planned"); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// hasActiveJob reports whether episodeID/assetType already has a
// pending or running DownloadJob, the job-uniqueness invariant PlanAssets
// must respect before re-enqueueing a stale/failed asset.
func (s *Store) hasActiveJob(ctx context.Context, episodeID int64, assetType models.AssetType) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM download_jobs
		WHERE episode_id = ? AND asset_type = ? AND status IN (?, ?)`,
		episodeID, assetType, models.JobPending, models.JobRunning,
	)
	if err != nil {
		return false, fmt.Errorf("catalog: check active job for episode %d asset %s: %w", episodeID, assetType, err)
	}
	return count > 0, nil
}

func (s *Store) enqueueJob(ctx context.Context, episodeID int64, assetType models.AssetType, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO download_jobs (episode_id, asset_type, status, reason)
		VALUES (?, ?, ?, ?)`,
		episodeID, assetType, models.JobPending, reason,
	)
	if err != nil {
		return fmt.Errorf("catalog: enqueue job for episode %d asset %s: %w", episodeID, assetType, err)
	}
	return nil
}

// UpdateAsset persists an Asset's fetch/processing result.
func (s *Store) UpdateAsset(ctx context.Context, a models.Asset) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE assets SET
			status = ?, file_path = ?, size_bytes = ?, checksum = ?, codec = ?,
			container = ?, bitrate = ?, channels = ?, sample_rate = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		a.Status, a.FilePath, a.SizeBytes, a.Checksum, a.Codec, a.Container, a.Bitrate, a.Channels, a.SampleRate, a.ID,
	)
	if err != nil {
		return fmt.Errorf("catalog: update asset %d: %w", a.ID, err)
	}
	return nil
}

// ImportLocalAudioFile registers filePath as the complete audio Asset for
// episodeID, creating the row if none exists yet. Mirrors
// reconcile.py's import_matched_files: it never moves or renames the
// file, and leaves an already-complete asset with a path untouched
// (reports skipped=true) rather than overwriting it.
func (s *Store) ImportLocalAudioFile(ctx context.Context, episodeID int64, filePath string, sizeBytes int64) (skipped bool, err error) {
	existing, err := s.GetAsset(ctx, episodeID, models.AssetAudio)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("catalog: import local audio file: load asset for episode %d: %w", episodeID, err)
	}
	if err == nil {
		if existing.Status == models.AssetComplete && existing.FilePath != "" {
			return true, nil
		}
		existing.Status = models.AssetComplete
		existing.FilePath = filePath
		size := sizeBytes
		existing.SizeBytes = &size
		if err := s.UpdateAsset(ctx, *existing); err != nil {
			return false, fmt.Errorf("catalog: import local audio file: update asset %d: %w", existing.ID, err)
		}
		return false, nil
	}

	size := sizeBytes
	_, insErr := s.db.ExecContext(ctx, `
		INSERT INTO assets (episode_id, type, status, file_path, size_bytes)
		VALUES (?, ?, ?, ?, ?)`,
		episodeID, models.AssetAudio, models.AssetComplete, filePath, size,
	)
	if insErr != nil {
		return false, fmt.Errorf("catalog: import local audio file: insert asset for episode %d: %w", episodeID, insErr)
	}
	return false, nil
}

// GetAsset loads an Asset by (episodeID, type).
func (s *Store) GetAsset(ctx context.Context, episodeID int64, assetType models.AssetType) (*models.Asset, error) {
	var a models.Asset
	err := s.db.GetContext(ctx, &a,
		`SELECT * FROM assets WHERE episode_id = ? AND type = ?`, episodeID, assetType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("catalog: get asset %s for episode %d: %w", assetType, episodeID, err)
	}
	return &a, nil
}
