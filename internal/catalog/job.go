// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package catalog

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/haxny/archivist/internal/models"
)

// ClaimNextJobs atomically transitions up to limit pending DownloadJobs to
// running and returns them, ordered by the owning episode's priority (desc)
// then job id (asc, FIFO within a priority tier). The select and update run
// inside one BEGIN IMMEDIATE transaction on a single checked-out connection,
// making this the system's sole concurrency-serialization point: two
// executors racing on the same tick can never claim the same job.
func (s *Store) ClaimNextJobs(ctx context.Context, limit int) ([]models.DownloadJob, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: acquire connection for claim: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `BEGIN IMMEDIATE`); err != nil {
		return nil, fmt.Errorf("catalog: begin immediate: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(ctx, `ROLLBACK`)
		}
	}()

	var jobs []models.DownloadJob
	err = conn.SelectContext(ctx, &jobs, `
		SELECT j.* FROM download_jobs j
		JOIN episodes e ON e.id = j.episode_id
		WHERE j.status = 'pending'
		ORDER BY e.priority DESC, j.id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: select claimable jobs: %w", err)
	}
	if len(jobs) == 0 {
		if _, err := conn.ExecContext(ctx, `COMMIT`); err != nil {
			return nil, fmt.Errorf("catalog: commit empty claim: %w", err)
		}
		committed = true
		return nil, nil
	}

	ids := make([]int64, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	query, args, err := sqlx.In(`
		UPDATE download_jobs SET status = 'running', started_at = CURRENT_TIMESTAMP
		WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("catalog: build claim update: %w", err)
	}
	query = conn.Rebind(query)
	if _, err := conn.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("catalog: claim jobs: %w", err)
	}

	if _, err := conn.ExecContext(ctx, `COMMIT`); err != nil {
		return nil, fmt.Errorf("catalog: commit claim: %w", err)
	}
	committed = true

	for i := range jobs {
		jobs[i].Status = models.JobRunning
	}
	return jobs, nil
}

// FinishJob marks a running job success, error, or skipped, recording an
// error message when present.
func (s *Store) FinishJob(ctx context.Context, jobID int64, status models.JobStatus, errMsg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE download_jobs SET status = ?, error = ?, finished_at = CURRENT_TIMESTAMP
		WHERE id = ?`, status, errMsg, jobID)
	if err != nil {
		return fmt.Errorf("catalog: finish job %d: %w", jobID, err)
	}
	return nil
}

// WatchJob marks a job "watch": its content is suspected gone and the
// availability prober will re-queue it to pending if it reappears.
func (s *Store) WatchJob(ctx context.Context, jobID int64, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE download_jobs SET status = 'watch', reason = ?, finished_at = CURRENT_TIMESTAMP
		WHERE id = ?`, reason, jobID)
	if err != nil {
		return fmt.Errorf("catalog: watch job %d: %w", jobID, err)
	}
	return nil
}

// RequeueWatchJobsForEpisode flips every watch job belonging to episodeID
// back to pending, called when the availability prober finds the episode
// available again.
func (s *Store) RequeueWatchJobsForEpisode(ctx context.Context, episodeID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE download_jobs SET status = 'pending', reason = 'availability_restored'
		WHERE episode_id = ? AND status = 'watch'`, episodeID)
	if err != nil {
		return 0, fmt.Errorf("catalog: requeue watch jobs for episode %d: %w", episodeID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("catalog: requeue watch jobs rows affected: %w", err)
	}
	return n, nil
}

// RequeueErrorAndWatchJobsForEpisode flips every job belonging to episodeID
// that is in error or watch status back to pending with its error cleared,
// called when a revived "gone" episode reappears under a new URL.
func (s *Store) RequeueErrorAndWatchJobsForEpisode(ctx context.Context, episodeID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE download_jobs SET status = 'pending', error = NULL, reason = 'episode_revived'
		WHERE episode_id = ? AND status IN ('error', 'watch')`, episodeID)
	if err != nil {
		return 0, fmt.Errorf("catalog: requeue error/watch jobs for episode %d: %w", episodeID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("catalog: requeue error/watch jobs rows affected: %w", err)
	}
	return n, nil
}

// ListWatchJobs returns every job currently in the watch state, used by the
// availability prober's periodic watch-list sweep.
func (s *Store) ListWatchJobs(ctx context.Context) ([]models.DownloadJob, error) {
	var out []models.DownloadJob
	if err := s.db.SelectContext(ctx, &out, `SELECT * FROM download_jobs WHERE status = 'watch'`); err != nil {
		return nil, fmt.Errorf("catalog: list watch jobs: %w", err)
	}
	return out, nil
}
