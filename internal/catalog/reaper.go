// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package catalog

import (
	"context"
	"fmt"
	"time"
)

// ReapStaleRunning resets any DownloadJob stuck in "running" for longer than
// grace back to "pending". It runs once at startup, covering the case where
// the previous process crashed mid-download and left jobs claimed but never
// finished — ClaimNextJobs alone cannot recover them since claimed jobs are
// never pending again on their own.
func (s *Store) ReapStaleRunning(ctx context.Context, grace time.Duration) (int64, error) {
	cutoff := time.Now().Add(-grace)
	res, err := s.db.ExecContext(ctx, `
		UPDATE download_jobs SET status = 'pending', started_at = NULL
		WHERE status = 'running' AND started_at IS NOT NULL AND started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("catalog: reap stale running jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("catalog: reap rows affected: %w", err)
	}
	return n, nil
}
