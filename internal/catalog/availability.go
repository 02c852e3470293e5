// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package catalog

import (
	"context"
	"fmt"

	"github.com/haxny/archivist/internal/models"
)

// AppendAvailabilityLog records one probe result. Append-only; never
// updated or deleted.
func (s *Store) AppendAvailabilityLog(ctx context.Context, log models.AvailabilityLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO availability_log (episode_id, was_available, http_status)
		VALUES (?, ?, ?)`,
		log.EpisodeID, log.WasAvailable, log.HTTPStatus,
	)
	if err != nil {
		return fmt.Errorf("catalog: append availability log for episode %d: %w", log.EpisodeID, err)
	}
	return nil
}

// RecentAvailabilityLogs returns the most recent probe records for an
// episode, newest first.
func (s *Store) RecentAvailabilityLogs(ctx context.Context, episodeID int64, limit int) ([]models.AvailabilityLog, error) {
	var out []models.AvailabilityLog
	err := s.db.SelectContext(ctx, &out, `
		SELECT * FROM availability_log WHERE episode_id = ?
		ORDER BY checked_at DESC LIMIT ?`, episodeID, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: recent availability logs for episode %d: %w", episodeID, err)
	}
	return out, nil
}
