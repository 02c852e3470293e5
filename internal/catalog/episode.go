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

// FindEpisodeByExtID looks up an Episode by its external id, the first tier
// of the dedupe cascade.
func (s *Store) FindEpisodeByExtID(ctx context.Context, extID string) (*models.Episode, error) {
	if extID == "" {
		return nil, ErrNotFound
	}
	var ep models.Episode
	if err := s.db.GetContext(ctx, &ep, `SELECT * FROM episodes WHERE ext_id = ?`, extID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("catalog: find episode by ext_id %q: %w", extID, err)
	}
	return &ep, nil
}

// FindAliasByURL looks up the Episode owning an alias URL, the second tier
// of the dedupe cascade (also covers re-air URL matches already recorded).
func (s *Store) FindAliasByURL(ctx context.Context, url string) (*models.Episode, error) {
	if url == "" {
		return nil, ErrNotFound
	}
	var ep models.Episode
	err := s.db.GetContext(ctx, &ep, `
		SELECT e.* FROM episodes e
		JOIN episode_aliases a ON a.episode_id = e.id
		WHERE a.url = ?
		LIMIT 1`, url)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("catalog: find alias by url %q: %w", url, err)
	}
	return &ep, nil
}

// FindEpisodeByURL looks up an Episode by its currently-preferred URL.
func (s *Store) FindEpisodeByURL(ctx context.Context, url string) (*models.Episode, error) {
	if url == "" {
		return nil, ErrNotFound
	}
	var ep models.Episode
	if err := s.db.GetContext(ctx, &ep, `SELECT * FROM episodes WHERE url = ?`, url); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("catalog: find episode by url %q: %w", url, err)
	}
	return &ep, nil
}

// AddAlias idempotently records a secondary URL/ext_id under which an
// Episode has been observed; a duplicate (episode_id, url) pair is a no-op.
func (s *Store) AddAlias(ctx context.Context, alias models.EpisodeAlias) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO episode_aliases (episode_id, url, ext_id, air_date, discovery_source)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (episode_id, url) DO NOTHING`,
		alias.EpisodeID, alias.URL, alias.ExtID, alias.AirDate, alias.DiscoverySource,
	)
	if err != nil {
		return fmt.Errorf("catalog: add alias for episode %d: %w", alias.EpisodeID, err)
	}
	return nil
}

// InsertEpisode creates a new Episode row under a Work.
func (s *Store) InsertEpisode(ctx context.Context, ep models.Episode) (*models.Episode, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO episodes (
			work_id, ext_id, title, episode_number, published_at, url, duration_ms,
			summary, availability_status, first_seen_at, last_seen_at, auto_download,
			priority, discovery_source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP, ?, ?, ?)`,
		ep.WorkID, nullableString(ep.ExtID), ep.Title, ep.EpisodeNumber, ep.PublishedAt, ep.URL, ep.DurationMS,
		ep.Summary, ep.AvailabilityStatus, ep.AutoDownload, ep.Priority, ep.DiscoverySource,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog: insert episode %q: %w", ep.Title, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("catalog: episode %q insert id: %w", ep.Title, err)
	}
	var created models.Episode
	if err := s.db.GetContext(ctx, &created, `SELECT * FROM episodes WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("catalog: re-read episode %q: %w", ep.Title, err)
	}
	return &created, nil
}

// UpdateEpisode persists an Episode's mutable fields after ingest has
// reconciled field-filling/priority/availability rules.
func (s *Store) UpdateEpisode(ctx context.Context, ep models.Episode) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE episodes SET
			ext_id = ?, title = ?, episode_number = ?, published_at = ?, url = ?,
			duration_ms = ?, summary = ?, availability_status = ?, last_seen_at = CURRENT_TIMESTAMP,
			last_checked_at = ?, auto_download = ?, priority = ?, discovery_source = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		nullableString(ep.ExtID), ep.Title, ep.EpisodeNumber, ep.PublishedAt, ep.URL,
		ep.DurationMS, ep.Summary, ep.AvailabilityStatus, ep.LastCheckedAt, ep.AutoDownload,
		ep.Priority, ep.DiscoverySource, ep.ID,
	)
	if err != nil {
		return fmt.Errorf("catalog: update episode %d: %w", ep.ID, err)
	}
	return nil
}

// SetAvailability updates an Episode's availability_status and
// last_checked_at, independent of the other field-filling rules UpdateEpisode
// applies. On a successful probe (status=available) it also refreshes
// last_seen_at, so a probe-only reconfirmation keeps it current without
// requiring a full re-ingest.
func (s *Store) SetAvailability(ctx context.Context, episodeID int64, status models.AvailabilityStatus) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE episodes SET
			availability_status = ?,
			last_checked_at = CURRENT_TIMESTAMP,
			last_seen_at = CASE WHEN ? = ? THEN CURRENT_TIMESTAMP ELSE last_seen_at END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, status, status, models.AvailabilityAvailable, episodeID)
	if err != nil {
		return fmt.Errorf("catalog: set availability for episode %d: %w", episodeID, err)
	}
	return nil
}

// GetEpisode loads a single Episode by id.
func (s *Store) GetEpisode(ctx context.Context, id int64) (*models.Episode, error) {
	var ep models.Episode
	if err := s.db.GetContext(ctx, &ep, `SELECT * FROM episodes WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("catalog: get episode %d: %w", id, err)
	}
	return &ep, nil
}

// ListEpisodesByAvailability returns every Episode currently in the given
// status, used by the availability prober to find unknown/unavailable
// episodes to re-check.
func (s *Store) ListEpisodesByAvailability(ctx context.Context, status models.AvailabilityStatus, limit int) ([]models.Episode, error) {
	var out []models.Episode
	err := s.db.SelectContext(ctx, &out, `
		SELECT * FROM episodes WHERE availability_status = ?
		ORDER BY COALESCE(last_checked_at, '1970-01-01') ASC
		LIMIT ?`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: list episodes by availability %q: %w", status, err)
	}
	return out, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
