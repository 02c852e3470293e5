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

// UpsertProgram ensures a Program row exists for (stationID, name), filling
// in url/description/genre/channelLabel only where the existing row has
// them empty — discovery never shrinks previously-recorded fields.
func (s *Store) UpsertProgram(ctx context.Context, p models.Program) (*models.Program, error) {
	var existing models.Program
	err := s.db.GetContext(ctx, &existing,
		`SELECT * FROM programs WHERE station_id = ? AND name = ?`, p.StationID, p.Name)

	switch {
	case err == nil:
		if err := s.fillProgramFields(ctx, &existing, p); err != nil {
			return nil, err
		}
		return &existing, nil
	case errors.Is(err, sql.ErrNoRows):
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO programs (station_id, ext_id, name, url, description, genre, channel_label, auto_crawl, crawl_interval_hours)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.StationID, p.ExtID, p.Name, p.URL, p.Description, p.Genre, p.ChannelLabel, p.AutoCrawl, p.CrawlInterval,
		)
		if err != nil {
			if isUniqueConstraintErr(err) {
				return s.UpsertProgram(ctx, p)
			}
			return nil, fmt.Errorf("catalog: insert program %q: %w", p.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("catalog: program %q insert id: %w", p.Name, err)
		}
		var created models.Program
		if err := s.db.GetContext(ctx, &created, `SELECT * FROM programs WHERE id = ?`, id); err != nil {
			return nil, fmt.Errorf("catalog: re-read program %q: %w", p.Name, err)
		}
		return &created, nil
	default:
		return nil, fmt.Errorf("catalog: lookup program %q: %w", p.Name, err)
	}
}

// ListEpisodesByProgram returns every Episode under any Series/Work of a
// Program, for reconciliation's folder-to-episode matching which is
// scoped to one Program's library folder at a time.
func (s *Store) ListEpisodesByProgram(ctx context.Context, programID int64) ([]models.Episode, error) {
	var out []models.Episode
	err := s.db.SelectContext(ctx, &out, `
		SELECT e.* FROM episodes e
		JOIN works w ON w.id = e.work_id
		JOIN series sr ON sr.id = w.series_id
		WHERE sr.program_id = ?
		ORDER BY COALESCE(e.episode_number, 999999), COALESCE(e.published_at, '1970-01-01')`, programID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list episodes for program %d: %w", programID, err)
	}
	return out, nil
}

func (s *Store) fillProgramFields(ctx context.Context, existing *models.Program, incoming models.Program) error {
	changed := false
	if existing.URL == "" && incoming.URL != "" {
		existing.URL = incoming.URL
		changed = true
	}
	if existing.Description == "" && incoming.Description != "" {
		existing.Description = incoming.Description
		changed = true
	}
	if existing.Genre == "" && incoming.Genre != "" {
		existing.Genre = incoming.Genre
		changed = true
	}
	if existing.ChannelLabel == "" && incoming.ChannelLabel != "" {
		existing.ChannelLabel = incoming.ChannelLabel
		changed = true
	}
	if existing.ExtID == "" && incoming.ExtID != "" {
		existing.ExtID = incoming.ExtID
		changed = true
	}
	if !changed {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE programs SET url = ?, description = ?, genre = ?, channel_label = ?, ext_id = ? WHERE id = ?`,
		existing.URL, existing.Description, existing.Genre, existing.ChannelLabel, existing.ExtID, existing.ID,
	)
	if err != nil {
		return fmt.Errorf("catalog: fill program %d fields: %w", existing.ID, err)
	}
	return nil
}

// ListAutoCrawlPrograms returns every Program with auto_crawl enabled,
// ordered by how overdue its crawl is.
func (s *Store) ListAutoCrawlPrograms(ctx context.Context) ([]models.Program, error) {
	var programs []models.Program
	err := s.db.SelectContext(ctx, &programs, `
		SELECT * FROM programs
		WHERE auto_crawl = 1
		ORDER BY COALESCE(last_crawled_at, '1970-01-01') ASC`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list auto-crawl programs: %w", err)
	}
	return programs, nil
}

// MarkProgramCrawled stamps last_crawled_at to now.
func (s *Store) MarkProgramCrawled(ctx context.Context, programID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE programs SET last_crawled_at = CURRENT_TIMESTAMP WHERE id = ?`, programID)
	if err != nil {
		return fmt.Errorf("catalog: mark program %d crawled: %w", programID, err)
	}
	return nil
}
