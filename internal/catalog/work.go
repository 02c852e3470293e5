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

// UpsertWork ensures a Work row exists for (seriesID, title), filling in
// author/year/asin only where previously empty.
func (s *Store) UpsertWork(ctx context.Context, w models.Work) (*models.Work, error) {
	var existing models.Work
	err := s.db.GetContext(ctx, &existing,
		`SELECT * FROM works WHERE series_id = ? AND title = ?`, w.SeriesID, w.Title)

	switch {
	case err == nil:
		changed := false
		if existing.Author == "" && w.Author != "" {
			existing.Author = w.Author
			changed = true
		}
		if existing.Year == nil && w.Year != nil {
			existing.Year = w.Year
			changed = true
		}
		if existing.ASIN == "" && w.ASIN != "" {
			existing.ASIN = w.ASIN
			changed = true
		}
		if changed {
			if _, err := s.db.ExecContext(ctx,
				`UPDATE works SET author = ?, year = ?, asin = ? WHERE id = ?`,
				existing.Author, existing.Year, existing.ASIN, existing.ID,
			); err != nil {
				return nil, fmt.Errorf("catalog: fill work %d fields: %w", existing.ID, err)
			}
		}
		return &existing, nil
	case errors.Is(err, sql.ErrNoRows):
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO works (series_id, title, author, year, asin) VALUES (?, ?, ?, ?, ?)`,
			w.SeriesID, w.Title, w.Author, w.Year, w.ASIN,
		)
		if err != nil {
			if isUniqueConstraintErr(err) {
				return s.UpsertWork(ctx, w)
			}
			return nil, fmt.Errorf("catalog: insert work %q: %w", w.Title, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("catalog: work %q insert id: %w", w.Title, err)
		}
		var created models.Work
		if err := s.db.GetContext(ctx, &created, `SELECT * FROM works WHERE id = ?`, id); err != nil {
			return nil, fmt.Errorf("catalog: re-read work %q: %w", w.Title, err)
		}
		return &created, nil
	default:
		return nil, fmt.Errorf("catalog: lookup work %q: %w", w.Title, err)
	}
}

// ListEpisodesInWork returns every Episode belonging to a Work, ordered by
// episode number then publish date — the order ingest's re-air-matching
// scan relies on.
func (s *Store) ListEpisodesInWork(ctx context.Context, workID int64) ([]models.Episode, error) {
	var out []models.Episode
	err := s.db.SelectContext(ctx, &out, `
		SELECT * FROM episodes WHERE work_id = ?
		ORDER BY COALESCE(episode_number, 999999), COALESCE(published_at, '1970-01-01')`, workID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list episodes in work %d: %w", workID, err)
	}
	return out, nil
}
