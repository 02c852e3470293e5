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

// UpsertSeries ensures a Series row exists for (programID, name).
func (s *Store) UpsertSeries(ctx context.Context, sr models.Series) (*models.Series, error) {
	var existing models.Series
	err := s.db.GetContext(ctx, &existing,
		`SELECT * FROM series WHERE program_id = ? AND name = ?`, sr.ProgramID, sr.Name)

	switch {
	case err == nil:
		return &existing, nil
	case errors.Is(err, sql.ErrNoRows):
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO series (program_id, ext_id, name, url) VALUES (?, ?, ?, ?)`,
			sr.ProgramID, sr.ExtID, sr.Name, sr.URL,
		)
		if err != nil {
			if isUniqueConstraintErr(err) {
				return s.UpsertSeries(ctx, sr)
			}
			return nil, fmt.Errorf("catalog: insert series %q: %w", sr.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("catalog: series %q insert id: %w", sr.Name, err)
		}
		var created models.Series
		if err := s.db.GetContext(ctx, &created, `SELECT * FROM series WHERE id = ?`, id); err != nil {
			return nil, fmt.Errorf("catalog: re-read series %q: %w", sr.Name, err)
		}
		return &created, nil
	default:
		return nil, fmt.Errorf("catalog: lookup series %q: %w", sr.Name, err)
	}
}

// ListSeriesByProgram returns every Series under a Program.
func (s *Store) ListSeriesByProgram(ctx context.Context, programID int64) ([]models.Series, error) {
	var out []models.Series
	if err := s.db.SelectContext(ctx, &out, `SELECT * FROM series WHERE program_id = ? ORDER BY name`, programID); err != nil {
		return nil, fmt.Errorf("catalog: list series for program %d: %w", programID, err)
	}
	return out, nil
}
