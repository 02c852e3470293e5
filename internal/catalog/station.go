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

// UpsertStation idempotently ensures a Station row exists for code, creating
// it with name/website on first sight. Later calls do not overwrite name or
// website; stations are seeded once and rarely renamed by hand.
func (s *Store) UpsertStation(ctx context.Context, code, name, website string) (*models.Station, error) {
	var st models.Station
	err := s.db.GetContext(ctx, &st, `SELECT * FROM stations WHERE code = ?`, code)
	if err == nil {
		return &st, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("catalog: lookup station %q: %w", code, err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO stations (code, name, website) VALUES (?, ?, ?)`,
		code, name, website,
	)
	if err != nil {
		if isUniqueConstraintErr(err) {
			// Lost a race with a concurrent seed; re-read the winner.
			if err := s.db.GetContext(ctx, &st, `SELECT * FROM stations WHERE code = ?`, code); err != nil {
				return nil, fmt.Errorf("catalog: re-read station %q after race: %w", code, err)
			}
			return &st, nil
		}
		return nil, fmt.Errorf("catalog: insert station %q: %w", code, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("catalog: station %q insert id: %w", code, err)
	}
	if err := s.db.GetContext(ctx, &st, `SELECT * FROM stations WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("catalog: re-read station %q: %w", code, err)
	}
	return &st, nil
}

// FindStationByCode looks up a Station by its short code.
func (s *Store) FindStationByCode(ctx context.Context, code string) (*models.Station, error) {
	var st models.Station
	if err := s.db.GetContext(ctx, &st, `SELECT * FROM stations WHERE code = ?`, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("catalog: find station %q: %w", code, err)
	}
	return &st, nil
}
