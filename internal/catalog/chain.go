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

// EpisodeChain is an Episode with its full Work->Series->Program->Station
// ancestry, the shape the download executor's path builder needs.
type EpisodeChain struct {
	Episode models.Episode
	Work    models.Work
	Series  models.Series
	Program models.Program
	Station models.Station
}

// GetEpisodeChain loads an Episode and walks its ancestry in four single-row
// lookups; there is no join view because each table already has its own
// narrow repository method and the chain is only ever walked one episode at
// a time (download and reconciliation), never in bulk.
func (s *Store) GetEpisodeChain(ctx context.Context, episodeID int64) (*EpisodeChain, error) {
	ep, err := s.GetEpisode(ctx, episodeID)
	if err != nil {
		return nil, fmt.Errorf("catalog: chain: %w", err)
	}

	var work models.Work
	if err := s.db.GetContext(ctx, &work, `SELECT * FROM works WHERE id = ?`, ep.WorkID); err != nil {
		return nil, fmt.Errorf("catalog: chain: load work %d: %w", ep.WorkID, err)
	}
	var series models.Series
	if err := s.db.GetContext(ctx, &series, `SELECT * FROM series WHERE id = ?`, work.SeriesID); err != nil {
		return nil, fmt.Errorf("catalog: chain: load series %d: %w", work.SeriesID, err)
	}
	var program models.Program
	if err := s.db.GetContext(ctx, &program, `SELECT * FROM programs WHERE id = ?`, series.ProgramID); err != nil {
		return nil, fmt.Errorf("catalog: chain: load program %d: %w", series.ProgramID, err)
	}
	var station models.Station
	if err := s.db.GetContext(ctx, &station, `SELECT * FROM stations WHERE id = ?`, program.StationID); err != nil {
		return nil, fmt.Errorf("catalog: chain: load station %d: %w", program.StationID, err)
	}

	return &EpisodeChain{Episode: *ep, Work: work, Series: series, Program: program, Station: station}, nil
}
