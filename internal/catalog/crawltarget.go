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
	"time"

	"github.com/haxny/archivist/internal/models"
)

// CreateCrawlTarget inserts a new user-supplied crawl target as active,
// scheduling its first crawl immediately. t.Active is not consulted.
func (s *Store) CreateCrawlTarget(ctx context.Context, t models.CrawlTarget) (*models.CrawlTarget, error) {
	if t.IntervalHours <= 0 {
		t.IntervalHours = 24
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO crawl_targets (url, kind, name, active, interval_hours, next_crawl_at)
		VALUES (?, ?, ?, 1, ?, CURRENT_TIMESTAMP)`,
		t.URL, t.Kind, t.Name, t.IntervalHours,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog: insert crawl target %q: %w", t.URL, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("catalog: crawl target %q insert id: %w", t.URL, err)
	}
	var created models.CrawlTarget
	if err := s.db.GetContext(ctx, &created, `SELECT * FROM crawl_targets WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("catalog: re-read crawl target %q: %w", t.URL, err)
	}
	return &created, nil
}

// ListDueCrawlTargets returns every active CrawlTarget whose next_crawl_at
// has elapsed.
func (s *Store) ListDueCrawlTargets(ctx context.Context) ([]models.CrawlTarget, error) {
	var out []models.CrawlTarget
	err := s.db.SelectContext(ctx, &out, `
		SELECT * FROM crawl_targets
		WHERE active = 1 AND (next_crawl_at IS NULL OR next_crawl_at <= CURRENT_TIMESTAMP)
		ORDER BY next_crawl_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list due crawl targets: %w", err)
	}
	return out, nil
}

// MarkCrawlTargetCrawled stamps last_crawled_at to now and schedules the
// next crawl interval_hours out.
func (s *Store) MarkCrawlTargetCrawled(ctx context.Context, id int64, interval time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE crawl_targets SET last_crawled_at = CURRENT_TIMESTAMP, next_crawl_at = ?
		WHERE id = ?`, time.Now().Add(interval), id)
	if err != nil {
		return fmt.Errorf("catalog: mark crawl target %d crawled: %w", id, err)
	}
	return nil
}

// GetCrawlTargetByID looks up a CrawlTarget by its primary key, used by the
// control plane's on-demand crawl-now endpoint.
func (s *Store) GetCrawlTargetByID(ctx context.Context, id int64) (*models.CrawlTarget, error) {
	var t models.CrawlTarget
	if err := s.db.GetContext(ctx, &t, `SELECT * FROM crawl_targets WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("catalog: get crawl target %d: %w", id, err)
	}
	return &t, nil
}

// FindCrawlTargetByURL looks up a CrawlTarget by its unique URL.
func (s *Store) FindCrawlTargetByURL(ctx context.Context, url string) (*models.CrawlTarget, error) {
	var t models.CrawlTarget
	if err := s.db.GetContext(ctx, &t, `SELECT * FROM crawl_targets WHERE url = ?`, url); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("catalog: find crawl target %q: %w", url, err)
	}
	return &t, nil
}
