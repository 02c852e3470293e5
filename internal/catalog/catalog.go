// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

// Package catalog is the relational system of record (C1): stations,
// programs, series, works, episodes, aliases, assets, download jobs, crawl
// targets, and the availability log. It is the only component permitted to
// touch the database file; every other component goes through a Store
// method, and the atomic claim in ClaimNextJobs is the system's sole
// concurrency-serialization mechanism per episode.
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/haxny/archivist/internal/config"
)

// Store wraps the catalog database connection. All methods are safe for
// concurrent use; serialization beyond what SQLite itself provides is
// handled at the query level (see ClaimNextJobs).
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if necessary) the SQLite database at cfg.DBPath,
// applies pending migrations, and tunes the connection for a single-writer,
// many-reader workload.
func Open(ctx context.Context, cfg config.CatalogConfig) (*Store, error) {
	if cfg.DBPath != ":memory:" {
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("catalog: create db directory: %w", err)
			}
		}
	}

	busyMS := cfg.BusyTimeout
	if busyMS <= 0 {
		busyMS = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", cfg.DBPath, busyMS.Milliseconds())
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: open database: %w", err)
	}

	// A single writer connection avoids SQLITE_BUSY under WAL; readers use
	// the same pool since modernc.org/sqlite multiplexes internally.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("catalog: apply %q: %w", pragma, err)
		}
	}

	if err := migrate(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying *sqlx.DB for components (migrations, tests)
// that need direct access; everyday repository operations should prefer
// Store's typed methods.
func (s *Store) DB() *sqlx.DB {
	return s.db
}
