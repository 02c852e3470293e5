// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package catalog

import (
	"errors"
	"strings"
)

// ErrNotFound is returned by single-row lookups that find nothing.
var ErrNotFound = errors.New("catalog: not found")

// isUniqueConstraintErr reports whether err is a SQLite UNIQUE constraint
// violation. modernc.org/sqlite does not expose a typed constraint code, so
// this matches on the driver's error text the way its own tests do.
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed")
}
