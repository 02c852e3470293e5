// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

// Package models defines the catalog's entities: the Station -> Program ->
// Series -> Work -> Episode tree, its Asset/DownloadJob work items, and the
// append-only EpisodeAlias and AvailabilityLog history. All timestamps are
// UTC.
package models
