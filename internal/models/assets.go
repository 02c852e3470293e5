// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package models

import "time"

// AssetType enumerates the artifacts an Episode may have.
type AssetType string

const (
	AssetAudio      AssetType = "audio"
	AssetMetaJSON   AssetType = "meta_json"
	AssetWebpage    AssetType = "webpage"
	AssetCover      AssetType = "cover"
	AssetTranscript AssetType = "transcript"
	AssetSubtitle   AssetType = "subtitle"
	AssetOther      AssetType = "other"
)

// RequiredAssetTypes is the set of Asset types every Episode must have
// planned, lazily, on first ingest.
var RequiredAssetTypes = []AssetType{AssetAudio, AssetMetaJSON, AssetWebpage}

// AssetStatus is an Asset's fetch/processing lifecycle.
type AssetStatus string

const (
	AssetMissing     AssetStatus = "missing"
	AssetQueued      AssetStatus = "queued"
	AssetDownloading AssetStatus = "downloading"
	AssetComplete    AssetStatus = "complete"
	AssetFailed      AssetStatus = "failed"
	AssetStale       AssetStatus = "stale"
	AssetSkipped     AssetStatus = "skipped"
)

// Asset is one required artifact for an Episode; one row per
// (episode_id, type).
type Asset struct {
	ID         int64       `json:"id" db:"id"`
	EpisodeID  int64       `json:"episode_id" db:"episode_id"`
	Type       AssetType   `json:"type" db:"type"`
	Status     AssetStatus `json:"status" db:"status"`
	SourceURL  string      `json:"source_url,omitempty" db:"source_url"`
	FilePath   string      `json:"file_path,omitempty" db:"file_path"`
	SizeBytes  *int64      `json:"size_bytes,omitempty" db:"size_bytes"`
	Checksum   string      `json:"checksum,omitempty" db:"checksum"`
	Codec      string      `json:"codec,omitempty" db:"codec"`
	Container  string      `json:"container,omitempty" db:"container"`
	Bitrate    *int        `json:"bitrate,omitempty" db:"bitrate"`
	Channels   *int        `json:"channels,omitempty" db:"channels"`
	SampleRate *int        `json:"sample_rate,omitempty" db:"sample_rate"`
	FirstSeenAt time.Time  `json:"first_seen_at" db:"first_seen_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
}

// JobStatus is a DownloadJob's lifecycle. Jobs are immutable once in a
// terminal state (success, skipped).
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobSuccess JobStatus = "success"
	JobError   JobStatus = "error"
	JobSkipped JobStatus = "skipped"
	// JobWatch marks a job whose content is suspected gone; the
	// availability prober re-queues it to pending if it reappears.
	JobWatch JobStatus = "watch"
)

// DownloadJob is a unit of work targeting one Asset.
type DownloadJob struct {
	ID         int64      `json:"id" db:"id"`
	EpisodeID  int64      `json:"episode_id" db:"episode_id"`
	AssetType  AssetType  `json:"asset_type" db:"asset_type"`
	Status     JobStatus  `json:"status" db:"status"`
	Reason     string     `json:"reason,omitempty" db:"reason"`
	Command    string     `json:"command,omitempty" db:"command"`
	Error      string     `json:"error,omitempty" db:"error"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}
