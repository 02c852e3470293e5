// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package models

import "time"

// Station is a broadcast channel. Created by idempotent seeding; rarely
// mutated; never deleted while a Program references it.
type Station struct {
	ID        int64     `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"` // unique short tag, e.g. "d1", "plus"
	Name      string    `json:"name" db:"name"`
	Website   string    `json:"website,omitempty" db:"website"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Program is a named show on a Station. Uniqueness: (station_id, name).
type Program struct {
	ID             int64      `json:"id" db:"id"`
	StationID      int64      `json:"station_id" db:"station_id"`
	ExtID          string     `json:"ext_id,omitempty" db:"ext_id"`
	Name           string     `json:"name" db:"name"`
	URL            string     `json:"url,omitempty" db:"url"`
	Description    string     `json:"description,omitempty" db:"description"`
	Genre          string     `json:"genre,omitempty" db:"genre"`
	ChannelLabel   string     `json:"channel_label,omitempty" db:"channel_label"`
	AutoCrawl      bool       `json:"auto_crawl" db:"auto_crawl"`
	CrawlInterval  *int       `json:"crawl_interval_hours,omitempty" db:"crawl_interval_hours"`
	LastCrawledAt  *time.Time `json:"last_crawled_at,omitempty" db:"last_crawled_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// Series is a sub-grouping under a Program. For single-part shows the
// Series typically mirrors the Program. Uniqueness: (program_id, name).
type Series struct {
	ID        int64     `json:"id" db:"id"`
	ProgramID int64     `json:"program_id" db:"program_id"`
	ExtID     string    `json:"ext_id,omitempty" db:"ext_id"`
	Name      string    `json:"name" db:"name"`
	URL       string    `json:"url,omitempty" db:"url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Work is a specific book/album within a Series; many radio Series adapt
// one book into multiple Episodes. Uniqueness: (series_id, title).
type Work struct {
	ID        int64     `json:"id" db:"id"`
	SeriesID  int64     `json:"series_id" db:"series_id"`
	Title     string    `json:"title" db:"title"`
	Author    string    `json:"author,omitempty" db:"author"`
	Year      *int      `json:"year,omitempty" db:"year"`
	ASIN      string    `json:"asin,omitempty" db:"asin"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AvailabilityStatus is an Episode's three-state (plus unknown)
// reachability lifecycle.
type AvailabilityStatus string

const (
	AvailabilityUnknown     AvailabilityStatus = "unknown"
	AvailabilityAvailable   AvailabilityStatus = "available"
	AvailabilityUnavailable AvailabilityStatus = "unavailable"
	AvailabilityGone        AvailabilityStatus = "gone"
)

// Episode is a downloadable item under a Work.
type Episode struct {
	ID                int64              `json:"id" db:"id"`
	WorkID            int64              `json:"work_id" db:"work_id"`
	ExtID             string             `json:"ext_id,omitempty" db:"ext_id"` // unique when present
	Title             string             `json:"title" db:"title"`
	EpisodeNumber     *int               `json:"episode_number,omitempty" db:"episode_number"`
	PublishedAt       *time.Time         `json:"published_at,omitempty" db:"published_at"`
	URL               string             `json:"url,omitempty" db:"url"` // currently preferred source URL
	DurationMS        *int64             `json:"duration_ms,omitempty" db:"duration_ms"`
	Summary           string             `json:"summary,omitempty" db:"summary"`
	AvailabilityStatus AvailabilityStatus `json:"availability_status" db:"availability_status"`
	FirstSeenAt       *time.Time         `json:"first_seen_at,omitempty" db:"first_seen_at"`
	LastSeenAt        *time.Time         `json:"last_seen_at,omitempty" db:"last_seen_at"`
	LastCheckedAt     *time.Time         `json:"last_checked_at,omitempty" db:"last_checked_at"`
	AutoDownload      bool               `json:"auto_download" db:"auto_download"`
	Priority          int                `json:"priority" db:"priority"` // higher fetches first
	DiscoverySource   string             `json:"discovery_source,omitempty" db:"discovery_source"`
	CreatedAt         time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" db:"updated_at"`
}

// EpisodeAlias is a secondary URL or external id under which a canonical
// Episode has been observed (re-airs, URL variants). Append-only;
// uniqueness: (episode_id, url).
type EpisodeAlias struct {
	ID              int64     `json:"id" db:"id"`
	EpisodeID       int64     `json:"episode_id" db:"episode_id"`
	URL             string    `json:"url,omitempty" db:"url"`
	ExtID           string    `json:"ext_id,omitempty" db:"ext_id"`
	AirDate         *time.Time `json:"air_date,omitempty" db:"air_date"`
	DiscoverySource string    `json:"discovery_source,omitempty" db:"discovery_source"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// AvailabilityLog is an append-only probe record.
type AvailabilityLog struct {
	ID           int64     `json:"id" db:"id"`
	EpisodeID    int64     `json:"episode_id" db:"episode_id"`
	CheckedAt    time.Time `json:"checked_at" db:"checked_at"`
	WasAvailable bool      `json:"was_available" db:"was_available"`
	HTTPStatus   *int      `json:"http_status,omitempty" db:"http_status"`
}

// CrawlTargetKind classifies the URL a CrawlTarget points at.
type CrawlTargetKind string

const (
	CrawlTargetStation CrawlTargetKind = "station"
	CrawlTargetProgram CrawlTargetKind = "program"
	CrawlTargetSeries  CrawlTargetKind = "series"
)

// CrawlTarget is a user-supplied URL swept periodically for new Episodes.
type CrawlTarget struct {
	ID            int64           `json:"id" db:"id"`
	URL           string          `json:"url" db:"url"` // unique
	Kind          CrawlTargetKind `json:"kind" db:"kind"`
	Name          string          `json:"name,omitempty" db:"name"`
	Active        bool            `json:"active" db:"active"`
	IntervalHours int             `json:"interval_hours" db:"interval_hours"`
	LastCrawledAt *time.Time      `json:"last_crawled_at,omitempty" db:"last_crawled_at"`
	NextCrawlAt   *time.Time      `json:"next_crawl_at,omitempty" db:"next_crawl_at"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
