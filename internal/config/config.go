// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

// Package config loads application configuration from built-in defaults, an
// optional YAML file, and environment variables, in that order of
// increasing precedence.
//
// # Configuration Loading Order (Koanf v2)
//
//  1. Defaults: sensible built-in values for every setting.
//  2. Config file: an optional YAML file, located via ARCHIVIST_CONFIG_PATH
//     or one of DefaultConfigPaths.
//  3. Environment variables: ARCHIVIST_-prefixed, override everything else.
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("failed to load configuration")
//	}
//	store, err := catalog.Open(ctx, cfg.Catalog)
package config

import "time"

// Config is the root application configuration.
type Config struct {
	Catalog      CatalogConfig      `koanf:"catalog"`
	Library      LibraryConfig      `koanf:"library"`
	Discovery    DiscoveryConfig    `koanf:"discovery"`
	Availability AvailabilityConfig `koanf:"availability"`
	Scheduler    SchedulerConfig    `koanf:"scheduler"`
	Download     DownloadConfig     `koanf:"download"`
	LinkGrabber  LinkGrabberConfig  `koanf:"link_grabber"`
	LibraryNotify LibraryNotifyConfig `koanf:"library_notify"`
	Server       ServerConfig       `koanf:"server"`
	Logging      LoggingConfig      `koanf:"logging"`
}

// CatalogConfig configures the relational catalog store (C1).
type CatalogConfig struct {
	// DBPath is the filesystem path to the SQLite database file. It
	// defaults to a path under the per-user data directory and must not
	// be empty.
	DBPath string `koanf:"db_path" validate:"required"`
	// BusyTimeout bounds how long a writer waits behind another writer
	// before the database returns SQLITE_BUSY.
	BusyTimeout time.Duration `koanf:"busy_timeout"`
}

// LibraryConfig configures on-disk output layout.
type LibraryConfig struct {
	// LibraryDir is the root of organized, tagged output.
	LibraryDir string `koanf:"library_dir" validate:"required"`
	// DownloadDir is scratch space for in-progress extractor output.
	DownloadDir string `koanf:"download_dir" validate:"required"`
}

// DiscoveryConfig configures the discovery fan-out (C2) and its shared
// rate limiter.
type DiscoveryConfig struct {
	// RateLimitRPS is the token-bucket refill rate against the public host.
	RateLimitRPS float64 `koanf:"rate_limit_rps" validate:"gt=0"`
	// RateLimitBurst is the token bucket's burst capacity.
	RateLimitBurst int `koanf:"rate_limit_burst" validate:"gte=1"`
	// RequestTimeout bounds every outbound discovery HTTP call.
	RequestTimeout time.Duration `koanf:"request_timeout"`
	// UserAgent is sent on every discovery/availability HTTP request.
	UserAgent string `koanf:"user_agent"`
}

// AvailabilityConfig configures the availability prober (C5).
type AvailabilityConfig struct {
	// RequestTimeout bounds one HEAD/GET probe.
	RequestTimeout time.Duration `koanf:"request_timeout"`
	// BatchSize bounds how many unknown/unavailable episodes one probe
	// tick checks.
	BatchSize int `koanf:"batch_size" validate:"gte=1"`
}

// SchedulerConfig configures the three periodic ticks (C7).
type SchedulerConfig struct {
	CrawlInterval        time.Duration `koanf:"crawl_interval"`
	DownloadInterval     time.Duration `koanf:"download_interval"`
	AvailabilityInterval time.Duration `koanf:"availability_interval"`
	// ReapGracePeriod is how long a `running` job may go unfinished
	// before the startup reaper presumes its executor crashed.
	ReapGracePeriod time.Duration `koanf:"reap_grace_period"`
}

// DownloadConfig configures the download executor (C6).
type DownloadConfig struct {
	// BatchSize is how many pending jobs one download tick claims.
	BatchSize int `koanf:"batch_size" validate:"gte=1"`
	// Concurrency bounds how many jobs run at once within a tick.
	Concurrency int `koanf:"concurrency" validate:"gte=1"`
	// ExtractorPath is the executable used for the flat-playlist source
	// and the audio/metadata/webpage backends (commonly yt-dlp).
	ExtractorPath string `koanf:"extractor_path"`
}

// LinkGrabberConfig configures the JDownloader2-compatible REST backend
// used for episodes hosted on the alternate broadcaster host.
type LinkGrabberConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// LibraryNotifyConfig configures the post-download library-scan notify
// collaborator.
type LibraryNotifyConfig struct {
	URL       string `koanf:"url"`
	APIKey    string `koanf:"api_key"`
	LibraryID string `koanf:"library_id"`
}

// ServerConfig configures the narrow control-plane HTTP surface.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"gte=1,lte=65535"`
}

// LoggingConfig configures the zerolog-backed logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
