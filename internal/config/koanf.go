// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order
// of priority. The first one found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/archivist/config.yaml",
	"/etc/archivist/config.yml",
}

// ConfigPathEnvVar overrides the searched config file path.
const ConfigPathEnvVar = "ARCHIVIST_CONFIG_PATH"

// envPrefix is stripped from every ARCHIVIST_-prefixed environment
// variable before it is mapped onto a koanf path.
const envPrefix = "ARCHIVIST_"

func defaultConfig() *Config {
	dataDir := defaultDataDir()
	return &Config{
		Catalog: CatalogConfig{
			DBPath:      filepath.Join(dataDir, "archivist.db"),
			BusyTimeout: 5 * time.Second,
		},
		Library: LibraryConfig{
			LibraryDir:  filepath.Join(dataDir, "library"),
			DownloadDir: filepath.Join(dataDir, "media", "_downloading"),
		},
		Discovery: DiscoveryConfig{
			RateLimitRPS:   0.5,
			RateLimitBurst: 2,
			RequestTimeout: 30 * time.Second,
			UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
				"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Availability: AvailabilityConfig{
			RequestTimeout: 15 * time.Second,
			BatchSize:      50,
		},
		Scheduler: SchedulerConfig{
			CrawlInterval:        60 * time.Minute,
			DownloadInterval:     5 * time.Minute,
			AvailabilityInterval: 6 * time.Hour,
			ReapGracePeriod:      15 * time.Minute,
		},
		Download: DownloadConfig{
			BatchSize:     10,
			Concurrency:   3,
			ExtractorPath: "yt-dlp",
		},
		LinkGrabber: LinkGrabberConfig{
			Host: "localhost",
			Port: 3129,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

func defaultDataDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(dir, ".local", "share", "archivist")
	}
	return "/var/lib/archivist"
}

// Load builds a Config from defaults, an optional YAML file, and
// ARCHIVIST_-prefixed environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransformFunc maps ARCHIVIST_CATALOG_DB_PATH -> catalog.db_path, i.e.
// the first underscore-separated segment becomes the top-level koanf key
// and the remainder (lowercased, underscores kept) becomes the leaf key.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	parts := strings.SplitN(key, "_", 2)
	if len(parts) != 2 {
		return key
	}
	section, ok := knownSections[parts[0]]
	if !ok {
		return key
	}
	return section + "." + parts[1]
}

var knownSections = map[string]string{
	"catalog":        "catalog",
	"library":        "library",
	"discovery":      "discovery",
	"availability":   "availability",
	"scheduler":      "scheduler",
	"download":       "download",
	"linkgrabber":    "link_grabber",
	"librarynotify":  "library_notify",
	"server":         "server",
	"logging":        "logging",
}
