// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Discovery.RateLimitRPS != 0.5 {
		t.Errorf("RateLimitRPS = %v, want 0.5", cfg.Discovery.RateLimitRPS)
	}
	if cfg.Discovery.RateLimitBurst != 2 {
		t.Errorf("RateLimitBurst = %v, want 2", cfg.Discovery.RateLimitBurst)
	}
	if cfg.Scheduler.CrawlInterval.Minutes() != 60 {
		t.Errorf("CrawlInterval = %v, want 60m", cfg.Scheduler.CrawlInterval)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ARCHIVIST_DISCOVERY_RATE_LIMIT_RPS", "2.5")
	t.Setenv("ARCHIVIST_SERVER_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Discovery.RateLimitRPS != 2.5 {
		t.Errorf("RateLimitRPS = %v, want 2.5", cfg.Discovery.RateLimitRPS)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %v, want 9090", cfg.Server.Port)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlContent := "server:\n  port: 7070\ndiscovery:\n  rate_limit_rps: 1.0\n"
	if err := os.WriteFile(path, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %v, want 7070", cfg.Server.Port)
	}
	if cfg.Discovery.RateLimitRPS != 1.0 {
		t.Errorf("RateLimitRPS = %v, want 1.0", cfg.Discovery.RateLimitRPS)
	}
}

func TestValidate_RejectsZeroRate(t *testing.T) {
	cfg := defaultConfig()
	cfg.Discovery.RateLimitRPS = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for zero rate limit, got nil")
	}
}

func TestValidate_RejectsSameLibraryAndDownloadDir(t *testing.T) {
	cfg := defaultConfig()
	cfg.Library.DownloadDir = cfg.Library.LibraryDir
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for identical library/download dirs, got nil")
	}
}
