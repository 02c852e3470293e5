// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks struct-tag constraints plus the cross-field rules the
// validator package can't express: library/download directories must be
// set and distinct, and the rate limit config must admit at least one
// request.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validation: %w", err)
	}
	if c.Library.LibraryDir == c.Library.DownloadDir {
		return fmt.Errorf("library_dir and download_dir must differ")
	}
	if c.Discovery.RateLimitRPS <= 0 || c.Discovery.RateLimitBurst < 1 {
		return fmt.Errorf("discovery rate limit must allow at least one request")
	}
	return nil
}
