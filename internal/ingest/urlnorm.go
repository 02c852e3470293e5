// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package ingest

import (
	"net/url"
	"regexp"
	"strings"
)

// reairSuffixRe matches a trailing re-air numeric suffix, at least 7 digits
// so ordinary slug numbers aren't stripped. Duplicated from (rather than
// imported from) internal/dedupe deliberately: the two packages compare
// URLs for different purposes (cross-batch dedup vs. same-Work re-air
// detection against rows already in the catalog) and evolve independently,
// same as the two equivalent helper copies upstream.
var reairSuffixRe = regexp.MustCompile(`-\d{7,}$`)

// normalizeURL lowercases the host and strips a trailing slash, query, and
// fragment.
func normalizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimRight(strings.TrimSpace(raw), "/")
	}
	host := strings.ToLower(u.Host)
	path := strings.TrimRight(u.Path, "/")
	return u.Scheme + "://" + host + path
}

// normalizeURLStripReair applies normalizeURL and additionally strips a
// trailing re-air id from the path.
func normalizeURLStripReair(raw string) string {
	norm := normalizeURL(raw)
	if norm == "" {
		return ""
	}
	u, err := url.Parse(norm)
	if err != nil {
		return norm
	}
	u.Path = reairSuffixRe.ReplaceAllString(u.Path, "")
	return u.Scheme + "://" + u.Host + u.Path
}
