// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

// Package errs names the error taxonomy the reconciliation loop
// distinguishes: Transport, UpstreamGone, ExtractorBroken, RateLimited,
// Storage, PostProcessing, and Configuration. Components wrap a sentinel
// Kind with fmt.Errorf("%w", ...) and callers branch on it with
// errors.Is/errors.As rather than matching strings.
package errs

import (
	"errors"
	"fmt"
)

// Kind is a coarse error category used for branching, not for display.
type Kind error

var (
	// Transport covers HTTP timeouts, DNS failures, and connection resets.
	Transport Kind = errors.New("transport error")
	// UpstreamGone covers a 404/410 response or an extractor's explicit
	// "no such stream" signal.
	UpstreamGone Kind = errors.New("upstream gone")
	// ExtractorBroken covers a source adapter returning unparsable or
	// incomplete data; the adapter should log and return empty rather
	// than propagate this past its own boundary.
	ExtractorBroken Kind = errors.New("extractor broken")
	// RateLimited covers a 429 response or local token-bucket saturation.
	RateLimited Kind = errors.New("rate limited")
	// Storage covers a catalog I/O failure that is not a recoverable
	// unique-constraint collision (those are retried once internally).
	Storage Kind = errors.New("storage error")
	// PostProcessing covers a tagging or library-move failure after a
	// successful download.
	PostProcessing Kind = errors.New("post-processing error")
	// Configuration covers a missing or malformed required setting;
	// always fatal at startup.
	Configuration Kind = errors.New("configuration error")
)

// Wrap annotates err with a Kind so later errors.Is(err, kind) checks
// succeed, while keeping the original message and chain intact.
func Wrap(kind Kind, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	return errors.Is(err, kind)
}
