// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

/*
Package middleware provides HTTP middleware components for the control plane.

Key Components:

  - Compression: Gzip compression of responses when the client accepts gzip
  - Request ID: UUID-based request tracking for distributed tracing
  - Prometheus Metrics: HTTP request/response instrumentation

Middleware Stack:

internal/controlplane.Server.Handler adapts these with a small
func(http.Handler) http.Handler wrapper (chiAdapter) onto a chi.Mux:

	r.Use(chiAdapter(middleware.RequestID))
	r.Use(chiAdapter(middleware.PrometheusMetrics))
	r.With(chiAdapter(middleware.Compression)).Get("/api/v1/health", ...)

Usage Example - Compression:

	import "github.com/haxny/archivist/internal/middleware"

	// Wrap handler with gzip compression
	http.HandleFunc("/api/v1/data",
	    middleware.Compression(handler),
	)

	// Every response is compressed when the request's
	// Accept-Encoding header contains gzip

Usage Example - Request ID:

	// Request ID middleware
	http.HandleFunc("/api/v1/logs",
	    middleware.RequestID(handler),
	)

	// Access request ID in handler
	func handler(w http.ResponseWriter, r *http.Request) {
	    requestID := r.Context().Value(middleware.RequestIDKey).(string)
	    log.Printf("[%s] Processing request", requestID)
	}

Compression Details:

The compression middleware:
  - Compresses every response, whatever its size or content type
  - Supports gzip encoding (Accept-Encoding: gzip)
  - Skips requests carrying Upgrade: websocket
  - Automatically sets Content-Encoding header
  - Its wrapped ResponseWriter does not implement http.Flusher, so it is
    never applied to the SSE /events route (see controlplane.Server.Handler)

Thread Safety:

All middleware components are thread-safe:
  - Compression uses per-request gzip writers
  - Request ID uses context.Context (immutable)
  - Prometheus metrics use atomic operations

See Also:

  - internal/controlplane: HTTP handlers wrapped by this middleware
  - internal/metrics: Prometheus metrics definitions
*/
package middleware
