// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

// Package controlplane implements the narrow on-demand submission and
// observability HTTP surface: health, metrics, an SSE event stream, and a
// handful of POST endpoints that enqueue work on the scheduler. The
// richly featured web UI a full dashboard would need stays out of scope
// as an external collaborator. It wraps around a *scheduler.Scheduler's
// submission channel, never running reconciliation/crawl/download logic
// itself.
//
// The underlying *http.Server is wired into the suture supervisor tree
// with internal/supervisor/services.NewHTTPServerService, not a bespoke
// Start/Stop pair.
package controlplane

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haxny/archivist/internal/catalog"
	"github.com/haxny/archivist/internal/events"
	internalmw "github.com/haxny/archivist/internal/middleware"
	"github.com/haxny/archivist/internal/reconcile"
	"github.com/haxny/archivist/internal/scheduler"
)

// Server holds the collaborators the control plane's handlers dispatch to.
// It never mutates catalog state directly; every write goes through
// scheduler.Submit or reconciler.Run.
type Server struct {
	store      *catalog.Store
	scheduler  *scheduler.Scheduler
	reconciler *reconcile.Reconciler
	bus        *events.Bus
	startTime  time.Time
}

// New builds a Server. None of store/scheduler/reconciler/bus may be nil.
func New(store *catalog.Store, sched *scheduler.Scheduler, reconciler *reconcile.Reconciler, bus *events.Bus) *Server {
	return &Server{
		store:      store,
		scheduler:  sched,
		reconciler: reconciler,
		bus:        bus,
		startTime:  time.Now(),
	}
}

// chiAdapter bridges this package's plain http.HandlerFunc-returning
// middleware (internal/middleware's existing convention) to Chi's
// func(http.Handler) http.Handler, exactly like chi_router.go's
// unexported chiMiddleware helper.
func chiAdapter(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Handler builds the control plane's chi.Mux. Callers wrap the result in an
// *http.Server and hand it to services.NewHTTPServerService for supervision.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chiAdapter(internalmw.RequestID))
	r.Use(chiAdapter(internalmw.PrometheusMetrics))

	// /events streams SSE and must not be wrapped in Compression: its
	// gzipResponseWriter doesn't implement http.Flusher, which would
	// silently turn the stream back into a single buffered response.
	r.With(chiAdapter(internalmw.Compression)).Get("/api/v1/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/events", s.handleEvents)

	r.Route("/submit", func(r chi.Router) {
		r.Use(httprate.LimitByIP(30, time.Minute))
		r.Use(chiAdapter(internalmw.Compression))
		r.Post("/probe", s.handleSubmitProbe)
		r.Post("/crawl", s.handleSubmitCrawl)
		r.Post("/run-jobs", s.handleSubmitRunJobs)
		r.Post("/reconcile", s.handleSubmitReconcile)
	})

	return r
}
