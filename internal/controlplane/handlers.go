// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package controlplane

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/haxny/archivist/internal/catalog"
	"github.com/haxny/archivist/internal/events"
	"github.com/haxny/archivist/internal/logging"
	"github.com/haxny/archivist/internal/reconcile"
)

// handleHealth reports process liveness and catalog connectivity, mirroring
// a Kubernetes-style combined health/readiness check; this surface has no
// separate /live and /ready split since it fronts a single background
// worker process, not a request-serving web tier.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbOK := s.store.DB().PingContext(ctx) == nil
	status := "healthy"
	code := http.StatusOK
	if !dbOK {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, r, code, map[string]interface{}{
		"status":             status,
		"database_connected": dbOK,
		"uptime_seconds":     time.Since(s.startTime).Seconds(),
	})
}

type crawlRequest struct {
	TargetID int64 `json:"target_id"`
}

// handleSubmitCrawl runs one CrawlTarget's crawl immediately.
func (s *Server) handleSubmitCrawl(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetID <= 0 {
		writeError(w, r, http.StatusBadRequest, "target_id is required")
		return
	}

	target, err := s.store.GetCrawlTargetByID(r.Context(), req.TargetID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "crawl target not found")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Int64("target_id", req.TargetID).Msg("controlplane: submit crawl: lookup failed")
		writeError(w, r, http.StatusInternalServerError, "lookup failed")
		return
	}

	if err := s.scheduler.SubmitCrawlTargetNow(r.Context(), *target); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "submission queue is full")
		return
	}
	writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "queued"})
}

type runJobsRequest struct {
	Limit int `json:"limit"`
}

// handleSubmitRunJobs runs up to limit pending download jobs immediately.
func (s *Server) handleSubmitRunJobs(w http.ResponseWriter, r *http.Request) {
	var req runJobsRequest
	_ = json.NewDecoder(r.Body).Decode(&req) // empty body means default limit
	if req.Limit <= 0 {
		req.Limit = 10
	}

	if err := s.scheduler.SubmitRunJobsNow(r.Context(), req.Limit); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "submission queue is full")
		return
	}
	writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "queued"})
}

type probeRequest struct {
	Limit int `json:"limit"`
}

// handleSubmitProbe runs an availability probe pass immediately.
func (s *Server) handleSubmitProbe(w http.ResponseWriter, r *http.Request) {
	var req probeRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Limit <= 0 {
		req.Limit = 50
	}

	if err := s.scheduler.SubmitProbeNow(r.Context(), req.Limit); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "submission queue is full")
		return
	}
	writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "queued"})
}

type reconcileRequest struct {
	ProgramID int64  `json:"program_id"`
	Folder    string `json:"folder"`
}

// handleSubmitReconcile runs a one-shot local library reconciliation pass
// for the given program against the given folder.
func (s *Server) handleSubmitReconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProgramID <= 0 || req.Folder == "" {
		writeError(w, r, http.StatusBadRequest, "program_id and folder are required")
		return
	}

	err := s.scheduler.Submit(r.Context(), func(ctx context.Context) {
		result, err := s.reconciler.Run(ctx, req.ProgramID, req.Folder)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Int64("program_id", req.ProgramID).Msg("controlplane: on-demand reconcile failed")
			return
		}
		if pubErr := s.bus.Publish(events.TopicReconcile, events.Progress{
			Component: "reconcile",
			Status:    "done",
			Message:   reconcileSummary(result),
		}); pubErr != nil {
			logging.Ctx(ctx).Warn().Err(pubErr).Msg("controlplane: publish reconcile progress failed")
		}
	})
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "submission queue is full")
		return
	}
	writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "queued"})
}

func reconcileSummary(result reconcile.Result) string {
	return fmt.Sprintf("scanned=%d matched=%d imported=%d skipped=%d unmatched_files=%d unmatched_episodes=%d",
		result.FilesScanned, result.Matched, result.Imported, result.SkippedComplete,
		result.UnmatchedFiles, result.UnmatchedEpisodes)
}
