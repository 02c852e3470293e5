// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

// Package availability implements the reachability prober (C5): HEAD
// (falling back to GET on 405) every Episode URL due a check, records an
// AvailabilityLog row and the resulting state transition, and separately
// re-queues DownloadJobs in "watch" status whose content has reappeared.
//
// Ported from original_source/audiobiblio/availability.py
// (check_episode_availability/check_unknown_episodes/process_watch_list).
// Unlike internal/discovery's public-host fan-out, probing targets
// whatever host each Episode's own URL happens to be on, so there is no
// single shared rate limiter or circuit breaker to route calls through —
// plain net/http with a per-call context timeout is the same idiom this
// package's HTTP client otherwise shares with internal/discovery.
package availability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/haxny/archivist/internal/catalog"
	"github.com/haxny/archivist/internal/config"
	"github.com/haxny/archivist/internal/discovery"
	"github.com/haxny/archivist/internal/logging"
	"github.com/haxny/archivist/internal/metrics"
	"github.com/haxny/archivist/internal/models"
)

// Prober probes Episode URLs and updates the catalog with the result.
type Prober struct {
	store      *catalog.Store
	httpClient *http.Client
}

// New builds a Prober with a client timeout bound to cfg.RequestTimeout.
func New(store *catalog.Store, cfg config.AvailabilityConfig) *Prober {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Prober{
		store:      store,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CheckUnknownEpisodes probes up to limit Episodes currently unknown or
// unavailable, returning how many were checked.
func (p *Prober) CheckUnknownEpisodes(ctx context.Context, limit int) (int, error) {
	checked := 0
	for _, status := range []models.AvailabilityStatus{models.AvailabilityUnknown, models.AvailabilityUnavailable} {
		remaining := limit - checked
		if remaining <= 0 {
			break
		}
		episodes, err := p.store.ListEpisodesByAvailability(ctx, status, remaining)
		if err != nil {
			return checked, fmt.Errorf("availability: list episodes %q: %w", status, err)
		}
		for _, ep := range episodes {
			if ep.URL == "" {
				continue
			}
			if _, err := p.probeAndRecord(ctx, ep); err != nil {
				logging.Ctx(ctx).Error().Err(err).Int64("episode_id", ep.ID).Msg("availability probe failed")
			}
			checked++
		}
	}
	return checked, nil
}

// ProcessWatchList probes the current URL of every DownloadJob in "watch"
// status; jobs whose Episode comes back available are flipped to pending.
// Returns the number of jobs re-queued.
func (p *Prober) ProcessWatchList(ctx context.Context) (int, error) {
	jobs, err := p.store.ListWatchJobs(ctx)
	if err != nil {
		return 0, fmt.Errorf("availability: list watch jobs: %w", err)
	}

	requeued := 0
	seen := make(map[int64]models.AvailabilityStatus)
	for _, job := range jobs {
		status, ok := seen[job.EpisodeID]
		if !ok {
			ep, err := p.store.GetEpisode(ctx, job.EpisodeID)
			if err != nil {
				logging.Ctx(ctx).Error().Err(err).Int64("episode_id", job.EpisodeID).Msg("watch job episode lookup failed")
				continue
			}
			if ep.URL == "" {
				continue
			}
			status, err = p.probeAndRecord(ctx, *ep)
			if err != nil {
				logging.Ctx(ctx).Error().Err(err).Int64("episode_id", ep.ID).Msg("watch job probe failed")
				continue
			}
			seen[job.EpisodeID] = status
		}
		if status != models.AvailabilityAvailable {
			continue
		}
		n, err := p.store.RequeueWatchJobsForEpisode(ctx, job.EpisodeID)
		if err != nil {
			return requeued, fmt.Errorf("availability: requeue watch jobs for episode %d: %w", job.EpisodeID, err)
		}
		requeued += int(n)
		metrics.WatchRequeuedTotal.Add(float64(n))
	}
	return requeued, nil
}

// probeAndRecord runs one HEAD/GET probe against ep.URL, applies the
// state-machine transition, appends an AvailabilityLog row, and persists
// the episode's new status.
func (p *Prober) probeAndRecord(ctx context.Context, ep models.Episode) (models.AvailabilityStatus, error) {
	ctx = logging.ContextWithEpisodeID(ctx, ep.ID)
	httpStatus, err := p.probe(ctx, ep.URL)

	var newStatus models.AvailabilityStatus
	switch {
	case err == nil && httpStatus >= 200 && httpStatus < 400:
		newStatus = models.AvailabilityAvailable
	case httpStatus == 404 || httpStatus == 410:
		newStatus = models.AvailabilityGone
	default:
		newStatus = models.AvailabilityUnavailable
	}

	metrics.AvailabilityChecksTotal.WithLabelValues(string(newStatus)).Inc()

	if err := p.store.SetAvailability(ctx, ep.ID, newStatus); err != nil {
		return newStatus, fmt.Errorf("availability: set status for episode %d: %w", ep.ID, err)
	}

	var httpStatusPtr *int
	if httpStatus != 0 {
		httpStatusPtr = &httpStatus
	}
	if err := p.store.AppendAvailabilityLog(ctx, models.AvailabilityLog{
		EpisodeID:    ep.ID,
		WasAvailable: newStatus == models.AvailabilityAvailable,
		HTTPStatus:   httpStatusPtr,
	}); err != nil {
		return newStatus, fmt.Errorf("availability: append log for episode %d: %w", ep.ID, err)
	}

	return newStatus, nil
}

// probe issues a HEAD request, retrying with a GET (closed immediately,
// never buffered) if the server rejects HEAD with 405. Returns the final
// HTTP status code, or a zero code alongside the transport error.
func (p *Prober) probe(ctx context.Context, url string) (int, error) {
	status, err := p.do(ctx, http.MethodHead, url)
	if err != nil {
		return 0, err
	}
	if status == http.StatusMethodNotAllowed {
		return p.do(ctx, http.MethodGet, url)
	}
	return status, nil
}

func (p *Prober) do(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, fmt.Errorf("availability: build %s request: %w", method, err)
	}
	req.Header.Set("User-Agent", discovery.BrowserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("availability: %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
