// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

// Package scheduler implements the process-wide scheduler (C7): three
// single-instance-guarded periodic ticks (crawl, download, availability)
// plus an on-demand submission path for control-plane-triggered work,
// exposed as a StartStopManager so internal/supervisor/services.SyncService
// wraps it into the suture supervisor tree.
//
// Ported from original_source/audiobiblio/scheduler.py.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haxny/archivist/internal/availability"
	"github.com/haxny/archivist/internal/catalog"
	"github.com/haxny/archivist/internal/config"
	"github.com/haxny/archivist/internal/dedupe"
	"github.com/haxny/archivist/internal/discovery"
	"github.com/haxny/archivist/internal/download"
	"github.com/haxny/archivist/internal/ingest"
	"github.com/haxny/archivist/internal/logging"
	"github.com/haxny/archivist/internal/metrics"
	"github.com/haxny/archivist/internal/models"
)

// Scheduler owns the crawl/download/availability ticks. Zero value is not
// usable; build with New.
type Scheduler struct {
	store       *catalog.Store
	discoverer  *discovery.Discoverer
	executor    *download.Executor
	prober      *availability.Prober
	cfg         config.SchedulerConfig
	downloadCfg config.DownloadConfig
	availCfg    config.AvailabilityConfig

	crawlRunning atomic.Bool
	dlRunning    atomic.Bool
	availRunning atomic.Bool

	submissions chan func(context.Context)
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// New builds a Scheduler over its collaborators. submissionWorkers sizes
// the on-demand submission queue for probe/crawl-now/run-jobs/reconcile
// requests from the control plane: the queue buffers submissionWorkers*4
// tasks (submissionWorkers defaults to 4 when not positive) and a single
// goroutine drains it (see submissionLoop).
func New(store *catalog.Store, discoverer *discovery.Discoverer, executor *download.Executor, prober *availability.Prober, cfg config.SchedulerConfig, downloadCfg config.DownloadConfig, availCfg config.AvailabilityConfig, submissionWorkers int) *Scheduler {
	if submissionWorkers <= 0 {
		submissionWorkers = 4
	}
	return &Scheduler{
		store:       store,
		discoverer:  discoverer,
		executor:    executor,
		prober:      prober,
		cfg:         cfg,
		downloadCfg: downloadCfg,
		availCfg:    availCfg,
		submissions: make(chan func(context.Context), submissionWorkers*4),
	}
}

// Start implements the StartStopManager shape internal/supervisor/services
// already adapts: it runs the startup reaper, an initial crawl+download
// pass, then launches the three ticker loops and the submission worker
// pool in the background and returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	grace := s.cfg.ReapGracePeriod
	if grace <= 0 {
		grace = 15 * time.Minute
	}
	if n, err := s.store.ReapStaleRunning(runCtx, grace); err != nil {
		logging.Ctx(runCtx).Error().Err(err).Msg("scheduler: startup reaper failed")
	} else if n > 0 {
		logging.Ctx(runCtx).Warn().Int64("reaped", n).Msg("scheduler: reaped stale running jobs at startup")
	}

	s.runCrawlTick(runCtx)
	s.runDownloadTick(runCtx)

	s.wg.Add(4)
	go s.tickLoop(runCtx, "crawl", s.cfg.CrawlInterval, 60*time.Minute, &s.crawlRunning, s.runCrawlTick)
	go s.tickLoop(runCtx, "download", s.cfg.DownloadInterval, 5*time.Minute, &s.dlRunning, s.runDownloadTick)
	go s.tickLoop(runCtx, "availability", s.cfg.AvailabilityInterval, 6*time.Hour, &s.availRunning, s.runAvailabilityTick)
	go s.submissionLoop(runCtx)

	return nil
}

// Stop cancels the scheduler's background context and waits for its
// ticker and worker goroutines to exit. Shutdown is immediate and does
// not wait for in-progress ticks; restart safety comes from the
// claim/reap mechanism, not a graceful drain here.
func (s *Scheduler) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	return nil
}

// tickLoop runs fn once per interval (falling back to defaultInterval
// when unconfigured), skipping a firing entirely if the previous one for
// this tick is still running (max_instances=1).
func (s *Scheduler) tickLoop(ctx context.Context, name string, interval, defaultInterval time.Duration, running *atomic.Bool, fn func(context.Context)) {
	defer s.wg.Done()
	if interval <= 0 {
		interval = defaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !running.CompareAndSwap(false, true) {
				logging.Ctx(ctx).Warn().Str("tick", name).Msg("scheduler: skipped tick, previous instance still running")
				continue
			}
			fn(ctx)
			running.Store(false)
		}
	}
}

func (s *Scheduler) runCrawlTick(ctx context.Context) {
	start := time.Now()
	targets, err := s.store.ListDueCrawlTargets(ctx)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("scheduler: crawl tick: list due targets failed")
		metrics.SchedulerTickErrors.WithLabelValues("crawl").Inc()
		return
	}
	for _, target := range targets {
		s.crawlOneTarget(ctx, target)
	}
	metrics.SchedulerTickDuration.WithLabelValues("crawl").Observe(time.Since(start).Seconds())
}

func (s *Scheduler) crawlOneTarget(ctx context.Context, target models.CrawlTarget) {
	if target.Kind == models.CrawlTargetStation {
		ctx = logging.ContextWithStationID(ctx, target.ID)
	}
	log := logging.Ctx(ctx).With().Int64("target_id", target.ID).Str("url", target.URL).Logger()

	entries, err := s.discoverer.DiscoverProgram(ctx, target.URL)
	if err != nil {
		log.Error().Err(err).Msg("scheduler: crawl: discovery failed")
		metrics.SchedulerTickErrors.WithLabelValues("crawl").Inc()
		return
	}

	unique, _ := dedupe.Dedupe(entries, nil, target.Name)
	if _, err := ingest.Batch(ctx, s.store, unique, target.Name); err != nil {
		log.Error().Err(err).Msg("scheduler: crawl: ingest batch failed")
		metrics.SchedulerTickErrors.WithLabelValues("crawl").Inc()
	}

	interval := time.Duration(target.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = s.cfg.CrawlInterval
	}
	if err := s.store.MarkCrawlTargetCrawled(ctx, target.ID, interval); err != nil {
		log.Error().Err(err).Msg("scheduler: crawl: mark crawled failed")
	}
}

func (s *Scheduler) runDownloadTick(ctx context.Context) {
	start := time.Now()
	batch := s.downloadCfg.BatchSize
	if batch <= 0 {
		batch = 10
	}
	if _, err := s.executor.RunPendingJobs(ctx, batch); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("scheduler: download tick failed")
		metrics.SchedulerTickErrors.WithLabelValues("download").Inc()
	}
	metrics.SchedulerTickDuration.WithLabelValues("download").Observe(time.Since(start).Seconds())
}

func (s *Scheduler) runAvailabilityTick(ctx context.Context) {
	start := time.Now()
	batch := s.availCfg.BatchSize
	if batch <= 0 {
		batch = 50
	}
	if _, err := s.prober.CheckUnknownEpisodes(ctx, batch); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("scheduler: availability tick: check unknown failed")
		metrics.SchedulerTickErrors.WithLabelValues("availability").Inc()
	}
	if _, err := s.prober.ProcessWatchList(ctx); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("scheduler: availability tick: process watch list failed")
		metrics.SchedulerTickErrors.WithLabelValues("availability").Inc()
	}
	metrics.SchedulerTickDuration.WithLabelValues("availability").Observe(time.Since(start).Seconds())
}

// submissionLoop drains on-demand work submitted via Submit, running each
// inline (the channel's buffer plus this single drain goroutine is the
// bounded worker pool: a full channel makes Submit block, applying
// back-pressure to the control plane rather than unbounded goroutine
// growth).
func (s *Scheduler) submissionLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-s.submissions:
			task(ctx)
		}
	}
}

// Submit enqueues an on-demand task (probe, crawl-now, run-jobs,
// reconcile) for the submission worker pool. Returns an error if ctx is
// canceled before the task could be enqueued.
func (s *Scheduler) Submit(ctx context.Context, task func(context.Context)) error {
	select {
	case s.submissions <- task:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler: submit: %w", ctx.Err())
	}
}

// SubmitCrawlTargetNow runs one CrawlTarget's crawl immediately,
// out-of-band from the periodic crawl tick.
func (s *Scheduler) SubmitCrawlTargetNow(ctx context.Context, target models.CrawlTarget) error {
	return s.Submit(ctx, func(ctx context.Context) { s.crawlOneTarget(ctx, target) })
}

// SubmitRunJobsNow runs up to limit pending download jobs immediately.
func (s *Scheduler) SubmitRunJobsNow(ctx context.Context, limit int) error {
	return s.Submit(ctx, func(ctx context.Context) {
		if _, err := s.executor.RunPendingJobs(ctx, limit); err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("scheduler: on-demand run-jobs failed")
		}
	})
}

// SubmitProbeNow runs an availability probe pass immediately, out-of-band
// from the periodic availability tick.
func (s *Scheduler) SubmitProbeNow(ctx context.Context, limit int) error {
	return s.Submit(ctx, func(ctx context.Context) {
		if _, err := s.prober.CheckUnknownEpisodes(ctx, limit); err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("scheduler: on-demand probe failed")
		}
		if _, err := s.prober.ProcessWatchList(ctx); err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("scheduler: on-demand probe: process watch list failed")
		}
	})
}
