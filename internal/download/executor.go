// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

// Package download implements the executor (C6): claims pending jobs in
// priority order, dispatches each to a backend selected by the episode's
// URL host, builds the final library path, and classifies failures into
// job/asset state transitions.
//
// Ported from original_source/audiobiblio/downloader.py's
// run_pending_jobs/_download_audio/_download_meta_json/_download_webpage.
package download

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/haxny/archivist/internal/catalog"
	"github.com/haxny/archivist/internal/config"
	"github.com/haxny/archivist/internal/download/notify"
	"github.com/haxny/archivist/internal/logging"
	"github.com/haxny/archivist/internal/metrics"
	"github.com/haxny/archivist/internal/models"
)

// Executor processes claimed DownloadJobs against the configured backends.
type Executor struct {
	store       *catalog.Store
	libraryDir  string
	extractor   *Extractor
	webpage     *WebpageSaver
	linkGrabber *LinkGrabber
	tagger      Tagger
	notifier    *notify.Notifier
	concurrency int
}

// New builds an Executor wiring its extractor, webpage saver, link
// grabber, tagger, and library notifier from configuration. Pass a nil
// tagger to use PassthroughTagger.
func New(store *catalog.Store, libraryCfg config.LibraryConfig, downloadCfg config.DownloadConfig, lgCfg config.LinkGrabberConfig, notifyCfg config.LibraryNotifyConfig, tagger Tagger) *Executor {
	if tagger == nil {
		tagger = PassthroughTagger{}
	}
	concurrency := downloadCfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Executor{
		store:       store,
		libraryDir:  libraryCfg.LibraryDir,
		extractor:   NewExtractor(downloadCfg.ExtractorPath),
		webpage:     NewWebpageSaver(0),
		linkGrabber: NewLinkGrabber(lgCfg.Host, lgCfg.Port, 0),
		tagger:      tagger,
		notifier:    notify.New(notifyCfg),
		concurrency: concurrency,
	}
}

// RunPendingJobs claims up to limit pending jobs and processes them with
// bounded parallelism, returning how many completed successfully
// (status=success). Jobs are grouped by episode first and each group runs
// on a single worker, honoring "no two download jobs for the same Episode
// run concurrently" even though the atomic claim alone only prevents two
// executors from claiming the same job.
func (e *Executor) RunPendingJobs(ctx context.Context, limit int) (int, error) {
	jobs, err := e.store.ClaimNextJobs(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("download: claim jobs: %w", err)
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	groups := groupByEpisode(jobs)
	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	var done int64

	for _, group := range groups {
		group := group
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			for _, job := range group {
				if e.processJob(ctx, job) {
					atomic.AddInt64(&done, 1)
				}
			}
		}()
	}
	wg.Wait()

	return int(done), nil
}

// groupByEpisode partitions jobs into per-episode slices, preserving the
// claim order both across and within groups.
func groupByEpisode(jobs []models.DownloadJob) [][]models.DownloadJob {
	order := make([]int64, 0, len(jobs))
	byEpisode := make(map[int64][]models.DownloadJob)
	for _, job := range jobs {
		if _, ok := byEpisode[job.EpisodeID]; !ok {
			order = append(order, job.EpisodeID)
		}
		byEpisode[job.EpisodeID] = append(byEpisode[job.EpisodeID], job)
	}
	groups := make([][]models.DownloadJob, 0, len(order))
	for _, episodeID := range order {
		groups = append(groups, byEpisode[episodeID])
	}
	return groups
}

// processJob runs one claimed job to a terminal state, recording metrics
// and never propagating a per-job error to the caller — a failing job
// must not abort the batch.
func (e *Executor) processJob(ctx context.Context, job models.DownloadJob) bool {
	ctx = logging.ContextWithJobID(ctx, job.ID)
	ctx = logging.ContextWithEpisodeID(ctx, job.EpisodeID)
	log := logging.Ctx(ctx).With().Str("asset_type", string(job.AssetType)).Logger()

	chain, err := e.store.GetEpisodeChain(ctx, job.EpisodeID)
	if err != nil {
		log.Error().Err(err).Msg("download: episode chain lookup failed")
		e.finish(ctx, job, models.JobError, "episode lookup failed: "+err.Error())
		metrics.DownloadJobsTotal.WithLabelValues(string(models.JobError), string(job.AssetType)).Inc()
		return false
	}

	paths := BuildPaths(e.libraryDir, *chain)

	if job.AssetType == models.AssetAudio && SelectBackend(chain.Episode.URL) == BackendLinkGrabber {
		return e.processLinkGrabberAudio(ctx, job, chain.Episode, paths)
	}

	result, fetchErr := e.fetch(ctx, job, chain, paths)

	if fetchErr != nil {
		status := e.classify(ctx, job, fetchErr)
		e.markAssetFailed(ctx, job.EpisodeID, job.AssetType)
		log.Error().Err(fetchErr).Str("result_status", string(status)).Msg("download: job failed")
		metrics.DownloadJobsTotal.WithLabelValues(string(status), string(job.AssetType)).Inc()
		return false
	}

	finalPath := result.FilePath
	if job.AssetType == models.AssetAudio {
		tagged, tagErr := e.tagger.Tag(ctx, chain.Episode, chain.Work, result.FilePath)
		if tagErr != nil {
			log.Error().Err(tagErr).Msg("download: post-processing failed")
			e.markAssetFailed(ctx, job.EpisodeID, job.AssetType)
			e.finish(ctx, job, models.JobError, "post-processing failed: "+tagErr.Error())
			metrics.DownloadJobsTotal.WithLabelValues(string(models.JobError), string(job.AssetType)).Inc()
			return false
		}
		finalPath = tagged
	}

	if err := e.completeAsset(ctx, job.EpisodeID, job.AssetType, finalPath, result.SizeBytes); err != nil {
		log.Error().Err(err).Msg("download: asset update failed")
	}
	e.finish(ctx, job, models.JobSuccess, "")
	metrics.DownloadJobsTotal.WithLabelValues(string(models.JobSuccess), string(job.AssetType)).Inc()

	if job.AssetType == models.AssetAudio {
		e.notifier.TriggerScan(ctx)
	}
	return true
}

// fetch dispatches job to the extractor/webpage fetcher. Audio jobs whose
// episode resolves to the link-grabber backend are intercepted by
// processLinkGrabberAudio before this is reached.
func (e *Executor) fetch(ctx context.Context, job models.DownloadJob, chain *catalog.EpisodeChain, paths Paths) (FetchResult, error) {
	switch job.AssetType {
	case models.AssetAudio:
		return e.extractor.FetchAudio(ctx, chain.Episode, paths)
	case models.AssetMetaJSON:
		return e.extractor.FetchMetaJSON(ctx, chain.Episode, paths)
	case models.AssetWebpage:
		return e.webpage.FetchWebpage(ctx, chain.Episode, paths)
	default:
		return FetchResult{}, &ErrUnsupportedAsset{AssetType: job.AssetType}
	}
}

// processLinkGrabberAudio submits ep's URL to the link grabber and
// finishes the job immediately: submission, not completed download, is
// this job's unit of work. The Asset is left "queued" rather than
// "complete" — the grabber downloads asynchronously, and a later
// reconciliation sweep over the library directory is what observes the
// finished file and completes the Asset.
func (e *Executor) processLinkGrabberAudio(ctx context.Context, job models.DownloadJob, ep models.Episode, paths Paths) bool {
	log := logging.Ctx(ctx)

	err := e.linkGrabber.AddLinks(ctx, AddLinksRequest{
		Links:      ep.URL,
		DestFolder: paths.BaseDir,
		AutoStart:  true,
	})
	if err != nil {
		status := e.classify(ctx, job, err)
		e.markAssetFailed(ctx, job.EpisodeID, job.AssetType)
		log.Error().Err(err).Str("result_status", string(status)).Msg("download: link-grabber submission failed")
		metrics.DownloadJobsTotal.WithLabelValues(string(status), string(job.AssetType)).Inc()
		return false
	}

	if asset, aerr := e.store.GetAsset(ctx, job.EpisodeID, job.AssetType); aerr == nil {
		asset.Status = models.AssetQueued
		if uerr := e.store.UpdateAsset(ctx, *asset); uerr != nil {
			log.Warn().Err(uerr).Msg("download: mark asset queued after link-grabber submission failed")
		}
	} else {
		log.Warn().Err(aerr).Msg("download: load asset after link-grabber submission failed")
	}

	e.finish(ctx, job, models.JobSuccess, "")
	metrics.DownloadJobsTotal.WithLabelValues(string(models.JobSuccess), string(job.AssetType)).Inc()
	return true
}

// classify maps a fetch failure to a terminal job status per the error
// taxonomy: upstream-gone becomes "watch", everything else becomes
// "error" with stderr/message surfaced.
func (e *Executor) classify(ctx context.Context, job models.DownloadJob, err error) models.JobStatus {
	var gone *ErrUpstreamGone
	if errors.As(err, &gone) {
		if watchErr := e.store.WatchJob(ctx, job.ID, err.Error()); watchErr != nil {
			logging.Ctx(ctx).Error().Err(watchErr).Msg("download: mark watch failed")
		}
		return models.JobWatch
	}
	e.finish(ctx, job, models.JobError, err.Error())
	return models.JobError
}

func (e *Executor) finish(ctx context.Context, job models.DownloadJob, status models.JobStatus, errMsg string) {
	if err := e.store.FinishJob(ctx, job.ID, status, errMsg); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("download: finish job failed")
	}
}

func (e *Executor) markAssetFailed(ctx context.Context, episodeID int64, assetType models.AssetType) {
	asset, err := e.store.GetAsset(ctx, episodeID, assetType)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("download: load asset to fail it failed")
		return
	}
	asset.Status = models.AssetFailed
	if err := e.store.UpdateAsset(ctx, *asset); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("download: mark asset failed failed")
	}
}

func (e *Executor) completeAsset(ctx context.Context, episodeID int64, assetType models.AssetType, filePath string, sizeBytes int64) error {
	asset, err := e.store.GetAsset(ctx, episodeID, assetType)
	if err != nil {
		return fmt.Errorf("download: load asset to complete it: %w", err)
	}
	asset.Status = models.AssetComplete
	asset.FilePath = filePath
	size := sizeBytes
	asset.SizeBytes = &size
	return e.store.UpdateAsset(ctx, *asset)
}
