// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

// Package ingest implements the reconciliation step (C4): for each unique
// DiscoveredEpisode, resolve its Station→Program→Series→Work→Episode chain,
// detect re-airs of episodes already in the catalog, revive episodes whose
// content reappeared, and plan the downloads a new or updated episode needs.
//
// Ported from original_source/audiobiblio's pipelines/ingest.py
// (upsert_from_item, _find_existing_episode, _maybe_revive_gone_episode,
// _guess_station_from_uploader) into the catalog store's repository-method
// idiom: each step here is one or two catalog.Store calls rather than
// mutations on a shared ORM session, since the store has no session object
// to hang pending changes off of. A failure partway through one entry
// returns an error for that entry only; Batch logs and continues so one bad
// record never aborts the rest (spec's per-episode failure isolation).
package ingest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/haxny/archivist/internal/catalog"
	"github.com/haxny/archivist/internal/logging"
	"github.com/haxny/archivist/internal/metrics"
	"github.com/haxny/archivist/internal/models"
)

// Outcome classifies what Ingest did with one DiscoveredEpisode.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeRevived Outcome = "revived"
	OutcomeUpdated Outcome = "updated"
)

// Result reports the effect of ingesting one DiscoveredEpisode.
type Result struct {
	Episode     models.Episode
	Outcome     Outcome
	JobsPlanned int
}

// Batch ingests every entry, assigning priority by published_at descending
// (N, N-1, ..., 1 — newer episodes fetched first) before processing each
// entry independently. programName, when empty, falls back to each entry's
// uploader (or the generic aggregator name).
func Batch(ctx context.Context, store *catalog.Store, entries []models.DiscoveredEpisode, programName string) ([]Result, error) {
	ordered := make([]models.DiscoveredEpisode, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := ordered[i].PublishedAt, ordered[j].PublishedAt
		switch {
		case pi == nil && pj == nil:
			return false
		case pi == nil:
			return false
		case pj == nil:
			return true
		default:
			return pi.After(*pj)
		}
	})

	results := make([]Result, 0, len(ordered))
	for i, entry := range ordered {
		priority := len(ordered) - i
		res, err := one(ctx, store, entry, programName, priority)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("url", entry.URL).Msg("ingest entry failed")
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

func one(ctx context.Context, store *catalog.Store, entry models.DiscoveredEpisode, programName string, priority int) (*Result, error) {
	code, stName, stWebsite := guessStation(entry.Uploader)
	station, err := store.UpsertStation(ctx, code, stName, stWebsite)
	if err != nil {
		return nil, fmt.Errorf("ingest: upsert station: %w", err)
	}

	progName := firstNonEmpty(programName, entry.Uploader, genericCode)
	program, err := store.UpsertProgram(ctx, models.Program{
		StationID: station.ID,
		Name:      progName,
		URL:       stWebsite,
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: upsert program: %w", err)
	}

	seriesName := firstNonEmpty(entry.Series, progName)
	series, err := store.UpsertSeries(ctx, models.Series{
		ProgramID: program.ID,
		Name:      seriesName,
		URL:       entry.URL,
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: upsert series: %w", err)
	}

	work, err := store.UpsertWork(ctx, models.Work{
		SeriesID: series.ID,
		Title:    seriesName,
		Author:   entry.Author,
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: upsert work: %w", err)
	}

	existing, err := findExistingEpisode(ctx, store, entry, work.ID)
	if err != nil {
		return nil, err
	}

	source := sourcesLabel(entry.Sources)
	var episode models.Episode
	var outcome Outcome

	if existing != nil {
		outcome = OutcomeUpdated
		revived, err := maybeRevive(ctx, store, existing, entry.URL)
		if err != nil {
			return nil, err
		}
		if revived {
			outcome = OutcomeRevived
		}

		fillEpisodeFields(existing, entry, source, priority)
		if err := store.UpdateEpisode(ctx, *existing); err != nil {
			return nil, fmt.Errorf("ingest: update episode %d: %w", existing.ID, err)
		}
		if err := store.AddAlias(ctx, models.EpisodeAlias{
			EpisodeID:       existing.ID,
			URL:             normalizeURL(entry.URL),
			ExtID:           entry.ExtID,
			DiscoverySource: source,
		}); err != nil {
			return nil, fmt.Errorf("ingest: add alias for episode %d: %w", existing.ID, err)
		}
		episode = *existing
	} else {
		outcome = OutcomeCreated
		created, err := store.InsertEpisode(ctx, models.Episode{
			WorkID:             work.ID,
			ExtID:              entry.ExtID,
			Title:              firstNonEmpty(entry.Title, seriesName),
			EpisodeNumber:      entry.EpisodeNumber,
			PublishedAt:        entry.PublishedAt,
			URL:                entry.URL,
			DurationMS:         durationMS(entry.DurationS),
			Summary:            entry.Description,
			AvailabilityStatus: models.AvailabilityAvailable,
			AutoDownload:       true,
			Priority:           priority,
			DiscoverySource:    source,
		})
		if err != nil {
			return nil, fmt.Errorf("ingest: insert episode: %w", err)
		}
		if err := store.AddAlias(ctx, models.EpisodeAlias{
			EpisodeID:       created.ID,
			URL:             normalizeURL(entry.URL),
			ExtID:           entry.ExtID,
			DiscoverySource: source,
		}); err != nil {
			return nil, fmt.Errorf("ingest: add initial alias for episode %d: %w", created.ID, err)
		}
		episode = *created
	}

	metrics.IngestEpisodesTotal.WithLabelValues(string(outcome)).Inc()

	planned, err := store.PlanAssets(ctx, episode.ID, episode.URL)
	if err != nil {
		return nil, fmt.Errorf("ingest: plan assets for episode %d: %w", episode.ID, err)
	}
	metrics.IngestJobsPlanned.Add(float64(planned))

	return &Result{Episode: episode, Outcome: outcome, JobsPlanned: planned}, nil
}

// findExistingEpisode runs the three-step re-air detection cascade: ext_id,
// then alias URL, then (within the same Work) a re-air-stripped URL match
// against episodes' current URLs.
func findExistingEpisode(ctx context.Context, store *catalog.Store, entry models.DiscoveredEpisode, workID int64) (*models.Episode, error) {
	if entry.ExtID != "" {
		ep, err := store.FindEpisodeByExtID(ctx, entry.ExtID)
		if err == nil {
			return ep, nil
		}
		if err != catalog.ErrNotFound {
			return nil, fmt.Errorf("ingest: find episode by ext_id: %w", err)
		}
	}

	norm := normalizeURL(entry.URL)
	if norm != "" {
		ep, err := store.FindAliasByURL(ctx, norm)
		if err == nil {
			return ep, nil
		}
		if err != catalog.ErrNotFound {
			return nil, fmt.Errorf("ingest: find episode by alias url: %w", err)
		}
	}

	stripped := normalizeURLStripReair(entry.URL)
	if stripped == "" || stripped == norm {
		return nil, nil
	}
	siblings, err := store.ListEpisodesInWork(ctx, workID)
	if err != nil {
		return nil, fmt.Errorf("ingest: list episodes in work %d: %w", workID, err)
	}
	for i := range siblings {
		if normalizeURLStripReair(siblings[i].URL) == stripped {
			return &siblings[i], nil
		}
	}
	return nil, nil
}

// maybeRevive promotes a gone Episode back to available when a working
// URL reappears, re-queuing its error/watch jobs. Returns whether it did.
func maybeRevive(ctx context.Context, store *catalog.Store, ep *models.Episode, newURL string) (bool, error) {
	if ep.AvailabilityStatus != models.AvailabilityGone {
		return false, nil
	}
	ep.URL = newURL
	ep.AvailabilityStatus = models.AvailabilityAvailable
	if _, err := store.RequeueErrorAndWatchJobsForEpisode(ctx, ep.ID); err != nil {
		return false, fmt.Errorf("ingest: requeue jobs for revived episode %d: %w", ep.ID, err)
	}
	return true, nil
}

// fillEpisodeFields applies the "never shrink data" rule: title only grows
// (replaced when the incoming one is longer), every other optional field is
// filled only when currently empty, and priority takes max(priority, existing).
func fillEpisodeFields(ep *models.Episode, entry models.DiscoveredEpisode, source string, priority int) {
	if entry.Title != "" && len(entry.Title) > len(ep.Title) {
		ep.Title = entry.Title
	}
	if ep.ExtID == "" && entry.ExtID != "" {
		ep.ExtID = entry.ExtID
	}
	if ep.Summary == "" && entry.Description != "" {
		ep.Summary = entry.Description
	}
	if ep.PublishedAt == nil && entry.PublishedAt != nil {
		ep.PublishedAt = entry.PublishedAt
	}
	if ep.DurationMS == nil && entry.DurationS != nil {
		ep.DurationMS = durationMS(entry.DurationS)
	}
	if source != "" {
		ep.DiscoverySource = source
	}
	if priority > ep.Priority {
		ep.Priority = priority
	}
}

func durationMS(seconds *int) *int64 {
	if seconds == nil {
		return nil
	}
	ms := int64(*seconds) * 1000
	return &ms
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// sourcesLabel joins a DiscoveredEpisode's contributing adapter names into
// a deterministic, comma-separated discovery_source value.
func sourcesLabel(sources map[string]struct{}) string {
	if len(sources) == 0 {
		return ""
	}
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
