// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"time"

	"github.com/haxny/archivist/internal/logging"
	"github.com/haxny/archivist/internal/metrics"
	"github.com/haxny/archivist/internal/models"
)

// ytdlpEntry mirrors the subset of yt-dlp's flat-playlist JSON entry shape
// this adapter reads; unmapped fields are not needed here.
type ytdlpEntry struct {
	ID          string `json:"id"`
	DisplayID   string `json:"display_id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Duration    *int   `json:"duration"`
	Description string `json:"description"`
	UploadDate  string `json:"upload_date"`
	Series      string `json:"series"`
	Uploader    string `json:"uploader"`
	Episode     string `json:"episode"`
	Season      string `json:"season"`
}

type ytdlpPlaylist struct {
	Entries  []ytdlpEntry `json:"entries"`
	Uploader string       `json:"uploader"`
}

// discoverYtdlp is the primary adapter: it shells out to the configured
// extractor with --flat-playlist -J, which is fast and complete because it
// never downloads media, only listing metadata.
func (d *Discoverer) discoverYtdlp(ctx context.Context, programURL string) []models.DiscoveredEpisode {
	start := time.Now()
	defer func() {
		metrics.DiscoveryFetchDuration.WithLabelValues("ytdlp").Observe(time.Since(start).Seconds())
	}()

	if d.extractorPath == "" {
		logging.Ctx(ctx).Warn().Str("url", programURL).Msg("ytdlp discovery skipped: no extractor configured")
		return nil
	}

	runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	cmd := exec.CommandContext(runCtx, d.extractorPath, "--flat-playlist", "--dump-single-json", "--no-warnings", programURL)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("url", programURL).Str("stderr", stderr.String()).
			Msg("ytdlp discovery failed")
		metrics.DiscoveryAdapterErrors.WithLabelValues("ytdlp").Inc()
		return nil
	}

	var playlist ytdlpPlaylist
	if err := json.Unmarshal(stdout.Bytes(), &playlist); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("url", programURL).Msg("ytdlp discovery: unparsable output")
		metrics.DiscoveryAdapterErrors.WithLabelValues("ytdlp").Inc()
		return nil
	}

	results := make([]models.DiscoveredEpisode, 0, len(playlist.Entries))
	for _, e := range playlist.Entries {
		if e.URL == "" {
			continue
		}
		extID := e.ID
		if extID == "" {
			extID = e.DisplayID
		}
		ep := models.DiscoveredEpisode{
			URL:             e.URL,
			Title:           e.Title,
			ExtID:           extID,
			DurationS:       e.Duration,
			Description:     cleanText(e.Description),
			PublishedAt:     parseUploadDate(e.UploadDate),
			Series:          e.Series,
			Uploader:        firstNonEmpty(e.Uploader, playlist.Uploader),
			IsSeriesEpisode: e.Episode != "" || e.Season != "",
			EpisodeNumber:   atoiOrNil(e.Episode),
			Sources:         map[string]struct{}{"ytdlp": {}},
		}
		results = append(results, ep)
	}

	logging.Ctx(ctx).Info().Str("url", programURL).Int("count", len(results)).Msg("ytdlp discovery")
	return results
}

func parseUploadDate(yyyymmdd string) *time.Time {
	if len(yyyymmdd) != 8 {
		return nil
	}
	t, err := time.Parse("20060102", yyyymmdd)
	if err != nil {
		return nil
	}
	return &t
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func atoiOrNil(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
