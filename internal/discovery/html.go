// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package discovery

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/haxny/archivist/internal/logging"
	"github.com/haxny/archivist/internal/metrics"
	"github.com/haxny/archivist/internal/models"
)

// htmlEpisodeLinkRe matches anchor tags under a program page whose href
// points at a two-or-more-segment child path — the fallback layer's best
// approximation of "this links to an episode" without a JS-rendered list.
var htmlEpisodeLinkRe = regexp.MustCompile(`(?i)<a[^>]+href="([^"]+)"[^>]*>([^<]*)</a>`)

// discoverHTML scrapes the rendered program page directly. It runs on every
// DiscoverProgram call for a primary-host URL, alongside the extractor and
// AJAX layers, and its results are merged with theirs.
func (d *Discoverer) discoverHTML(ctx context.Context, programURL string) []models.DiscoveredEpisode {
	start := time.Now()
	defer func() {
		metrics.DiscoveryFetchDuration.WithLabelValues("html").Observe(time.Since(start).Seconds())
	}()

	if err := d.waitForToken(ctx); err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, programURL, nil)
	if err != nil {
		metrics.DiscoveryAdapterErrors.WithLabelValues("html").Inc()
		return nil
	}
	req.Header.Set("User-Agent", BrowserUserAgent)

	resp, err := d.doThroughBreaker(ctx, req)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("url", programURL).Msg("html discovery failed")
		metrics.DiscoveryAdapterErrors.WithLabelValues("html").Inc()
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.DiscoveryAdapterErrors.WithLabelValues("html").Inc()
		return nil
	}

	base, err := url.Parse(programURL)
	if err != nil {
		return nil
	}

	seen := map[string]struct{}{}
	var results []models.DiscoveredEpisode
	for _, m := range htmlEpisodeLinkRe.FindAllStringSubmatch(string(body), -1) {
		href, text := m[1], cleanText(m[2])
		abs, err := base.Parse(href)
		if err != nil || abs.Host != base.Host {
			continue
		}
		segments := strings.Split(strings.Trim(abs.Path, "/"), "/")
		if len(segments) < 2 {
			continue
		}
		key := abs.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if text == "" {
			continue
		}
		results = append(results, models.DiscoveredEpisode{
			URL:     key,
			Title:   text,
			Sources: map[string]struct{}{"html": {}},
		})
	}

	logging.Ctx(ctx).Info().Str("url", programURL).Int("count", len(results)).Msg("html discovery")
	return results
}
