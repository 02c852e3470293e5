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
	"strconv"
	"strings"
	"time"

	"github.com/haxny/archivist/internal/logging"
	"github.com/haxny/archivist/internal/metrics"
	"github.com/haxny/archivist/internal/models"
)

var (
	ajaxLinkRe     = regexp.MustCompile(`href="(/[a-z0-9\-]+/[a-z0-9\-]+(?:/[a-z0-9\-]+)?)"`)
	ajaxUUIDRe     = regexp.MustCompile(`(?i)data-entity="([0-9a-f\-]{36})"`)
	ajaxTitleRe    = regexp.MustCompile(`(?i)<(?:h[234]|span)[^>]*class="[^"]*b-episode__title[^"]*"[^>]*>([^<]+)<`)
	ajaxDurationRe = regexp.MustCompile(`(?i)<(?:span|time)[^>]*class="[^"]*b-episode__duration[^"]*"[^>]*>([^<]+)<`)
)

// discoverAJAX paginates a program's AJAX listing endpoint
// (/ajax/ajax_list/show) for episode links the initial HTML doesn't render.
func (d *Discoverer) discoverAJAX(ctx context.Context, programURL string) []models.DiscoveredEpisode {
	start := time.Now()
	defer func() {
		metrics.DiscoveryFetchDuration.WithLabelValues("ajax").Observe(time.Since(start).Seconds())
	}()

	u, err := url.Parse(programURL)
	if err != nil {
		metrics.DiscoveryAdapterErrors.WithLabelValues("ajax").Inc()
		return nil
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		logging.Ctx(ctx).Warn().Str("url", programURL).Msg("ajax discovery: no show slug")
		return nil
	}
	showSlug := segments[0]
	baseURL := u.Scheme + "://" + u.Host
	ajaxURL := baseURL + "/ajax/ajax_list/show"

	var results []models.DiscoveredEpisode
	page := 0
	for page < maxAJAXPages {
		if err := d.waitForToken(ctx); err != nil {
			break
		}

		reqURL := ajaxURL + "?page=" + strconv.Itoa(page) + "&size=" + strconv.Itoa(ajaxPageSize) + "&show=" + url.QueryEscape(showSlug)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			break
		}
		req.Header.Set("User-Agent", BrowserUserAgent)
		req.Header.Set("Accept", "application/json, text/html, */*")
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
		req.Header.Set("Referer", programURL)

		resp, err := d.doThroughBreaker(ctx, req)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Int("page", page).Msg("ajax request failed")
			metrics.DiscoveryAdapterErrors.WithLabelValues("ajax").Inc()
			break
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil || len(strings.TrimSpace(string(body))) < 10 {
			break
		}
		content := string(body)

		links := ajaxLinkRe.FindAllStringSubmatch(content, -1)
		if len(links) == 0 {
			break
		}
		uuids := ajaxUUIDRe.FindAllStringSubmatch(content, -1)
		titles := ajaxTitleRe.FindAllStringSubmatch(content, -1)
		durations := ajaxDurationRe.FindAllStringSubmatch(content, -1)

		for i, link := range links {
			rel := link[1]
			abs, err := u.Parse(rel)
			if err != nil {
				continue
			}
			pathSegments := strings.Split(strings.Trim(abs.Path, "/"), "/")
			if len(pathSegments) < 2 {
				continue
			}

			var title, extID string
			var durS *int
			if i < len(titles) {
				title = cleanText(titles[i][1])
			}
			if i < len(uuids) {
				extID = uuids[i][1]
			}
			if i < len(durations) {
				durS = parseDurationText(durations[i][1])
			}

			results = append(results, models.DiscoveredEpisode{
				URL:       abs.String(),
				Title:     title,
				ExtID:     extID,
				DurationS: durS,
				Sources:   map[string]struct{}{"ajax": {}},
			})
		}

		hasNext := strings.Contains(content, "page="+strconv.Itoa(page+1)) || strings.Contains(content, "b-episode")
		if !hasNext || len(links) < 10 {
			break
		}
		page++
	}

	logging.Ctx(ctx).Info().Str("url", programURL).Int("count", len(results)).Int("pages", page+1).Msg("ajax discovery")
	return results
}

