// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package discovery

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/haxny/archivist/internal/errs"
	"github.com/haxny/archivist/internal/logging"
	"github.com/haxny/archivist/internal/metrics"
	"github.com/haxny/archivist/internal/models"
)

const rapiBaseURL = "https://api.mujrozhlas.cz"

var showUUIDRe = regexp.MustCompile(`(?i)mujrozhlas\.cz/rapi/view/show/([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})`)

type rapiEpisodeResponse struct {
	Data []rapiEpisodeEntry `json:"data"`
}

type rapiEpisodeEntry struct {
	ID         string `json:"id"`
	Attributes struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Duration    *int   `json:"duration"`
		Since       string `json:"since"`
		Serial      struct {
			Title string `json:"title"`
		} `json:"serial"`
	} `json:"attributes"`
}

// discoverRAPI extracts the catalog-API show UUID embedded in a rozhlas.cz
// page and paginates the richest-metadata JSON API for its episodes.
func (d *Discoverer) discoverRAPI(ctx context.Context, rozhlasURL string) []models.DiscoveredEpisode {
	start := time.Now()
	defer func() {
		metrics.DiscoveryFetchDuration.WithLabelValues("rapi").Observe(time.Since(start).Seconds())
	}()

	uuid := d.extractShowUUID(ctx, rozhlasURL)
	if uuid == "" {
		logging.Ctx(ctx).Warn().Str("url", rozhlasURL).Msg("rapi discovery: no show uuid found")
		return nil
	}

	var results []models.DiscoveredEpisode
	offset := 0
	for offset < rapiMaxOffset {
		if err := d.waitForToken(ctx); err != nil {
			break
		}

		reqURL := rapiBaseURL + "/shows/" + uuid + "/episodes?page[limit]=" + strconv.Itoa(rapiPageSize) + "&page[offset]=" + strconv.Itoa(offset)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			break
		}
		req.Header.Set("User-Agent", BrowserUserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := d.doThroughBreaker(ctx, req)
		if err != nil {
			if errs.Is(err, errs.UpstreamGone) {
				logging.Ctx(ctx).Warn().Str("uuid", uuid).Int("offset", offset).Msg("rapi show no longer available")
			} else {
				logging.Ctx(ctx).Error().Err(err).Str("uuid", uuid).Int("offset", offset).Msg("rapi fetch failed")
			}
			metrics.DiscoveryAdapterErrors.WithLabelValues("rapi").Inc()
			break
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			break
		}

		var parsed rapiEpisodeResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("uuid", uuid).Msg("rapi response unparsable")
			metrics.DiscoveryAdapterErrors.WithLabelValues("rapi").Inc()
			break
		}
		if len(parsed.Data) == 0 {
			break
		}

		for _, e := range parsed.Data {
			var published *time.Time
			if len(e.Attributes.Since) >= 10 {
				if t, err := time.Parse("2006-01-02", e.Attributes.Since[:10]); err == nil {
					published = &t
				}
			}
			epURL := ""
			if e.ID != "" {
				epURL = "https://www.mujrozhlas.cz/episode/" + e.ID
			}
			results = append(results, models.DiscoveredEpisode{
				URL:         epURL,
				Title:       e.Attributes.Title,
				ExtID:       e.ID,
				DurationS:   e.Attributes.Duration,
				Description: cleanText(e.Attributes.Description),
				PublishedAt: published,
				Series:      e.Attributes.Serial.Title,
				Sources:     map[string]struct{}{"rapi": {}},
			})
		}

		if len(parsed.Data) < rapiPageSize {
			break
		}
		offset += rapiPageSize
	}

	logging.Ctx(ctx).Info().Str("uuid", uuid).Int("count", len(results)).Msg("rapi episodes fetched")
	return results
}

// extractShowUUID fetches rozhlasURL and pulls the catalog-API show UUID
// embedded in its markup as a link to the RAPI viewer.
func (d *Discoverer) extractShowUUID(ctx context.Context, rozhlasURL string) string {
	if err := d.waitForToken(ctx); err != nil {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rozhlasURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", BrowserUserAgent)

	resp, err := d.doThroughBreaker(ctx, req)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("url", rozhlasURL).Msg("rapi uuid extraction failed")
		return ""
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}

	m := showUUIDRe.FindSubmatch(body)
	if m == nil {
		return ""
	}
	return string(m[1])
}
