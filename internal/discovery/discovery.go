// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

// Package discovery implements the multi-source episode discovery fan-out
// (C2): four adapters (flat-playlist extractor, AJAX pagination, HTML
// scraping, catalog-API pagination) run per program URL, each isolated from
// the others' failures, and merged into one DiscoveredEpisode list with
// source attribution. All outbound HTTP against the shared public host goes
// through one token-bucket limiter and one circuit breaker.
package discovery

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/haxny/archivist/internal/config"
	"github.com/haxny/archivist/internal/errs"
	"github.com/haxny/archivist/internal/logging"
	"github.com/haxny/archivist/internal/metrics"
	"github.com/haxny/archivist/internal/models"
)

// BrowserUserAgent is sent on every discovery/availability HTTP request;
// mujrozhlas.cz returns 403 to a bare Go/net-http or minimal-Mozilla UA.
const BrowserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

const (
	cbName        = "discovery-http"
	maxAJAXPages  = 50
	ajaxPageSize  = 50
	rapiPageSize  = 50
	rapiMaxOffset = 500
)

// Discoverer runs the four-layer discovery fan-out for one program URL.
type Discoverer struct {
	cfg           config.DiscoveryConfig
	extractorPath string
	httpClient    *http.Client
	limiter       *rate.Limiter
	breaker       *gobreaker.CircuitBreaker[any]
}

// New builds a Discoverer. extractorPath is the yt-dlp-compatible binary
// used by the flat-playlist adapter (config.DownloadConfig.ExtractorPath).
func New(cfg config.DiscoveryConfig, extractorPath string) *Discoverer {
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", breakerStateString(from)).Str("to", breakerStateString(to)).
				Msg("discovery circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, breakerStateString(from), breakerStateString(to)).Inc()
		},
	})

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Discoverer{
		cfg:           cfg,
		extractorPath: extractorPath,
		httpClient:    &http.Client{Timeout: timeout},
		limiter:       rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		breaker:       breaker,
	}
}

// waitForToken blocks until the shared rate limiter releases a token,
// recording how long the caller waited.
func (d *Discoverer) waitForToken(ctx context.Context) error {
	start := time.Now()
	err := d.limiter.Wait(ctx)
	metrics.RateLimitWaitDuration.Observe(time.Since(start).Seconds())
	return err
}

// doThroughBreaker performs an HTTP GET via the shared circuit breaker.
func (d *Discoverer) doThroughBreaker(ctx context.Context, req *http.Request) (*http.Response, error) {
	result, err := d.breaker.Execute(func() (any, error) {
		resp, err := d.httpClient.Do(req)
		if err != nil {
			metrics.CircuitBreakerRequests.WithLabelValues(cbName, "failure").Inc()
			return nil, errs.Wrap(errs.Transport, "%s: %v", req.URL, err)
		}
		switch {
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
			resp.Body.Close()
			metrics.CircuitBreakerRequests.WithLabelValues(cbName, "failure").Inc()
			return nil, errs.Wrap(errs.UpstreamGone, "%s: %s", req.URL, http.StatusText(resp.StatusCode))
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			metrics.CircuitBreakerRequests.WithLabelValues(cbName, "failure").Inc()
			return nil, errs.Wrap(errs.RateLimited, "%s", req.URL)
		case resp.StatusCode >= 500:
			resp.Body.Close()
			metrics.CircuitBreakerRequests.WithLabelValues(cbName, "failure").Inc()
			return nil, errs.Wrap(errs.Transport, "%s: %s", req.URL, http.StatusText(resp.StatusCode))
		}
		metrics.CircuitBreakerRequests.WithLabelValues(cbName, "success").Inc()
		return resp, nil
	})
	if err != nil {
		if gobreakerIsRejection(err) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbName, "rejected").Inc()
		}
		return nil, err
	}
	return result.(*http.Response), nil
}

func gobreakerIsRejection(err error) bool {
	return err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests
}

func breakerStateString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func breakerStateFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// isRozhlas reports whether url is on the alternate broadcaster host
// (rozhlas.cz, not mujrozhlas.cz).
func isRozhlas(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Host)
	return strings.Contains(host, "rozhlas.cz") && !strings.Contains(host, "mujrozhlas")
}

// isMujRozhlas reports whether url is on the primary catalog host.
func isMujRozhlas(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(u.Host), "mujrozhlas.cz")
}

// NormalizeRozhlasURL rewrites a rozhlas.cz program URL (with a trailing
// numeric id) to its mujrozhlas.cz equivalent, e.g.
// plus.rozhlas.cz/hlasy-pameti-9391766 -> www.mujrozhlas.cz/hlasy-pameti.
func NormalizeRozhlasURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return rawURL
	}
	host := strings.ToLower(u.Host)
	if strings.Contains(host, "mujrozhlas") || !strings.Contains(host, "rozhlas.cz") {
		return rawURL
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return rawURL
	}
	slug := stripTrailingNumericSuffix(segments[0])
	if slug == "" {
		return rawURL
	}
	return "https://www.mujrozhlas.cz/" + slug
}

func stripTrailingNumericSuffix(slug string) string {
	i := len(slug)
	for i > 0 && slug[i-1] >= '0' && slug[i-1] <= '9' {
		i--
	}
	digits := len(slug) - i
	if digits >= 5 && i > 0 && slug[i-1] == '-' {
		return slug[:i-1]
	}
	return slug
}

// DiscoverProgram runs the full fan-out for one program URL and returns the
// merged, source-attributed episode list. It never returns an error for a
// single adapter's failure — each adapter logs and contributes an empty
// slice instead, so one broken layer cannot block the others.
func (d *Discoverer) DiscoverProgram(ctx context.Context, programURL string) ([]models.DiscoveredEpisode, error) {
	originalURL := programURL
	var rapiEntries []models.DiscoveredEpisode

	if isRozhlas(originalURL) {
		rapiEntries = d.discoverRAPITimeout(ctx, originalURL)
		programURL = NormalizeRozhlasURL(originalURL)
		logging.Ctx(ctx).Info().Str("original", originalURL).Str("normalized", programURL).Msg("rozhlas url normalized")
	}

	if !isMujRozhlas(programURL) {
		ytdlp := d.discoverYtdlpTimeout(ctx, programURL)
		if len(rapiEntries) > 0 {
			return mergeDiscovered(ytdlp, nil, nil, rapiEntries), nil
		}
		return ytdlp, nil
	}

	var ytdlpEntries, ajaxEntries, htmlEntries []models.DiscoveredEpisode
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		ytdlpEntries = d.discoverYtdlpTimeout(ctx, programURL)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ajaxEntries = d.discoverAJAXTimeout(ctx, programURL)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		htmlEntries = d.discoverHTMLTimeout(ctx, programURL)
	}()

	if len(rapiEntries) == 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rapiEntries = d.discoverRAPITimeout(ctx, originalURL)
		}()
	}

	wg.Wait()

	merged := mergeDiscovered(ytdlpEntries, ajaxEntries, htmlEntries, rapiEntries)

	for _, src := range []string{"ytdlp", "ajax", "html", "rapi"} {
		var n int
		switch src {
		case "ytdlp":
			n = len(ytdlpEntries)
		case "ajax":
			n = len(ajaxEntries)
		case "html":
			n = len(htmlEntries)
		case "rapi":
			n = len(rapiEntries)
		}
		metrics.DiscoveryEpisodesFound.WithLabelValues(src).Add(float64(n))
	}

	logging.Ctx(ctx).Info().Str("url", programURL).
		Int("ytdlp", len(ytdlpEntries)).Int("ajax", len(ajaxEntries)).
		Int("html", len(htmlEntries)).Int("rapi", len(rapiEntries)).
		Int("merged", len(merged)).Msg("discovery complete")
	return merged, nil
}

// ytdlpChildTimeout bounds the flat-playlist extractor's child process when
// run as part of the parallel fan-out; matches its own standalone budget.
const ytdlpChildTimeout = 2 * time.Minute

// discoverYtdlpTimeout runs discoverYtdlp under its own deadline so one slow
// adapter in the parallel-for fan-out cannot block the others past it.
func (d *Discoverer) discoverYtdlpTimeout(ctx context.Context, programURL string) []models.DiscoveredEpisode {
	childCtx, cancel := context.WithTimeout(ctx, ytdlpChildTimeout)
	defer cancel()
	return d.discoverYtdlp(childCtx, programURL)
}

// discoverAJAXTimeout runs discoverAJAX under its own deadline, the same
// budget as the shared HTTP client's timeout.
func (d *Discoverer) discoverAJAXTimeout(ctx context.Context, programURL string) []models.DiscoveredEpisode {
	childCtx, cancel := context.WithTimeout(ctx, d.httpClient.Timeout)
	defer cancel()
	return d.discoverAJAX(childCtx, programURL)
}

// discoverHTMLTimeout runs discoverHTML under its own deadline, the same
// budget as the shared HTTP client's timeout.
func (d *Discoverer) discoverHTMLTimeout(ctx context.Context, programURL string) []models.DiscoveredEpisode {
	childCtx, cancel := context.WithTimeout(ctx, d.httpClient.Timeout)
	defer cancel()
	return d.discoverHTML(childCtx, programURL)
}

// discoverRAPITimeout runs discoverRAPI under its own deadline. RAPI paginates
// up to rapiMaxOffset, so it gets a multiple of the base HTTP timeout rather
// than a single request's budget.
func (d *Discoverer) discoverRAPITimeout(ctx context.Context, rozhlasURL string) []models.DiscoveredEpisode {
	childCtx, cancel := context.WithTimeout(ctx, 4*d.httpClient.Timeout)
	defer cancel()
	return d.discoverRAPI(childCtx, rozhlasURL)
}
