// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package download

import (
	"context"
	"net/url"
	"strings"

	"github.com/haxny/archivist/internal/models"
)

// BackendKind names which collaborator a job is dispatched to.
type BackendKind string

const (
	BackendExtractor   BackendKind = "extractor"
	BackendLinkGrabber BackendKind = "link_grabber"
)

// SelectBackend picks a backend by the Episode URL's host: the primary
// catalog host and anything unrecognized go through the extractor, the
// alternate broadcaster host goes through the link-grabber. Duplicated
// from internal/discovery's isMujRozhlas/isRozhlas rather than imported,
// the same "small host check, same pattern repeated per concern" the
// original keeps separately in its downloader and discovery modules.
func SelectBackend(rawURL string) BackendKind {
	u, err := url.Parse(rawURL)
	if err != nil {
		return BackendExtractor
	}
	host := strings.ToLower(u.Host)
	if strings.Contains(host, "rozhlas.cz") && !strings.Contains(host, "mujrozhlas") {
		return BackendLinkGrabber
	}
	return BackendExtractor
}

// ErrUnsupportedAsset is returned for a DownloadJob.AssetType the executor
// has no backend for.
type ErrUnsupportedAsset struct {
	AssetType models.AssetType
}

func (e *ErrUnsupportedAsset) Error() string {
	return "download: unsupported asset type " + string(e.AssetType)
}

// ErrUpstreamGone classifies a backend failure as the content being gone
// upstream (404/410, or an extractor's terminal "no such stream"); the
// executor maps this to job status "watch" rather than "error".
type ErrUpstreamGone struct {
	Cause error
}

func (e *ErrUpstreamGone) Error() string {
	return "download: upstream gone: " + e.Cause.Error()
}

func (e *ErrUpstreamGone) Unwrap() error { return e.Cause }

// FetchResult is what a backend reports after materializing one Asset.
type FetchResult struct {
	FilePath  string
	SizeBytes int64
}

// AudioFetcher downloads an Episode's audio asset.
type AudioFetcher interface {
	FetchAudio(ctx context.Context, ep models.Episode, paths Paths) (FetchResult, error)
}

// MetaFetcher downloads an Episode's sidecar metadata JSON.
type MetaFetcher interface {
	FetchMetaJSON(ctx context.Context, ep models.Episode, paths Paths) (FetchResult, error)
}

// WebpageFetcher saves a rendered copy of an Episode's source page.
type WebpageFetcher interface {
	FetchWebpage(ctx context.Context, ep models.Episode, paths Paths) (FetchResult, error)
}
