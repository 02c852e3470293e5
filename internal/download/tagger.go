// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package download

import (
	"context"

	"github.com/haxny/archivist/internal/models"
)

// Tagger writes embedded audio tags (genre taxonomy, naming conventions)
// and may rename/move the file, returning its final path. This is an
// external-collaborator boundary: tag rewriting and genre taxonomy are
// explicit non-goals of this system, the same way downloader.py delegates
// to pipelines/postprocess.tag_audio rather than writing tags itself.
type Tagger interface {
	Tag(ctx context.Context, ep models.Episode, work models.Work, audioPath string) (string, error)
}

// PassthroughTagger is the default Tagger: it writes no tags and leaves
// the file where the fetcher put it. Used when no real tagging
// collaborator is configured; the Asset still completes successfully.
type PassthroughTagger struct{}

// Tag implements Tagger by returning audioPath unchanged.
func (PassthroughTagger) Tag(_ context.Context, _ models.Episode, _ models.Work, audioPath string) (string, error) {
	return audioPath, nil
}
