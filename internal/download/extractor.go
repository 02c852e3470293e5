// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

// Extractor wraps the external extractor binary (commonly yt-dlp),
// invoked exactly as a subprocess the way original_source/audiobiblio's
// downloader.py does: audio via --extract-audio/--audio-format, metadata
// via --write-info-json/--skip-download. internal/download doesn't
// reimplement the extractor; it only shapes its command line and locates
// the file(s) it leaves behind, the same split of responsibility
// arung-agamani-denpa-radio's internal/ffmpeg.Encoder uses for ffmpeg.
package download

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/haxny/archivist/internal/models"
)

// audioExtensions are the containers the extractor may emit for
// "--audio-format m4a"; the actual extension on disk can differ from the
// template when the source format doesn't need re-muxing.
var audioExtensions = map[string]bool{
	".m4a": true, ".mp3": true, ".opus": true, ".ogg": true, ".aac": true, ".flac": true,
}

// Extractor shells out to a yt-dlp-compatible binary for the audio and
// meta_json assets.
type Extractor struct {
	BinaryPath string
}

// NewExtractor builds an Extractor; an empty binaryPath defaults to "yt-dlp"
// resolved via PATH at exec time.
func NewExtractor(binaryPath string) *Extractor {
	if binaryPath == "" {
		binaryPath = "yt-dlp"
	}
	return &Extractor{BinaryPath: binaryPath}
}

// FetchAudio downloads and extracts ep's audio track into paths.BaseDir,
// following the original's --extract-audio/m4a/embed-thumbnail recipe.
func (e *Extractor) FetchAudio(ctx context.Context, ep models.Episode, paths Paths) (FetchResult, error) {
	if ep.URL == "" {
		return FetchResult{}, fmt.Errorf("download: episode %d has no URL", ep.ID)
	}
	if err := os.MkdirAll(paths.BaseDir, 0o755); err != nil {
		return FetchResult{}, fmt.Errorf("download: create %s: %w", paths.BaseDir, err)
	}

	outputTemplate := filepath.Join(paths.BaseDir, paths.Stem+".%(ext)s")
	args := []string{
		"--extract-audio",
		"--audio-format", "m4a",
		"--audio-quality", "0",
		"--embed-thumbnail",
		"--no-download-archive",
		"--output", outputTemplate,
	}
	if ep.EpisodeNumber != nil {
		args = append([]string{"--playlist-items", strconv.Itoa(*ep.EpisodeNumber)}, args...)
	}
	args = append(args, ep.URL)

	if err := e.run(ctx, args); err != nil {
		return FetchResult{}, classifyExtractorError(err)
	}

	expected := filepath.Join(paths.BaseDir, paths.Stem+".m4a")
	path, err := locateOutputFile(expected, paths.BaseDir, paths.Stem, audioExtensions)
	if err != nil {
		return FetchResult{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return FetchResult{}, fmt.Errorf("download: stat audio output %s: %w", path, err)
	}
	return FetchResult{FilePath: path, SizeBytes: info.Size()}, nil
}

// FetchMetaJSON fetches ep's sidecar info JSON without downloading media.
func (e *Extractor) FetchMetaJSON(ctx context.Context, ep models.Episode, paths Paths) (FetchResult, error) {
	if ep.URL == "" {
		return FetchResult{}, fmt.Errorf("download: episode %d has no URL", ep.ID)
	}
	if err := os.MkdirAll(paths.BaseDir, 0o755); err != nil {
		return FetchResult{}, fmt.Errorf("download: create %s: %w", paths.BaseDir, err)
	}

	outputTemplate := filepath.Join(paths.BaseDir, paths.Stem+".%(ext)s")
	args := []string{
		"--no-playlist",
		"--write-info-json",
		"--skip-download",
		"--output", outputTemplate,
		"--no-download-archive",
		ep.URL,
	}
	if err := e.run(ctx, args); err != nil {
		return FetchResult{}, classifyExtractorError(err)
	}

	matches, err := filepath.Glob(filepath.Join(paths.BaseDir, paths.Stem+"*.info.json"))
	if err != nil {
		return FetchResult{}, fmt.Errorf("download: glob info.json: %w", err)
	}
	if len(matches) == 0 {
		matches, err = filepath.Glob(filepath.Join(paths.BaseDir, "*.info.json"))
		if err != nil {
			return FetchResult{}, fmt.Errorf("download: glob fallback info.json: %w", err)
		}
		sort.Slice(matches, func(i, j int) bool {
			si, _ := os.Stat(matches[i])
			sj, _ := os.Stat(matches[j])
			if si == nil || sj == nil {
				return false
			}
			return si.ModTime().After(sj.ModTime())
		})
	}
	if len(matches) == 0 {
		return FetchResult{}, fmt.Errorf("download: info.json not found for episode %d after extractor run", ep.ID)
	}
	info, err := os.Stat(matches[0])
	if err != nil {
		return FetchResult{}, fmt.Errorf("download: stat info.json %s: %w", matches[0], err)
	}
	return FetchResult{FilePath: matches[0], SizeBytes: info.Size()}, nil
}

func (e *Extractor) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, e.BinaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return err
	}
	return nil
}

// locateOutputFile returns expected if it exists, else the first sibling
// file sharing stem with an audio extension — the extractor's chosen
// container can differ from the requested one when no re-mux was needed.
func locateOutputFile(expected, dir, stem string, allowedExt map[string]bool) (string, error) {
	if _, err := os.Stat(expected); err == nil {
		return expected, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, stem+".*"))
	if err != nil {
		return "", fmt.Errorf("download: glob audio candidates: %w", err)
	}
	for _, m := range matches {
		if allowedExt[strings.ToLower(filepath.Ext(m))] {
			return m, nil
		}
	}
	return "", fmt.Errorf("download: extractor succeeded but no output file found for stem %q in %s", stem, dir)
}

// classifyExtractorError inspects the extractor's combined error/stderr
// for the terminal phrasings that mean "the content is gone upstream"
// rather than "the tool is broken", wrapping as ErrUpstreamGone when so.
func classifyExtractorError(err error) error {
	msg := strings.ToLower(err.Error())
	gonePhrases := []string{
		"video unavailable", "content is no longer available", "this video is no longer available",
		"404", "410", "not found", "no longer available", "has been removed",
	}
	for _, phrase := range gonePhrases {
		if strings.Contains(msg, phrase) {
			return &ErrUpstreamGone{Cause: err}
		}
	}
	return err
}
