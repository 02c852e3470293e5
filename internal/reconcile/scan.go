// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

// Package reconcile implements the one-shot library-folder import: it
// matches audio files already on disk to catalog Episodes and registers
// them as complete Assets without moving or renaming anything.
//
// Ported from original_source/audiobiblio/reconcile.py.
package reconcile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
)

// audioExtensions mirrors internal/download's extractor output set, since
// a folder reconciled here is typically one C6 (or a predecessor tool)
// already populated.
var audioExtensions = map[string]bool{
	".m4a": true, ".mp3": true, ".opus": true, ".ogg": true, ".aac": true, ".flac": true, ".wav": true,
}

// filenameNumRe extracts a leading episode number: "001 - Title.m4a".
var filenameNumRe = regexp.MustCompile(`^(\d{1,4})\s*[-._)\]]\s*`)

// filenameNumAltRe extracts a delimited episode number: "SFT_001_Title.m4a".
var filenameNumAltRe = regexp.MustCompile(`^\w+[_\s](\d{1,4})[_\s]`)

// ScannedFile is one audio file found under a reconciled folder, with
// whatever episode-identifying information its tags or name carry.
type ScannedFile struct {
	Path              string
	EpisodeNumber     *int
	TitleFromTags     string
	TitleFromFilename string
}

// ScanFolder walks folder for audio files and reads their tags, the way
// reconcile.py's scan_folder does via tags.reader.find_audio_files/
// read_tags, here via github.com/dhowden/tag directly.
func ScanFolder(folder string) ([]ScannedFile, error) {
	var out []ScannedFile
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !audioExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		out = append(out, scanFile(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile: scan folder %s: %w", folder, err)
	}
	return out, nil
}

func scanFile(path string) ScannedFile {
	filename := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	sf := ScannedFile{
		Path:              path,
		TitleFromFilename: strings.TrimSpace(filenameNumRe.ReplaceAllString(filename, "")),
	}

	if num := filenameEpisodeNumber(filename); num != nil {
		sf.EpisodeNumber = num
	}

	f, err := os.Open(path)
	if err != nil {
		return sf
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return sf
	}
	sf.TitleFromTags = m.Title()
	if track, _ := m.Track(); track != 0 {
		n := track
		sf.EpisodeNumber = &n
	}
	return sf
}

func filenameEpisodeNumber(filename string) *int {
	m := filenameNumRe.FindStringSubmatch(filename)
	if m == nil {
		m = filenameNumAltRe.FindStringSubmatch(filename)
	}
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}
