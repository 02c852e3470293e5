// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package download

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/haxny/archivist/internal/catalog"
)

// maxStemLen caps a filename stem (before extension), matching the
// original library pather's MAX_STEM_LEN.
const maxStemLen = 80

var (
	pathReservedRe = regexp.MustCompile(`[\\/:*?"<>|]+`)
	slugWhitespace = regexp.MustCompile(`\s+`)
	stripDiacritics = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// slug strips diacritics and path-reserved characters from s, collapsing
// whitespace, so the result is safe to use as one path segment or filename
// stem. Ported from pipelines/library.py's _slug (there built on unidecode;
// here on golang.org/x/text, the idiom internal/dedupe already uses for the
// same "strip diacritics for comparison/display" concern).
func slug(s string, maxLen int) string {
	out, _, err := transform.String(stripDiacritics, s)
	if err != nil {
		out = s
	}
	out = pathReservedRe.ReplaceAllString(out, " ")
	out = slugWhitespace.ReplaceAllString(out, " ")
	out = strings.TrimSpace(out)
	if maxLen > 0 && len(out) > maxLen {
		out = strings.TrimRight(out[:maxLen], ". ")
	}
	if out == "" {
		return "_"
	}
	return out
}

// Paths is the final output location computed for one Episode: the
// directory holding every asset file, and the shared filename stem each
// asset's extension is appended to.
type Paths struct {
	BaseDir string
	Stem    string
}

// OutputTemplate returns BaseDir/Stem.ext.
func (p Paths) OutputTemplate(ext string) string {
	return filepath.Join(p.BaseDir, p.Stem+"."+ext)
}

// BuildPaths computes an Episode's output directory and filename stem by
// walking its Work/Series/Program/Station ancestry, following
// build_paths_for_episode's exact layout and fallback rules:
//
//	{program} ({station_code})/{author} - ({year}) {album}/{stem}.{ext}
func BuildPaths(libraryDir string, chain catalog.EpisodeChain) Paths {
	stationCode := chain.Station.Code
	programName := chain.Program.Name
	author := chain.Work.Author
	album := chain.Work.Title

	year := chain.Work.Year
	if year == nil && chain.Episode.PublishedAt != nil {
		y := chain.Episode.PublishedAt.Year()
		year = &y
	}

	title := chain.Work.Title
	epNumber := chain.Episode.EpisodeNumber
	epName := chain.Episode.Title

	var programFolder string
	switch {
	case programName != "" && stationCode != "":
		programFolder = fmt.Sprintf("%s (%s)", slug(programName, 0), slug(stationCode, 0))
	case programName != "":
		programFolder = slug(programName, 0)
	case stationCode != "":
		programFolder = slug(stationCode, 0)
	default:
		programFolder = "Unknown"
	}

	albumS := ""
	if album != "" {
		albumS = slug(album, 0)
	}
	authorS := ""
	if author != "" {
		authorS = slug(author, 0)
	}

	var workFolder string
	switch {
	case authorS != "" && year != nil:
		workFolder = fmt.Sprintf("%s - (%d) %s", authorS, *year, albumS)
	case authorS != "":
		workFolder = fmt.Sprintf("%s - %s", authorS, albumS)
	case year != nil:
		workFolder = fmt.Sprintf("- (%d) %s", *year, albumS)
	case albumS != "":
		workFolder = albumS
	default:
		workFolder = "Unknown Work"
	}

	titleS := ""
	if title != "" {
		titleS = slug(title, 0)
	}
	epNameS := ""
	if epName != "" {
		epNameS = slug(epName, 0)
	}
	numS := ""
	if epNumber != nil {
		numS = fmt.Sprintf("%02d", *epNumber)
	}

	var stem string
	switch {
	case titleS != "" && numS != "" && epNameS != "":
		stem = fmt.Sprintf("%s - %s %s", titleS, numS, epNameS)
	case titleS != "" && epNameS != "":
		stem = fmt.Sprintf("%s - %s", titleS, epNameS)
	case titleS != "" && numS != "":
		stem = fmt.Sprintf("%s - %s", titleS, numS)
	case albumS != "" && numS != "":
		stem = fmt.Sprintf("%s - %s", albumS, numS)
	case epNameS != "":
		stem = epNameS
	case titleS != "":
		stem = titleS
	case albumS != "":
		stem = albumS
	default:
		stem = "track"
	}
	if len(stem) > maxStemLen {
		stem = strings.TrimRight(stem[:maxStemLen], ". ")
	}

	return Paths{
		BaseDir: filepath.Join(libraryDir, programFolder, workFolder),
		Stem:    stem,
	}
}
