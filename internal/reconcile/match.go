// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package reconcile

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/haxny/archivist/internal/models"
)

// titleMatchThreshold is lower than C3's dedupe threshold (0.90) because
// this pairs a clean catalog title against noisy tag/filename text.
const titleMatchThreshold = 0.85

var whitespaceRe = regexp.MustCompile(`\s+`)

var stripDiacritics = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeTitle lowercases, strips diacritics, and collapses whitespace,
// duplicating internal/dedupe's unexported normalizer (package-private,
// not importable across this boundary) for the same comparison purpose.
func normalizeTitle(title string) string {
	t := strings.TrimSpace(title)
	if t == "" {
		return ""
	}
	out, _, err := transform.String(stripDiacritics, strings.ToLower(t))
	if err != nil {
		out = strings.ToLower(t)
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(out, " "))
}

// similarityRatio approximates difflib.SequenceMatcher.ratio(): twice the
// longest-common-subsequence length over the combined length of a and b.
func similarityRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	lcs := longestCommonSubsequenceLen(ra, rb)
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

func longestCommonSubsequenceLen(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// Match pairs a ScannedFile with the Episode it was matched to, and the
// method used (for logging, mirroring match_files_to_catalog's
// match_method field).
type Match struct {
	File      ScannedFile
	Episode   models.Episode
	Method    string
	Ratio     float64
}

// MatchResult is the outcome of matching a folder's scanned files against
// a Program's episodes.
type MatchResult struct {
	Matched           []Match
	UnmatchedFiles    []ScannedFile
	UnmatchedEpisodes []models.Episode
}

// MatchFilesToEpisodes pairs files to episodes by episode number first,
// falling back to fuzzy title match against tag title then filename
// title, mirroring reconcile.py's match_files_to_catalog (collapsed onto
// Episode directly since this module has no separate scraped-listing
// table distinct from Episode).
func MatchFilesToEpisodes(files []ScannedFile, episodes []models.Episode) MatchResult {
	byNumber := make(map[int]models.Episode)
	titled := make([]struct {
		norm string
		ep   models.Episode
	}, 0, len(episodes))
	for _, ep := range episodes {
		if ep.EpisodeNumber != nil {
			byNumber[*ep.EpisodeNumber] = ep
		}
		if norm := normalizeTitle(ep.Title); norm != "" {
			titled = append(titled, struct {
				norm string
				ep   models.Episode
			}{norm, ep})
		}
	}

	var result MatchResult
	matchedIDs := make(map[int64]bool)

	for _, f := range files {
		ep, method, ratio, ok := matchOne(f, byNumber, titled, matchedIDs)
		if !ok {
			result.UnmatchedFiles = append(result.UnmatchedFiles, f)
			continue
		}
		result.Matched = append(result.Matched, Match{File: f, Episode: ep, Method: method, Ratio: ratio})
		matchedIDs[ep.ID] = true
	}

	for _, ep := range episodes {
		if !matchedIDs[ep.ID] {
			result.UnmatchedEpisodes = append(result.UnmatchedEpisodes, ep)
		}
	}
	return result
}

func matchOne(f ScannedFile, byNumber map[int]models.Episode, titled []struct {
	norm string
	ep   models.Episode
}, matchedIDs map[int64]bool) (models.Episode, string, float64, bool) {
	if f.EpisodeNumber != nil {
		if ep, ok := byNumber[*f.EpisodeNumber]; ok && !matchedIDs[ep.ID] {
			return ep, "episode_number", 1, true
		}
	}

	var best models.Episode
	var bestRatio float64
	var found bool
	for _, src := range []string{f.TitleFromTags, f.TitleFromFilename} {
		normSrc := normalizeTitle(src)
		if normSrc == "" {
			continue
		}
		for _, t := range titled {
			if matchedIDs[t.ep.ID] {
				continue
			}
			if ratio := similarityRatio(normSrc, t.norm); ratio > bestRatio {
				bestRatio = ratio
				best = t.ep
				found = true
			}
		}
		if bestRatio > titleMatchThreshold {
			break
		}
	}
	if found && bestRatio > titleMatchThreshold {
		return best, "title_fuzzy", bestRatio, true
	}
	return models.Episode{}, "", 0, false
}
