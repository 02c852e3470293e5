// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package dedupe

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// reairSuffixRe matches a trailing re-air numeric suffix (e.g. -2941669),
// at least 7 digits so ordinary slug numbers aren't stripped accidentally.
var reairSuffixRe = regexp.MustCompile(`-\d{7,}$`)

var whitespaceRe = regexp.MustCompile(`\s+`)

var stripDiacritics = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeURL lowercases the host and strips a trailing slash and any
// query/fragment, so trivially-different URLs compare equal.
func normalizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimRight(strings.TrimSpace(raw), "/")
	}
	host := strings.ToLower(u.Host)
	path := strings.TrimRight(u.Path, "/")
	return u.Scheme + "://" + host + path
}

// normalizeURLStripReair applies normalizeURL and additionally strips a
// trailing re-air id from the path, so a rebroadcast of the same episode
// under a new numeric suffix still matches its original airing.
func normalizeURLStripReair(raw string) string {
	norm := normalizeURL(raw)
	if norm == "" {
		return ""
	}
	u, err := url.Parse(norm)
	if err != nil {
		return norm
	}
	u.Path = reairSuffixRe.ReplaceAllString(u.Path, "")
	return u.Scheme + "://" + u.Host + u.Path
}

// stripDiacriticMarks removes combining diacritical marks from s (NFKD
// decompose, drop Mn-category runes, NFC recompose), so "Příběh" and
// "Pribeh" normalize to the same comparison key.
func stripDiacriticMarks(s string) string {
	out, _, err := transform.String(stripDiacritics, s)
	if err != nil {
		return s
	}
	return out
}

// normalizeTitle lowercases, strips diacritics, collapses whitespace, and
// removes a leading "seriesPrefix: "/" - "/" – "/" — " when present, so
// episodes of the same series compare by their distinguishing suffix only.
func normalizeTitle(title, seriesPrefix string) string {
	t := strings.TrimSpace(title)
	if t == "" {
		return ""
	}
	if seriesPrefix != "" {
		prefix := strings.TrimSpace(seriesPrefix)
		for _, sep := range []string{":", " -", " –", " —"} {
			full := prefix + sep
			if strings.HasPrefix(t, full) {
				t = strings.TrimSpace(t[len(full):])
				break
			}
		}
	}
	t = stripDiacriticMarks(strings.ToLower(t))
	t = whitespaceRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// similarityRatio approximates difflib.SequenceMatcher.ratio(): twice the
// length of the longest common subsequence over the combined length of
// both strings, in [0,1].
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
