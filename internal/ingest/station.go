// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package ingest

import "strings"

// stationGuess is one entry in the uploader→station substring table.
type stationGuess struct {
	substr  string
	code    string
	name    string
	website string
}

// stationTable maps a yt-dlp/RSS "uploader" string to a known station,
// checked as a case-insensitive substring in order; the first match wins.
// An uploader matching none of these falls back to the generic aggregator
// station (genericStation).
var stationTable = []stationGuess{
	{"vltava", "CRo3", "Vltava", "https://vltava.rozhlas.cz"},
	{"dvojka", "CRo2", "Dvojka", "https://dvojka.rozhlas.cz"},
	{"radiozurnal", "CRo1", "Radiožurnál", "https://radiozurnal.rozhlas.cz"},
	{"radiožurnál", "CRo1", "Radiožurnál", "https://radiozurnal.rozhlas.cz"},
	{"junior", "CRoJun", "Rádio Junior", "https://junior.rozhlas.cz"},
	{"plus", "CRoPlus", "Plus", "https://plus.rozhlas.cz"},
	{"wave", "CRoW", "Wave", "https://wave.rozhlas.cz"},
}

// genericCode/genericName/genericWebsite describe the aggregator station
// used when an uploader doesn't match any known broadcaster substring.
const (
	genericCode    = "mujrozhlas"
	genericName    = "mujrozhlas.cz"
	genericWebsite = "https://www.mujrozhlas.cz"
)

// guessStation resolves an uploader string to a (code, name, website)
// triple via the static substring table, falling back to the generic
// aggregator station for an empty or unrecognized uploader.
func guessStation(uploader string) (code, name, website string) {
	if uploader == "" {
		return genericCode, genericName, genericWebsite
	}
	lower := strings.ToLower(uploader)
	for _, g := range stationTable {
		if strings.Contains(lower, g.substr) {
			return g.code, g.name, g.website
		}
	}
	return genericCode, genericName, genericWebsite
}
