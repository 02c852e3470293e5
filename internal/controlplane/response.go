// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package controlplane

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/haxny/archivist/internal/logging"
)

// response is the narrow control plane's uniform envelope; this surface
// has no pagination, auth, or request tracing metadata to carry, unlike
// the richer JSON API the supplemented spec leaves external.
type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response{Success: status < 400, Data: data}); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("controlplane: encode response failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response{Success: false, Error: msg}); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("controlplane: encode error response failed")
	}
}
