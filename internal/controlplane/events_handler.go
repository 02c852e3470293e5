// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package controlplane

import (
	"fmt"
	"net/http"

	"github.com/haxny/archivist/internal/events"
	"github.com/haxny/archivist/internal/logging"
)

// handleEvents streams progress updates from every scheduler-owned topic as
// Server-Sent Events until the client disconnects. Grounded on
// internal/api/handlers_spatial.go's setupStreamingResponse/http.Flusher
// idiom, adapted from chunked JSON to text/event-stream.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	topics := []string{events.TopicCrawl, events.TopicDownload, events.TopicAvailability, events.TopicReconcile}
	merged := make(chan []byte, 16)

	for _, topic := range topics {
		ch, err := s.bus.Subscribe(ctx, topic)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("topic", topic).Msg("controlplane: events: subscribe failed")
			continue
		}
		go func(topic string, ch <-chan *events.Message) {
			for msg := range ch {
				select {
				case merged <- msg.Payload:
				case <-ctx.Done():
					return
				}
				msg.Ack()
			}
		}(topic, ch)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-merged:
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
