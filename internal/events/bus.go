// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

// Package events implements the in-process progress bus bridging
// scheduler/executor activity to the control plane's SSE endpoint: an
// explicit pub/sub bus with bounded per-subscriber queues, where slow
// subscribers are dropped rather than allowed to backpressure publishers.
// This uses Watermill's GoChannel Pub/Sub, the non-durable transport
// (JetStream-backed durable delivery is out of scope here; see
// DESIGN.md).
package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	json "github.com/goccy/go-json"
)

// Topics named after the scheduler ticks and on-demand operations that
// publish progress to it.
const (
	TopicCrawl        = "crawl"
	TopicDownload     = "download"
	TopicAvailability = "availability"
	TopicReconcile    = "reconcile"
)

// Message re-exports Watermill's message type so callers (e.g. the
// control plane's SSE handler) don't need their own Watermill import just
// to name the channel element type Subscribe returns.
type Message = message.Message

// Progress is one progress update published to a topic.
type Progress struct {
	Component string `json:"component"`
	Status    string `json:"status"` // started, progress, done, error
	Message   string `json:"message,omitempty"`
}

// Bus is a bounded, non-durable, best-effort progress bus: a slow or
// absent SSE subscriber never blocks the publisher, matching the
// "slow subscribers are dropped" requirement.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// New builds a Bus with outputBuffer slots per subscriber; publishing
// does not block waiting for subscriber acknowledgment, so a stalled
// client cannot back-pressure the scheduler.
func New(outputBuffer int) *Bus {
	if outputBuffer <= 0 {
		outputBuffer = 64
	}
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            int64(outputBuffer),
			BlockPublishUntilSubscriberAck: false,
		},
		watermill.NopLogger{},
	)
	return &Bus{pubsub: pubsub}
}

// Publish marshals p as JSON and publishes it to topic. Errors are
// swallowed into the returned error rather than ever panicking; callers
// that treat progress reporting as best-effort may ignore it.
func (b *Bus) Publish(topic string, p Progress) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("events: marshal progress: %w", err)
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("events: publish to %q: %w", topic, err)
	}
	return nil
}

// Subscribe returns a channel of raw messages for topic; the control
// plane's SSE handler reads from it until ctx is canceled.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	ch, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("events: subscribe to %q: %w", topic, err)
	}
	return ch, nil
}

// Close shuts down the underlying Pub/Sub, closing every subscriber
// channel.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
