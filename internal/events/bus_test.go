// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBus_PublishDeliversToSubscriber(t *testing.T) {
	b := New(4)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, TopicDownload)
	require.NoError(t, err)

	require.NoError(t, b.Publish(TopicDownload, Progress{Component: "executor", Status: "started"}))

	select {
	case msg := <-ch:
		var p Progress
		require.NoError(t, json.Unmarshal(msg.Payload, &p))
		require.Equal(t, "executor", p.Component)
		require.Equal(t, "started", p.Status)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestBus_PublishWithNoSubscriberDoesNotBlock(t *testing.T) {
	b := New(1)
	defer b.Close()

	done := make(chan struct{})
	go func() {
		_ = b.Publish(TopicCrawl, Progress{Component: "scheduler", Status: "started"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked with no subscribers")
	}
}

func TestBus_SubscribersOnDifferentTopicsAreIsolated(t *testing.T) {
	b := New(4)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	crawlCh, err := b.Subscribe(ctx, TopicCrawl)
	require.NoError(t, err)
	downloadCh, err := b.Subscribe(ctx, TopicDownload)
	require.NoError(t, err)

	require.NoError(t, b.Publish(TopicCrawl, Progress{Component: "scheduler", Status: "done"}))

	select {
	case msg := <-crawlCh:
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for crawl topic message")
	}

	select {
	case <-downloadCh:
		t.Fatal("download subscriber must not receive crawl topic messages")
	case <-time.After(50 * time.Millisecond):
	}
}
