// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package services

import (
	"context"
	"fmt"
)

// StartStopManager is the Start/Stop lifecycle shape SyncService adapts to
// suture's Serve pattern. *scheduler.Scheduler satisfies it directly.
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// SyncService wraps a StartStopManager as a supervised service.
//
// It adapts the Start/Stop lifecycle pattern to suture's Serve pattern:
//  1. Calls Start(ctx) to begin the manager
//  2. Waits for context cancellation
//  3. Calls Stop() for graceful shutdown
//
// The manager handles its own goroutines internally, so this wrapper
// simply orchestrates the lifecycle transitions.
type SyncService struct {
	manager StartStopManager
	name    string
}

// NewSyncService creates a new sync service wrapper.
//
// Example usage:
//
//	sched := scheduler.New(store, discoverer, executor, prober, cfg.Scheduler, cfg.Download, cfg.Availability, 4)
//	svc := services.NewSyncService(sched)
//	tree.AddReconciliationService(svc)
func NewSyncService(manager StartStopManager) *SyncService {
	return &SyncService{
		manager: manager,
		name:    "sync-manager",
	}
}

// Serve implements suture.Service.
//
// This method:
//  1. Starts the manager (which spawns its internal goroutines)
//  2. Blocks until the context is canceled
//  3. Stops the manager (which waits for its goroutines to complete)
//
// If Start() fails, the error is returned immediately, causing suture to
// restart the service according to its backoff policy.
func (s *SyncService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("sync manager start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("sync manager stop failed: %w", err)
	}

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *SyncService) String() string {
	return s.name
}
