// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

// Package main is the entry point for the archivist server.
//
// archivist crawls mujrozhlas.cz/rozhlas.cz program pages, downloads newly
// discovered episodes with yt-dlp, tracks per-episode availability, and
// exposes a narrow on-demand control surface over HTTP. It initializes its
// components in the following order:
//
//  1. Configuration: Koanf v2, layered env vars over a config file over
//     built-in defaults.
//  2. Catalog: SQLite-backed relational store of programs, episodes, and
//     crawl targets.
//  3. Discovery, download, and availability collaborators.
//  4. Scheduler: owns the periodic crawl/download/availability ticks and
//     the on-demand submission worker pool.
//  5. Reconciler and progress bus.
//  6. Supervisor tree: catalog/reconciliation/api layers, each isolated
//     from the others' failures.
//  7. Control plane: the on-demand submission and observability HTTP
//     surface, supervised as a plain *http.Server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haxny/archivist/internal/availability"
	"github.com/haxny/archivist/internal/catalog"
	"github.com/haxny/archivist/internal/config"
	"github.com/haxny/archivist/internal/controlplane"
	"github.com/haxny/archivist/internal/discovery"
	"github.com/haxny/archivist/internal/download"
	"github.com/haxny/archivist/internal/events"
	"github.com/haxny/archivist/internal/logging"
	"github.com/haxny/archivist/internal/reconcile"
	"github.com/haxny/archivist/internal/scheduler"
	"github.com/haxny/archivist/internal/supervisor"
	"github.com/haxny/archivist/internal/supervisor/services"
)

// eventBusBuffer bounds how many undelivered progress messages each SSE
// subscriber can accumulate before older ones are dropped.
const eventBusBuffer = 256

// submissionWorkers sizes the scheduler's on-demand submission queue
// (scheduler.New buffers four tasks per unit); one goroutine drains it,
// separate from the periodic tick goroutines.
const submissionWorkers = 2

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("starting archivist with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := catalog.Open(ctx, cfg.Catalog)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open catalog")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing catalog")
		}
	}()
	logging.Info().Str("db_path", cfg.Catalog.DBPath).Msg("catalog opened")

	discoverer := discovery.New(cfg.Discovery, cfg.Download.ExtractorPath)
	executor := download.New(store, cfg.Library, cfg.Download, cfg.LinkGrabber, cfg.LibraryNotify, nil)
	prober := availability.New(store, cfg.Availability)
	sched := scheduler.New(store, discoverer, executor, prober, cfg.Scheduler, cfg.Download, cfg.Availability, submissionWorkers)
	reconciler := reconcile.New(store)
	bus := events.New(eventBusBuffer)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing event bus")
		}
	}()

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	tree.AddReconciliationService(services.NewSyncService(sched))
	logging.Info().Msg("scheduler added to supervisor tree")

	cp := controlplane.New(store, sched, reconciler, bus)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      cp.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // the SSE endpoint holds the connection open
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("control plane HTTP service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", fmt.Sprintf("%v", svc)).Msg("service failed to stop")
		}
	}

	logging.Info().Msg("archivist stopped gracefully")
}
