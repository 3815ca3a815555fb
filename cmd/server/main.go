// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Command server is the entry point for the attention-map server.
//
// The server initializes components in the following order:
//
//  1. Configuration: load settings from environment variables and an
//     optional config.yaml (Koanf v2)
//  2. Logging: configure zerolog from the loaded config
//  3. Geospatial Index / Event Store: open the DuckDB-backed store
//  4. Collaborators: object store, keyframe extractor, transcriber,
//     classifier, clustering engine
//  5. Fan-out Bus and Work Queue
//  6. Pipeline Orchestrator, gamification hooks
//  7. Auth manager/service, RBAC enforcer
//  8. A background worker goroutine consuming the work queue
//  9. HTTP server
//
// # Signal Handling
//
// The process shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting new HTTP connections, waits up to cfg.Server.ShutdownTimeout
// for in-flight requests to complete, then closes the work queue, bus, and
// store.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/attentionmap/attention-map-server/internal/api"
	"github.com/attentionmap/attention-map-server/internal/auth"
	"github.com/attentionmap/attention-map-server/internal/authz"
	"github.com/attentionmap/attention-map-server/internal/bus"
	"github.com/attentionmap/attention-map-server/internal/classify"
	"github.com/attentionmap/attention-map-server/internal/clustering"
	"github.com/attentionmap/attention-map-server/internal/config"
	"github.com/attentionmap/attention-map-server/internal/gamification"
	"github.com/attentionmap/attention-map-server/internal/keyframe"
	"github.com/attentionmap/attention-map-server/internal/logging"
	"github.com/attentionmap/attention-map-server/internal/objectstore"
	"github.com/attentionmap/attention-map-server/internal/pipeline"
	"github.com/attentionmap/attention-map-server/internal/queue"
	"github.com/attentionmap/attention-map-server/internal/store"
	"github.com/attentionmap/attention-map-server/internal/transcribe"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Server.LogLevel,
		Format: cfg.Server.LogFormat,
	})

	logging.Info().Msg("starting attention-map server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventStore, err := store.New(ctx, &cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open event store")
	}
	defer func() {
		if err := eventStore.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing event store")
		}
	}()

	objects, err := objectstore.New(ctx, &cfg.ObjectStore)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize object store")
	}

	keyframes := keyframe.New(&cfg.MediaTool)
	transcriber := transcribe.New(&cfg.Speech)
	classifier := classify.New(&cfg.AI)
	clusterEngine := clustering.New(eventStore, &cfg.Clustering)

	eventBus, err := bus.New(&cfg.Bus)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize fan-out bus")
	}
	go eventBus.Run(ctx)

	workQueue, err := queue.New(&cfg.Bus)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize work queue")
	}
	defer func() {
		if err := workQueue.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing work queue")
		}
	}()

	orchestrator := pipeline.New(eventStore, objects, keyframes, transcriber, classifier, clusterEngine, eventBus)
	hooks := gamification.New(eventStore)

	authManager, err := auth.NewManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize auth manager")
	}
	authSvc := auth.NewService(eventStore, authManager)

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize authz enforcer")
	}

	// Start the pipeline worker: consumes the work queue until ctx is
	// canceled, running each job through the orchestrator and logging the
	// resulting stage report. Per-stage failures never abort the pipeline
	// (§4.1); only a non-nil return here triggers the queue's own
	// bounded-retry-with-backoff (a job-level, not stage-level, failure).
	go func() {
		err := workQueue.Consume(ctx, func(jobCtx context.Context, job queue.Job) error {
			var report *pipeline.Report
			if job.Reprocess {
				report = orchestrator.Reprocess(jobCtx, job.EventID)
			} else {
				report = orchestrator.Process(jobCtx, job.EventID, job.MediaBytes, job.MediaContentType)
			}
			pipeline.LogReport(jobCtx, report)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("pipeline worker stopped")
		}
	}()

	srv := api.NewServer(&cfg.Server, eventStore, workQueue, eventBus, authSvc, authManager, enforcer, hooks)

	httpServer := &http.Server{
		Addr:    cfg.Server.BindAddress,
		Handler: srv.Router(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serveErrCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		serveErrCh <- httpServer.ListenAndServe()
	}()

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-serveErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("HTTP server error")
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("error during HTTP server shutdown")
	}

	logging.Info().Msg("attention-map server stopped")
}
