// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

// Package main is the entry point for the Relevantus server.
//
// Relevantus learns each user's interests from their feedback on
// documents and continuously grades incoming feed items against those
// interests, keeping a bounded list of the most relevant documents per
// user.
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, optional YAML file, RELEVANTUS_ env vars
//  2. Logging: zerolog, JSON or console format
//  3. Storage: BadgerDB store plus the seen-URL deduplicator
//  4. Topics: classifier on the active topic model's feature set
//  5. Supervision: the ingest service under a suture tree, restarted
//     with backoff after failures
//  6. Metrics (optional): Prometheus endpoint
//
// The active topic model is provisioned into storage out of band; the
// server refuses to start without one. Pointing TOPICS_ACTIVE_FEATURE_SET
// at a newly provisioned feature set migrates all stored vectors onto it
// at startup.
//
// The server shuts down gracefully on SIGINT and SIGTERM.
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

	badger "github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tomtom215/relevantus/internal/config"
	"github.com/tomtom215/relevantus/internal/ingest"
	"github.com/tomtom215/relevantus/internal/logging"
	"github.com/tomtom215/relevantus/internal/profile"
	"github.com/tomtom215/relevantus/internal/source"
	"github.com/tomtom215/relevantus/internal/storage"
	"github.com/tomtom215/relevantus/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logger := logging.Logger()
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger := logging.Init(cfg.Logging)
	logger.Info().Str("storage", cfg.Storage.Path).Msg("starting relevantus")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := badger.Open(badger.DefaultOptions(cfg.Storage.Path).WithLogger(nil))
	if err != nil {
		return fmt.Errorf("open badger at %s: %w", cfg.Storage.Path, err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("closing badger")
		}
	}()

	store := storage.NewBadgerStore(db)
	seen, err := storage.NewBadgerSeen(db, cfg.Storage.DedupeWindow, cfg.Storage.ExpectedURLs)
	if err != nil {
		return fmt.Errorf("build seen-url deduplicator: %w", err)
	}

	fsID := cfg.Topics.ActiveFeatureSet
	if fsID == "" {
		fsID, err = store.ReferenceFeatureSet(ctx)
		if errors.Is(err, storage.ErrNotFound) {
			return errors.New("no topic model provisioned: store a topic model and feature set, then set RELEVANTUS_TOPICS_ACTIVE_FEATURE_SET")
		}
		if err != nil {
			return fmt.Errorf("read reference feature set: %w", err)
		}
	}

	fs, err := store.GetFeatureSet(ctx, fsID)
	if err != nil {
		return fmt.Errorf("load feature set %s: %w", fsID, err)
	}
	model, err := store.GetTopicModel(ctx, fs.ModelID)
	if err != nil {
		return fmt.Errorf("load topic model %s: %w", fs.ModelID, err)
	}
	classifier, err := ingest.NewTopicClassifier(model, fsID)
	if err != nil {
		return fmt.Errorf("build classifier: %w", err)
	}

	learner, err := profile.NewLearner(cfg.Learner.ToProfile())
	if err != nil {
		return fmt.Errorf("build learner: %w", err)
	}

	opener := func(context.Context) (source.Source, error) {
		return source.NewFeedSource(source.FeedSourceConfig{
			URLs:          cfg.Source.URLs,
			FetchInterval: cfg.Source.FetchInterval,
			FetchTimeout:  cfg.Source.FetchTimeout,
		}, logger), nil
	}

	runner, err := ingest.NewRunner(store, seen, classifier, learner, opener, ingest.RunnerConfig{
		TopDocs:   cfg.Ingest.TopDocs,
		ChunkSize: cfg.Ingest.ChunkSize,
		MaxDocs:   cfg.Ingest.MaxDocs,
	}, logger)
	if err != nil {
		return fmt.Errorf("build runner: %w", err)
	}

	migrator := ingest.NewMigrator(store, logger)
	svc := ingest.NewService(runner, migrator, fsID, cfg.Ingest.RunInterval, logger)

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.FailureBackoff = cfg.Ingest.RestartBackoff
	tree := supervisor.NewTree(logging.NewSlogLogger(logger), treeCfg)
	tree.Add(svc)
	if cfg.Metrics.Enabled {
		tree.Add(newMetricsServer(cfg.Metrics.Addr, logger))
	}

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("shutdown complete")
	return nil
}

// metricsServer serves /metrics as a supervised service.
type metricsServer struct {
	addr   string
	logger zerolog.Logger
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func newMetricsServer(addr string, logger zerolog.Logger) *metricsServer {
	return &metricsServer{addr: addr, logger: logger}
}

func (m *metricsServer) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              m.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	m.logger.Info().Str("addr", m.addr).Msg("metrics endpoint listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (m *metricsServer) String() string { return "metrics-server" }
