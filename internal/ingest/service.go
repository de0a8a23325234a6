// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/relevantus/internal/metrics"
)

// Service runs the ingestion pipeline under a supervisor. A failed run
// returns its error, which makes the supervisor restart the service
// after its failure backoff; the run then resumes from the last
// checkpoint behind URL deduplication.
type Service struct {
	runner   *Runner
	migrator *Migrator
	targetFS string
	interval time.Duration
	logger   zerolog.Logger
}

// NewService wires the runner and migrator into a suture service.
// targetFS is the feature set of the active topic model; interval spaces
// successful runs.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewService(runner *Runner, migrator *Migrator, targetFS string, interval time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		runner:   runner,
		migrator: migrator,
		targetFS: targetFS,
		interval: interval,
		logger:   logger,
	}
}

// Serve implements suture.Service.
func (s *Service) Serve(ctx context.Context) error {
	if err := s.migrator.Migrate(ctx, s.targetFS); err != nil {
		metrics.RunRestarts.Inc()
		return err
	}

	for {
		if err := s.runner.RunOnce(ctx); err != nil {
			metrics.RunRestarts.Inc()
			s.logger.Error().Err(err).Msg("ingestion run failed, supervisor will restart")
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.interval):
		}
	}
}

// String names the service in supervisor logs.
func (s *Service) String() string { return "ingest-runner" }
