// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline and profile learning.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion Metrics
	DocsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_docs_total",
			Help: "Total number of documents classified and matched",
		},
	)

	DocsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_docs_skipped_total",
			Help: "Total number of documents skipped during ingestion",
		},
		[]string{"reason"}, // "duplicate", "unclassifiable"
	)

	ChunkFlushes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_chunk_flushes_total",
			Help: "Total number of checkpoint flushes to storage",
		},
	)

	ChunkFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_chunk_flush_duration_seconds",
			Help:    "Duration of checkpoint flushes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RunRestarts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_run_restarts_total",
			Help: "Total number of ingestion runs restarted after a failure",
		},
	)

	SourceErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_source_errors_total",
			Help: "Total number of source failures during ingestion",
		},
	)

	// Profile Metrics
	ProfileUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profile_updates_total",
			Help: "Total number of user profile recomputations",
		},
	)

	// Migration Metrics
	MigrationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "migration_duration_seconds",
			Help:    "Duration of feature set migrations in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	MigratedVectors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "migration_vectors_total",
			Help: "Total number of vectors projected onto a new feature set",
		},
		[]string{"kind"}, // "profile", "document"
	)
)
