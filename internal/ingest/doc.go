// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

// Package ingest orchestrates the document pipeline: refresh user
// profiles from accumulated feedback, stream documents from a source,
// classify and grade them, and persist results in chunks.
//
// Persistence is checkpointed every chunk and every save is an
// idempotent overwrite, so a crashed run can be restarted from its last
// checkpoint without duplicating state. Sources are treated as fragile:
// a source failure checkpoints and surfaces the error, and the
// supervisor restarts the run after a backoff. URL deduplication makes
// the replay cheap.
//
// The package also carries feature set migration: when the reference
// topic model changes, stored profiles and documents are projected onto
// the new basis before the next run.
package ingest
