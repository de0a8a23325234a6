// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

// Package storage persists users, documents, profiles, feedback actions,
// and topic models.
//
// All saves are idempotent overwrites by key, so the ingest pipeline can
// replay a checkpoint after a crash without creating duplicates. The
// BadgerDB implementation is the production store; the in-memory
// implementation backs tests.
//
// Seen-URL deduplication is a separate concern: a time-windowed set of
// URL hashes fronted by a bloom filter, so the common case of a brand-new
// URL costs no read from disk.
package storage
