// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

// Package source streams raw documents from external feeds.
//
// Sources are exhaustible and fragile: a source ends with io.EOF, and a
// failed source is abandoned rather than resumed. The ingest pipeline
// reopens a fresh source after a failure and relies on URL deduplication
// to skip what the previous attempt already delivered.
package source

import (
	"context"
	"io"
	"time"
)

// RawDocument is one unclassified document as delivered by a source.
type RawDocument struct {
	URL       string
	Title     string
	Summary   string
	Published time.Time
}

// Source yields raw documents one at a time. Next returns io.EOF when
// the source is exhausted; any other error means the source is broken
// and must be reopened.
type Source interface {
	Next(ctx context.Context) (RawDocument, error)
}

// Opener creates a fresh source. The ingest pipeline calls it at the
// start of every run and after a source failure.
type Opener func(ctx context.Context) (Source, error)

// SliceSource yields a fixed list of documents. Used in tests and for
// backfills.
type SliceSource struct {
	docs []RawDocument
	pos  int
}

// NewSliceSource returns a source over the given documents.
func NewSliceSource(docs []RawDocument) *SliceSource {
	return &SliceSource{docs: docs}
}

// Next implements Source.
func (s *SliceSource) Next(ctx context.Context) (RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return RawDocument{}, err
	}
	if s.pos >= len(s.docs) {
		return RawDocument{}, io.EOF
	}
	doc := s.docs[s.pos]
	s.pos++
	return doc, nil
}
