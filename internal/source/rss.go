// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

package source

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// FeedSourceConfig configures the RSS/Atom feed source.
type FeedSourceConfig struct {
	// URLs lists the feeds to fetch, in order.
	URLs []string

	// FetchInterval spaces consecutive feed fetches. Zero disables
	// rate limiting.
	FetchInterval time.Duration

	// FetchTimeout bounds a single feed fetch. Defaults to 30s.
	FetchTimeout time.Duration
}

// FeedSource streams items from a list of RSS/Atom feeds. Fetches go
// through a circuit breaker, so a feed host that keeps failing trips the
// source instead of hammering the host.
type FeedSource struct {
	cfg      FeedSourceConfig
	parser   *gofeed.Parser
	breaker  *gobreaker.CircuitBreaker[*gofeed.Feed]
	limiter  *rate.Limiter
	logger   zerolog.Logger
	queue    []RawDocument
	nextFeed int
}

var _ Source = (*FeedSource)(nil)

// NewFeedSource builds a feed source. The source is exhausted once every
// configured feed has been fetched and drained.
//
//nolint:gocritic // config is small and copied intentionally
func NewFeedSource(cfg FeedSourceConfig, logger zerolog.Logger) *FeedSource {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.FetchInterval > 0 {
		limit = rate.Every(cfg.FetchInterval)
	}
	return &FeedSource{
		cfg:    cfg,
		parser: gofeed.NewParser(),
		breaker: gobreaker.NewCircuitBreaker[*gofeed.Feed](gobreaker.Settings{
			Name: "feed-fetch",
		}),
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Next implements Source. It returns io.EOF once all feeds are drained.
func (s *FeedSource) Next(ctx context.Context) (RawDocument, error) {
	for {
		if len(s.queue) > 0 {
			doc := s.queue[0]
			s.queue = s.queue[1:]
			return doc, nil
		}
		if s.nextFeed >= len(s.cfg.URLs) {
			return RawDocument{}, io.EOF
		}

		url := s.cfg.URLs[s.nextFeed]
		s.nextFeed++

		if err := s.limiter.Wait(ctx); err != nil {
			return RawDocument{}, err
		}

		feed, err := s.breaker.Execute(func() (*gofeed.Feed, error) {
			fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
			defer cancel()
			return s.parser.ParseURLWithContext(url, fetchCtx)
		})
		if err != nil {
			return RawDocument{}, fmt.Errorf("source: fetch %s: %w", url, err)
		}

		s.logger.Debug().Str("feed", url).Int("items", len(feed.Items)).Msg("fetched feed")
		for _, item := range feed.Items {
			s.queue = append(s.queue, mapItem(item))
		}
	}
}

func mapItem(item *gofeed.Item) RawDocument {
	published := time.Now()
	switch {
	case item.PublishedParsed != nil:
		published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		published = *item.UpdatedParsed
	}
	return RawDocument{
		URL:       item.Link,
		Title:     item.Title,
		Summary:   item.Description,
		Published: published,
	}
}
