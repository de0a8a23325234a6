// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

// Package config loads the service configuration with layered sources:
// built-in defaults, an optional YAML file, then environment variables.
// Config is immutable after Load and safe for concurrent reads.
package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/relevantus/internal/logging"
	"github.com/tomtom215/relevantus/internal/profile"
)

// Config holds the full service configuration.
type Config struct {
	Storage Storage        `koanf:"storage"`
	Topics  Topics         `koanf:"topics"`
	Learner Learner        `koanf:"learner"`
	Ingest  Ingest         `koanf:"ingest"`
	Source  Feeds          `koanf:"source"`
	Metrics Metrics        `koanf:"metrics"`
	Logging logging.Config `koanf:"logging"`
}

// Topics selects the topic model basis the service runs on.
type Topics struct {
	// ActiveFeatureSet is the feature set to classify and match in.
	// When it differs from the stored reference, startup migrates all
	// stored vectors onto it. Empty means keep the stored reference.
	ActiveFeatureSet string `koanf:"active_feature_set"`
}

// Storage configures the BadgerDB store.
type Storage struct {
	// Path is the BadgerDB data directory.
	Path string `koanf:"path"`

	// DedupeWindow is how long an ingested URL suppresses re-ingestion.
	DedupeWindow time.Duration `koanf:"dedupe_window"`

	// ExpectedURLs sizes the seen-URL bloom filter.
	ExpectedURLs int `koanf:"expected_urls"`
}

// Learner configures profile learning.
type Learner struct {
	// DecayRate is the per-year exponential decay of feedback influence.
	DecayRate float64 `koanf:"decay_rate"`

	// PositiveWeight and NegativeWeight blend normalized feedback into
	// the relevance vector.
	PositiveWeight float64 `koanf:"positive_weight"`
	NegativeWeight float64 `koanf:"negative_weight"`

	// Per-action influence coefficients.
	UpVotePositive    float64 `koanf:"up_vote_positive"`
	ClickLinkPositive float64 `koanf:"click_link_positive"`
	DownVoteNegative  float64 `koanf:"down_vote_negative"`
	ViewLinkNegative  float64 `koanf:"view_link_negative"`
}

// ToProfile converts the flat config into the learner's configuration.
func (l Learner) ToProfile() profile.Config {
	return profile.Config{
		DecayRate:      l.DecayRate,
		PositiveWeight: l.PositiveWeight,
		NegativeWeight: l.NegativeWeight,
		Coefficients: map[profile.ActionType]profile.Coefficients{
			profile.ActionUpVote:    {Positive: l.UpVotePositive},
			profile.ActionClickLink: {Positive: l.ClickLinkPositive},
			profile.ActionDownVote:  {Negative: l.DownVoteNegative},
			profile.ActionViewLink:  {Negative: l.ViewLinkNegative},
		},
	}
}

// Ingest configures the ingestion pipeline.
type Ingest struct {
	// TopDocs caps the retained documents per user.
	TopDocs int `koanf:"top_docs"`

	// ChunkSize is how many documents accumulate before a checkpoint
	// flush to storage.
	ChunkSize int `koanf:"chunk_size"`

	// MaxDocs bounds one run; 0 means unbounded.
	MaxDocs int `koanf:"max_docs"`

	// RunInterval spaces complete ingestion runs.
	RunInterval time.Duration `koanf:"run_interval"`

	// RestartBackoff is the supervisor's failure backoff after a
	// crashed run.
	RestartBackoff time.Duration `koanf:"restart_backoff"`
}

// Feeds configures the RSS/Atom document source.
type Feeds struct {
	// URLs lists the feeds to ingest.
	URLs []string `koanf:"feeds"`

	// FetchInterval spaces consecutive feed fetches.
	FetchInterval time.Duration `koanf:"fetch_interval"`

	// FetchTimeout bounds a single feed fetch.
	FetchTimeout time.Duration `koanf:"fetch_timeout"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("config: storage.path is required")
	}
	if c.Storage.DedupeWindow <= 0 {
		return fmt.Errorf("config: storage.dedupe_window must be positive, got %v", c.Storage.DedupeWindow)
	}
	if c.Storage.ExpectedURLs <= 0 {
		return fmt.Errorf("config: storage.expected_urls must be positive, got %d", c.Storage.ExpectedURLs)
	}
	if c.Ingest.TopDocs <= 0 {
		return fmt.Errorf("config: ingest.top_docs must be positive, got %d", c.Ingest.TopDocs)
	}
	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("config: ingest.chunk_size must be positive, got %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.MaxDocs < 0 {
		return fmt.Errorf("config: ingest.max_docs must be non-negative, got %d", c.Ingest.MaxDocs)
	}
	if c.Ingest.RunInterval <= 0 {
		return fmt.Errorf("config: ingest.run_interval must be positive, got %v", c.Ingest.RunInterval)
	}
	if c.Ingest.RestartBackoff <= 0 {
		return fmt.Errorf("config: ingest.restart_backoff must be positive, got %v", c.Ingest.RestartBackoff)
	}
	if err := c.Learner.ToProfile().Validate(); err != nil {
		return fmt.Errorf("config: learner: %w", err)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("config: metrics.addr is required when metrics are enabled")
	}
	return nil
}
