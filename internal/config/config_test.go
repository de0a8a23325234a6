// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/relevantus/internal/profile"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Path != "/data/relevantus" {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
	if cfg.Storage.DedupeWindow != 14*24*time.Hour {
		t.Errorf("Storage.DedupeWindow = %v", cfg.Storage.DedupeWindow)
	}
	if cfg.Ingest.ChunkSize != 1000 {
		t.Errorf("Ingest.ChunkSize = %d", cfg.Ingest.ChunkSize)
	}
	if cfg.Ingest.RestartBackoff != 30*time.Second {
		t.Errorf("Ingest.RestartBackoff = %v", cfg.Ingest.RestartBackoff)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RELEVANTUS_INGEST_CHUNK_SIZE", "250")
	t.Setenv("RELEVANTUS_LOGGING_LEVEL", "debug")
	t.Setenv("RELEVANTUS_SOURCE_FEEDS", "https://a.example/rss, https://b.example/atom")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Ingest.ChunkSize != 250 {
		t.Errorf("Ingest.ChunkSize = %d, want 250", cfg.Ingest.ChunkSize)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if len(cfg.Source.URLs) != 2 || cfg.Source.URLs[1] != "https://b.example/atom" {
		t.Errorf("Source.URLs = %v", cfg.Source.URLs)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("ingest:\n  top_docs: 7\nstorage:\n  path: /tmp/relevantus-test\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Ingest.TopDocs != 7 {
		t.Errorf("Ingest.TopDocs = %d, want 7", cfg.Ingest.TopDocs)
	}
	if cfg.Storage.Path != "/tmp/relevantus-test" {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
	// Untouched sections keep defaults.
	if cfg.Ingest.ChunkSize != 1000 {
		t.Errorf("Ingest.ChunkSize = %d, want default 1000", cfg.Ingest.ChunkSize)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero chunk size", "RELEVANTUS_INGEST_CHUNK_SIZE", "0"},
		{"negative top docs", "RELEVANTUS_INGEST_TOP_DOCS", "-3"},
		{"negative decay rate", "RELEVANTUS_LEARNER_DECAY_RATE", "-1"},
		{"zero dedupe window", "RELEVANTUS_STORAGE_DEDUPE_WINDOW", "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Error("Load() expected error, got nil")
			}
		})
	}
}

func TestLearnerToProfile(t *testing.T) {
	l := Learner{
		DecayRate:         0.5,
		PositiveWeight:    0.7,
		NegativeWeight:    0.3,
		UpVotePositive:    4,
		ClickLinkPositive: 2,
		DownVoteNegative:  8,
		ViewLinkNegative:  1,
	}
	got := l.ToProfile()
	if got.DecayRate != 0.5 || got.PositiveWeight != 0.7 || got.NegativeWeight != 0.3 {
		t.Errorf("ToProfile() = %+v", got)
	}
	if got.Coefficients[profile.ActionUpVote].Positive != 4 {
		t.Errorf("up vote coeff = %v, want 4", got.Coefficients[profile.ActionUpVote].Positive)
	}
	if got.Coefficients[profile.ActionDownVote].Negative != 8 {
		t.Errorf("down vote coeff = %v, want 8", got.Coefficients[profile.ActionDownVote].Negative)
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"RELEVANTUS_INGEST_CHUNK_SIZE", "ingest.chunk_size"},
		{"RELEVANTUS_STORAGE_DEDUPE_WINDOW", "storage.dedupe_window"},
		{"RELEVANTUS_LOGGING_LEVEL", "logging.level"},
		{"RELEVANTUS_TOPICS_ACTIVE_FEATURE_SET", "topics.active_feature_set"},
		{"RELEVANTUS_UNKNOWN_THING", ""},
		{"RELEVANTUS_NOSECTION", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := envTransform(tt.in); got != tt.want {
				t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
