// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/relevantus/internal/logging"
	"github.com/tomtom215/relevantus/internal/profile"
)

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/relevantus/config.yaml",
	"/etc/relevantus/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "RELEVANTUS_CONFIG"

const envPrefix = "RELEVANTUS_"

func defaultConfig() *Config {
	learner := profile.DefaultConfig()
	return &Config{
		Storage: Storage{
			Path:         "/data/relevantus",
			DedupeWindow: 14 * 24 * time.Hour,
			ExpectedURLs: 100000,
		},
		Topics: Topics{
			ActiveFeatureSet: "",
		},
		Learner: Learner{
			DecayRate:         learner.DecayRate,
			PositiveWeight:    learner.PositiveWeight,
			NegativeWeight:    learner.NegativeWeight,
			UpVotePositive:    learner.Coefficients[profile.ActionUpVote].Positive,
			ClickLinkPositive: learner.Coefficients[profile.ActionClickLink].Positive,
			DownVoteNegative:  learner.Coefficients[profile.ActionDownVote].Negative,
			ViewLinkNegative:  learner.Coefficients[profile.ActionViewLink].Negative,
		},
		Ingest: Ingest{
			TopDocs:        30,
			ChunkSize:      1000,
			MaxDocs:        0,
			RunInterval:    time.Hour,
			RestartBackoff: 30 * time.Second,
		},
		Source: Feeds{
			URLs:          nil,
			FetchInterval: 2 * time.Second,
			FetchTimeout:  30 * time.Second,
		},
		Metrics: Metrics{
			Enabled: false,
			Addr:    ":9090",
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and RELEVANTUS_-prefixed environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// RELEVANTUS_INGEST_CHUNK_SIZE -> ingest.chunk_size
	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps RELEVANTUS_SECTION_FIELD_NAME to section.field_name.
// The first underscore separates the section; the rest stay joined.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return ""
	}
	switch section {
	case "storage", "topics", "learner", "ingest", "source", "metrics", "logging":
		return section + "." + rest
	default:
		return ""
	}
}

// sliceConfigPaths lists the paths parsed as comma-separated lists when
// they arrive from environment variables.
var sliceConfigPaths = []string{
	"source.feeds",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}
