// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/relevantus/internal/match"
	"github.com/tomtom215/relevantus/internal/metrics"
	"github.com/tomtom215/relevantus/internal/models"
	"github.com/tomtom215/relevantus/internal/profile"
	"github.com/tomtom215/relevantus/internal/source"
	"github.com/tomtom215/relevantus/internal/storage"
	"github.com/tomtom215/relevantus/internal/topics"
)

// RunnerConfig holds the pipeline tunables.
type RunnerConfig struct {
	// TopDocs caps the retained documents per user.
	TopDocs int

	// ChunkSize is how many new documents accumulate before a
	// checkpoint flush.
	ChunkSize int

	// MaxDocs bounds one run; 0 means run until the source is exhausted.
	MaxDocs int
}

// Runner executes one ingestion run at a time.
type Runner struct {
	store      storage.Store
	seen       storage.SeenURLs
	classifier Classifier
	learner    *profile.Learner
	open       source.Opener
	cfg        RunnerConfig
	logger     zerolog.Logger
	now        func() time.Time
}

// NewRunner wires the pipeline collaborators.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRunner(store storage.Store, seen storage.SeenURLs, classifier Classifier, learner *profile.Learner, open source.Opener, cfg RunnerConfig, logger zerolog.Logger) (*Runner, error) {
	if cfg.TopDocs <= 0 {
		return nil, fmt.Errorf("ingest: top docs must be positive, got %d", cfg.TopDocs)
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("ingest: chunk size must be positive, got %d", cfg.ChunkSize)
	}
	return &Runner{
		store:      store,
		seen:       seen,
		classifier: classifier,
		learner:    learner,
		open:       open,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// RunOnce refreshes every user's profile from feedback, then streams the
// source through classification and matching, flushing results in
// chunks. A source failure checkpoints what has been graded so far and
// returns the error; the next run resumes behind URL deduplication.
func (r *Runner) RunOnce(ctx context.Context) error {
	users, err := r.store.GetAllUsers(ctx)
	if err != nil {
		return fmt.Errorf("ingest: load users: %w", err)
	}

	profiles, err := r.refreshProfiles(ctx, users)
	if err != nil {
		return err
	}

	userDocs, err := r.store.GetUsersDocs(ctx, users)
	if err != nil {
		return fmt.Errorf("ingest: load user docs: %w", err)
	}

	inputs := make([]match.UserInput, len(users))
	for i, u := range users {
		inputs[i] = match.UserInput{
			UserID:  u.ID,
			Vector:  profiles[i].FeatureVector,
			TopDocs: userDocs[i],
		}
	}
	matcher, err := match.New(inputs, r.cfg.TopDocs)
	if err != nil {
		return fmt.Errorf("ingest: build matcher: %w", err)
	}

	src, err := r.open(ctx)
	if err != nil {
		return fmt.Errorf("ingest: open source: %w", err)
	}

	var pending []models.Document
	ingested := 0
	for r.cfg.MaxDocs == 0 || ingested < r.cfg.MaxDocs {
		raw, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			metrics.SourceErrors.Inc()
			// Checkpoint before surfacing the failure so the restart
			// resumes from here.
			if flushErr := r.flush(ctx, users, matcher, pending); flushErr != nil {
				return fmt.Errorf("ingest: checkpoint after source failure: %w", flushErr)
			}
			return fmt.Errorf("ingest: source: %w", err)
		}

		isNew, err := r.seen.IsNew(ctx, raw.URL)
		if err != nil {
			return fmt.Errorf("ingest: dedupe %s: %w", raw.URL, err)
		}
		if !isNew {
			metrics.DocsSkipped.WithLabelValues("duplicate").Inc()
			continue
		}

		fv, ok, err := r.classifier.Classify(raw.Title + " " + raw.Summary)
		if err != nil {
			return fmt.Errorf("ingest: classify %s: %w", raw.URL, err)
		}
		if !ok {
			metrics.DocsSkipped.WithLabelValues("unclassifiable").Inc()
			r.logger.Debug().Str("url", raw.URL).Msg("document has no known vocabulary")
			continue
		}

		doc := models.NewDocument(raw.URL, raw.Title, raw.Summary, fv, raw.Published)
		if err := matcher.AddDoc(doc.ID, doc.FeatureVector); err != nil {
			return fmt.Errorf("ingest: grade %s: %w", doc.URL, err)
		}
		pending = append(pending, doc)
		ingested++
		metrics.DocsIngested.Inc()

		if len(pending) >= r.cfg.ChunkSize {
			if err := r.flush(ctx, users, matcher, pending); err != nil {
				return err
			}
			pending = pending[:0]
		}
	}

	if err := r.flush(ctx, users, matcher, pending); err != nil {
		return err
	}
	r.logger.Info().Int("docs", ingested).Int("users", len(users)).Msg("ingestion run finished")
	return nil
}

// refreshProfiles folds each user's unprocessed actions into their
// profile. Users without a stored profile get a fresh one on the active
// feature set, with their declared interests classified into the
// explicit vector.
func (r *Runner) refreshProfiles(ctx context.Context, users []models.User) ([]models.UserComputedProfile, error) {
	profiles, err := r.store.GetUserComputedProfiles(ctx, users)
	if err != nil {
		return nil, fmt.Errorf("ingest: load profiles: %w", err)
	}

	fsID := r.classifier.FeatureSetID()
	now := r.now()
	project := r.actionProjector(ctx)
	for i, u := range users {
		if profiles[i].FeatureVector.Dim() == 0 {
			profiles[i] = models.NewUserComputedProfile(fsID, r.classifier.Dim())
			if len(u.Interests) > 0 {
				explicit, ok, err := r.classifier.Classify(strings.Join(u.Interests, " "))
				if err != nil {
					return nil, fmt.Errorf("ingest: classify interests for %s: %w", u.ID, err)
				}
				if ok {
					profiles[i].ModelData.ExplicitVector = explicit
				}
			}
		}

		actions, err := r.store.GetUserActionsSince(ctx, u, profiles[i].ModelData.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("ingest: load actions for %s: %w", u.ID, err)
		}
		// Actions recorded before a feature set migration are
		// projected onto the profile's basis. An action whose origin
		// topic model is no longer stored cannot be projected and is
		// dropped.
		basis := profiles[i].ModelData.FeatureSetID()
		usable := actions[:0]
		var dropped int
		for _, a := range actions {
			if a.DocVector.FeatureSetID != basis {
				projected, ok, err := project(a, basis)
				if err != nil {
					return nil, fmt.Errorf("ingest: project action for %s: %w", u.ID, err)
				}
				if !ok {
					dropped++
					continue
				}
				a = projected
			}
			usable = append(usable, a)
		}
		if dropped > 0 {
			r.logger.Warn().Str("user", u.ID).Int("dropped", dropped).Msg("dropping actions whose origin topic model is gone")
		}

		md, relevance, err := r.learner.ComputeUserProfile(profiles[i].ModelData, usable, now)
		if err != nil {
			return nil, fmt.Errorf("ingest: profile for %s: %w", u.ID, err)
		}
		profiles[i].ModelData = md
		profiles[i].FeatureVector = relevance
		metrics.ProfileUpdates.Inc()
	}

	if err := r.store.SaveUserComputedProfiles(ctx, users, profiles); err != nil {
		return nil, fmt.Errorf("ingest: save profiles: %w", err)
	}
	return profiles, nil
}

// actionProjector returns a function rewriting a stale-basis action
// vector onto the given feature set. Topic models and converters are
// cached for the lifetime of the returned function. An action whose
// origin feature set or topic model is no longer stored is reported as
// not ok instead of failing the run.
func (r *Runner) actionProjector(ctx context.Context) func(a profile.ActionOnDoc, targetFSID string) (profile.ActionOnDoc, bool, error) {
	modelCache := make(map[string]*topics.TopicModelDescription)
	convCache := make(map[string]*topics.Converter)

	modelFor := func(fsID string) (*topics.TopicModelDescription, error) {
		if m, ok := modelCache[fsID]; ok {
			return m, nil
		}
		fs, err := r.store.GetFeatureSet(ctx, fsID)
		if err != nil {
			return nil, fmt.Errorf("feature set %s: %w", fsID, err)
		}
		m, err := r.store.GetTopicModel(ctx, fs.ModelID)
		if err != nil {
			return nil, fmt.Errorf("topic model %s: %w", fs.ModelID, err)
		}
		modelCache[fsID] = m
		return m, nil
	}

	return func(a profile.ActionOnDoc, targetFSID string) (profile.ActionOnDoc, bool, error) {
		key := a.DocVector.FeatureSetID + "->" + targetFSID
		conv, ok := convCache[key]
		if !ok {
			origin, err := modelFor(a.DocVector.FeatureSetID)
			if errors.Is(err, storage.ErrNotFound) {
				return profile.ActionOnDoc{}, false, nil
			}
			if err != nil {
				return profile.ActionOnDoc{}, false, err
			}
			target, err := modelFor(targetFSID)
			if err != nil {
				return profile.ActionOnDoc{}, false, err
			}
			conv, err = topics.NewConverter(origin, target)
			if err != nil {
				return profile.ActionOnDoc{}, false, fmt.Errorf("converter %s: %w", key, err)
			}
			convCache[key] = conv
		}

		values, err := conv.Convert(a.DocVector.Values)
		if err != nil {
			return profile.ActionOnDoc{}, false, err
		}
		a.DocVector = topics.FeatureVector{Values: values, FeatureSetID: targetFSID}
		return a, true, nil
	}
}

// flush checkpoints the pending documents and every user's current top
// list. Both saves overwrite by key, so replaying a flush is harmless.
func (r *Runner) flush(ctx context.Context, users []models.User, matcher *match.Matcher, pending []models.Document) error {
	start := time.Now()
	if len(pending) > 0 {
		if err := r.store.SaveDocuments(ctx, pending); err != nil {
			return fmt.Errorf("ingest: save documents: %w", err)
		}
	}

	byUser := matcher.BuildUserDocs()
	docs := make([][]models.UserDocument, len(users))
	for i, u := range users {
		docs[i] = byUser[u.ID]
	}
	if err := r.store.SaveUsersDocs(ctx, users, docs); err != nil {
		return fmt.Errorf("ingest: save user docs: %w", err)
	}

	metrics.ChunkFlushes.Inc()
	metrics.ChunkFlushDuration.Observe(time.Since(start).Seconds())
	r.logger.Debug().Int("docs", len(pending)).Dur("took", time.Since(start)).Msg("checkpoint flushed")
	return nil
}
