// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/relevantus/internal/metrics"
	"github.com/tomtom215/relevantus/internal/storage"
	"github.com/tomtom215/relevantus/internal/topics"
)

// Migrator projects stored vectors onto a new reference feature set
// after a topic model retrain.
type Migrator struct {
	store  storage.Store
	logger zerolog.Logger
}

// NewMigrator returns a migrator over the given store.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewMigrator(store storage.Store, logger zerolog.Logger) *Migrator {
	return &Migrator{store: store, logger: logger}
}

// Migrate moves every stored profile and reachable document onto the
// target feature set. Rows already on the target are skipped, so a
// migration interrupted mid-way can simply be rerun. The reference
// feature set pointer is switched only after every vector is projected.
func (m *Migrator) Migrate(ctx context.Context, targetFSID string) error {
	start := time.Now()

	targetFS, err := m.store.GetFeatureSet(ctx, targetFSID)
	if err != nil {
		return fmt.Errorf("ingest: target feature set: %w", err)
	}
	targetModel, err := m.store.GetTopicModel(ctx, targetFS.ModelID)
	if err != nil {
		return fmt.Errorf("ingest: target topic model: %w", err)
	}

	ref, err := m.store.ReferenceFeatureSet(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// First boot: nothing to project yet.
		return m.store.SetReferenceFeatureSet(ctx, targetFSID)
	case err != nil:
		return fmt.Errorf("ingest: reference feature set: %w", err)
	case ref == targetFSID:
		return nil
	}

	converters := make(map[string]*topics.Converter)
	converterFor := func(originFSID string) (*topics.Converter, error) {
		if conv, ok := converters[originFSID]; ok {
			return conv, nil
		}
		originFS, err := m.store.GetFeatureSet(ctx, originFSID)
		if err != nil {
			return nil, fmt.Errorf("origin feature set %s: %w", originFSID, err)
		}
		originModel, err := m.store.GetTopicModel(ctx, originFS.ModelID)
		if err != nil {
			return nil, fmt.Errorf("origin topic model %s: %w", originFS.ModelID, err)
		}
		conv, err := topics.NewConverter(originModel, targetModel)
		if err != nil {
			return nil, fmt.Errorf("converter %s -> %s: %w", originFSID, targetFSID, err)
		}
		converters[originFSID] = conv
		return conv, nil
	}

	project := func(v topics.FeatureVector) (topics.FeatureVector, error) {
		if v.FeatureSetID == targetFSID || v.Dim() == 0 {
			return v, nil
		}
		conv, err := converterFor(v.FeatureSetID)
		if err != nil {
			return topics.FeatureVector{}, err
		}
		values, err := conv.Convert(v.Values)
		if err != nil {
			return topics.FeatureVector{}, err
		}
		return topics.FeatureVector{Values: values, FeatureSetID: targetFSID}, nil
	}

	if err := m.migrateProfiles(ctx, targetFSID, project); err != nil {
		return err
	}
	if err := m.migrateDocuments(ctx, targetFSID, project); err != nil {
		return err
	}

	if err := m.store.SetReferenceFeatureSet(ctx, targetFSID); err != nil {
		return fmt.Errorf("ingest: switch reference feature set: %w", err)
	}
	metrics.MigrationDuration.Observe(time.Since(start).Seconds())
	m.logger.Info().Str("from", ref).Str("to", targetFSID).Dur("took", time.Since(start)).Msg("feature set migration complete")
	return nil
}

func (m *Migrator) migrateProfiles(ctx context.Context, targetFSID string, project func(topics.FeatureVector) (topics.FeatureVector, error)) error {
	users, err := m.store.GetAllUsers(ctx)
	if err != nil {
		return fmt.Errorf("ingest: load users: %w", err)
	}
	profiles, err := m.store.GetUserComputedProfiles(ctx, users)
	if err != nil {
		return fmt.Errorf("ingest: load profiles: %w", err)
	}

	for i, u := range users {
		p := &profiles[i]
		if p.FeatureVector.Dim() == 0 || p.FeatureVector.FeatureSetID == targetFSID {
			continue
		}
		for _, v := range []*topics.FeatureVector{
			&p.FeatureVector,
			&p.ModelData.ExplicitVector,
			&p.ModelData.PositiveVector,
			&p.ModelData.NegativeVector,
		} {
			projected, err := project(*v)
			if err != nil {
				return fmt.Errorf("ingest: migrate profile %s: %w", u.ID, err)
			}
			*v = projected
		}
		metrics.MigratedVectors.WithLabelValues("profile").Inc()
	}

	if err := m.store.SaveUserComputedProfiles(ctx, users, profiles); err != nil {
		return fmt.Errorf("ingest: save migrated profiles: %w", err)
	}
	return nil
}

// migrateDocuments projects the documents referenced by any user's top
// list. Documents nobody retains are left behind on the old basis.
func (m *Migrator) migrateDocuments(ctx context.Context, targetFSID string, project func(topics.FeatureVector) (topics.FeatureVector, error)) error {
	users, err := m.store.GetAllUsers(ctx)
	if err != nil {
		return fmt.Errorf("ingest: load users: %w", err)
	}
	userDocs, err := m.store.GetUsersDocs(ctx, users)
	if err != nil {
		return fmt.Errorf("ingest: load user docs: %w", err)
	}

	idSet := make(map[string]struct{})
	var ids []string
	for _, docs := range userDocs {
		for _, d := range docs {
			if _, ok := idSet[d.DocID]; !ok {
				idSet[d.DocID] = struct{}{}
				ids = append(ids, d.DocID)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	docs, err := m.store.GetDocuments(ctx, ids)
	if err != nil {
		return fmt.Errorf("ingest: load documents: %w", err)
	}

	var changed int
	for i := range docs {
		if docs[i].FeatureVector.FeatureSetID == targetFSID {
			continue
		}
		projected, err := project(docs[i].FeatureVector)
		if err != nil {
			return fmt.Errorf("ingest: migrate document %s: %w", docs[i].ID, err)
		}
		docs[i].FeatureVector = projected
		changed++
		metrics.MigratedVectors.WithLabelValues("document").Inc()
	}
	if changed == 0 {
		return nil
	}

	if err := m.store.SaveDocuments(ctx, docs); err != nil {
		return fmt.Errorf("ingest: save migrated documents: %w", err)
	}
	return nil
}
