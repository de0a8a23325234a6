// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

package ingest

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/relevantus/internal/models"
	"github.com/tomtom215/relevantus/internal/storage"
	"github.com/tomtom215/relevantus/internal/topics"
)

// migrationFixture sets up a store with one user, a profile and a
// retained document on fs-1, plus two topic models sharing a vocabulary
// so fs-1 vectors project exactly onto fs-2.
func migrationFixture(t *testing.T) *storage.MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()

	oldModel := testModel()
	newModel := &topics.TopicModelDescription{ModelID: "m2", Topics: oldModel.Topics}
	if err := store.SaveTopicModel(ctx, oldModel); err != nil {
		t.Fatalf("SaveTopicModel() error = %v", err)
	}
	if err := store.SaveTopicModel(ctx, newModel); err != nil {
		t.Fatalf("SaveTopicModel() error = %v", err)
	}
	if err := store.SaveFeatureSet(ctx, topics.FeatureSet{ID: "fs-1", ModelID: "m1"}); err != nil {
		t.Fatalf("SaveFeatureSet() error = %v", err)
	}
	if err := store.SaveFeatureSet(ctx, topics.FeatureSet{ID: "fs-2", ModelID: "m2"}); err != nil {
		t.Fatalf("SaveFeatureSet() error = %v", err)
	}
	if err := store.SetReferenceFeatureSet(ctx, "fs-1"); err != nil {
		t.Fatalf("SetReferenceFeatureSet() error = %v", err)
	}

	user := models.User{ID: "u1"}
	if err := store.SaveUser(ctx, user); err != nil {
		t.Fatalf("SaveUser() error = %v", err)
	}

	p := models.NewUserComputedProfile("fs-1", 2)
	p.FeatureVector = topics.FeatureVector{Values: []float64{3, -1}, FeatureSetID: "fs-1"}
	p.ModelData.ExplicitVector = topics.FeatureVector{Values: []float64{1, 0}, FeatureSetID: "fs-1"}
	p.ModelData.PositiveVector = topics.FeatureVector{Values: []float64{2, 0}, FeatureSetID: "fs-1"}
	p.ModelData.NegativeVector = topics.FeatureVector{Values: []float64{0, 1}, FeatureSetID: "fs-1"}
	if err := store.SaveUserComputedProfiles(ctx, []models.User{user}, []models.UserComputedProfile{p}); err != nil {
		t.Fatalf("SaveUserComputedProfiles() error = %v", err)
	}

	doc := models.Document{
		ID:            "d1",
		URL:           "https://a.example/1",
		FeatureVector: topics.FeatureVector{Values: []float64{0.5, 0.5}, FeatureSetID: "fs-1"},
	}
	if err := store.SaveDocuments(ctx, []models.Document{doc}); err != nil {
		t.Fatalf("SaveDocuments() error = %v", err)
	}
	if err := store.SaveUsersDocs(ctx, []models.User{user}, [][]models.UserDocument{{{DocID: "d1", Grade: 0.9}}}); err != nil {
		t.Fatalf("SaveUsersDocs() error = %v", err)
	}
	return store
}

func TestMigrateProjectsProfilesAndDocuments(t *testing.T) {
	ctx := context.Background()
	store := migrationFixture(t)
	m := NewMigrator(store, zerolog.Nop())

	if err := m.Migrate(ctx, "fs-2"); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	ref, err := store.ReferenceFeatureSet(ctx)
	if err != nil {
		t.Fatalf("ReferenceFeatureSet() error = %v", err)
	}
	if ref != "fs-2" {
		t.Errorf("reference = %q, want fs-2", ref)
	}

	profiles, err := store.GetUserComputedProfiles(ctx, []models.User{{ID: "u1"}})
	if err != nil {
		t.Fatalf("GetUserComputedProfiles() error = %v", err)
	}
	p := profiles[0]
	for name, v := range map[string]topics.FeatureVector{
		"relevance": p.FeatureVector,
		"explicit":  p.ModelData.ExplicitVector,
		"positive":  p.ModelData.PositiveVector,
		"negative":  p.ModelData.NegativeVector,
	} {
		if v.FeatureSetID != "fs-2" {
			t.Errorf("%s vector feature set = %q, want fs-2", name, v.FeatureSetID)
		}
	}
	// Identical topic bases mean the projection is the identity.
	want := []float64{3, -1}
	for i := range want {
		if math.Abs(p.FeatureVector.Values[i]-want[i]) > 1e-9 {
			t.Errorf("relevance[%d] = %v, want %v", i, p.FeatureVector.Values[i], want[i])
		}
	}

	docs, err := store.GetDocuments(ctx, []string{"d1"})
	if err != nil {
		t.Fatalf("GetDocuments() error = %v", err)
	}
	if docs[0].FeatureVector.FeatureSetID != "fs-2" {
		t.Errorf("doc feature set = %q, want fs-2", docs[0].FeatureVector.FeatureSetID)
	}
	if math.Abs(docs[0].FeatureVector.Values[0]-0.5) > 1e-9 {
		t.Errorf("doc vector = %v", docs[0].FeatureVector.Values)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := migrationFixture(t)
	m := NewMigrator(store, zerolog.Nop())

	for i := 0; i < 3; i++ {
		if err := m.Migrate(ctx, "fs-2"); err != nil {
			t.Fatalf("Migrate() #%d error = %v", i, err)
		}
	}

	profiles, err := store.GetUserComputedProfiles(ctx, []models.User{{ID: "u1"}})
	if err != nil {
		t.Fatalf("GetUserComputedProfiles() error = %v", err)
	}
	if math.Abs(profiles[0].FeatureVector.Values[0]-3) > 1e-9 {
		t.Errorf("repeated migrate changed vector: %v", profiles[0].FeatureVector.Values)
	}
}

func TestMigrateFirstBootSetsReference(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.SaveTopicModel(ctx, testModel()); err != nil {
		t.Fatalf("SaveTopicModel() error = %v", err)
	}
	if err := store.SaveFeatureSet(ctx, topics.FeatureSet{ID: "fs-1", ModelID: "m1"}); err != nil {
		t.Fatalf("SaveFeatureSet() error = %v", err)
	}

	m := NewMigrator(store, zerolog.Nop())
	if err := m.Migrate(ctx, "fs-1"); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	ref, err := store.ReferenceFeatureSet(ctx)
	if err != nil {
		t.Fatalf("ReferenceFeatureSet() error = %v", err)
	}
	if ref != "fs-1" {
		t.Errorf("reference = %q, want fs-1", ref)
	}
}

func TestMigrateUnknownTargetFails(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	m := NewMigrator(store, zerolog.Nop())

	if err := m.Migrate(ctx, "fs-missing"); err == nil {
		t.Error("Migrate() expected error for unknown feature set")
	}
}
