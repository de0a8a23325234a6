// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/relevantus/internal/models"
	"github.com/tomtom215/relevantus/internal/profile"
	"github.com/tomtom215/relevantus/internal/topics"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions(t.TempDir()).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("badger.Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("db.Close() error = %v", err)
		}
	})
	return db
}

func TestBadgerStoreUserRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := NewBadgerStore(openTestDB(t))

	u := models.User{ID: "u1", Name: "Alpha", Interests: []string{"go"}, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	if err := s.SaveUser(ctx, u); err != nil {
		t.Fatalf("SaveUser() error = %v", err)
	}

	got, err := s.GetAllUsers(ctx)
	if err != nil {
		t.Fatalf("GetAllUsers() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "Alpha" || len(got[0].Interests) != 1 {
		t.Errorf("GetAllUsers() = %+v", got)
	}
}

func TestBadgerStoreSaveDocumentsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewBadgerStore(openTestDB(t))

	doc := models.Document{ID: "d1", URL: "https://a.example", Title: "A"}
	for i := 0; i < 2; i++ {
		if err := s.SaveDocuments(ctx, []models.Document{doc}); err != nil {
			t.Fatalf("SaveDocuments() error = %v", err)
		}
	}

	got, err := s.GetDocuments(ctx, []string{"d1"})
	if err != nil {
		t.Fatalf("GetDocuments() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("replayed save should not duplicate, got %d docs", len(got))
	}
}

func TestBadgerStoreProfilesAndDocsRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := NewBadgerStore(openTestDB(t))

	users := []models.User{{ID: "u1"}}
	p := models.NewUserComputedProfile("fs-1", 2)
	p.FeatureVector.Values = []float64{1, -1}
	if err := s.SaveUserComputedProfiles(ctx, users, []models.UserComputedProfile{p}); err != nil {
		t.Fatalf("SaveUserComputedProfiles() error = %v", err)
	}
	if err := s.SaveUsersDocs(ctx, users, [][]models.UserDocument{{{DocID: "d1", Grade: 0.8}}}); err != nil {
		t.Fatalf("SaveUsersDocs() error = %v", err)
	}

	profiles, err := s.GetUserComputedProfiles(ctx, users)
	if err != nil {
		t.Fatalf("GetUserComputedProfiles() error = %v", err)
	}
	if profiles[0].FeatureVector.Values[0] != 1 {
		t.Errorf("profile vector = %v", profiles[0].FeatureVector.Values)
	}

	docs, err := s.GetUsersDocs(ctx, users)
	if err != nil {
		t.Fatalf("GetUsersDocs() error = %v", err)
	}
	if len(docs[0]) != 1 || docs[0][0].Grade != 0.8 {
		t.Errorf("user docs = %+v", docs[0])
	}

	// Unknown user gets zero values, not an error.
	profiles, err = s.GetUserComputedProfiles(ctx, []models.User{{ID: "missing"}})
	if err != nil {
		t.Fatalf("GetUserComputedProfiles() error = %v", err)
	}
	if profiles[0].FeatureVector.Dim() != 0 {
		t.Errorf("missing profile = %+v", profiles[0])
	}
}

func TestBadgerStoreActionsChronological(t *testing.T) {
	ctx := context.Background()
	s := NewBadgerStore(openTestDB(t))
	user := models.User{ID: "u1"}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	fv := topics.NewFeatureVector("fs-1", 1)
	for _, offset := range []int{5, 1, 3} {
		a := profile.ActionOnDoc{Timestamp: base.AddDate(0, 0, offset), DocVector: fv, Type: profile.ActionClickLink}
		if err := s.AppendUserAction(ctx, user, a); err != nil {
			t.Fatalf("AppendUserAction() error = %v", err)
		}
	}

	got, err := s.GetUserActionsSince(ctx, user, base)
	if err != nil {
		t.Fatalf("GetUserActionsSince() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d actions, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].Timestamp.Before(got[i].Timestamp) {
			t.Errorf("actions out of order at %d: %v then %v", i, got[i-1].Timestamp, got[i].Timestamp)
		}
	}

	got, err = s.GetUserActionsSince(ctx, user, base.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("GetUserActionsSince() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("since filter: got %d actions, want 2", len(got))
	}
}

func TestBadgerStoreFeatureSetRegistry(t *testing.T) {
	ctx := context.Background()
	s := NewBadgerStore(openTestDB(t))

	if _, err := s.ReferenceFeatureSet(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReferenceFeatureSet() error = %v, want ErrNotFound", err)
	}

	model := &topics.TopicModelDescription{
		ModelID: "m1",
		Topics:  []topics.Topic{{Words: []topics.WordWeight{{Word: "go", Weight: 1}}}},
	}
	if err := s.SaveTopicModel(ctx, model); err != nil {
		t.Fatalf("SaveTopicModel() error = %v", err)
	}
	if err := s.SaveFeatureSet(ctx, topics.FeatureSet{ID: "fs-1", ModelID: "m1"}); err != nil {
		t.Fatalf("SaveFeatureSet() error = %v", err)
	}
	if err := s.SetReferenceFeatureSet(ctx, "fs-1"); err != nil {
		t.Fatalf("SetReferenceFeatureSet() error = %v", err)
	}

	id, err := s.ReferenceFeatureSet(ctx)
	if err != nil {
		t.Fatalf("ReferenceFeatureSet() error = %v", err)
	}
	if id != "fs-1" {
		t.Errorf("ReferenceFeatureSet() = %q, want fs-1", id)
	}

	gotModel, err := s.GetTopicModel(ctx, "m1")
	if err != nil {
		t.Fatalf("GetTopicModel() error = %v", err)
	}
	if gotModel.Dim() != 1 {
		t.Errorf("GetTopicModel().Dim() = %d, want 1", gotModel.Dim())
	}
}

func TestBadgerSeenDeduplicates(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	seen, err := NewBadgerSeen(db, 24*time.Hour, 100)
	if err != nil {
		t.Fatalf("NewBadgerSeen() error = %v", err)
	}

	isNew, err := seen.IsNew(ctx, "https://a.example/article")
	if err != nil {
		t.Fatalf("IsNew() error = %v", err)
	}
	if !isNew {
		t.Error("first sighting should be new")
	}

	isNew, err = seen.IsNew(ctx, "https://a.example/article")
	if err != nil {
		t.Fatalf("IsNew() error = %v", err)
	}
	if isNew {
		t.Error("second sighting should not be new")
	}

	isNew, err = seen.IsNew(ctx, "https://b.example/other")
	if err != nil {
		t.Fatalf("IsNew() error = %v", err)
	}
	if !isNew {
		t.Error("different URL should be new")
	}
}

func TestBadgerSeenSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	seen, err := NewBadgerSeen(db, 24*time.Hour, 100)
	if err != nil {
		t.Fatalf("NewBadgerSeen() error = %v", err)
	}
	if _, err := seen.IsNew(ctx, "https://a.example/article"); err != nil {
		t.Fatalf("IsNew() error = %v", err)
	}

	// A fresh instance over the same store warms its filter from disk.
	reopened, err := NewBadgerSeen(db, 24*time.Hour, 100)
	if err != nil {
		t.Fatalf("NewBadgerSeen() reopen error = %v", err)
	}
	isNew, err := reopened.IsNew(ctx, "https://a.example/article")
	if err != nil {
		t.Fatalf("IsNew() error = %v", err)
	}
	if isNew {
		t.Error("URL seen before restart should still be known")
	}
}
