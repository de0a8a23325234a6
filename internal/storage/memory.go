// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/relevantus/internal/models"
	"github.com/tomtom215/relevantus/internal/profile"
	"github.com/tomtom215/relevantus/internal/topics"
)

// MemoryStore implements Store in memory. Values are kept marshaled so
// callers get the same copy isolation the BadgerDB store provides.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string][]byte
	docs          map[string][]byte
	userDocs      map[string][]byte
	profiles      map[string][]byte
	actions       map[string][][]byte
	topicModels   map[string][]byte
	featureSets   map[string][]byte
	refFeatureSet string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string][]byte),
		docs:        make(map[string][]byte),
		userDocs:    make(map[string][]byte),
		profiles:    make(map[string][]byte),
		actions:     make(map[string][][]byte),
		topicModels: make(map[string][]byte),
		featureSets: make(map[string][]byte),
	}
}

func put[T any](m map[string][]byte, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	m[key] = data
	return nil
}

func get[T any](m map[string][]byte, key string, v *T) error {
	data, ok := m[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return json.Unmarshal(data, v)
}

// GetAllUsers returns all users sorted by ID.
func (s *MemoryStore) GetAllUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for id := range s.users {
		var u models.User
		if err := get(s.users, id, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *MemoryStore) SaveUser(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return put(s.users, user.ID, user)
}

func (s *MemoryStore) GetUsersFeatureVectors(ctx context.Context, users []models.User) ([]topics.FeatureVector, error) {
	profiles, err := s.GetUserComputedProfiles(ctx, users)
	if err != nil {
		return nil, err
	}
	out := make([]topics.FeatureVector, len(profiles))
	for i, p := range profiles {
		out[i] = p.FeatureVector
	}
	return out, nil
}

func (s *MemoryStore) GetUsersDocs(_ context.Context, users []models.User) ([][]models.UserDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([][]models.UserDocument, len(users))
	for i, u := range users {
		if _, ok := s.userDocs[u.ID]; !ok {
			continue
		}
		if err := get(s.userDocs, u.ID, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *MemoryStore) SaveUsersDocs(_ context.Context, users []models.User, docs [][]models.UserDocument) error {
	if len(users) != len(docs) {
		return fmt.Errorf("storage: %d users but %d doc lists", len(users), len(docs))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range users {
		if err := put(s.userDocs, u.ID, docs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) SaveDocuments(_ context.Context, docs []models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		if err := put(s.docs, d.ID, d); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) GetDocuments(_ context.Context, ids []string) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Document, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.docs[id]; !ok {
			continue
		}
		var d models.Document
		if err := get(s.docs, id, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *MemoryStore) GetUserComputedProfiles(_ context.Context, users []models.User) ([]models.UserComputedProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.UserComputedProfile, len(users))
	for i, u := range users {
		if _, ok := s.profiles[u.ID]; !ok {
			continue
		}
		if err := get(s.profiles, u.ID, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *MemoryStore) SaveUserComputedProfiles(_ context.Context, users []models.User, profiles []models.UserComputedProfile) error {
	if len(users) != len(profiles) {
		return fmt.Errorf("storage: %d users but %d profiles", len(users), len(profiles))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range users {
		if err := put(s.profiles, u.ID, profiles[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) GetUserActionsSince(_ context.Context, user models.User, since time.Time) ([]profile.ActionOnDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var actions []profile.ActionOnDoc
	for _, data := range s.actions[user.ID] {
		var a profile.ActionOnDoc
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		if a.Timestamp.After(since) {
			actions = append(actions, a)
		}
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i].Timestamp.Before(actions[j].Timestamp) })
	return actions, nil
}

func (s *MemoryStore) AppendUserAction(_ context.Context, user models.User, action profile.ActionOnDoc) error {
	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[user.ID] = append(s.actions[user.ID], data)
	return nil
}

func (s *MemoryStore) GetTopicModel(_ context.Context, modelID string) (*topics.TopicModelDescription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var m topics.TopicModelDescription
	if err := get(s.topicModels, modelID, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MemoryStore) SaveTopicModel(_ context.Context, model *topics.TopicModelDescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return put(s.topicModels, model.ModelID, model)
}

func (s *MemoryStore) GetFeatureSet(_ context.Context, id string) (topics.FeatureSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var fs topics.FeatureSet
	err := get(s.featureSets, id, &fs)
	return fs, err
}

func (s *MemoryStore) SaveFeatureSet(_ context.Context, fs topics.FeatureSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return put(s.featureSets, fs.ID, fs)
}

func (s *MemoryStore) ReferenceFeatureSet(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.refFeatureSet == "" {
		return "", fmt.Errorf("%w: reference feature set", ErrNotFound)
	}
	return s.refFeatureSet, nil
}

func (s *MemoryStore) SetReferenceFeatureSet(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refFeatureSet = id
	return nil
}
