// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/relevantus/internal/models"
	"github.com/tomtom215/relevantus/internal/profile"
	"github.com/tomtom215/relevantus/internal/topics"
)

const (
	userKeyPrefix       = "user:"
	docKeyPrefix        = "doc:"
	userDocsKeyPrefix   = "userdocs:"
	profileKeyPrefix    = "profile:"
	actionKeyPrefix     = "action:"
	modelKeyPrefix      = "model:"
	featureSetKeyPrefix = "featureset:"
	referenceFSKey      = "meta:reference_feature_set"
)

// BadgerStore implements Store on a BadgerDB key-value store.
type BadgerStore struct {
	db *badger.DB
}

var _ Store = (*BadgerStore)(nil)

// NewBadgerStore wraps an open BadgerDB handle. The caller owns the
// handle's lifecycle.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (s *BadgerStore) setJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (s *BadgerStore) getJSON(key string, v any) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return err
}

// GetAllUsers returns every stored user, ordered by key.
func (s *BadgerStore) GetAllUsers(_ context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(userKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var u models.User
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &u)
			}); err != nil {
				return err
			}
			users = append(users, u)
		}
		return nil
	})
	return users, err
}

func (s *BadgerStore) SaveUser(_ context.Context, user models.User) error {
	return s.setJSON(userKeyPrefix+user.ID, user)
}

func (s *BadgerStore) GetUsersFeatureVectors(ctx context.Context, users []models.User) ([]topics.FeatureVector, error) {
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

func (s *BadgerStore) GetUsersDocs(_ context.Context, users []models.User) ([][]models.UserDocument, error) {
	out := make([][]models.UserDocument, len(users))
	for i, u := range users {
		var docs []models.UserDocument
		err := s.getJSON(userDocsKeyPrefix+u.ID, &docs)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		out[i] = docs
	}
	return out, nil
}

func (s *BadgerStore) SaveUsersDocs(_ context.Context, users []models.User, docs [][]models.UserDocument) error {
	if len(users) != len(docs) {
		return fmt.Errorf("storage: %d users but %d doc lists", len(users), len(docs))
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for i, u := range users {
			data, err := json.Marshal(docs[i])
			if err != nil {
				return fmt.Errorf("marshal docs for user %s: %w", u.ID, err)
			}
			if err := txn.Set([]byte(userDocsKeyPrefix+u.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveDocuments writes all documents in one transaction, overwriting by ID.
func (s *BadgerStore) SaveDocuments(_ context.Context, docs []models.Document) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, d := range docs {
			data, err := json.Marshal(d)
			if err != nil {
				return fmt.Errorf("marshal doc %s: %w", d.ID, err)
			}
			if err := txn.Set([]byte(docKeyPrefix+d.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetDocuments returns the documents that exist among ids. Missing IDs
// are skipped.
func (s *BadgerStore) GetDocuments(_ context.Context, ids []string) ([]models.Document, error) {
	out := make([]models.Document, 0, len(ids))
	for _, id := range ids {
		var d models.Document
		err := s.getJSON(docKeyPrefix+id, &d)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *BadgerStore) GetUserComputedProfiles(_ context.Context, users []models.User) ([]models.UserComputedProfile, error) {
	out := make([]models.UserComputedProfile, len(users))
	for i, u := range users {
		err := s.getJSON(profileKeyPrefix+u.ID, &out[i])
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return out, nil
}

func (s *BadgerStore) SaveUserComputedProfiles(_ context.Context, users []models.User, profiles []models.UserComputedProfile) error {
	if len(users) != len(profiles) {
		return fmt.Errorf("storage: %d users but %d profiles", len(users), len(profiles))
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for i, u := range users {
			data, err := json.Marshal(profiles[i])
			if err != nil {
				return fmt.Errorf("marshal profile for user %s: %w", u.ID, err)
			}
			if err := txn.Set([]byte(profileKeyPrefix+u.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetUserActionsSince returns the user's actions newer than since, in
// chronological order. Action keys embed a zero-padded nanosecond
// timestamp, so prefix iteration yields them in time order.
func (s *BadgerStore) GetUserActionsSince(_ context.Context, user models.User, since time.Time) ([]profile.ActionOnDoc, error) {
	var actions []profile.ActionOnDoc
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(actionKeyPrefix + user.ID + ":")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var a profile.ActionOnDoc
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &a)
			}); err != nil {
				return err
			}
			if a.Timestamp.After(since) {
				actions = append(actions, a)
			}
		}
		return nil
	})
	return actions, err
}

func (s *BadgerStore) AppendUserAction(_ context.Context, user models.User, action profile.ActionOnDoc) error {
	key := fmt.Sprintf("%s%s:%020d:%s", actionKeyPrefix, user.ID, action.Timestamp.UnixNano(), uuid.NewString())
	return s.setJSON(key, action)
}

func (s *BadgerStore) GetTopicModel(_ context.Context, modelID string) (*topics.TopicModelDescription, error) {
	var m topics.TopicModelDescription
	if err := s.getJSON(modelKeyPrefix+modelID, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *BadgerStore) SaveTopicModel(_ context.Context, model *topics.TopicModelDescription) error {
	return s.setJSON(modelKeyPrefix+model.ModelID, model)
}

func (s *BadgerStore) GetFeatureSet(_ context.Context, id string) (topics.FeatureSet, error) {
	var fs topics.FeatureSet
	err := s.getJSON(featureSetKeyPrefix+id, &fs)
	return fs, err
}

func (s *BadgerStore) SaveFeatureSet(_ context.Context, fs topics.FeatureSet) error {
	return s.setJSON(featureSetKeyPrefix+fs.ID, fs)
}

func (s *BadgerStore) ReferenceFeatureSet(_ context.Context) (string, error) {
	var id string
	err := s.getJSON(referenceFSKey, &id)
	return id, err
}

func (s *BadgerStore) SetReferenceFeatureSet(_ context.Context, id string) error {
	return s.setJSON(referenceFSKey, id)
}
