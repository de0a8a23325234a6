// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

package storage

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/relevantus/internal/models"
	"github.com/tomtom215/relevantus/internal/profile"
	"github.com/tomtom215/relevantus/internal/topics"
)

// ErrNotFound is returned when a requested key does not exist.
var ErrNotFound = errors.New("storage: not found")

// Store is the persistence interface of the service. Batch getters return
// slices parallel to the users argument; a user without stored state gets
// the type's zero value. All saves overwrite by key and are idempotent.
type Store interface {
	GetAllUsers(ctx context.Context) ([]models.User, error)
	SaveUser(ctx context.Context, user models.User) error

	GetUsersFeatureVectors(ctx context.Context, users []models.User) ([]topics.FeatureVector, error)

	GetUsersDocs(ctx context.Context, users []models.User) ([][]models.UserDocument, error)
	SaveUsersDocs(ctx context.Context, users []models.User, docs [][]models.UserDocument) error

	SaveDocuments(ctx context.Context, docs []models.Document) error
	GetDocuments(ctx context.Context, ids []string) ([]models.Document, error)

	GetUserComputedProfiles(ctx context.Context, users []models.User) ([]models.UserComputedProfile, error)
	SaveUserComputedProfiles(ctx context.Context, users []models.User, profiles []models.UserComputedProfile) error

	GetUserActionsSince(ctx context.Context, user models.User, since time.Time) ([]profile.ActionOnDoc, error)
	AppendUserAction(ctx context.Context, user models.User, action profile.ActionOnDoc) error

	GetTopicModel(ctx context.Context, modelID string) (*topics.TopicModelDescription, error)
	SaveTopicModel(ctx context.Context, model *topics.TopicModelDescription) error

	GetFeatureSet(ctx context.Context, id string) (topics.FeatureSet, error)
	SaveFeatureSet(ctx context.Context, fs topics.FeatureSet) error
	ReferenceFeatureSet(ctx context.Context) (string, error)
	SetReferenceFeatureSet(ctx context.Context, id string) error
}

// SeenURLs answers whether a URL was already ingested within the
// deduplication window. Asking marks the URL as seen.
type SeenURLs interface {
	IsNew(ctx context.Context, url string) (bool, error)
}
