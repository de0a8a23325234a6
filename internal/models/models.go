// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

// Package models holds the persisted domain entities shared across the
// service.
package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/relevantus/internal/profile"
	"github.com/tomtom215/relevantus/internal/topics"
)

// User is a registered reader of the service.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Interests []string  `json:"interests"`
	CreatedAt time.Time `json:"created_at"`
}

// Document is one ingested piece of content with its classification in
// topic space.
type Document struct {
	ID            string               `json:"id"`
	URL           string               `json:"url"`
	Title         string               `json:"title"`
	Summary       string               `json:"summary"`
	FeatureVector topics.FeatureVector `json:"feature_vector"`
	Timestamp     time.Time            `json:"timestamp"`
}

// NewDocument assigns a fresh ID to an ingested document.
func NewDocument(url, title, summary string, fv topics.FeatureVector, ts time.Time) Document {
	return Document{
		ID:            uuid.NewString(),
		URL:           url,
		Title:         title,
		Summary:       summary,
		FeatureVector: fv,
		Timestamp:     ts,
	}
}

// UserDocument is one entry of a user's top document list.
type UserDocument struct {
	DocID string  `json:"doc_id"`
	Grade float64 `json:"grade"`
}

// UserComputedProfile is a user's learned profile state together with
// the relevance vector derived from it.
type UserComputedProfile struct {
	FeatureVector topics.FeatureVector `json:"feature_vector"`
	ModelData     profile.ModelData    `json:"model_data"`
}

// NewUserComputedProfile returns an empty profile in the given feature set.
func NewUserComputedProfile(featureSetID string, dim int) UserComputedProfile {
	return UserComputedProfile{
		FeatureVector: topics.NewFeatureVector(featureSetID, dim),
		ModelData:     profile.NewModelData(featureSetID, dim),
	}
}
