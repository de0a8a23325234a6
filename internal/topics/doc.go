// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

// Package topics defines the topic vector space shared by all users and
// documents, and the linear algebra used to move between vector spaces.
//
// A topic model decomposes a vocabulary into a fixed number of weighted
// topics. Each model induces a basis: one axis per topic. Feature vectors
// are always tagged with the feature set (basis) they are expressed in,
// and any algebra across two vectors requires matching bases.
//
// When the topic model is retrained, stored vectors keep their old basis
// tag. The Converter re-expresses a vector from an origin model's basis as
// its least-squares best approximation in a target model's basis, so that
// profiles and documents survive a model upgrade without reprocessing raw
// history. The Classifier projects a raw bag of words onto a single
// model's basis.
//
// # Thread Safety
//
// Converter and Classifier are immutable after construction and safe for
// concurrent use. FeatureVector values are owned by their holder.
package topics
