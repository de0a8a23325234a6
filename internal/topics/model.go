// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

package topics

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrBasisMismatch is returned when two vectors expressed in different
	// feature sets are combined.
	ErrBasisMismatch = errors.New("topics: feature set mismatch")

	// ErrDimensionMismatch is returned when a vector's length does not
	// match the dimensionality expected by the operation.
	ErrDimensionMismatch = errors.New("topics: dimension mismatch")

	// ErrNotFinite is returned when a vector contains NaN or Inf components.
	ErrNotFinite = errors.New("topics: non-finite vector component")

	// ErrSingularBasis is returned when a topic model's basis is rank
	// deficient and cannot support a projection.
	ErrSingularBasis = errors.New("topics: singular basis")
)

// WordWeight is one vocabulary entry of a topic with its weight.
type WordWeight struct {
	Word   string  `json:"word"`
	Weight float64 `json:"weight"`
}

// Topic is a weighted bag of words. One topic is one axis of the
// feature space induced by its model.
type Topic struct {
	Words []WordWeight `json:"words"`
}

// TopicModelDescription is a trained topic model: an ordered list of
// topics over some vocabulary.
type TopicModelDescription struct {
	ModelID string  `json:"model_id"`
	Topics  []Topic `json:"topics"`
}

// Dim returns the dimensionality of the feature space this model induces.
func (m *TopicModelDescription) Dim() int {
	return len(m.Topics)
}

// FeatureSet identifies a basis of the feature space. Every feature
// vector carries the ID of the feature set it is expressed in.
type FeatureSet struct {
	ID           string   `json:"id"`
	FeatureNames []string `json:"feature_names"`
	ModelID      string   `json:"model_id"`
}

// FeatureVector is a dense vector tagged with the feature set it is
// expressed in.
type FeatureVector struct {
	Values       []float64 `json:"values"`
	FeatureSetID string    `json:"feature_set_id"`
}

// NewFeatureVector returns a zero vector of dim components in the given
// feature set.
func NewFeatureVector(featureSetID string, dim int) FeatureVector {
	return FeatureVector{
		Values:       make([]float64, dim),
		FeatureSetID: featureSetID,
	}
}

// Clone returns a deep copy of the vector.
func (v FeatureVector) Clone() FeatureVector {
	out := FeatureVector{
		Values:       make([]float64, len(v.Values)),
		FeatureSetID: v.FeatureSetID,
	}
	copy(out.Values, v.Values)
	return out
}

// Dim returns the number of components.
func (v FeatureVector) Dim() int {
	return len(v.Values)
}

// IsZero reports whether every component is exactly zero.
func (v FeatureVector) IsZero() bool {
	for _, x := range v.Values {
		if x != 0 {
			return false
		}
	}
	return true
}

// CheckFinite returns ErrNotFinite if any component is NaN or Inf.
func (v FeatureVector) CheckFinite() error {
	for i, x := range v.Values {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: component %d", ErrNotFinite, i)
		}
	}
	return nil
}

// SameBasis returns ErrBasisMismatch if other is expressed in a different
// feature set, or ErrDimensionMismatch if the lengths differ.
func (v FeatureVector) SameBasis(other FeatureVector) error {
	if v.FeatureSetID != other.FeatureSetID {
		return fmt.Errorf("%w: %q vs %q", ErrBasisMismatch, v.FeatureSetID, other.FeatureSetID)
	}
	if len(v.Values) != len(other.Values) {
		return fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(v.Values), len(other.Values))
	}
	return nil
}
