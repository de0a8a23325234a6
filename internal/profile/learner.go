// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

package profile

import (
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/relevantus/internal/topics"
)

const hoursPerYear = 24 * 365.25

// ActionType identifies the kind of feedback a user gave on a document.
type ActionType string

const (
	ActionUpVote    ActionType = "up_vote"
	ActionDownVote  ActionType = "down_vote"
	ActionClickLink ActionType = "click_link"
	ActionViewLink  ActionType = "view_link"
)

// String implements fmt.Stringer.
func (a ActionType) String() string { return string(a) }

// ActionOnDoc is one recorded feedback event: what the user did, when,
// and the feature vector of the document they did it on.
type ActionOnDoc struct {
	Timestamp time.Time            `json:"timestamp"`
	DocVector topics.FeatureVector `json:"doc_feature_vector"`
	Type      ActionType           `json:"action_type"`
}

// Coefficients splits an action's influence between the positive and
// negative feedback vectors.
type Coefficients struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
}

// Config holds the tunables of the learner.
type Config struct {
	// DecayRate is the exponential decay rate per year applied to
	// feedback contributions.
	DecayRate float64

	// PositiveWeight and NegativeWeight blend the normalized feedback
	// vectors into the relevance vector.
	PositiveWeight float64
	NegativeWeight float64

	// Coefficients maps each action type to its feedback influence.
	Coefficients map[ActionType]Coefficients
}

// DefaultConfig returns the learner configuration used in production.
func DefaultConfig() Config {
	return Config{
		DecayRate:      1.0,
		PositiveWeight: 0.8,
		NegativeWeight: 0.2,
		Coefficients: map[ActionType]Coefficients{
			ActionUpVote:    {Positive: 5},
			ActionClickLink: {Positive: 1},
			ActionDownVote:  {Negative: 10},
			ActionViewLink:  {Negative: 1},
		},
	}
}

// Validate checks the configuration for values the learner cannot work with.
func (c Config) Validate() error {
	if c.DecayRate < 0 {
		return fmt.Errorf("profile: decay rate must be non-negative, got %v", c.DecayRate)
	}
	if c.PositiveWeight < 0 || c.NegativeWeight < 0 {
		return fmt.Errorf("profile: mixing weights must be non-negative, got %v/%v", c.PositiveWeight, c.NegativeWeight)
	}
	if len(c.Coefficients) == 0 {
		return fmt.Errorf("profile: at least one action coefficient is required")
	}
	for typ, coeff := range c.Coefficients {
		if coeff.Positive < 0 || coeff.Negative < 0 {
			return fmt.Errorf("profile: coefficients for %s must be non-negative", typ)
		}
	}
	return nil
}

// ModelData is the learned state of one user's profile. All vectors share
// the feature set of ExplicitVector.
type ModelData struct {
	ExplicitVector topics.FeatureVector `json:"explicit_feedback_vector"`
	PositiveVector topics.FeatureVector `json:"positive_feedback_vector"`
	NegativeVector topics.FeatureVector `json:"negative_feedback_vector"`
	PositiveCoeff  float64              `json:"positive_feedback_sum_coeff"`
	NegativeCoeff  float64              `json:"negative_feedback_sum_coeff"`
	UpdatedAt      time.Time            `json:"timestamp"`
}

// NewModelData returns an empty profile state in the given feature set.
func NewModelData(featureSetID string, dim int) ModelData {
	return ModelData{
		ExplicitVector: topics.NewFeatureVector(featureSetID, dim),
		PositiveVector: topics.NewFeatureVector(featureSetID, dim),
		NegativeVector: topics.NewFeatureVector(featureSetID, dim),
	}
}

// FeatureSetID returns the feature set the profile's vectors are
// expressed in.
func (m ModelData) FeatureSetID() string {
	return m.ExplicitVector.FeatureSetID
}

// Learner folds feedback actions into user profiles.
type Learner struct {
	cfg Config
}

// NewLearner returns a learner with the given configuration.
func NewLearner(cfg Config) (*Learner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Learner{cfg: cfg}, nil
}

// ComputeUserProfile folds a batch of actions into old and returns the
// updated profile state together with the relevance vector used for
// matching. The batch is validated before any state is touched, so a bad
// action leaves old usable. Actions may carry timestamps older than now;
// each contribution is decayed by its own age.
func (l *Learner) ComputeUserProfile(old ModelData, actions []ActionOnDoc, now time.Time) (ModelData, topics.FeatureVector, error) {
	for i, action := range actions {
		if err := action.DocVector.CheckFinite(); err != nil {
			return ModelData{}, topics.FeatureVector{}, fmt.Errorf("action %d: %w", i, err)
		}
		if err := old.ExplicitVector.SameBasis(action.DocVector); err != nil {
			return ModelData{}, topics.FeatureVector{}, fmt.Errorf("action %d: %w", i, err)
		}
		if _, ok := l.cfg.Coefficients[action.Type]; !ok {
			return ModelData{}, topics.FeatureVector{}, fmt.Errorf("action %d: unknown action type %q", i, action.Type)
		}
	}

	discount := math.Exp(-l.cfg.DecayRate * yearsBetween(old.UpdatedAt, now))

	updated := ModelData{
		ExplicitVector: old.ExplicitVector.Clone(),
		PositiveVector: scaled(old.PositiveVector, discount),
		NegativeVector: scaled(old.NegativeVector, discount),
		PositiveCoeff:  old.PositiveCoeff * discount,
		NegativeCoeff:  old.NegativeCoeff * discount,
		UpdatedAt:      now,
	}

	for _, action := range actions {
		coeff := l.cfg.Coefficients[action.Type]
		decay := math.Exp(-l.cfg.DecayRate * yearsBetween(action.Timestamp, now))
		if coeff.Positive > 0 {
			addScaled(&updated.PositiveVector, action.DocVector, coeff.Positive*decay)
			updated.PositiveCoeff += coeff.Positive * decay
		}
		if coeff.Negative > 0 {
			addScaled(&updated.NegativeVector, action.DocVector, coeff.Negative*decay)
			updated.NegativeCoeff += coeff.Negative * decay
		}
	}

	posNorm := scaled(updated.PositiveVector, 1/coeffOrOne(updated.PositiveCoeff))
	negNorm := scaled(updated.NegativeVector, 1/coeffOrOne(updated.NegativeCoeff))

	relevance := updated.ExplicitVector.Clone()
	for i := range relevance.Values {
		relevance.Values[i] += l.cfg.PositiveWeight*posNorm.Values[i] - l.cfg.NegativeWeight*negNorm.Values[i]
	}
	if err := relevance.CheckFinite(); err != nil {
		return ModelData{}, topics.FeatureVector{}, fmt.Errorf("profile: relevance vector: %w", err)
	}
	return updated, relevance, nil
}

// yearsBetween returns the elapsed time from from to now in years. A zero
// from means the profile has never been updated, which counts as no
// elapsed time.
func yearsBetween(from, now time.Time) float64 {
	if from.IsZero() {
		return 0
	}
	return now.Sub(from).Hours() / hoursPerYear
}

// coeffOrOne guards the normalization divide against an empty feedback side.
func coeffOrOne(c float64) float64 {
	if c == 0 {
		return 1
	}
	return c
}

func scaled(v topics.FeatureVector, factor float64) topics.FeatureVector {
	out := v.Clone()
	for i := range out.Values {
		out.Values[i] *= factor
	}
	return out
}

func addScaled(dst *topics.FeatureVector, src topics.FeatureVector, factor float64) {
	for i := range dst.Values {
		dst.Values[i] += src.Values[i] * factor
	}
}
