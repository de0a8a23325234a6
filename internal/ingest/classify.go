// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

package ingest

import (
	"strings"
	"unicode"

	"github.com/tomtom215/relevantus/internal/topics"
)

// Classifier maps raw document text to a feature vector in the active
// feature set. The second return value is false when the text contains
// no vocabulary the model knows, which makes the document unclassifiable.
type Classifier interface {
	FeatureSetID() string
	Dim() int
	Classify(text string) (topics.FeatureVector, bool, error)
}

// TopicClassifier implements Classifier on a topic model.
type TopicClassifier struct {
	cls          *topics.Classifier
	featureSetID string
}

var _ Classifier = (*TopicClassifier)(nil)

// NewTopicClassifier builds a classifier producing vectors tagged with
// featureSetID.
func NewTopicClassifier(model *topics.TopicModelDescription, featureSetID string) (*TopicClassifier, error) {
	cls, err := topics.NewClassifier(model)
	if err != nil {
		return nil, err
	}
	return &TopicClassifier{cls: cls, featureSetID: featureSetID}, nil
}

func (c *TopicClassifier) FeatureSetID() string { return c.featureSetID }

func (c *TopicClassifier) Dim() int { return c.cls.Dim() }

// Classify tokenizes text and projects it onto the topic basis.
func (c *TopicClassifier) Classify(text string) (topics.FeatureVector, bool, error) {
	words := tokenize(text)
	if c.cls.Known(words) == 0 {
		return topics.FeatureVector{}, false, nil
	}
	values, err := c.cls.Classify(words)
	if err != nil {
		return topics.FeatureVector{}, false, err
	}
	return topics.FeatureVector{Values: values, FeatureSetID: c.featureSetID}, true, nil
}

// tokenize lowercases text and splits it on anything that is not a
// letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
