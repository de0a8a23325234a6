// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

// Package match grades incoming documents against every user's relevance
// vector and keeps a bounded top list per user.
//
// The matcher stacks all user vectors into one dense matrix at
// construction, so grading a document is a single matrix-vector product
// regardless of the number of users. Memory stays bounded by the per-user
// document cap no matter how many documents stream through.
package match

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/tomtom215/relevantus/internal/models"
	"github.com/tomtom215/relevantus/internal/topics"
)

// UserInput describes one user entering a matching run: their relevance
// vector and the top documents retained from earlier runs.
type UserInput struct {
	UserID  string
	Vector  topics.FeatureVector
	TopDocs []models.UserDocument
}

// Matcher grades documents for a fixed set of users. It is not safe for
// concurrent use.
type Matcher struct {
	userIDs      []string
	heaps        []*gradeHeap
	vectors      *mat.Dense
	norms        []float64
	featureSetID string
	dim          int
	maxSize      int
}

// New builds a matcher over the given users. All user vectors must share
// one feature set; maxSize caps the retained documents per user. Already
// retained documents seed each user's list so re-runs keep earlier
// winners competing.
func New(users []UserInput, maxSize int) (*Matcher, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("match: max size must be positive, got %d", maxSize)
	}

	m := &Matcher{
		userIDs: make([]string, 0, len(users)),
		heaps:   make([]*gradeHeap, 0, len(users)),
		norms:   make([]float64, 0, len(users)),
		maxSize: maxSize,
	}
	if len(users) == 0 {
		return m, nil
	}

	m.featureSetID = users[0].Vector.FeatureSetID
	m.dim = users[0].Vector.Dim()
	m.vectors = mat.NewDense(len(users), m.dim, nil)

	for i, u := range users {
		if err := users[0].Vector.SameBasis(u.Vector); err != nil {
			return nil, fmt.Errorf("match: user %s: %w", u.UserID, err)
		}
		if err := u.Vector.CheckFinite(); err != nil {
			return nil, fmt.Errorf("match: user %s: %w", u.UserID, err)
		}
		m.vectors.SetRow(i, u.Vector.Values)
		m.userIDs = append(m.userIDs, u.UserID)
		m.norms = append(m.norms, topics.Norm(u.Vector.Values))
		m.heaps = append(m.heaps, newGradeHeap(maxSize, u.TopDocs))
	}
	return m, nil
}

// Users returns the number of users the matcher grades for.
func (m *Matcher) Users() int { return len(m.userIDs) }

// AddDoc grades one document against every user and folds it into their
// top lists. A zero-magnitude document or user vector grades 0.
func (m *Matcher) AddDoc(docID string, fv topics.FeatureVector) error {
	if len(m.userIDs) == 0 {
		return nil
	}
	if fv.FeatureSetID != m.featureSetID {
		return fmt.Errorf("match: doc %s: %w: %q vs %q", docID, topics.ErrBasisMismatch, fv.FeatureSetID, m.featureSetID)
	}
	if fv.Dim() != m.dim {
		return fmt.Errorf("match: doc %s: %w: %d vs %d", docID, topics.ErrDimensionMismatch, fv.Dim(), m.dim)
	}
	if err := fv.CheckFinite(); err != nil {
		return fmt.Errorf("match: doc %s: %w", docID, err)
	}

	docNorm := topics.Norm(fv.Values)
	vec := mat.NewVecDense(m.dim, fv.Values)
	sims := mat.NewVecDense(len(m.userIDs), nil)
	sims.MulVec(m.vectors, vec)

	for i := range m.userIDs {
		grade := 0.0
		if docNorm != 0 && m.norms[i] != 0 {
			grade = sims.AtVec(i) / (m.norms[i] * docNorm)
		}
		m.heaps[i].push(models.UserDocument{DocID: docID, Grade: grade})
	}
	return nil
}

// BuildUserDocs returns each user's retained top documents keyed by user ID.
func (m *Matcher) BuildUserDocs() map[string][]models.UserDocument {
	out := make(map[string][]models.UserDocument, len(m.userIDs))
	for i, id := range m.userIDs {
		out[id] = m.heaps[i].snapshot()
	}
	return out
}

// UserIDs returns the IDs of the users in the matcher.
func (m *Matcher) UserIDs() []string {
	out := make([]string, len(m.userIDs))
	copy(out, m.userIDs)
	return out
}
