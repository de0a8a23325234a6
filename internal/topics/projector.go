// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

package topics

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Converter re-expresses vectors from an origin topic model's basis in a
// target topic model's basis via least squares.
//
// Both bases are lifted into the union vocabulary of the two models. With
// A the origin basis and B the target basis, converting vector a solves
// the normal equations (BᵀB)b = (BᵀA)a for b. The Cholesky factorization
// of BᵀB is computed once at construction, so each Convert is a
// matrix-vector product and a triangular solve.
type Converter struct {
	chol      mat.Cholesky
	bta       *mat.Dense
	originDim int
	targetDim int
}

// NewConverter builds a converter from origin's basis to target's basis.
// It returns ErrSingularBasis when target's topics are linearly dependent.
func NewConverter(origin, target *TopicModelDescription) (*Converter, error) {
	if origin.Dim() == 0 || target.Dim() == 0 {
		return nil, fmt.Errorf("%w: empty model", ErrSingularBasis)
	}

	vocab := unionVocabulary(origin, target)
	a := basisMatrix(origin, vocab)
	b := basisMatrix(target, vocab)

	var btb mat.Dense
	btb.Mul(b.T(), b)

	var bta mat.Dense
	bta.Mul(b.T(), a)

	sym := mat.NewSymDense(target.Dim(), nil)
	for i := 0; i < target.Dim(); i++ {
		for j := i; j < target.Dim(); j++ {
			sym.SetSym(i, j, btb.At(i, j))
		}
	}

	c := &Converter{
		bta:       &bta,
		originDim: origin.Dim(),
		targetDim: target.Dim(),
	}
	if ok := c.chol.Factorize(sym); !ok {
		return nil, fmt.Errorf("%w: target model %q", ErrSingularBasis, target.ModelID)
	}
	return c, nil
}

// OriginDim returns the dimensionality of vectors Convert accepts.
func (c *Converter) OriginDim() int { return c.originDim }

// TargetDim returns the dimensionality of vectors Convert produces.
func (c *Converter) TargetDim() int { return c.targetDim }

// Convert maps values from the origin basis to the target basis.
func (c *Converter) Convert(values []float64) ([]float64, error) {
	if len(values) != c.originDim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(values), c.originDim)
	}
	if err := (FeatureVector{Values: values}).CheckFinite(); err != nil {
		return nil, err
	}

	vec := mat.NewVecDense(c.originDim, values)
	rhs := mat.NewVecDense(c.targetDim, nil)
	rhs.MulVec(c.bta, vec)

	out := mat.NewVecDense(c.targetDim, nil)
	if err := c.chol.SolveVecTo(out, rhs); err != nil {
		return nil, fmt.Errorf("topics: projection solve: %w", err)
	}
	return out.RawVector().Data, nil
}

// Classifier projects raw word bags onto a single topic model's basis.
type Classifier struct {
	vocab map[string]int
	basis *mat.Dense
	dim   int
}

// NewClassifier builds a classifier for the given model.
func NewClassifier(model *TopicModelDescription) (*Classifier, error) {
	if model.Dim() == 0 {
		return nil, fmt.Errorf("%w: empty model", ErrSingularBasis)
	}
	vocab := unionVocabulary(model)
	return &Classifier{
		vocab: vocab,
		basis: basisMatrix(model, vocab),
		dim:   model.Dim(),
	}, nil
}

// Dim returns the dimensionality of vectors Classify produces.
func (c *Classifier) Dim() int { return c.dim }

// Known returns how many of the words appear in the model's vocabulary.
// Matching is case insensitive.
func (c *Classifier) Known(words []string) int {
	n := 0
	for _, w := range words {
		if _, ok := c.vocab[strings.ToLower(w)]; ok {
			n++
		}
	}
	return n
}

// Classify maps a bag of words to topic space as the least-squares
// solution of basis·x = indicator, where indicator marks which vocabulary
// words occur in the input. An input with no known words yields the zero
// vector.
func (c *Classifier) Classify(words []string) ([]float64, error) {
	indicator := mat.NewVecDense(len(c.vocab), nil)
	known := 0
	for _, w := range words {
		if row, ok := c.vocab[strings.ToLower(w)]; ok {
			indicator.SetVec(row, 1)
			known++
		}
	}
	if known == 0 {
		return make([]float64, c.dim), nil
	}

	var x mat.VecDense
	if err := x.SolveVec(c.basis, indicator); err != nil {
		// An ill-conditioned basis still gives a usable projection.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("topics: classify solve: %w", err)
		}
	}
	out := make([]float64, c.dim)
	copy(out, x.RawVector().Data)
	return out, nil
}
