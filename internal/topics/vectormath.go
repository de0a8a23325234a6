// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

package topics

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Norm returns the Euclidean norm of v.
func Norm(v []float64) float64 {
	return floats.Norm(v, 2)
}

// Cosine returns the cosine similarity of a and b. If either vector has
// zero magnitude the similarity is 0; callers must guarantee equal length.
func Cosine(a, b []float64) float64 {
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

// unionVocabulary maps every word appearing in any of the models to a
// stable row index. Words are folded to lower case so vocabulary
// matching is case insensitive, and ordered lexicographically so the
// mapping is deterministic across runs.
func unionVocabulary(models ...*TopicModelDescription) map[string]int {
	words := make(map[string]struct{})
	for _, m := range models {
		for _, t := range m.Topics {
			for _, ww := range t.Words {
				words[strings.ToLower(ww.Word)] = struct{}{}
			}
		}
	}
	ordered := make([]string, 0, len(words))
	for w := range words {
		ordered = append(ordered, w)
	}
	sort.Strings(ordered)

	vocab := make(map[string]int, len(ordered))
	for i, w := range ordered {
		vocab[w] = i
	}
	return vocab
}

// basisMatrix builds the |vocab| x topics matrix whose columns are the
// model's topics expressed in the shared vocabulary.
func basisMatrix(m *TopicModelDescription, vocab map[string]int) *mat.Dense {
	basis := mat.NewDense(len(vocab), m.Dim(), nil)
	for col, t := range m.Topics {
		for _, ww := range t.Words {
			if row, ok := vocab[strings.ToLower(ww.Word)]; ok {
				basis.Set(row, col, ww.Weight)
			}
		}
	}
	return basis
}
