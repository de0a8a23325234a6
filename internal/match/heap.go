// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

package match

import "github.com/tomtom215/relevantus/internal/models"

// gradeHeap is a bounded min-heap of user documents keyed by grade. At
// capacity, a new entry replaces the current minimum only when its grade
// is strictly greater, so ties favor the incumbent.
type gradeHeap struct {
	entries []models.UserDocument
	maxSize int
}

func newGradeHeap(maxSize int, initial []models.UserDocument) *gradeHeap {
	h := &gradeHeap{
		entries: make([]models.UserDocument, 0, maxSize),
		maxSize: maxSize,
	}
	for _, e := range initial {
		h.push(e)
	}
	return h
}

func (h *gradeHeap) len() int { return len(h.entries) }

// min returns the smallest retained grade. Only valid when len() > 0.
func (h *gradeHeap) min() float64 { return h.entries[0].Grade }

func (h *gradeHeap) push(e models.UserDocument) {
	if len(h.entries) < h.maxSize {
		h.entries = append(h.entries, e)
		h.bubbleUp(len(h.entries) - 1)
		return
	}
	if e.Grade <= h.entries[0].Grade {
		return
	}
	h.entries[0] = e
	h.siftDown(0)
}

// snapshot returns a copy of the retained entries in heap order.
func (h *gradeHeap) snapshot() []models.UserDocument {
	out := make([]models.UserDocument, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *gradeHeap) bubbleUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.entries[parent].Grade <= h.entries[i].Grade {
			return
		}
		h.entries[parent], h.entries[i] = h.entries[i], h.entries[parent]
		i = parent
	}
}

func (h *gradeHeap) siftDown(i int) {
	n := len(h.entries)
	for {
		smallest := i
		if l := 2*i + 1; l < n && h.entries[l].Grade < h.entries[smallest].Grade {
			smallest = l
		}
		if r := 2*i + 2; r < n && h.entries[r].Grade < h.entries[smallest].Grade {
			smallest = r
		}
		if smallest == i {
			return
		}
		h.entries[i], h.entries[smallest] = h.entries[smallest], h.entries[i]
		i = smallest
	}
}
