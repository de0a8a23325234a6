// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

package match

import (
	"fmt"
	"testing"

	"github.com/tomtom215/relevantus/internal/models"
)

func TestGradeHeapBoundedness(t *testing.T) {
	h := newGradeHeap(3, nil)
	for i := 0; i < 10; i++ {
		h.push(models.UserDocument{DocID: fmt.Sprintf("d%d", i), Grade: float64(i)})
	}
	if h.len() != 3 {
		t.Fatalf("len() = %d, want 3", h.len())
	}
	// The three highest grades of 0..9 are 7, 8, 9.
	if h.min() != 7 {
		t.Errorf("min() = %v, want 7", h.min())
	}
}

func TestGradeHeapReplaceAtCapacity(t *testing.T) {
	h := newGradeHeap(2, []models.UserDocument{
		{DocID: "a", Grade: 0.5},
		{DocID: "b", Grade: 0.9},
	})

	// Lower than the minimum: discarded.
	h.push(models.UserDocument{DocID: "c", Grade: 0.4})
	if h.min() != 0.5 {
		t.Errorf("after lower push, min() = %v, want 0.5", h.min())
	}

	// Equal to the minimum: ties keep the incumbent.
	h.push(models.UserDocument{DocID: "d", Grade: 0.5})
	docs := h.snapshot()
	for _, d := range docs {
		if d.DocID == "d" {
			t.Error("tie should not evict the incumbent")
		}
	}

	// Higher than the minimum: replaces it.
	h.push(models.UserDocument{DocID: "e", Grade: 0.7})
	if h.min() != 0.7 {
		t.Errorf("after higher push, min() = %v, want 0.7", h.min())
	}
}

func TestGradeHeapSnapshotIsCopy(t *testing.T) {
	h := newGradeHeap(2, []models.UserDocument{{DocID: "a", Grade: 1}})
	snap := h.snapshot()
	snap[0].Grade = 99
	if h.entries[0].Grade != 1 {
		t.Error("snapshot shares backing array with heap")
	}
}

func TestGradeHeapSeedAboveCapacity(t *testing.T) {
	seeds := []models.UserDocument{
		{DocID: "a", Grade: 0.1},
		{DocID: "b", Grade: 0.9},
		{DocID: "c", Grade: 0.5},
		{DocID: "d", Grade: 0.7},
	}
	h := newGradeHeap(2, seeds)
	if h.len() != 2 {
		t.Fatalf("len() = %d, want 2", h.len())
	}
	if h.min() != 0.7 {
		t.Errorf("min() = %v, want 0.7", h.min())
	}
}
