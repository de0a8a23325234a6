// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

package topics

import (
	"errors"
	"math"
	"testing"
)

func TestFeatureVectorCheckFinite(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		wantErr bool
	}{
		{"finite", []float64{1, -2.5, 0}, false},
		{"empty", nil, false},
		{"nan", []float64{1, math.NaN()}, true},
		{"positive inf", []float64{math.Inf(1)}, true},
		{"negative inf", []float64{0, math.Inf(-1), 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := FeatureVector{Values: tt.values, FeatureSetID: "fs"}
			err := v.CheckFinite()
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckFinite() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrNotFinite) {
				t.Errorf("CheckFinite() error = %v, want ErrNotFinite", err)
			}
		})
	}
}

func TestFeatureVectorSameBasis(t *testing.T) {
	tests := []struct {
		name    string
		a, b    FeatureVector
		wantErr error
	}{
		{
			name:    "same",
			a:       FeatureVector{Values: []float64{1, 2}, FeatureSetID: "fs-1"},
			b:       FeatureVector{Values: []float64{3, 4}, FeatureSetID: "fs-1"},
			wantErr: nil,
		},
		{
			name:    "different feature set",
			a:       FeatureVector{Values: []float64{1, 2}, FeatureSetID: "fs-1"},
			b:       FeatureVector{Values: []float64{3, 4}, FeatureSetID: "fs-2"},
			wantErr: ErrBasisMismatch,
		},
		{
			name:    "different length",
			a:       FeatureVector{Values: []float64{1, 2}, FeatureSetID: "fs-1"},
			b:       FeatureVector{Values: []float64{3}, FeatureSetID: "fs-1"},
			wantErr: ErrDimensionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.a.SameBasis(tt.b)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SameBasis() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFeatureVectorClone(t *testing.T) {
	orig := FeatureVector{Values: []float64{1, 2, 3}, FeatureSetID: "fs-1"}
	clone := orig.Clone()

	clone.Values[0] = 99
	if orig.Values[0] != 1 {
		t.Errorf("Clone shares backing array: orig.Values[0] = %v", orig.Values[0])
	}
	if clone.FeatureSetID != orig.FeatureSetID {
		t.Errorf("Clone FeatureSetID = %q, want %q", clone.FeatureSetID, orig.FeatureSetID)
	}
}

func TestFeatureVectorIsZero(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   bool
	}{
		{"empty", nil, true},
		{"zeros", []float64{0, 0, 0}, true},
		{"nonzero", []float64{0, 0.001, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := FeatureVector{Values: tt.values}
			if got := v.IsZero(); got != tt.want {
				t.Errorf("IsZero() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewFeatureVector(t *testing.T) {
	v := NewFeatureVector("fs-7", 4)
	if v.FeatureSetID != "fs-7" {
		t.Errorf("FeatureSetID = %q, want fs-7", v.FeatureSetID)
	}
	if v.Dim() != 4 {
		t.Errorf("Dim() = %d, want 4", v.Dim())
	}
	if !v.IsZero() {
		t.Error("new vector should be zero")
	}
}
