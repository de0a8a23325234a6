// Relevantus - Personal Document Relevance Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/relevantus

// Package profile maintains per-user interest profiles learned from
// feedback actions on documents.
//
// A profile keeps three vectors in topic space: an explicit interest
// vector set from the user's declared interests, plus accumulated
// positive and negative feedback vectors. Feedback contributions decay
// exponentially with age, so the profile tracks current interests rather
// than all-time history. The accumulation is streaming: updating with one
// batch of actions and then another yields the same profile as updating
// with the concatenation, which lets the ingest pipeline checkpoint
// mid-run.
package profile
