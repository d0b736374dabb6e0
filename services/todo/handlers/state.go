// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP handlers of the todo API.
//
// # Description
//
// Every handler receives its dependencies through an explicitly constructed
// AppState. There are no package-level singletons. Each handler performs a
// single store operation, which takes and releases the store lock itself,
// and then shapes the JSON response.
//
// # Error Mapping
//
//	store.ErrConflict  ──► 409 {"status":"error","message":"Title already exists"}
//	store.ErrNotFound  ──► 404 {"status":"error","message":"Todo not found"}
//	                       404 {"status":"fail","message":"Todo with id: <id> not found"} (delete)
//	malformed JSON     ──► 400 {"status":"fail","message":"Invalid request body"}
//	missing field      ──► 422 {"status":"fail","message":"<field> is required"}
package handlers

import (
	"github.com/AleutianAI/AleutianTodo/services/todo/observability"
	"github.com/AleutianAI/AleutianTodo/services/todo/store"
)

// AppState is the process-wide handle shared by every handler.
//
// # Fields
//
//   - Store: The todo collection. Required.
//   - Metrics: Prometheus operation counters. Nil disables recording.
//
// # Thread Safety
//
// Safe for concurrent use. Store serializes access internally.
type AppState struct {
	Store   *store.Store
	Metrics *observability.TodoMetrics
}

// NewAppState builds the shared state. A nil store is replaced by an empty one.
func NewAppState(s *store.Store, metrics *observability.TodoMetrics) *AppState {
	if s == nil {
		s = store.New()
	}
	return &AppState{Store: s, Metrics: metrics}
}
