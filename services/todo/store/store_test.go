// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	current := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

// seqIDs returns an id generator producing "id-1", "id-2", ...
func seqIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestStore() *Store {
	return New(WithClock(stepClock()), WithIDGenerator(seqIDs()))
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool     { return &b }

type recordingObserver struct {
	mu  sync.Mutex
	ops []string
}

func (r *recordingObserver) ObserveLockWait(op string, wait time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

// =============================================================================
// Insert Tests
// =============================================================================

func TestStore_Insert_AssignsServerFields(t *testing.T) {
	s := New()

	todo, err := s.Insert("Buy milk", "2 litres")
	require.NoError(t, err)

	_, parseErr := uuid.Parse(todo.ID)
	assert.NoError(t, parseErr, "default id should be a UUID")
	assert.Equal(t, "Buy milk", todo.Title)
	assert.Equal(t, "2 litres", todo.Content)
	assert.False(t, todo.Completed)
	assert.False(t, todo.CreatedAt.IsZero())
	assert.Equal(t, todo.CreatedAt, todo.UpdatedAt)
	assert.Equal(t, 1, s.Len())
}

func TestStore_Insert_DuplicateTitleConflicts(t *testing.T) {
	s := newTestStore()

	_, err := s.Insert("A", "x")
	require.NoError(t, err)

	_, err = s.Insert("A", "y")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, s.Len(), "conflicting insert must not mutate the store")

	todos := s.List(0, 10)
	require.Len(t, todos, 1)
	assert.Equal(t, "x", todos[0].Content)
}

func TestStore_Insert_TitleMatchIsCaseSensitive(t *testing.T) {
	s := newTestStore()

	_, err := s.Insert("Groceries", "")
	require.NoError(t, err)

	_, err = s.Insert("groceries", "")
	assert.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestStore_Insert_EmptyTitlesNeverConflict(t *testing.T) {
	s := newTestStore()

	_, err := s.Insert("", "a")
	require.NoError(t, err)
	_, err = s.Insert("", "b")
	assert.NoError(t, err)
}

func TestStore_Insert_UniqueIDs(t *testing.T) {
	s := New()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		todo, err := s.Insert(fmt.Sprintf("title-%d", i), "")
		require.NoError(t, err)
		assert.False(t, seen[todo.ID], "duplicate id %s", todo.ID)
		seen[todo.ID] = true
	}
}

// =============================================================================
// Find Tests
// =============================================================================

func TestStore_Find_AfterInsert(t *testing.T) {
	s := newTestStore()

	created, err := s.Insert("A", "x")
	require.NoError(t, err)

	found, err := s.Find(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, found)
	assert.Equal(t, "A", found.Title)
	assert.Equal(t, "x", found.Content)
	assert.False(t, found.Completed)
	assert.Equal(t, found.CreatedAt, found.UpdatedAt)
}

func TestStore_Find_Missing(t *testing.T) {
	s := newTestStore()

	_, err := s.Find("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Find_ReturnsCopy(t *testing.T) {
	s := newTestStore()
	created, err := s.Insert("A", "x")
	require.NoError(t, err)

	found, err := s.Find(created.ID)
	require.NoError(t, err)
	found.Title = "mutated"

	again, err := s.Find(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", again.Title)
}

// =============================================================================
// List Tests
// =============================================================================

func TestStore_List_Pagination(t *testing.T) {
	s := newTestStore()
	for _, title := range []string{"first", "second", "third"} {
		_, err := s.Insert(title, "")
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		offset int
		limit  int
		want   []string
	}{
		{"all", 0, 10, []string{"first", "second", "third"}},
		{"second page of one", 1, 1, []string{"second"}},
		{"tail truncated", 2, 10, []string{"third"}},
		{"offset at end", 3, 10, []string{}},
		{"offset past end", 100, 10, []string{}},
		{"zero limit", 0, 0, []string{}},
		{"negative offset", -1, 10, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.List(tt.offset, tt.limit)
			require.NotNil(t, got)
			titles := make([]string, 0, len(got))
			for _, todo := range got {
				titles = append(titles, todo.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

// =============================================================================
// Update Tests
// =============================================================================

func TestStore_Update_Missing(t *testing.T) {
	s := newTestStore()
	_, err := s.Insert("A", "x")
	require.NoError(t, err)
	before := s.List(0, 10)

	_, err = s.Update("nope", Patch{Title: strPtr("B")})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, s.List(0, 10), "store must be unchanged")
}

func TestStore_Update_CompletedOnly(t *testing.T) {
	s := newTestStore()
	created, err := s.Insert("A", "x")
	require.NoError(t, err)

	updated, err := s.Update(created.ID, Patch{Completed: boolPtr(true)})
	require.NoError(t, err)

	assert.Equal(t, "A", updated.Title)
	assert.Equal(t, "x", updated.Content)
	assert.True(t, updated.Completed)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, created.ID, updated.ID)
}

func TestStore_Update_CompletedFalseIsApplied(t *testing.T) {
	s := newTestStore()
	created, err := s.Insert("A", "x")
	require.NoError(t, err)
	_, err = s.Update(created.ID, Patch{Completed: boolPtr(true)})
	require.NoError(t, err)

	updated, err := s.Update(created.ID, Patch{Completed: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, updated.Completed)
}

// TestStore_Update_TitleContentReplacement pins the edit rule for title and
// content: a supplied non-empty value replaces, absent or empty keeps the old.
func TestStore_Update_TitleContentReplacement(t *testing.T) {
	tests := []struct {
		name        string
		patch       Patch
		wantTitle   string
		wantContent string
	}{
		{"non-empty values replace", Patch{Title: strPtr("B"), Content: strPtr("y")}, "B", "y"},
		{"empty values keep old", Patch{Title: strPtr(""), Content: strPtr("")}, "A", "x"},
		{"absent values keep old", Patch{}, "A", "x"},
		{"title only", Patch{Title: strPtr("B")}, "B", "x"},
		{"content only", Patch{Content: strPtr("y")}, "A", "y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			created, err := s.Insert("A", "x")
			require.NoError(t, err)

			updated, err := s.Update(created.ID, tt.patch)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, updated.Title)
			assert.Equal(t, tt.wantContent, updated.Content)

			stored, err := s.Find(created.ID)
			require.NoError(t, err)
			assert.Equal(t, updated, stored)
		})
	}
}

func TestStore_Update_TitleOwnedByAnotherTodoConflicts(t *testing.T) {
	s := newTestStore()
	_, err := s.Insert("A", "x")
	require.NoError(t, err)
	b, err := s.Insert("B", "y")
	require.NoError(t, err)

	_, err = s.Update(b.ID, Patch{Title: strPtr("A"), Completed: boolPtr(true)})
	assert.ErrorIs(t, err, ErrConflict)

	stored, err := s.Find(b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, stored, "conflicting update must not apply any field")
}

func TestStore_Update_SameTitleOnSelfIsAllowed(t *testing.T) {
	s := newTestStore()
	a, err := s.Insert("A", "x")
	require.NoError(t, err)

	updated, err := s.Update(a.ID, Patch{Title: strPtr("A")})
	require.NoError(t, err)
	assert.Equal(t, "A", updated.Title)
}

// =============================================================================
// Delete Tests
// =============================================================================

func TestStore_Delete(t *testing.T) {
	s := newTestStore()
	a, err := s.Insert("A", "")
	require.NoError(t, err)
	b, err := s.Insert("B", "")
	require.NoError(t, err)
	c, err := s.Insert("C", "")
	require.NoError(t, err)

	require.NoError(t, s.Delete(b.ID))

	_, err = s.Find(b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(b.ID), ErrNotFound, "second delete must report not found")

	remaining := s.List(0, 10)
	require.Len(t, remaining, 2)
	assert.Equal(t, a.ID, remaining[0].ID)
	assert.Equal(t, c.ID, remaining[1].ID)
}

// =============================================================================
// Concurrency Tests
// =============================================================================

func TestStore_ConcurrentInsertSameTitle(t *testing.T) {
	s := New()

	const workers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Insert("shared", ""); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one insert may win the title")
	assert.Equal(t, 1, s.Len())
}

func TestStore_ConcurrentMixedOperations(t *testing.T) {
	s := New()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			todo, err := s.Insert(fmt.Sprintf("t-%d", n), "")
			if err != nil {
				return
			}
			_, _ = s.Update(todo.ID, Patch{Completed: boolPtr(true)})
			_ = s.List(0, 5)
			if n%2 == 0 {
				_ = s.Delete(todo.ID)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, s.Len())
}

func TestStore_LockObserver(t *testing.T) {
	obs := &recordingObserver{}
	s := New(WithLockObserver(obs))

	todo, err := s.Insert("A", "")
	require.NoError(t, err)
	_, _ = s.Find(todo.ID)
	_ = s.List(0, 1)
	_, _ = s.Update(todo.ID, Patch{})
	_ = s.Delete(todo.ID)

	assert.Equal(t, []string{OpInsert, OpFind, OpList, OpUpdate, OpDelete}, obs.ops)
}
