// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store provides the in-memory todo collection.
//
// # Description
//
// Store keeps todos in insertion order inside a single slice guarded by one
// sync.Mutex. Every operation, read or write, takes the same exclusive lock
// and releases it with defer, so the lock is released on every return path.
// Lookups by id and title are linear scans.
//
// # Thread Safety
//
// All exported methods are safe for concurrent use. Returned Todo values are
// copies; callers never hold references into the store.
//
// # Limitations
//
//   - No persistence. State is lost on restart.
//   - Linear scans are only adequate for small collections.
package store

import (
	"sync"
	"time"

	"github.com/AleutianAI/AleutianTodo/services/todo/datatypes"
	"github.com/google/uuid"
)

// =============================================================================
// Operation Names
// =============================================================================

// Operation names passed to LockObserver.
const (
	OpList   = "list"
	OpInsert = "insert"
	OpFind   = "find"
	OpUpdate = "update"
	OpDelete = "delete"
	OpLen    = "len"
)

// =============================================================================
// Types
// =============================================================================

// Patch carries the optional fields of an edit. Nil means "not supplied".
type Patch struct {
	Title     *string
	Content   *string
	Completed *bool
}

// LockObserver receives the time each operation spent waiting for the lock.
//
// Implementations must be cheap and must not call back into the Store.
type LockObserver interface {
	ObserveLockWait(op string, wait time.Duration)
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the id source. Default is uuid.NewString.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithLockObserver installs an observer for lock wait times.
func WithLockObserver(obs LockObserver) Option {
	return func(s *Store) {
		s.observer = obs
	}
}

// Store is the mutex-guarded, ordered todo collection.
type Store struct {
	mu    sync.Mutex
	todos []datatypes.Todo

	now      func() time.Time
	newID    func() string
	observer LockObserver
}

// New creates an empty Store.
//
// # Inputs
//
//   - opts: Optional overrides for clock, id generation and lock observation.
//
// # Outputs
//
//   - *Store: Ready for concurrent use.
//
// # Examples
//
//	s := store.New()
//	todo, err := s.Insert("Buy milk", "2 litres")
func New(opts ...Option) *Store {
	s := &Store{
		todos: make([]datatypes.Todo, 0),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lock acquires the exclusive lock and reports the wait to the observer.
func (s *Store) lock(op string) {
	if s.observer == nil {
		s.mu.Lock()
		return
	}
	start := time.Now()
	s.mu.Lock()
	s.observer.ObserveLockWait(op, time.Since(start))
}

// =============================================================================
// Operations
// =============================================================================

// List returns up to limit todos starting at offset, in insertion order.
//
// # Description
//
// Out-of-range offsets, negative values and a zero limit all yield an empty,
// non-nil slice. No error is ever returned.
//
// # Inputs
//
//   - offset: Number of todos to skip.
//   - limit: Maximum number of todos to return.
//
// # Outputs
//
//   - []datatypes.Todo: Copies of the selected todos.
func (s *Store) List(offset, limit int) []datatypes.Todo {
	s.lock(OpList)
	defer s.mu.Unlock()

	if offset < 0 || limit <= 0 || offset >= len(s.todos) {
		return []datatypes.Todo{}
	}
	end := len(s.todos)
	if limit < end-offset {
		end = offset + limit
	}

	out := make([]datatypes.Todo, end-offset)
	copy(out, s.todos[offset:end])
	return out
}

// Insert creates a todo with a fresh id and timestamps and appends it.
//
// # Description
//
// Fails with ErrConflict, without mutating the store, if an existing todo has
// the same non-empty title (case-sensitive exact match). On success the new
// todo has Completed=false and CreatedAt == UpdatedAt.
//
// # Inputs
//
//   - title: Title of the new todo.
//   - content: Content of the new todo.
//
// # Outputs
//
//   - datatypes.Todo: Copy of the stored todo.
//   - error: ErrConflict on duplicate title.
func (s *Store) Insert(title, content string) (datatypes.Todo, error) {
	s.lock(OpInsert)
	defer s.mu.Unlock()

	if s.titleTaken(title, "") {
		return datatypes.Todo{}, ErrConflict
	}

	ts := s.now()
	todo := datatypes.Todo{
		ID:        s.newID(),
		Title:     title,
		Content:   content,
		Completed: false,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	s.todos = append(s.todos, todo)
	return todo, nil
}

// Find returns the todo with the given id.
func (s *Store) Find(id string) (datatypes.Todo, error) {
	s.lock(OpFind)
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return datatypes.Todo{}, ErrNotFound
	}
	return s.todos[idx], nil
}

// Update applies a patch to the todo with the given id.
//
// # Description
//
// Field rules:
//   - Title and Content are replaced only when supplied and non-empty.
//     An absent or empty value keeps the stored one.
//   - Completed is replaced whenever supplied, including false.
//   - UpdatedAt is always refreshed. ID and CreatedAt never change.
//
// A new title owned by a different todo is rejected with ErrConflict so the
// title uniqueness invariant holds after edits as well.
//
// # Outputs
//
//   - datatypes.Todo: Copy of the updated todo.
//   - error: ErrNotFound or ErrConflict. The store is unchanged on error.
func (s *Store) Update(id string, patch Patch) (datatypes.Todo, error) {
	s.lock(OpUpdate)
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return datatypes.Todo{}, ErrNotFound
	}

	updated := s.todos[idx]
	if patch.Title != nil && *patch.Title != "" {
		if s.titleTaken(*patch.Title, id) {
			return datatypes.Todo{}, ErrConflict
		}
		updated.Title = *patch.Title
	}
	if patch.Content != nil && *patch.Content != "" {
		updated.Content = *patch.Content
	}
	if patch.Completed != nil {
		updated.Completed = *patch.Completed
	}
	updated.UpdatedAt = s.now()

	s.todos[idx] = updated
	return updated, nil
}

// Delete removes the todo with the given id, preserving the order of the rest.
func (s *Store) Delete(id string) error {
	s.lock(OpDelete)
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return ErrNotFound
	}
	s.todos = append(s.todos[:idx], s.todos[idx+1:]...)
	return nil
}

// Len returns the number of stored todos.
func (s *Store) Len() int {
	s.lock(OpLen)
	defer s.mu.Unlock()
	return len(s.todos)
}

// =============================================================================
// Internal helpers (caller holds s.mu)
// =============================================================================

func (s *Store) indexOf(id string) int {
	for i := range s.todos {
		if s.todos[i].ID == id {
			return i
		}
	}
	return -1
}

// titleTaken reports whether a todo other than exceptID owns title.
// Empty titles never conflict.
func (s *Store) titleTaken(title, exceptID string) bool {
	if title == "" {
		return false
	}
	for i := range s.todos {
		if s.todos[i].Title == title && s.todos[i].ID != exceptID {
			return true
		}
	}
	return false
}
