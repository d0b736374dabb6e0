// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the wire types of the todo service.
//
// Request types carry go-playground/validator tags and expose a Validate
// method. Response types mirror the JSON envelopes returned by the HTTP
// handlers.
package datatypes

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// todoValidate is the validator instance for todo datatypes.
var todoValidate = validator.New(validator.WithRequiredStructEnabled())

// =============================================================================
// Todo
// =============================================================================

// Todo is a single task record.
//
// # Description
//
// The store owns every Todo. Callers always receive copies, so mutating a
// returned value never affects stored state.
//
// # Fields
//
//   - ID: UUID v4 assigned at creation. Never changes.
//   - Title: Non-empty and unique across all todos (exact match).
//   - Content: Free-form text.
//   - Completed: False at creation.
//   - CreatedAt: Set once at creation.
//   - UpdatedAt: Equal to CreatedAt at creation, refreshed on every edit.
type Todo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// =============================================================================
// Requests
// =============================================================================

// CreateTodoRequest is the request body for POST /api/todos.
//
// # Description
//
// Title and content must both be present. Title must also be non-empty,
// content may be empty. Any id, completed flag or timestamps sent by the
// client are not part of this type and are ignored by the decoder.
//
// # Validation
//
//   - Title: required (non-empty)
//   - Content: required (present, may be "")
type CreateTodoRequest struct {
	Title   string  `json:"title" validate:"required"`
	Content *string `json:"content" validate:"required"`
}

// Validate checks presence rules for the create request.
//
// # Outputs
//
//   - error: *ValidationError naming the first failing field, or nil.
func (r *CreateTodoRequest) Validate() error {
	return translate(todoValidate.Struct(r))
}

// UpdateTodoRequest is the request body for PATCH /api/todos/:id.
//
// All fields are optional. A nil pointer means "not supplied".
type UpdateTodoRequest struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Completed *bool   `json:"completed"`
}

// ListTodosQuery holds the raw pagination query parameters for GET /api/todos.
//
// Values are kept as strings so unparsable input can fall back to defaults
// instead of failing the request.
type ListTodosQuery struct {
	Page  string `form:"page"`
	Limit string `form:"limit"`
}

// =============================================================================
// Validation Errors
// =============================================================================

// ValidationError reports a request field that failed validation.
type ValidationError struct {
	Field string
	Tag   string
}

// Error implements error.
func (e *ValidationError) Error() string {
	if e.Tag == "required" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s failed %s validation", e.Field, e.Tag)
}

// translate converts validator output into a *ValidationError for the first
// failing field. JSON field names are used so messages match the wire format.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	first := verrs[0]
	return &ValidationError{Field: jsonFieldName(first.StructField()), Tag: first.Tag()}
}

// jsonFieldName maps Go field names of the request types to their JSON keys.
func jsonFieldName(field string) string {
	switch field {
	case "Title":
		return "title"
	case "Content":
		return "content"
	case "Completed":
		return "completed"
	default:
		return field
	}
}
