// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/AleutianAI/AleutianTodo/services/todo/datatypes"
	"github.com/AleutianAI/AleutianTodo/services/todo/middleware"
	"github.com/AleutianAI/AleutianTodo/services/todo/observability"
	"github.com/AleutianAI/AleutianTodo/services/todo/store"
	"github.com/AleutianAI/AleutianTodo/services/todo/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// =============================================================================
// Constants
// =============================================================================

const tracerName = "aleutian.todo.handlers"

// HealthMessage is the fixed message returned by the health check.
const HealthMessage = "Building a simple todo API with Go and Gin"

// Pagination defaults for GET /api/todos.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Response messages.
const (
	msgTitleExists    = "Title already exists"
	msgTodoNotFound   = "Todo not found"
	msgInvalidBody    = "Invalid request body"
	msgInternalError  = "Internal server error"
	msgDeleteNotFound = "Todo with id: %s not found"
)

// =============================================================================
// Handlers
// =============================================================================

// Handlers serves the todo API endpoints.
type Handlers struct {
	state *AppState
}

// NewHandlers creates the handler set over the given state.
//
// # Inputs
//
//   - state: Shared application state. Must not be nil.
//
// # Outputs
//
//   - *Handlers: Ready to be mounted by routes.SetupRoutes.
func NewHandlers(state *AppState) *Handlers {
	return &Handlers{state: state}
}

// HealthCheck handles GET /api/healthchecker.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, datatypes.GenericResponse{
		Status:  datatypes.StatusSuccess,
		Message: HealthMessage,
	})
}

// ListTodos handles GET /api/todos.
//
// # Description
//
// Returns one page of todos in insertion order. The page is selected by
// the page and limit query parameters. Unparsable or out-of-range values
// fall back to the defaults, and a page beyond the end yields an empty list.
// This endpoint never fails.
//
// # Outputs
//
//	200 {"status":"success","results":N,"todos":[...]}
func (h *Handlers) ListTodos(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "ListTodos")

	_, span := telemetry.StartSpan(c.Request.Context(), tracerName, "Handlers.ListTodos")
	defer span.End()

	var q datatypes.ListTodosQuery
	_ = c.ShouldBindQuery(&q)
	offset, limit := parsePagination(q)
	span.SetAttributes(attribute.Int("todo.offset", offset), attribute.Int("todo.limit", limit))

	todos := h.state.Store.List(offset, limit)
	logger.Debug("Listed todos", "offset", offset, "limit", limit, "results", len(todos))

	h.state.Metrics.RecordOperation(observability.OperationList, observability.OutcomeSuccess)
	telemetry.SetSpanOK(span)
	c.JSON(http.StatusOK, datatypes.NewTodoListResponse(todos))
}

// CreateTodo handles POST /api/todos.
//
// # Description
//
// Decodes {title, content}, validates presence, and inserts a new todo.
// Client-supplied id, completed and timestamp fields are ignored.
//
// # Outputs
//
//	200 {"status":"success","data":{"data":Todo}}
//	400 malformed body, 422 missing field, 409 duplicate title
func (h *Handlers) CreateTodo(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "CreateTodo")

	_, span := telemetry.StartSpan(c.Request.Context(), tracerName, "Handlers.CreateTodo")
	defer span.End()

	var req datatypes.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to decode request body", "error", err)
		h.rejectInvalid(c, span, observability.OperationCreate, http.StatusBadRequest, msgInvalidBody, err)
		return
	}
	if err := req.Validate(); err != nil {
		logger.Warn("Request validation failed", "error", err)
		h.rejectInvalid(c, span, observability.OperationCreate, http.StatusUnprocessableEntity, err.Error(), err)
		return
	}

	todo, err := h.state.Store.Insert(req.Title, *req.Content)
	if err != nil {
		h.storeError(c, span, logger, observability.OperationCreate, err)
		return
	}

	logger.Info("Todo created", "todo_id", todo.ID)
	span.SetAttributes(attribute.String("todo.id", todo.ID))
	h.state.Metrics.RecordOperation(observability.OperationCreate, observability.OutcomeSuccess)
	telemetry.SetSpanOK(span)
	c.JSON(http.StatusOK, datatypes.NewSingleTodoResponse(todo))
}

// GetTodo handles GET /api/todos/:id.
func (h *Handlers) GetTodo(c *gin.Context) {
	id := c.Param("id")
	requestID := middleware.GetRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "GetTodo", "todo_id", id)

	_, span := telemetry.StartSpan(c.Request.Context(), tracerName, "Handlers.GetTodo",
		trace.WithAttributes(attribute.String("todo.id", id)))
	defer span.End()

	todo, err := h.state.Store.Find(id)
	if err != nil {
		h.storeError(c, span, logger, observability.OperationGet, err)
		return
	}

	h.state.Metrics.RecordOperation(observability.OperationGet, observability.OutcomeSuccess)
	telemetry.SetSpanOK(span)
	c.JSON(http.StatusOK, datatypes.NewSingleTodoResponse(todo))
}

// EditTodo handles PATCH /api/todos/:id.
//
// # Description
//
// Applies a partial update. Title and content replace the stored values
// only when supplied and non-empty. Completed replaces whenever supplied.
// UpdatedAt is always refreshed.
//
// # Outputs
//
//	200 {"status":"success","data":{"data":Todo}}
//	400 malformed body, 404 unknown id, 409 title owned by another todo
func (h *Handlers) EditTodo(c *gin.Context) {
	id := c.Param("id")
	requestID := middleware.GetRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "EditTodo", "todo_id", id)

	_, span := telemetry.StartSpan(c.Request.Context(), tracerName, "Handlers.EditTodo",
		trace.WithAttributes(attribute.String("todo.id", id)))
	defer span.End()

	var req datatypes.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to decode request body", "error", err)
		h.rejectInvalid(c, span, observability.OperationUpdate, http.StatusBadRequest, msgInvalidBody, err)
		return
	}

	todo, err := h.state.Store.Update(id, store.Patch{
		Title:     req.Title,
		Content:   req.Content,
		Completed: req.Completed,
	})
	if err != nil {
		h.storeError(c, span, logger, observability.OperationUpdate, err)
		return
	}

	logger.Info("Todo updated")
	h.state.Metrics.RecordOperation(observability.OperationUpdate, observability.OutcomeSuccess)
	telemetry.SetSpanOK(span)
	c.JSON(http.StatusOK, datatypes.NewSingleTodoResponse(todo))
}

// DeleteTodo handles DELETE /api/todos/:id.
//
// # Outputs
//
//	204 with no body
//	404 {"status":"fail","message":"Todo with id: <id> not found"}
func (h *Handlers) DeleteTodo(c *gin.Context) {
	id := c.Param("id")
	requestID := middleware.GetRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "DeleteTodo", "todo_id", id)

	_, span := telemetry.StartSpan(c.Request.Context(), tracerName, "Handlers.DeleteTodo",
		trace.WithAttributes(attribute.String("todo.id", id)))
	defer span.End()

	if err := h.state.Store.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Info("Todo not found")
			telemetry.RecordError(span, err)
			h.state.Metrics.RecordOperation(observability.OperationDelete, observability.OutcomeNotFound)
			c.JSON(http.StatusNotFound, datatypes.GenericResponse{
				Status:  datatypes.StatusFail,
				Message: fmt.Sprintf(msgDeleteNotFound, id),
			})
			return
		}
		h.storeError(c, span, logger, observability.OperationDelete, err)
		return
	}

	logger.Info("Todo deleted")
	h.state.Metrics.RecordOperation(observability.OperationDelete, observability.OutcomeSuccess)
	telemetry.SetSpanOK(span)
	c.Status(http.StatusNoContent)
}

// =============================================================================
// Helper Functions
// =============================================================================

// storeError maps a store sentinel error to its HTTP response.
func (h *Handlers) storeError(c *gin.Context, span trace.Span, logger *slog.Logger, op observability.Operation, err error) {
	telemetry.RecordError(span, err)

	switch {
	case errors.Is(err, store.ErrConflict):
		logger.Info("Title already exists")
		h.state.Metrics.RecordOperation(op, observability.OutcomeConflict)
		c.JSON(http.StatusConflict, datatypes.GenericResponse{
			Status:  datatypes.StatusError,
			Message: msgTitleExists,
		})
	case errors.Is(err, store.ErrNotFound):
		logger.Info("Todo not found")
		h.state.Metrics.RecordOperation(op, observability.OutcomeNotFound)
		c.JSON(http.StatusNotFound, datatypes.GenericResponse{
			Status:  datatypes.StatusError,
			Message: msgTodoNotFound,
		})
	default:
		logger.Error("Unexpected store error", "error", err)
		c.JSON(http.StatusInternalServerError, datatypes.GenericResponse{
			Status:  datatypes.StatusError,
			Message: msgInternalError,
		})
	}
}

// rejectInvalid writes a "fail" response for a bad request body.
func (h *Handlers) rejectInvalid(c *gin.Context, span trace.Span, op observability.Operation, code int, message string, err error) {
	telemetry.RecordError(span, err)
	h.state.Metrics.RecordOperation(op, observability.OutcomeInvalid)
	c.JSON(code, datatypes.GenericResponse{
		Status:  datatypes.StatusFail,
		Message: message,
	})
}

// parsePagination converts the raw query into a store offset and limit.
//
// # Description
//
// page defaults to 1 and values below 1 are treated as 1. limit defaults
// to 10 for unparsable or negative input; an explicit 0 yields an empty
// page. offset = (page-1)*limit, saturating at math.MaxInt instead of
// overflowing.
func parsePagination(q datatypes.ListTodosQuery) (offset, limit int) {
	page, err := strconv.Atoi(q.Page)
	if err != nil || page < 1 {
		page = DefaultPage
	}
	limit, err = strconv.Atoi(q.Limit)
	if err != nil || limit < 0 {
		limit = DefaultLimit
	}

	if limit > 0 && page-1 > math.MaxInt/limit {
		return math.MaxInt, limit
	}
	return (page - 1) * limit, limit
}
