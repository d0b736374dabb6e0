// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"net/http"
	"strings"

	"github.com/AleutianAI/AleutianTodo/services/todo/handlers"
	"github.com/gin-gonic/gin"
)

// DefaultBasePath is the prefix every API route is mounted under.
const DefaultBasePath = "/api"

// Options controls how SetupRoutes mounts the API.
type Options struct {
	// BasePath is the API prefix. Empty means DefaultBasePath.
	BasePath string

	// MetricsHandler is served at GET /metrics outside the API prefix.
	// Nil leaves /metrics unregistered.
	MetricsHandler http.Handler

	// APIMiddleware runs for API routes only (e.g. rate limiting).
	APIMiddleware []gin.HandlerFunc
}

// SetupRoutes binds the todo handlers to router.
//
//	GET    {base}/healthchecker
//	GET    {base}/todos
//	POST   {base}/todos
//	GET    {base}/todos/:id
//	PATCH  {base}/todos/:id
//	DELETE {base}/todos/:id
//	GET    /metrics
func SetupRoutes(router *gin.Engine, h *handlers.Handlers, opts Options) {
	if opts.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	api := router.Group(normalizeBasePath(opts.BasePath))
	api.Use(opts.APIMiddleware...)
	{
		api.GET("/healthchecker", h.HealthCheck)

		todos := api.Group("/todos")
		{
			todos.GET("", h.ListTodos)
			todos.POST("", h.CreateTodo)
			todos.GET("/:id", h.GetTodo)
			todos.PATCH("/:id", h.EditTodo)
			todos.DELETE("/:id", h.DeleteTodo)
		}
	}
}

// normalizeBasePath returns a prefix with one leading slash and no trailing
// slash. "/" mounts at the root.
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return DefaultBasePath
	}
	p = "/" + strings.Trim(p, "/")
	return p
}
