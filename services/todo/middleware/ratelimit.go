// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/AleutianAI/AleutianTodo/services/todo/datatypes"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit creates a gin middleware backed by a single token bucket.
//
// # Description
//
// One limiter is shared by every client. Requests that find the bucket empty
// are rejected with 429 and the standard {status, message} envelope.
//
// # Inputs
//
//   - rps: Sustained requests per second. Zero or negative disables limiting.
//   - burst: Bucket size. Values below 1 are raised to 1.
//
// # Outputs
//
//   - gin.HandlerFunc: Middleware function ready for use with Gin
//
// # Examples
//
//	api.Use(middleware.RateLimit(50, 100))
//
// # Limitations
//
//   - Not per-client. A single noisy client can starve the others.
//
// # Thread Safety
//
// Thread-safe. rate.Limiter is safe for concurrent use.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			slog.Warn("Rate limit exceeded",
				"request_id", GetRequestID(c),
				"path", c.Request.URL.Path)
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, datatypes.GenericResponse{
				Status:  datatypes.StatusFail,
				Message: "Too many requests",
			})
			return
		}
		c.Next()
	}
}
