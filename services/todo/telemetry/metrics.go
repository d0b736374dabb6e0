// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics contains the OTel instruments of the todo service.
//
// Description:
//
//	Provides HTTP request counters and histograms plus store lock
//	instrumentation. All instrument names use the "todo_" prefix.
//	Metrics satisfies store.LockObserver through ObserveLockWait.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// --- HTTP Metrics ---

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal metric.Int64Counter

	// HTTPRequestDuration records HTTP request duration in seconds.
	HTTPRequestDuration metric.Float64Histogram

	// HTTPActiveRequests tracks requests currently in flight.
	HTTPActiveRequests metric.Int64UpDownCounter

	// --- Store Metrics ---

	// StoreLockWait records time spent waiting for the store mutex.
	StoreLockWait metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with all instruments registered.
//
// Description:
//
//	Registers the HTTP and store instruments with the provided meter.
//	Store size is exported by the Prometheus collectors in observability,
//	not here.
//
// Inputs:
//
//	meter - The OTel meter to use for instrument registration.
//
// Outputs:
//
//	*Metrics - Instruments ready for use.
//	error - Non-nil if any registration fails.
//
// Example:
//
//	metrics, err := telemetry.NewMetrics(otel.Meter("todo"))
//	if err != nil {
//	    return fmt.Errorf("create metrics: %w", err)
//	}
//
// Thread Safety: Safe for concurrent use after creation.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"todo_http_requests_total",
		metric.WithDescription("Total HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_requests_total: %w", err)
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"todo_http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_request_duration: %w", err)
	}

	m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"todo_http_active_requests",
		metric.WithDescription("Currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_active_requests: %w", err)
	}

	m.StoreLockWait, err = meter.Float64Histogram(
		"todo_store_lock_wait_seconds",
		metric.WithDescription("Time spent waiting for the store lock"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1),
	)
	if err != nil {
		return nil, fmt.Errorf("create store_lock_wait: %w", err)
	}

	return m, nil
}

// ObserveLockWait records a store lock wait for the given operation.
func (m *Metrics) ObserveLockWait(op string, wait time.Duration) {
	m.StoreLockWait.Record(context.Background(), wait.Seconds(),
		metric.WithAttributes(attribute.String("operation", op)))
}
