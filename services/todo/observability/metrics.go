// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the todo service.
//
// # Description
//
// Domain counters complement the OTel HTTP instruments from the telemetry
// package:
//   - Operation counters (by operation and outcome)
//   - Store size gauge, read from the store on every scrape
//
// # Integration
//
// Metrics live on a per-service registry created by NewRegistry and are
// exposed at GET /metrics through Handler.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "aleutian"

// Subsystem for todo metrics
const todoSubsystem = "todo"

// TodoMetrics holds the Prometheus metrics for todo operations.
//
// # Fields
//
//   - OperationsTotal: Counter of handler operations by operation and outcome
//   - StoreItems: Gauge of stored todos, nil when no size func was given
//
// # Thread Safety
//
// All operations are thread-safe.
type TodoMetrics struct {
	// OperationsTotal counts todo operations.
	// Labels: operation (list, create, get, update, delete),
	// outcome (success, conflict, not_found, invalid)
	OperationsTotal *prometheus.CounterVec

	// StoreItems reports the current number of todos.
	StoreItems prometheus.GaugeFunc
}

// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewTodoMetrics creates and registers the todo metrics on reg.
//
// # Description
//
// Uses promauto.With(reg) so each service instance owns its metrics. This
// keeps tests and multiple in-process servers from colliding on the default
// registry.
//
// # Inputs
//
//   - reg: Registerer to attach metrics to. Must not be nil.
//   - storeSize: Returns the current store size. Nil skips the gauge.
//
// # Outputs
//
//   - *TodoMetrics: The initialized metrics instance.
//
// # Examples
//
//	reg := observability.NewRegistry()
//	m := observability.NewTodoMetrics(reg, store.Len)
//	router.GET("/metrics", gin.WrapH(observability.Handler(reg)))
//
// # Limitations
//
//   - Panics if called twice with the same registry (duplicate registration).
func NewTodoMetrics(reg prometheus.Registerer, storeSize func() int) *TodoMetrics {
	factory := promauto.With(reg)

	m := &TodoMetrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: todoSubsystem,
				Name:      "operations_total",
				Help:      "Total todo operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
	}

	if storeSize != nil {
		m.StoreItems = factory.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: todoSubsystem,
				Name:      "store_items",
				Help:      "Number of todos currently stored",
			},
			func() float64 { return float64(storeSize()) },
		)
	}

	return m
}

// Handler serves the metrics gathered from g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// =============================================================================
// Operations and Outcomes
// =============================================================================

// Operation names a todo handler operation for metrics labeling.
type Operation string

const (
	OperationList   Operation = "list"
	OperationCreate Operation = "create"
	OperationGet    Operation = "get"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Outcome categorizes the result of an operation.
type Outcome string

const (
	// OutcomeSuccess indicates the operation completed.
	OutcomeSuccess Outcome = "success"

	// OutcomeConflict indicates a duplicate title was rejected.
	OutcomeConflict Outcome = "conflict"

	// OutcomeNotFound indicates the id did not match any todo.
	OutcomeNotFound Outcome = "not_found"

	// OutcomeInvalid indicates the request body was malformed or incomplete.
	OutcomeInvalid Outcome = "invalid"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordOperation increments the operation counter. Safe on a nil receiver.
//
// # Inputs
//
//   - op: The operation performed.
//   - outcome: How it ended.
func (m *TodoMetrics) RecordOperation(op Operation, outcome Outcome) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(string(op), string(outcome)).Inc()
}
