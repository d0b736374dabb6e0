// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianTodo/services/todo/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var _ store.LockObserver = (*Metrics)(nil)

// newTestMetrics returns Metrics backed by a manual reader.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := NewMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return metrics, reader, mp
}

// collect gathers all metrics from reader keyed by instrument name.
func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestNewMetrics(t *testing.T) {
	metrics, _, _ := newTestMetrics(t)

	assert.NotNil(t, metrics.HTTPRequestsTotal)
	assert.NotNil(t, metrics.HTTPRequestDuration)
	assert.NotNil(t, metrics.HTTPActiveRequests)
	assert.NotNil(t, metrics.StoreLockWait)
}

func TestMetrics_ObserveLockWait(t *testing.T) {
	metrics, reader, _ := newTestMetrics(t)

	metrics.ObserveLockWait(store.OpInsert, 3*time.Millisecond)
	metrics.ObserveLockWait(store.OpInsert, time.Millisecond)

	got := collect(t, reader)
	m, ok := got["todo_store_lock_wait_seconds"]
	require.True(t, ok)

	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "unexpected data type %T", m.Data)
	require.Len(t, hist.DataPoints, 1)

	dp := hist.DataPoints[0]
	assert.Equal(t, uint64(2), dp.Count)
	op, ok := dp.Attributes.Value("operation")
	require.True(t, ok)
	assert.Equal(t, store.OpInsert, op.AsString())
}
