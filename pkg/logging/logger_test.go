// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Level Tests
// =============================================================================

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
		{Level(-1), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.level.String())
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{" info ", LevelInfo, false},
		{"", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"Warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
		{"trace", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevel_toSlogLevel_UnknownIsInfo(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, Level(42).toSlogLevel())
}

// =============================================================================
// Console Output Tests
// =============================================================================

func TestNew_TextConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Service: "todo", Output: &buf})
	defer logger.Close()

	logger.Debug("hidden")
	logger.Info("todo created", "id", "abc")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=\"todo created\"")
	assert.Contains(t, out, "id=abc")
	assert.Contains(t, out, "service=todo")
}

func TestNew_JSONConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, JSON: true, Service: "todo", Output: &buf})

	logger.Warn("slow request", "latency_ms", 250)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "slow request", entry["msg"])
	assert.Equal(t, "todo", entry["service"])
	assert.EqualValues(t, 250, entry["latency_ms"])
}

func TestNew_QuietWithoutFileDiscards(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Quiet: true, Output: &buf})

	logger.Error("nobody hears this")
	assert.Empty(t, buf.String())
	assert.Empty(t, logger.FilePath())
}

func TestDefault(t *testing.T) {
	logger := Default()
	require.NotNil(t, logger)
	assert.Equal(t, LevelInfo, logger.Level())
	assert.NotNil(t, logger.Slog())
}

// =============================================================================
// Level Change Tests
// =============================================================================

func TestSetLevel_AppliesToDerivedLoggers(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Output: &buf})
	child := logger.With("request_id", "r-1")

	child.Info("before")
	assert.Empty(t, buf.String())

	logger.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, logger.Level())
	assert.Equal(t, LevelDebug, child.Level())

	child.Debug("after")
	assert.Contains(t, buf.String(), "msg=after")
	assert.Contains(t, buf.String(), "request_id=r-1")

	buf.Reset()
	child.SetLevel(LevelError)
	logger.Warn("suppressed")
	assert.Empty(t, buf.String())
}

func TestSetDefault_RoutesPackageSlog(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Output: &buf, Service: "todo"})
	logger.SetDefault()

	slog.Info("via default")
	assert.Contains(t, buf.String(), "msg=\"via default\"")
	assert.Contains(t, buf.String(), "service=todo")
}

// =============================================================================
// File Output Tests
// =============================================================================

func readJSONLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())
	return entries
}

func TestNew_FileLogging(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  filepath.Join(dir, "nested", "logs"),
		Service: "todo",
		Output:  &console,
	})

	wantName := "todo_" + time.Now().Format("2006-01-02") + ".log"
	assert.Equal(t, wantName, filepath.Base(logger.FilePath()))

	logger.Info("written twice", "n", 1)
	logger.SetLevel(LevelError)
	logger.Warn("filtered everywhere")
	require.NoError(t, logger.Close())

	assert.Contains(t, console.String(), "written twice")
	assert.NotContains(t, console.String(), "filtered everywhere")

	entries := readJSONLines(t, logger.FilePath())
	require.Len(t, entries, 1)
	assert.Equal(t, "written twice", entries[0]["msg"])
	assert.Equal(t, "todo", entries[0]["service"])
}

func TestNew_FileLoggingDefaultServiceName(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Quiet: true})
	defer logger.Close()

	assert.True(t, strings.HasPrefix(filepath.Base(logger.FilePath()), "aleutian-todo_"))
}

func TestNew_UnwritableLogDirFallsBackToConsole(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	var buf bytes.Buffer
	logger := New(Config{LogDir: filepath.Join(blocker, "logs"), Output: &buf})
	defer logger.Close()

	assert.Empty(t, logger.FilePath())
	logger.Info("still works")
	assert.Contains(t, buf.String(), "still works")
}

func TestClose_Idempotent(t *testing.T) {
	logger := New(Config{LogDir: t.TempDir(), Quiet: true})
	child := logger.With("component", "test")
	assert.NoError(t, logger.Close())
	assert.NoError(t, logger.Close())
	assert.NoError(t, child.Close())

	assert.NoError(t, New(Config{Quiet: true}).Close())
}

func TestLogger_ConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{LogDir: dir, Quiet: true, Service: "todo"})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.With("worker", n).Info("tick")
		}(i)
	}
	wg.Wait()
	require.NoError(t, logger.Close())

	assert.Len(t, readJSONLines(t, logger.FilePath()), 20)
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".aleutian", "logs"), expandPath("~/.aleutian/logs"))
	assert.Equal(t, "/var/log", expandPath("/var/log"))
	assert.Equal(t, "", expandPath(""))
}

func TestMultiHandler_WithGroup(t *testing.T) {
	var a, b bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	}}

	slog.New(h.WithGroup("req")).Info("x", "id", "1")

	for _, buf := range []*bytes.Buffer{&a, &b} {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		group, ok := entry["req"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "1", group["id"])
	}
}
