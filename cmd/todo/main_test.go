// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/AleutianAI/AleutianTodo/services/todo"
	"github.com/AleutianAI/AleutianTodo/services/todo/config"
	"github.com/AleutianAI/AleutianTodo/services/todo/datatypes"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// runCLI executes the CLI in JSON mode against server.
func runCLI(t *testing.T, server string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--server", server, "--json"}, args...)
	code := execute(full, &out, &errOut)
	return code, out.String(), errOut.String()
}

func startServer(t *testing.T) string {
	t.Helper()
	settings := config.Default()
	settings.Server.GinMode = gin.TestMode
	svc, err := todo.New(todo.Config{Settings: settings})
	require.NoError(t, err)
	srv := httptest.NewServer(svc.Router())
	t.Cleanup(srv.Close)
	return srv.URL
}

func decodeTodo(t *testing.T, out string) datatypes.Todo {
	t.Helper()
	var resp datatypes.SingleTodoResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp.Data.Data
}

// =============================================================================
// Client Command Tests
// =============================================================================

func TestCLI_TodoLifecycle(t *testing.T) {
	server := startServer(t)

	code, out, errOut := runCLI(t, server, "create", "Buy milk", "--content", "2 litres")
	require.Equal(t, 0, code, errOut)
	created := decodeTodo(t, out)
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, "2 litres", created.Content)

	code, out, _ = runCLI(t, server, "list")
	require.Equal(t, 0, code)
	var list datatypes.TodoListResponse
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Equal(t, 1, list.Results)

	code, out, _ = runCLI(t, server, "edit", created.ID, "--done", "--title", "Buy oat milk")
	require.Equal(t, 0, code)
	edited := decodeTodo(t, out)
	assert.True(t, edited.Completed)
	assert.Equal(t, "Buy oat milk", edited.Title)
	assert.Equal(t, "2 litres", edited.Content)

	code, out, _ = runCLI(t, server, "edit", created.ID, "--undone")
	require.Equal(t, 0, code)
	assert.False(t, decodeTodo(t, out).Completed)

	code, out, _ = runCLI(t, server, "get", created.ID)
	require.Equal(t, 0, code)
	assert.Equal(t, created.ID, decodeTodo(t, out).ID)

	code, out, _ = runCLI(t, server, "delete", created.ID)
	require.Equal(t, 0, code)
	assert.JSONEq(t, `{"status":"success","message":"Deleted `+created.ID+`"}`, out)

	code, _, errOut = runCLI(t, server, "delete", created.ID)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not found")
}

func TestCLI_CreateConflict(t *testing.T) {
	server := startServer(t)

	code, _, _ := runCLI(t, server, "create", "dup")
	require.Equal(t, 0, code)

	code, _, errOut := runCLI(t, server, "create", "dup")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Title already exists")
}

func TestCLI_Health(t *testing.T) {
	server := startServer(t)

	code, out, _ := runCLI(t, server, "health")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "success")
}

func TestCLI_UsageErrors(t *testing.T) {
	server := startServer(t)

	tests := []struct {
		name string
		args []string
	}{
		{"edit without changes", []string{"edit", "abc"}},
		{"edit done and undone", []string{"edit", "abc", "--done", "--undone"}},
		{"create without title", []string{"create"}},
		{"unknown command", []string{"frobnicate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCLI(t, server, tt.args...)
			assert.Equal(t, 1, code)
			assert.Empty(t, out)
			assert.NotEmpty(t, errOut)
		})
	}
}

func TestCLI_UnreachableServer(t *testing.T) {
	code, _, errOut := runCLI(t, "http://127.0.0.1:1", "health")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "http request")
}

func TestCLI_Version(t *testing.T) {
	code, out, _ := runCLI(t, "http://unused", "version")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "todo "+version)
}

// =============================================================================
// Server Command Tests
// =============================================================================

func TestCLI_ConfigInitAndCheck(t *testing.T) {
	for _, key := range []string{"TODO_PORT", "TODO_LOG_LEVEL", "OTEL_TRACES_EXPORTER", "OTEL_METRICS_EXPORTER", "GIN_MODE"} {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "todo.yaml")

	code, _, errOut := runCLI(t, "http://unused", "config", "init", path)
	require.Equal(t, 0, code, errOut)
	_, err := os.Stat(path)
	require.NoError(t, err)

	code, _, _ = runCLI(t, "http://unused", "config", "init", path)
	assert.Equal(t, 1, code, "init must not overwrite")

	code, out, _ := runCLI(t, "http://unused", "config", "check", path)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Config is valid")

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: shout\n"), 0644))
	code, _, errOut = runCLI(t, "http://unused", "config", "check", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "logging.level")
}

func TestCLI_ServeFailsOnBadConfig(t *testing.T) {
	code, _, errOut := runCLI(t, "http://unused", "serve", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "load config")
}
