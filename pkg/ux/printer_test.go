// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianTodo/services/todo/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTodo(completed bool) datatypes.Todo {
	ts := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	return datatypes.Todo{
		ID:        "7f1c",
		Title:     "Buy milk",
		Content:   "2 litres",
		Completed: completed,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func newTestPrinter(mode Mode) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewPrinter(&out, &errOut, mode), &out, &errOut
}

// =============================================================================
// Mode Tests
// =============================================================================

func TestDetectMode(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, ModeJSON, DetectMode(f, false), "regular files are not terminals")
	assert.Equal(t, ModeJSON, DetectMode(f, true))
	assert.Equal(t, ModeJSON, DetectMode(nil, false))
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "styled", ModeStyled.String())
	assert.Equal(t, "json", ModeJSON.String())
}

func TestIcon_Render(t *testing.T) {
	for _, icon := range []Icon{IconSuccess, IconWarning, IconError, IconPending, IconArrow} {
		assert.Contains(t, icon.Render(), string(icon))
	}
}

// =============================================================================
// JSON Mode Tests
// =============================================================================

func TestPrinter_JSON_Todo(t *testing.T) {
	p, out, _ := newTestPrinter(ModeJSON)

	require.NoError(t, p.Todo(sampleTodo(false)))

	var resp datatypes.SingleTodoResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, datatypes.StatusSuccess, resp.Status)
	assert.Equal(t, "Buy milk", resp.Data.Data.Title)
}

func TestPrinter_JSON_Todos(t *testing.T) {
	p, out, _ := newTestPrinter(ModeJSON)

	require.NoError(t, p.Todos(nil))
	assert.JSONEq(t, `{"status":"success","results":0,"todos":[]}`, out.String())
}

func TestPrinter_JSON_SuccessAndError(t *testing.T) {
	p, out, errOut := newTestPrinter(ModeJSON)

	require.NoError(t, p.Success("Deleted 7f1c"))
	assert.JSONEq(t, `{"status":"success","message":"Deleted 7f1c"}`, out.String())

	p.Error(errors.New("todo api: 404: Todo not found"))
	assert.JSONEq(t, `{"status":"error","message":"todo api: 404: Todo not found"}`, errOut.String())
}

// =============================================================================
// Styled Mode Tests
// =============================================================================

func TestPrinter_Styled_Todo(t *testing.T) {
	p, out, _ := newTestPrinter(ModeStyled)

	require.NoError(t, p.Todo(sampleTodo(true)))

	text := out.String()
	assert.Contains(t, text, "Buy milk")
	assert.Contains(t, text, "2 litres")
	assert.Contains(t, text, "7f1c")
	assert.Contains(t, text, "2025-03-01T09:30:00Z")
	assert.Contains(t, text, string(IconSuccess))
}

func TestPrinter_Styled_Todos(t *testing.T) {
	p, out, _ := newTestPrinter(ModeStyled)

	require.NoError(t, p.Todos([]datatypes.Todo{sampleTodo(false), sampleTodo(true)}))
	text := out.String()
	assert.Contains(t, text, string(IconPending))
	assert.Contains(t, text, string(IconSuccess))
	assert.Contains(t, text, "2 shown")

	out.Reset()
	require.NoError(t, p.Todos(nil))
	assert.Contains(t, out.String(), "No todos")
}

func TestPrinter_Styled_Error(t *testing.T) {
	p, out, errOut := newTestPrinter(ModeStyled)

	p.Error(errors.New("boom"))
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "boom")
}
