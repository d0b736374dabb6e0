// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianTodo/services/todo/datatypes"
)

// Printer writes CLI results in the selected Mode.
//
// In ModeJSON, results use the same envelopes the API returns so scripts
// can treat CLI output and HTTP bodies alike. Errors always go to errOut.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
}

// NewPrinter creates a Printer.
func NewPrinter(out, errOut io.Writer, mode Mode) *Printer {
	return &Printer{out: out, errOut: errOut, mode: mode}
}

// Mode returns the printer's output mode.
func (p *Printer) Mode() Mode {
	return p.mode
}

// Todo prints a single todo.
func (p *Printer) Todo(t datatypes.Todo) error {
	if p.mode == ModeJSON {
		return p.writeJSON(datatypes.NewSingleTodoResponse(t))
	}

	var b strings.Builder
	b.WriteString(statusIcon(t).Render() + " " + Styles.Title.Render(t.Title) + "\n")
	if t.Content != "" {
		b.WriteString(t.Content + "\n")
	}
	b.WriteString("\n")
	b.WriteString(field("id", t.ID))
	b.WriteString(field("completed", fmt.Sprintf("%t", t.Completed)))
	b.WriteString(field("created", t.CreatedAt.Format(time.RFC3339)))
	b.WriteString(strings.TrimSuffix(field("updated", t.UpdatedAt.Format(time.RFC3339)), "\n"))

	_, err := fmt.Fprintln(p.out, Styles.Box.Render(b.String()))
	return err
}

// Todos prints a page of todos, one line each.
func (p *Printer) Todos(todos []datatypes.Todo) error {
	if p.mode == ModeJSON {
		return p.writeJSON(datatypes.NewTodoListResponse(todos))
	}

	if len(todos) == 0 {
		_, err := fmt.Fprintln(p.out, Styles.Muted.Render("No todos"))
		return err
	}
	for _, t := range todos {
		if _, err := fmt.Fprintf(p.out, "%s %s %s\n",
			statusIcon(t).Render(),
			Styles.Bold.Render(t.Title),
			Styles.Muted.Render(t.ID),
		); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(p.out, Styles.Muted.Render(fmt.Sprintf("%d shown", len(todos))))
	return err
}

// Success prints a confirmation message.
func (p *Printer) Success(msg string) error {
	if p.mode == ModeJSON {
		return p.writeJSON(datatypes.GenericResponse{Status: datatypes.StatusSuccess, Message: msg})
	}
	_, err := fmt.Fprintf(p.out, "%s %s\n", IconSuccess.Render(), Styles.Success.Render(msg))
	return err
}

// Error prints err to the error stream.
func (p *Printer) Error(err error) {
	if p.mode == ModeJSON {
		data, _ := json.Marshal(datatypes.GenericResponse{Status: datatypes.StatusError, Message: err.Error()})
		fmt.Fprintln(p.errOut, string(data))
		return
	}
	fmt.Fprintln(p.errOut, Styles.ErrorBox.Render(IconError.Render()+" "+err.Error()))
}

func (p *Printer) writeJSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusIcon(t datatypes.Todo) Icon {
	if t.Completed {
		return IconSuccess
	}
	return IconPending
}

func field(name, value string) string {
	return Styles.Muted.Render(fmt.Sprintf("%-10s", name)) + " " + value + "\n"
}
