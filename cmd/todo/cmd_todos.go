// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"

	"github.com/AleutianAI/AleutianTodo/services/todo/datatypes"
	"github.com/spf13/cobra"
)

// --- Client commands ---

func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.client.Health(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer.Success(msg)
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List todos one page at a time",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			todos, err := a.client.List(cmd.Context(), page, limit)
			if err != nil {
				return err
			}
			return a.printer.Todos(todos)
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "page number, 1-based (server default 1)")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (server default 10)")
	return cmd
}

func (a *app) createCmd() *cobra.Command {
	var content string
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			todo, err := a.client.Create(cmd.Context(), args[0], content)
			if err != nil {
				return err
			}
			return a.printer.Todo(todo)
		},
	}
	cmd.Flags().StringVarP(&content, "content", "c", "", "todo body")
	return cmd
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			todo, err := a.client.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printer.Todo(todo)
		},
	}
}

func (a *app) editCmd() *cobra.Command {
	var (
		title, content string
		done, undone   bool
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a todo's title, content or completion",
		Long: `Only the flags you pass are sent. An empty --title or --content
leaves the stored value unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if done && undone {
				return errors.New("--done and --undone are mutually exclusive")
			}

			var patch datatypes.UpdateTodoRequest
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("content") {
				patch.Content = &content
			}
			if done || undone {
				completed := done
				patch.Completed = &completed
			}
			if patch.Title == nil && patch.Content == nil && patch.Completed == nil {
				return errors.New("nothing to change: pass --title, --content, --done or --undone")
			}

			todo, err := a.client.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return a.printer.Todo(todo)
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&content, "content", "c", "", "new content")
	cmd.Flags().BoolVar(&done, "done", false, "mark completed")
	cmd.Flags().BoolVar(&undone, "undone", false, "mark not completed")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.printer.Success("Deleted " + args[0])
		},
	}
}
