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
	"fmt"
	"io"
	"os"
	"time"

	"github.com/AleutianAI/AleutianTodo/pkg/todoclient"
	"github.com/AleutianAI/AleutianTodo/pkg/ux"
	"github.com/spf13/cobra"
)

// defaultServer is used when neither --server nor TODO_SERVER is set.
const defaultServer = "http://localhost:8000"

// app carries state shared by every subcommand.
type app struct {
	out    io.Writer
	errOut io.Writer

	// flags
	server    string
	forceJSON bool
	timeout   time.Duration

	// set in PersistentPreRunE
	client  *todoclient.Client
	printer *ux.Printer
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, out, errOut io.Writer) int {
	a := &app{out: out, errOut: errOut}
	root := a.rootCmd()
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		if a.printer != nil {
			a.printer.Error(err)
		} else {
			fmt.Fprintln(errOut, "Error:", err)
		}
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "todo",
		Short:         "Run and use the Aleutian todo API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.printer = ux.NewPrinter(a.out, a.errOut, a.detectMode())
			a.client = todoclient.New(a.server, todoclient.WithTimeout(a.timeout))
			return nil
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	server := os.Getenv("TODO_SERVER")
	if server == "" {
		server = defaultServer
	}
	root.PersistentFlags().StringVar(&a.server, "server", server, "todo API base URL (env TODO_SERVER)")
	root.PersistentFlags().BoolVar(&a.forceJSON, "json", false, "print JSON even on a terminal")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", todoclient.DefaultTimeout, "per-request timeout")

	root.AddCommand(
		a.serveCmd(),
		a.configCmd(),
		a.healthCmd(),
		a.listCmd(),
		a.createCmd(),
		a.getCmd(),
		a.editCmd(),
		a.deleteCmd(),
		a.versionCmd(),
	)
	return root
}

// detectMode picks styled output only when writing to a real terminal.
func (a *app) detectMode() ux.Mode {
	f, _ := a.out.(*os.File)
	return ux.DetectMode(f, a.forceJSON)
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printer.Success("todo " + version)
		},
	}
}
