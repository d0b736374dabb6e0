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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AleutianAI/AleutianTodo/pkg/logging"
	"github.com/AleutianAI/AleutianTodo/services/todo"
	"github.com/AleutianAI/AleutianTodo/services/todo/config"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// --- Server commands ---

func (a *app) serveCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the todo API server",
		Long: `Runs the HTTP server until SIGINT or SIGTERM.

Configuration comes from built-in defaults, then the optional --config
YAML file, then TODO_* / OTEL_* environment variables. When a config file
is given it is watched and log level changes apply without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runServe(ctx, configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", os.Getenv("TODO_CONFIG"), "YAML config file (env TODO_CONFIG)")
	return cmd
}

// runServe loads config, installs the logger and runs the service and
// config watcher until ctx ends.
func (a *app) runServe(ctx context.Context, configPath string) error {
	settings, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(logging.Config{
		Level:   settings.LogLevel(),
		LogDir:  settings.Logging.Dir,
		Service: todo.ServiceName,
		JSON:    settings.Logging.JSON,
		Output:  a.errOut,
	})
	defer logger.Close()
	logger.SetDefault()

	svc, err := todo.New(todo.Config{Settings: settings, Version: version})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.Run(gctx)
	})
	if configPath != "" {
		g.Go(func() error {
			return config.Watch(gctx, configPath, func(next config.Config) {
				if next.LogLevel() != logger.Level() {
					logger.Info("Log level changed", "from", logger.Level().String(), "to", next.LogLevel().String())
					logger.SetLevel(next.LogLevel())
				}
				if next.Server != settings.Server || next.Telemetry != settings.Telemetry {
					logger.Warn("Server and telemetry changes take effect after restart")
				}
			})
		})
	}
	return g.Wait()
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the server config file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init <path>",
		Short: "Write the default config to a new file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefault(args[0]); err != nil {
				return err
			}
			return a.printer.Success("Wrote " + args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check [path]",
		Short: "Validate a config file together with the environment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := config.Load(path); err != nil {
				return err
			}
			return a.printer.Success("Config is valid")
		},
	})
	return cmd
}
