// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package todo wires the todo API service together.
//
// It owns construction order and lifecycle: telemetry first, then the store
// and its metrics, then the Gin router. Run serves HTTP until the context is
// canceled and then shuts down gracefully.
//
// # Usage
//
//	settings, err := config.Load("todo.yaml")
//	if err != nil {
//	    return err
//	}
//	svc, err := todo.New(todo.Config{Settings: settings, Version: version})
//	if err != nil {
//	    return err
//	}
//	return svc.Run(ctx)
package todo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/AleutianAI/AleutianTodo/services/todo/config"
	"github.com/AleutianAI/AleutianTodo/services/todo/handlers"
	"github.com/AleutianAI/AleutianTodo/services/todo/middleware"
	"github.com/AleutianAI/AleutianTodo/services/todo/observability"
	"github.com/AleutianAI/AleutianTodo/services/todo/routes"
	"github.com/AleutianAI/AleutianTodo/services/todo/store"
	"github.com/AleutianAI/AleutianTodo/services/todo/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

// ServiceName identifies the service in traces, metrics and logs.
const ServiceName = "aleutian-todo"

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the lifecycle of the todo API.
//
// # Thread Safety
//
// Router and State are safe to call at any time. Run blocks and must be
// called at most once.
type Service interface {
	// Run serves HTTP until ctx is canceled or the listener fails.
	//
	// # Description
	//
	// On cancellation the server stops accepting connections and waits up
	// to Settings.Server.ShutdownTimeout for in-flight requests. Telemetry
	// is flushed before Run returns.
	//
	// # Outputs
	//
	//   - error: nil after a clean shutdown, otherwise the listen or
	//     shutdown error.
	Run(ctx context.Context) error

	// Router returns the configured Gin engine for in-process testing.
	Router() *gin.Engine

	// State returns the shared handler state, including the store.
	State() *handlers.AppState
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds everything New needs.
//
// # Examples
//
//	// All defaults
//	cfg := Config{}
//
//	// Loaded settings on a pre-bound listener
//	cfg := Config{Settings: settings, Listener: ln}
type Config struct {
	// Settings is the file/env configuration. Zero fields take the values
	// from config.Default().
	Settings config.Config

	// Version is reported as the OTel service.version. Default: "dev"
	Version string

	// Listener, when set, is served instead of binding Settings.Server.Port.
	Listener net.Listener
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service.
//
// # Fields
//
//   - config: Configuration with defaults applied
//   - router: Gin engine with all middleware and routes
//   - state: Store and Prometheus counters shared by handlers
//   - registry: Per-instance Prometheus registry served at /metrics
//   - telemetryShutdown: Flushes OTel providers
type service struct {
	config            Config
	router            *gin.Engine
	state             *handlers.AppState
	registry          *prometheus.Registry
	telemetryShutdown func(context.Context) error
}

var _ Service = (*service)(nil)

// New builds a ready-to-run Service.
//
// # Description
//
// Initialization order:
//  1. Apply defaults to cfg
//  2. Start OpenTelemetry with the OTel Prometheus exporter writing into
//     the service's own registry
//  3. Create OTel instruments and the store, observing lock waits
//  4. Create Prometheus operation counters
//  5. Build the Gin router
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults.
//
// # Outputs
//
//   - Service: Ready to Run
//   - error: Telemetry or instrument setup failure
func New(cfg Config) (Service, error) {
	s := &service{
		config:   applyConfigDefaults(cfg),
		registry: observability.NewRegistry(),
	}
	settings := s.config.Settings

	tcfg := settings.ToTelemetry(ServiceName, s.config.Version)
	tcfg.Registerer = s.registry
	shutdown, err := telemetry.Init(context.Background(), tcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	s.telemetryShutdown = shutdown

	meter := otel.Meter("aleutian.todo")
	otelMetrics, err := telemetry.NewMetrics(meter)
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to create OTel metrics: %w", err)
	}

	st := store.New(store.WithLockObserver(otelMetrics))

	todoMetrics := observability.NewTodoMetrics(s.registry, st.Len)
	s.state = handlers.NewAppState(st, todoMetrics)

	s.initRouter(otelMetrics)

	slog.Info("Todo service initialized",
		"base_path", settings.Server.BasePath,
		"trace_exporter", settings.Telemetry.TraceExporter,
		"metric_exporter", settings.Telemetry.MetricExporter,
		"rate_limit_rps", settings.RateLimit.RPS,
	)
	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until ctx is canceled.
func (s *service) Run(ctx context.Context) error {
	defer s.cleanup()

	server := s.config.Settings.Server
	srv := &http.Server{
		Addr:              s.config.Settings.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: server.ReadHeaderTimeout,
		ReadTimeout:       server.ReadTimeout,
		WriteTimeout:      server.WriteTimeout,
		IdleTimeout:       server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if ln := s.config.Listener; ln != nil {
			slog.Info("Starting todo server", "addr", ln.Addr().String())
			err = srv.Serve(ln)
		} else {
			slog.Info("Starting todo server", "port", server.Port)
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
		defer cancel()

		slog.Info("Shutting down todo server", "timeout", server.ShutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Router returns the underlying Gin engine.
func (s *service) Router() *gin.Engine {
	return s.router
}

// State returns the shared handler state.
func (s *service) State() *handlers.AppState {
	return s.state
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills zero-valued fields from config.Default().
func applyConfigDefaults(cfg Config) Config {
	def := config.Default()
	srv := &cfg.Settings.Server

	if srv.Port == 0 {
		srv.Port = def.Server.Port
	}
	if srv.BasePath == "" {
		srv.BasePath = def.Server.BasePath
	}
	if srv.GinMode == "" {
		srv.GinMode = def.Server.GinMode
	}
	if srv.ReadHeaderTimeout == 0 {
		srv.ReadHeaderTimeout = def.Server.ReadHeaderTimeout
	}
	if srv.ReadTimeout == 0 {
		srv.ReadTimeout = def.Server.ReadTimeout
	}
	if srv.WriteTimeout == 0 {
		srv.WriteTimeout = def.Server.WriteTimeout
	}
	if srv.IdleTimeout == 0 {
		srv.IdleTimeout = def.Server.IdleTimeout
	}
	if srv.ShutdownTimeout == 0 {
		srv.ShutdownTimeout = def.Server.ShutdownTimeout
	}

	tel := &cfg.Settings.Telemetry
	if tel.TraceExporter == "" {
		tel.TraceExporter = def.Telemetry.TraceExporter
	}
	if tel.MetricExporter == "" {
		tel.MetricExporter = def.Telemetry.MetricExporter
	}
	if tel.OTLPEndpoint == "" {
		tel.OTLPEndpoint = def.Telemetry.OTLPEndpoint
	}
	if tel.Environment == "" {
		tel.Environment = def.Telemetry.Environment
	}

	if cfg.Settings.Logging.Level == "" {
		cfg.Settings.Logging.Level = def.Logging.Level
	}
	if cfg.Settings.RateLimit.Burst == 0 {
		cfg.Settings.RateLimit.Burst = def.RateLimit.Burst
	}

	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	return cfg
}

// initRouter builds the Gin engine.
//
// Global middleware order: panic recovery, request id, tracing, HTTP
// metrics. Rate limiting applies to API routes only so /metrics scrapes are
// never throttled.
func (s *service) initRouter(otelMetrics *telemetry.Metrics) {
	settings := s.config.Settings
	gin.SetMode(settings.Server.GinMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		otelgin.Middleware(ServiceName),
		telemetry.GinMetricsMiddleware(otelMetrics),
	)

	routes.SetupRoutes(router, handlers.NewHandlers(s.state), routes.Options{
		BasePath:       settings.Server.BasePath,
		MetricsHandler: observability.Handler(s.registry),
		APIMiddleware: []gin.HandlerFunc{
			middleware.RateLimit(settings.RateLimit.RPS, settings.RateLimit.Burst),
		},
	})

	s.router = router
}

// cleanup flushes telemetry within a bounded time.
func (s *service) cleanup() {
	if s.telemetryShutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.telemetryShutdown(ctx); err != nil {
		slog.Error("failed to shutdown telemetry", "error", err)
	}
	s.telemetryShutdown = nil
}
