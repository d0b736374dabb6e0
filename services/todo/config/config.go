// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the todo service configuration.
//
// Values are resolved in three layers, later layers winning:
//
//  1. Default()
//  2. An optional YAML file
//  3. Environment variables
//
// The result is checked with Validate before it is returned from Load.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/AleutianAI/AleutianTodo/pkg/logging"
	"github.com/AleutianAI/AleutianTodo/services/todo/telemetry"
	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation and environment parse failure.
var ErrInvalidConfig = errors.New("invalid config")

// =============================================================================
// Types
// =============================================================================

// Config is the complete todo service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	// Port to listen on. 0 means the default, 8000.
	Port int `yaml:"port"`

	// BasePath is the prefix for API routes.
	BasePath string `yaml:"base_path"`

	// GinMode is "debug", "release" or "test".
	GinMode string `yaml:"gin_mode"`

	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig mirrors logging.Config in file form.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`

	// Dir enables file logging when non-empty. Supports ~.
	Dir string `yaml:"dir"`
}

// TelemetryConfig selects OpenTelemetry exporters.
type TelemetryConfig struct {
	TraceExporter  string `yaml:"trace_exporter"`
	MetricExporter string `yaml:"metric_exporter"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	Environment    string `yaml:"environment"`
}

// RateLimitConfig configures the API token bucket. RPS <= 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// =============================================================================
// Defaults
// =============================================================================

// Default returns the built-in configuration.
//
// The service listens on :8000 under /api, logs text at info level, exports
// metrics to Prometheus and does not export traces.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:              8000,
			BasePath:          "/api",
			GinMode:           gin.ReleaseMode,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  telemetry.ExporterNone,
			MetricExporter: telemetry.ExporterPrometheus,
			OTLPEndpoint:   "localhost:4317",
			OTLPInsecure:   true,
			Environment:    "development",
		},
		RateLimit: RateLimitConfig{
			RPS:   0,
			Burst: 20,
		},
	}
}

// =============================================================================
// Loading
// =============================================================================

// Load resolves the configuration.
//
// # Inputs
//
//   - path: YAML file to read. Empty skips the file layer.
//
// # Outputs
//
//   - Config: Validated configuration.
//   - error: Read/parse failures, or ErrInvalidConfig.
//
// # Examples
//
//	cfg, err := config.Load("todo.yaml")
//	if err != nil {
//	    return fmt.Errorf("load config: %w", err)
//	}
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read the config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse the config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WriteDefault writes Default() as YAML to path, creating parent directories.
// An existing file is left untouched and os.ErrExist is returned.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s: %w", path, os.ErrExist)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) error {
	var errs []error

	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, v))
				return
			}
			*dst = n
		}
	}
	setBool := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, key, v))
				return
			}
			*dst = b
		}
	}
	setFloat := func(key string, dst *float64) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, key, v))
				return
			}
			*dst = f
		}
	}

	setInt("TODO_PORT", &cfg.Server.Port)
	setString("TODO_BASE_PATH", &cfg.Server.BasePath)
	setString("GIN_MODE", &cfg.Server.GinMode)

	setString("TODO_LOG_LEVEL", &cfg.Logging.Level)
	setBool("TODO_LOG_JSON", &cfg.Logging.JSON)
	setString("TODO_LOG_DIR", &cfg.Logging.Dir)

	setString("OTEL_TRACES_EXPORTER", &cfg.Telemetry.TraceExporter)
	setString("OTEL_METRICS_EXPORTER", &cfg.Telemetry.MetricExporter)
	setString("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.Telemetry.OTLPEndpoint)
	setString("ALEUTIAN_ENV", &cfg.Telemetry.Environment)

	setFloat("TODO_RATE_LIMIT_RPS", &cfg.RateLimit.RPS)
	setInt("TODO_RATE_LIMIT_BURST", &cfg.RateLimit.Burst)

	return errors.Join(errs...)
}

// =============================================================================
// Validation
// =============================================================================

// Validate reports every invalid field, each wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		invalid("server.port %d out of range", c.Server.Port)
	}
	switch c.Server.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		invalid("server.gin_mode %q", c.Server.GinMode)
	}
	for name, d := range map[string]time.Duration{
		"read_header_timeout": c.Server.ReadHeaderTimeout,
		"read_timeout":        c.Server.ReadTimeout,
		"write_timeout":       c.Server.WriteTimeout,
		"idle_timeout":        c.Server.IdleTimeout,
		"shutdown_timeout":    c.Server.ShutdownTimeout,
	} {
		if d < 0 {
			invalid("server.%s must not be negative", name)
		}
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		invalid("logging.level %q", c.Logging.Level)
	}

	if !telemetry.ValidTraceExporter(c.Telemetry.TraceExporter) {
		invalid("telemetry.trace_exporter %q", c.Telemetry.TraceExporter)
	}
	if !telemetry.ValidMetricExporter(c.Telemetry.MetricExporter) {
		invalid("telemetry.metric_exporter %q", c.Telemetry.MetricExporter)
	}

	if c.RateLimit.RPS < 0 {
		invalid("rate_limit.rps must not be negative")
	}
	if c.RateLimit.Burst < 0 {
		invalid("rate_limit.burst must not be negative")
	}

	return errors.Join(errs...)
}

// Addr returns the listen address for http.Server.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}

// LogLevel returns the parsed logging level, Info if unparsable.
func (c Config) LogLevel() logging.Level {
	lvl, _ := logging.ParseLevel(c.Logging.Level)
	return lvl
}

// ToTelemetry converts the file form into a telemetry.Config.
func (c Config) ToTelemetry(serviceName, version string) telemetry.Config {
	return telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    c.Telemetry.Environment,
		TraceExporter:  c.Telemetry.TraceExporter,
		MetricExporter: c.Telemetry.MetricExporter,
		OTLPEndpoint:   c.Telemetry.OTLPEndpoint,
		OTLPInsecure:   c.Telemetry.OTLPInsecure,
	}
}
