// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadDebounce is how long Watch waits after the last file event before
// reloading. Editors often emit several events for one save.
const ReloadDebounce = 100 * time.Millisecond

// Watch reloads the config file whenever it changes and passes each valid
// result to onChange.
//
// # Description
//
// The parent directory is watched rather than the file itself so that
// editors which save by rename-and-replace keep triggering reloads. Events
// for other files in the directory are ignored. Bursts are debounced by
// ReloadDebounce. A reload that fails to load or validate is logged and the
// previous configuration stays in effect.
//
// # Inputs
//
//   - ctx: Watching stops when ctx is canceled.
//   - path: Config file to watch.
//   - onChange: Called from the watch goroutine with each new Config.
//
// # Outputs
//
//   - error: Non-nil only if the watcher could not be started. Returns nil
//     after ctx is canceled.
//
// # Examples
//
//	g.Go(func() error {
//	    return config.Watch(ctx, path, func(cfg config.Config) {
//	        logger.SetLevel(cfg.LogLevel())
//	    })
//	})
func Watch(ctx context.Context, path string, onChange func(Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	name := filepath.Base(abs)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name || event.Op == fsnotify.Chmod {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(ReloadDebounce)
			} else {
				timer.Reset(ReloadDebounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Config watcher error", "path", abs, "error", err)

		case <-fire:
			fire = nil
			cfg, err := Load(abs)
			if err != nil {
				slog.Warn("Config reload failed, keeping previous config",
					"path", abs,
					"error", err,
				)
				continue
			}
			slog.Info("Config reloaded", "path", abs, "log_level", cfg.Logging.Level)
			onChange(cfg)
		}
	}
}
