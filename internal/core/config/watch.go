package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	debounceInterval = 500 * time.Millisecond
	reloadAttempts   = 3
	reloadRetryDelay = 100 * time.Millisecond
	rewatchDelay     = 100 * time.Millisecond
)

// SettingsWatcher reloads a settings file into a Store whenever it changes.
type SettingsWatcher struct {
	path     string
	store    *Store
	debounce time.Duration
	log      *slog.Logger
}

// NewSettingsWatcher creates a watcher for path.
func NewSettingsWatcher(path string, store *Store) *SettingsWatcher {
	return &SettingsWatcher{
		path:     path,
		store:    store,
		debounce: debounceInterval,
		log:      slog.Default().With("component", "settings-watcher"),
	}
}

// Run watches the file until ctx is done.
func (w *SettingsWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
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
			if event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}

			// Editors that save atomically replace the file, which drops the watch.
			if event.Op&fsnotify.Rename == fsnotify.Rename || event.Op&fsnotify.Remove == fsnotify.Remove {
				go func() {
					time.Sleep(rewatchDelay)
					if err := watcher.Add(w.path); err != nil {
						w.log.Warn("Failed to re-add settings watch", "path", w.path, "error", err)
					}
				}()
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Settings watcher error", "error", err)
		}
	}
}

func (w *SettingsWatcher) reload() {
	var next Settings
	var err error
	for i := 0; i < reloadAttempts; i++ {
		if i > 0 {
			time.Sleep(reloadRetryDelay)
		}
		next, err = LoadSettings(w.path, w.store.Get())
		if err == nil {
			break
		}
		w.log.Debug("Settings reload failed", "attempt", i+1, "error", err)
	}
	if err != nil {
		w.log.Warn("Keeping previous settings", "error", err)
		return
	}

	if err := w.store.Set(next); err != nil {
		w.log.Warn("Rejected settings", "error", err)
		return
	}
	w.log.Info("Settings reloaded",
		"enabled", next.Enabled,
		"number_bound", next.NumberBound,
		"score_bound", next.ScoreBound,
	)
}
