// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalogue

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ManuGH/camrelay/internal/log"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultDebounce = 300 * time.Millisecond

// Watcher reloads a Store whenever its dictionary file changes. A dictionary
// that fails to parse is logged and ignored; the last good catalogue stays active.
type Watcher struct {
	path     string
	store    *Store
	debounce time.Duration
	logger   zerolog.Logger

	// reloaded is signalled after every reload attempt; used by tests.
	reloaded chan error
}

// NewWatcher creates a watcher for path feeding store.
func NewWatcher(path string, store *Store) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		store:    store,
		debounce: defaultDebounce,
		logger:   log.WithComponent("catalogue"),
	}
}

// Run watches until ctx is cancelled. The parent directory is watched rather
// than the file so editors that replace the file by rename are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify.NewWatcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	w.logger.Info().
		Str(log.FieldEvent, "catalogue.watcher_started").
		Str("path", w.path).
		Msg("watching path dictionary for changes")

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str(log.FieldEvent, "catalogue.watcher_stopped").Msg("path dictionary watcher stopped")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug().
				Str(log.FieldEvent, "catalogue.file_changed").
				Str("op", event.Op.String()).
				Msg("path dictionary changed")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			err := w.Reload()
			if w.reloaded != nil {
				select {
				case w.reloaded <- err:
				default:
				}
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Str(log.FieldEvent, "catalogue.watcher_error").Msg("path dictionary watcher error")
		}
	}
}

// Reload reads the dictionary once and swaps it into the store on success.
func (w *Watcher) Reload() error {
	c, err := LoadFile(w.path)
	if err != nil {
		w.logger.Warn().
			Err(err).
			Str(log.FieldEvent, "catalogue.reload_failed").
			Msg("keeping previous catalogue")
		return err
	}
	if err := w.store.Replace(c); err != nil {
		return err
	}
	w.logger.Info().
		Str(log.FieldEvent, "catalogue.reloaded").
		Int("templates", len(c)).
		Msg("path catalogue reloaded")
	return nil
}
