// Package watcher turns filesystem activity in the configured library
// directories into FileFound events. Downloads and tag writes arrive as
// bursts of create/write events per file, so each path gets its own
// debounce window before an event is published.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sydlexius/calliope/internal/config"
	"github.com/sydlexius/calliope/internal/event"
)

const defaultDebounce = 2 * time.Second

// Watcher publishes FileFound events for audio files that appear or change
// under the configured paths.
type Watcher struct {
	paths      []string
	extensions map[string]bool
	debounce   time.Duration
	bus        *event.Bus
	logger     *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a Watcher from the watch configuration. An empty extension
// list accepts every file.
func New(cfg config.WatchConfig, bus *event.Bus, logger *slog.Logger) *Watcher {
	exts := make(map[string]bool, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		exts[strings.ToLower(e)] = true
	}
	debounce := time.Duration(cfg.DebounceMS) * time.Millisecond
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		paths:      cfg.Paths,
		extensions: exts,
		debounce:   debounce,
		bus:        bus,
		logger:     logger.With(slog.String("component", "watcher")),
		timers:     make(map[string]*time.Timer),
	}
}

// Start blocks until ctx is canceled, watching all configured paths
// recursively. Directories created while watching are picked up, including
// any audio files already inside them.
func (w *Watcher) Start(ctx context.Context) error {
	if len(w.paths) == 0 {
		return fmt.Errorf("no watch paths configured")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating filesystem watcher: %w", err)
	}
	defer fsw.Close() //nolint:errcheck
	defer w.stopTimers()

	for _, root := range w.paths {
		if !ProbeFSNotify(root, 2*time.Second) {
			w.logger.Warn("path may not deliver filesystem events", "path", root)
		}
		// Existing library content is not re-announced on startup; only
		// changes from here on produce events.
		if err := w.addRecursive(fsw, root, false); err != nil {
			w.logger.Warn("cannot watch path", "path", root, "error", err)
			continue
		}
		w.logger.Info("watching path", "path", root)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopping")
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, ev)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}

	if info.IsDir() {
		// A new album directory: watch it and pick up files that landed
		// before the watch was in place.
		if ev.Has(fsnotify.Create) {
			if err := w.addRecursive(fsw, ev.Name, true); err != nil {
				w.logger.Warn("cannot watch new directory", "path", ev.Name, "error", err)
			}
		}
		return
	}

	if !w.isAudio(ev.Name) {
		return
	}
	w.debounceFile(ev.Name)
}

// debounceFile schedules a FileFound event for the path, pushing the
// deadline back each time the file changes again.
func (w *Watcher) debounceFile(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		// The file may have been moved or deleted while settling.
		if _, err := os.Stat(path); err != nil {
			return
		}
		w.logger.Info("file settled", "path", path)
		w.bus.Publish(event.Event{
			Type: event.FileFound,
			Data: map[string]any{"path": path},
		})
	})
}

// addRecursive watches dir and every directory below it. With adoptFiles
// set, audio files already present are debounced as if freshly created,
// which closes the race between mkdir and the watch taking effect.
func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, dir string, adoptFiles bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		if adoptFiles && w.isAudio(path) {
			w.debounceFile(path)
		}
		return nil
	})
}

func (w *Watcher) isAudio(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	return w.extensions[strings.ToLower(filepath.Ext(path))]
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}
