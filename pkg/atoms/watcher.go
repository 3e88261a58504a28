package atoms

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ReloadCallback is called with the fresh registry snapshot after the catalog
// directory changed and was reloaded.
type ReloadCallback func(registry *Registry)

// Watcher monitors the atoms catalog directory and rebuilds the registry
// snapshot when catalog files change. In-flight validation/execution pairs
// keep the snapshot they were handed; only new work sees the reload.
type Watcher struct {
	loader   *Loader
	watcher  *fsnotify.Watcher
	onReload ReloadCallback
	logger   zerolog.Logger
	debounce time.Duration
	timerMu  sync.Mutex
	timer    *time.Timer
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher over the loader's catalog directory.
func NewWatcher(loader *Loader, onReload ReloadCallback, logger zerolog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &Watcher{
		loader:   loader,
		watcher:  fsWatcher,
		onReload: onReload,
		logger:   logger.With().Str("component", "atoms-watcher").Logger(),
		debounce: 200 * time.Millisecond,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching the catalog directory.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.loader.dir); err != nil {
		return fmt.Errorf("failed to watch atoms directory: %w", err)
	}
	go w.eventLoop()
	w.logger.Info().Str("dir", w.loader.dir).Msg("Atoms watcher started")
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.done)
	})
	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timerMu.Unlock()
	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")

		case <-w.done:
			return
		}
	}
}

// scheduleReload debounces bursts of catalog writes into one reload.
func (w *Watcher) scheduleReload() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.done:
			return
		default:
		}
		registry, err := w.loader.Load()
		if err != nil {
			w.logger.Error().Err(err).Msg("Failed to reload atoms registry")
			return
		}
		w.logger.Info().Int("atoms", registry.Len()).Msg("Atoms registry reloaded")
		if w.onReload != nil {
			w.onReload(registry)
		}
	})
}
