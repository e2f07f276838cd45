package config

import (
	"path/filepath"
	"time"

	"sandboxd/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads configuration from disk when its file changes and applies
// the parts of it that are safe to change without a restart — currently
// only the logging section (internal/logging.SetConfig swaps the
// category and debug-mode toggles at runtime; the log level chosen by
// logging.Initialize is not changed by a reload). Pool
// sizing, the deny list, and server bind settings are captured once at
// construction time by their owning components and are not touched here.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WatchFile starts watching path for writes and reloading configuration on
// each settled change. Call Stop to shut it down.
func WatchFile(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    path,
		watcher: fsw,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.doneCh)
	debounce := time.NewTimer(time.Hour)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce.Reset(300 * time.Millisecond)
		case <-debounce.C:
			w.reload()
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		logging.Get(logging.CategoryBoot).Warn("config reload failed: %v", err)
		return
	}
	logging.SetConfig(logging.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		DebugMode:  cfg.Logging.DebugMode,
		Categories: cfg.Logging.Categories,
	})
	logging.Get(logging.CategoryBoot).Info("config reloaded, logging settings applied")
}

// Stop stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	w.watcher.Close()
}
