package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"go.trai.ch/assetpipe/internal/core/domain"
	"go.trai.ch/assetpipe/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultWindow is the debounce window applied to editor save bursts.
const DefaultWindow = 250 * time.Millisecond

// ApplyFunc installs a freshly loaded configuration.
type ApplyFunc func(domain.Config) error

// ConfigWatcher reloads one configuration file on change and hands the result
// to an ApplyFunc. A configuration that fails to load or apply is logged and
// the previous one stays in effect.
type ConfigWatcher struct {
	path    string
	loader  ports.ConfigLoader
	apply   ApplyFunc
	log     ports.Logger
	reloads *prometheus.CounterVec
	window  time.Duration
}

// New creates a watcher for path. reloads may be nil.
func New(
	path string,
	loader ports.ConfigLoader,
	apply ApplyFunc,
	log ports.Logger,
	reloads *prometheus.CounterVec,
) *ConfigWatcher {
	return &ConfigWatcher{
		path:    filepath.Clean(path),
		loader:  loader,
		apply:   apply,
		log:     log,
		reloads: reloads,
		window:  DefaultWindow,
	}
}

// SetWindow changes the debounce window. It must be called before Run.
func (w *ConfigWatcher) SetWindow(d time.Duration) {
	w.window = d
}

// Reload loads the file and applies it once.
func (w *ConfigWatcher) Reload() error {
	cfg, err := w.loader.Load(w.path)
	if err == nil {
		err = w.apply(cfg)
	}
	if err != nil {
		w.count("rejected")
		return zerr.With(zerr.Wrap(err, "config reload rejected"), "path", w.path)
	}
	w.count("applied")
	w.log.Info("configuration reloaded", "path", w.path)
	return nil
}

// Run watches the file until ctx is cancelled. The parent directory is
// watched so that editors replacing the file by rename are seen.
func (w *ConfigWatcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return zerr.Wrap(err, "failed to create file watcher")
	}
	defer func() { _ = fsw.Close() }()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to watch directory"), "dir", dir)
	}

	debouncer := NewDebouncer(w.window, func([]string) {
		if err := w.Reload(); err != nil {
			w.log.Error(err)
		}
	})
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debouncer.Add(event.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error(zerr.Wrap(err, "file watcher error"), "path", w.path)
		}
	}
}

func (w *ConfigWatcher) count(status string) {
	if w.reloads != nil {
		w.reloads.WithLabelValues(status).Inc()
	}
}
