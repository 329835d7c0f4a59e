// Package watcher reloads a catalog.Registry when catalog files change on
// disk.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/lifei6671/catalog"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher reloads every catalog under a directory after files in it change.
// Bursts of events, as editors produce on save, are folded into one reload.
type Watcher struct {
	registry *catalog.Registry
	dir      string
	debounce time.Duration
	logger   zerolog.Logger
	onReload func(error)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the directory must stay quiet before a reload.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithLogger sets the logger, tagged with sys=watcher. The default discards.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Watcher) {
		w.logger = l.With().Str("sys", "watcher").Logger()
	}
}

// OnReload registers a callback run after each reload with its result.
func OnReload(fn func(error)) Option {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// New returns a Watcher that reloads reg from dir. Nothing happens until Run.
func New(reg *catalog.Registry, dir string, opts ...Option) *Watcher {
	w := &Watcher{
		registry: reg,
		dir:      dir,
		debounce: defaultDebounce,
		logger:   zerolog.Nop(),
		onReload: func(error) {},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is done. It does not load the directory up front;
// call Registry.LoadDir first.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	err = filepath.WalkDir(w.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.logger.Info().Str("dir", w.dir).Msg("Watching catalogs")

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

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := fw.Add(ev.Name); err != nil {
						w.logger.Warn().Err(err).Str("dir", ev.Name).Msg("Failed to watch new directory")
					}
					continue
				}
			}
			if !isCatalogFile(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			w.logger.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("Catalog changed")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("Watcher error")

		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	err := w.registry.LoadDir(os.DirFS(w.dir))
	if err != nil {
		w.logger.Error().Err(err).Str("dir", w.dir).Msg("Reload failed, keeping previous catalogs")
	} else {
		w.logger.Info().Strs("locales", w.registry.Locales()).Msg("Reloaded catalogs")
	}
	w.onReload(err)
}

func isCatalogFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ftl", ".yaml", ".yml":
		return true
	}
	return false
}
