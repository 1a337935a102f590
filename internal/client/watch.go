package client

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// overrideReloadDebounce lets editors and atomic renames settle before the
// override file is re-read.
const overrideReloadDebounce = 150 * time.Millisecond

// WatchOverride watches the override file at path and reinitializes h when
// its resolved endpoint changes. The parent directory is watched so atomic
// replace-by-rename is seen. It blocks until ctx is done.
func WatchOverride(ctx context.Context, path string, h *Holder) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	log.Debugf("watching %s for endpoint changes", path)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(overrideReloadDebounce)
			} else {
				timer.Reset(overrideReloadDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			reloadIfChanged(h)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warnf("override watcher: %v", err)
		}
	}
}

func reloadIfChanged(h *Holder) {
	ep := h.ResolveConfig()
	cur := h.Current()
	if cur != nil && !cur.IsPlaceholder() && cur.URL() == ep.URL && cur.Key() == ep.Key {
		return
	}
	h.Reinitialize()
}
