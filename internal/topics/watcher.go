package topics

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads c from path whenever the file changes, until ctx is
// cancelled. The parent directory is watched so editors that replace the
// file by rename are picked up. onReload, if non-nil, runs after every
// successful reload.
func Watch(ctx context.Context, c *Catalog, path string, logger *slog.Logger, onReload func([]string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Info("topics watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("topics watcher: stopped")
			return nil

		case <-fire:
			if err := c.Reload(abs); err != nil {
				logger.Warn("topics watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			values := make([]string, 0)
			for _, t := range c.List() {
				values = append(values, t.Value)
			}
			logger.Info("topics watcher: reloaded", slog.Int("count", len(values)))
			if onReload != nil {
				onReload(values)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
				fire = timer.C
			} else {
				timer.Reset(reloadDebounce)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("topics watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
