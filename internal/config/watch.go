package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/openbench/phasebridge/internal/models"
)

// reloadSettle coalesces the burst of events an editor save produces.
const reloadSettle = 100 * time.Millisecond

// Watch calls onChange with the reloaded configuration whenever the store's
// file is written or replaced. It watches the parent directory so atomic
// renames are seen. Watch returns when ctx is done.
func Watch(ctx context.Context, s *JSONStore, onChange func(models.Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(s.Path())); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		var settle <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name == s.Path() && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					settle = time.After(reloadSettle)
				}
			case <-settle:
				settle = nil
				cfg, err := s.Load()
				if err != nil {
					slog.Warn("config: failed to reload", "path", s.Path(), "err", err)
					continue
				}
				slog.Info("config: reloaded", "path", s.Path())
				onChange(*cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("config: watcher error", "err", err)
			}
		}
	}()
	return nil
}
