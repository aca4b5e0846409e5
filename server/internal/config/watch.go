package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay is how long the file must stay quiet before it is reloaded.
// Saves arrive as several events (truncate, write, chmod) and the file is
// only complete after the last one.
const reloadDelay = 100 * time.Millisecond

// Watch monitors path and calls onChange with the freshly loaded Config
// each time the file is written or replaced. It blocks until ctx is
// cancelled.
//
// The parent directory is watched rather than the file itself so that
// atomic saves (write to temp, rename over) are seen. Bursts of events are
// coalesced into one reload. A reload that fails to parse or validate is
// logged and skipped; onChange is not called.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	slog.Info("config: watching for changes", "path", abs)

	settled := make(chan struct{}, 1)
	debounce := time.AfterFunc(time.Hour, func() {
		select {
		case settled <- struct{}{}:
		default:
		}
	})
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			debounce.Reset(reloadDelay)

		case <-settled:
			cfg, err := Load(abs)
			if err != nil {
				slog.Error("config: reload failed, keeping previous config",
					"path", abs, "err", err)
				continue
			}

			slog.Info("config: reloaded", "path", abs)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
