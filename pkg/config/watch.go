package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/jg-phare/nudge/internal/log"
	"github.com/jg-phare/nudge/pkg/paths"
)

// watchDebounce coalesces editor write bursts into a single reload.
const watchDebounce = 500 * time.Millisecond

// Watch reloads the configuration when config.yaml or config.default.yaml
// in the config directory changes and delivers each valid snapshot to onReload. A change that fails
// to load or validate is logged and the previous snapshot stays in effect.
// Watch returns once the watcher is running; it stops when ctx is done.
func Watch(ctx context.Context, onReload func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := paths.ConfigDir()
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go run(ctx, watcher, onReload)
	return nil
}

func run(ctx context.Context, watcher *fsnotify.Watcher, onReload func(*Config)) {
	defer watcher.Close()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isConfigFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			cfg, err := Load()
			if err != nil {
				log.Warn("config reload failed; keeping previous snapshot", zap.Error(err))
				continue
			}
			log.Info("config reloaded")
			onReload(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn("config watcher error", zap.Error(err))
		}
	}
}

func isConfigFile(name string) bool {
	base := filepath.Base(name)
	return base == "config.yaml" || base == "config.default.yaml"
}
