package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/five82/sticky/internal/logging"
)

// DefaultReloadDelay groups the bursts of events editors produce on save.
const DefaultReloadDelay = 200 * time.Millisecond

// Watch calls onReload with the re-parsed config each time the file at path
// changes. It watches the parent directory, since editors usually replace
// the file rather than write it in place. Parse errors are logged and the
// previous config stays in effect. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, delay time.Duration, onReload func(Config)) error {
	resolved, err := ResolvePath(path)
	if err != nil {
		return err
	}
	if delay <= 0 {
		delay = DefaultReloadDelay
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(resolved)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	logger := logging.NewLogger("config-watcher").WithField("file", resolved)
	logger.Debug("watching config")

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		cfg, err := Load(resolved)
		if err != nil {
			logger.WithError(err).Warn("config reload failed; keeping previous settings")
			return
		}
		logger.Info("config reloaded")
		onReload(cfg)
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != resolved {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.WithField("op", event.Op.String()).Debug("config event")
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(delay, reload)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("watcher error")
		}
	}
}

// ApplyLogging reconfigures the shared logger from cfg. It is the usual
// onReload for Watch.
func ApplyLogging(logger *logrus.Entry) func(Config) {
	return func(cfg Config) {
		if err := logging.Configure(cfg.Logging()); err != nil {
			logger.WithError(err).Warn("apply logging config")
			return
		}
		logger.WithField("level", logging.Level().String()).Debug("logging reconfigured")
	}
}
