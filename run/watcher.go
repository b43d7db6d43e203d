package run

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/relex/log-filter/defs"
)

// WatchFile reloads whenever the config file is written or replaced, until the returned function is called
//
// Events are debounced by defs.ReloadWatchDelay since editors often write a file in several steps.
func (reloader *Reloader) WatchFile() (func(), error) {
	absPath, err := filepath.Abs(reloader.configPath)
	if err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// watch the directory to survive files being replaced by rename
	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		_ = fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch '%s': %w", absPath, err)
	}
	reloader.logger.Infof("watching %s", absPath)

	stop := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		var debounceTimer *time.Timer
		var debounceCh <-chan time.Time
		for {
			select {
			case event, ok := <-fsWatcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absPath || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.NewTimer(defs.ReloadWatchDelay)
				debounceCh = debounceTimer.C
			case <-debounceCh:
				debounceCh = nil
				reloader.logger.Info("config file changed, reloading...")
				_ = reloader.Reload()
			case err, ok := <-fsWatcher.Errors:
				if !ok {
					return
				}
				reloader.logger.Error("file watcher error: ", err)
			case <-stop:
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				return
			}
		}
	}()

	return func() {
		close(stop)
		<-stopped
		if err := fsWatcher.Close(); err != nil {
			reloader.logger.Warn("failed to close file watcher: ", err)
		}
	}, nil
}
