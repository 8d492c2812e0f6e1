package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mudler/xlog"
)

// Watch keeps the loader in sync with the YAML files of dir until ctx is
// done. Written or created files are (re)read, removed or renamed ones are
// dropped. With a positive poll interval the whole directory is also
// reloaded periodically.
func (bcl *ModelConfigLoader) Watch(ctx context.Context, dir string, poll time.Duration, opts ...ConfigLoaderOption) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("unable to create a watcher on the models directory: %w", err)
	}

	var tick <-chan time.Time
	if poll > 0 {
		xlog.Debug("Poll interval set, polling for model configuration changes", "interval", poll)
		ticker := time.NewTicker(poll)
		tick = ticker.C
		go func() {
			<-ctx.Done()
			ticker.Stop()
		}()
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick:
				if err := bcl.LoadModelConfigsFromPath(dir, opts...); err != nil {
					xlog.Error("polling model configs failed", "error", err)
				}
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				bcl.handleEvent(event, opts...)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				xlog.Error("config watcher error received", "error", err)
			}
		}
	}()

	return nil
}

func (bcl *ModelConfigLoader) handleEvent(event fsnotify.Event, opts ...ConfigLoaderOption) {
	if !isConfigFile(filepath.Base(event.Name)) {
		return
	}
	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		removed := bcl.removeConfigFile(event.Name)
		xlog.Info("model config removed", "file", event.Name, "models", removed)
	case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
		if err := bcl.ReadModelConfig(event.Name, opts...); err != nil {
			xlog.Error("cannot reload model config", "error", err, "file", event.Name)
			return
		}
		xlog.Info("model config reloaded", "file", event.Name)
	}
}
