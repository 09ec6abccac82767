package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a config file for changes and reloads it, notifying a
// callback with the freshly parsed Config or the error from a failed
// reload. The daemon does not hot-swap its storage engines or any other
// setting on reload; its caller in cmd/godagentd only logs that the file
// changed.
type Watcher struct {
	fsw        *fsnotify.Watcher
	configPath string
	onReload   func(*Config, error)
	done       chan struct{}
}

// WatchFile starts watching configPath (resolved the same way
// LoadWithFile resolves an empty path) and invokes onReload whenever the
// file is written or recreated. Call Close to stop watching.
func WatchFile(configPath string, onReload func(*Config, error)) (*Watcher, error) {
	resolved, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: failed to create watcher: %w", err)
	}
	if err := fsw.Add(resolved); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("config: failed to watch %s: %w", resolved, err)
	}

	w := &Watcher{fsw: fsw, configPath: configPath, onReload: onReload, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := LoadWithFile(w.configPath)
			w.onReload(cfg, err)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func resolveConfigPath(configPath string) (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return defaultConfigPath()
}
