package install

import (
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// GCWatcher re-runs GCOrphans whenever an entry (such as a new model
// directory) is created directly under cacheDir, catching orphaned
// *.tmp.*/.stage/ leftovers left by a crash without waiting for the next
// process restart. Only the cache root itself is watched: creating a new
// version directory inside an existing model directory does not trigger a
// sweep.
type GCWatcher struct {
	cacheDir string
	watcher  *fsnotify.Watcher
}

// StartGCWatcher performs an initial sweep, then watches the cacheDir root
// (not the per-model directories below it) and re-sweeps on every fsnotify
// Create event there.
func StartGCWatcher(cacheDir string) (*GCWatcher, error) {
	if err := GCOrphans(cacheDir); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(cacheDir); err != nil {
		w.Close()
		return nil, err
	}
	gw := &GCWatcher{cacheDir: cacheDir, watcher: w}
	go gw.loop()
	return gw, nil
}

func (gw *GCWatcher) loop() {
	for {
		select {
		case ev, ok := <-gw.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&fsnotify.Create == 0 {
				continue
			}
			if err := GCOrphans(gw.cacheDir); err != nil {
				logEvent(zerolog.WarnLevel, "", "", "").Err(err).Msg("install: gc sweep failed")
			}
		case err, ok := <-gw.watcher.Errors:
			if !ok {
				return
			}
			logEvent(zerolog.WarnLevel, "", "", "").Err(err).Msg("install: gc watch error")
		}
	}
}

// Close stops the watch.
func (gw *GCWatcher) Close() error {
	return gw.watcher.Close()
}
