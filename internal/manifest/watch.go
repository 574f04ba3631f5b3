package manifest

import (
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"modelrt/pkg/types"
)

// Store holds the current immutable Manifest behind an atomic pointer.
// Readers call Current(); a reload swaps the pointer wholesale so no
// reader ever observes a partially-updated manifest (§5: "Manifests are
// immutable after parse; shared by reference, never mutated").
type Store struct {
	cur     atomic.Pointer[types.Manifest]
	path    string
	watcher *fsnotify.Watcher
}

// NewStore loads path once and returns a Store ready to serve lookups.
func NewStore(path string) (*Store, error) {
	m, err := Load(path)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path}
	s.cur.Store(m)
	return s, nil
}

// Current returns the presently active Manifest. Safe for concurrent use.
func (s *Store) Current() *types.Manifest { return s.cur.Load() }

// WatchReload starts an fsnotify watch on the manifest file and
// hot-swaps Current() on every write, logging (not failing) on a bad
// reload so a malformed edit never takes down a running process
// (SPEC_FULL.md §12, "Manifest hot-reload").
func (s *Store) WatchReload() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(s.path); err != nil {
		w.Close()
		return err
	}
	s.watcher = w
	go s.reloadLoop()
	return nil
}

func (s *Store) reloadLoop() {
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			m, err := Load(s.path)
			if err != nil {
				logger().Warn().Err(err).Str("path", s.path).Msg("manifest: reload failed, keeping previous")
				continue
			}
			s.cur.Store(m)
			logger().Info().Str("path", s.path).Str("contentVersion", m.ContentVersion).Msg("manifest: reloaded")
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger().Warn().Err(err).Msg("manifest: watch error")
		}
	}
}

// Close stops the reload watch, if running.
func (s *Store) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}
