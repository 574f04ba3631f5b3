// Package install implements the install pipeline (§4.1, C3): a
// single-flight, crash-safe state machine that fetches, verifies, and
// extracts a ModelItem's artifacts under {cacheDir}/{modelId}/{version}/,
// streaming InstallProgress to every caller sharing the in-flight install.
// Grounded on the teacher's internal/manager (evict.go LRU-eviction idiom,
// ensure.go state-transition idiom), generalized from single in-memory
// instances to on-disk versions. LRU bookkeeping is held in memory only and
// is not persisted.
package install

import (
	"os"
	"path/filepath"
	"time"

	"github.com/moby/sys/atomicwriter"

	"modelrt/pkg/types"
)

const (
	readySentinelName = ".ready"
	lockFileName      = ".lock"
	stageDirName      = ".stage"
	tmpPrefix         = "tmp."
)

// Layout resolves the on-disk paths for one (modelId, version) install.
type Layout struct {
	CacheDir string
	ModelID  string
	Version  string
}

func (l Layout) VersionDir() string { return filepath.Join(l.CacheDir, l.ModelID, l.Version) }
func (l Layout) ModelDir() string   { return filepath.Join(l.CacheDir, l.ModelID) }
func (l Layout) LockPath() string   { return filepath.Join(l.VersionDir(), lockFileName) }
func (l Layout) StageDir() string   { return filepath.Join(l.VersionDir(), stageDirName) }
func (l Layout) ReadyPath() string  { return filepath.Join(l.VersionDir(), readySentinelName) }
func (l Layout) ActivePath() string { return filepath.Join(l.ModelDir(), "active") }

func (l Layout) ArtifactPath(a types.Artifact) string {
	return filepath.Join(l.VersionDir(), a.Path)
}

// writeReadySentinel writes the readiness sentinel last in the install
// sequence (§4.1: "the readiness sentinel is written last; its presence
// is the sole in-kind proof of completion"), via atomicwriter so a crash
// mid-write can never leave a half-written sentinel that IsReady would
// mistake for valid.
func (l Layout) writeReadySentinel() error {
	return atomicwriter.WriteFile(l.ReadyPath(), []byte(time.Now().UTC().Format(time.RFC3339)), 0o644)
}

// tmpPath returns the sibling temp file an artifact downloads into before
// its atomic rename (§4.1 "Atomicity": "*.tmp.{randomSuffix}").
func (l Layout) tmpPath(a types.Artifact, suffix string) string {
	return filepath.Join(l.VersionDir(), filepath.Base(a.Path)+"."+tmpPrefix+suffix)
}

// IsReady reports whether the version directory carries the readiness
// sentinel — the sole in-kind proof of a completed install (§4.1).
func (l Layout) IsReady() bool {
	_, err := os.Stat(l.ReadyPath())
	return err == nil
}

// ActiveVersion reads the active pointer for a model, if any.
func ActiveVersion(cacheDir, modelID string) (string, bool) {
	b, err := os.ReadFile(Layout{CacheDir: cacheDir, ModelID: modelID}.ActivePath())
	if err != nil {
		return "", false
	}
	v := string(b)
	if v == "" {
		return "", false
	}
	return v, true
}

// Activate writes the active pointer for a model to version, atomically.
func Activate(cacheDir, modelID, version string) error {
	l := Layout{CacheDir: cacheDir, ModelID: modelID, Version: version}
	if !l.IsReady() {
		return os.ErrNotExist
	}
	if err := os.MkdirAll(l.ModelDir(), 0o755); err != nil {
		return err
	}
	return atomicwriter.WriteFile(l.ActivePath(), []byte(version), 0o644)
}

// ListReadyVersions returns every version directory under modelID's
// directory that carries a readiness sentinel.
func ListReadyVersions(cacheDir, modelID string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(cacheDir, modelID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		l := Layout{CacheDir: cacheDir, ModelID: modelID, Version: e.Name()}
		if l.IsReady() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
