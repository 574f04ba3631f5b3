package install

import (
	"os"
	"path/filepath"
	"strings"
)

// GCOrphans walks cacheDir on startup and removes any *.tmp.* file and
// any .stage/ directory left behind by a process crash mid-install. A
// version directory lacking the readiness sentinel is not removed; it is
// left in place and ignored by ListReadyVersions and Activate.
func GCOrphans(cacheDir string) error {
	modelDirs, err := os.ReadDir(cacheDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, md := range modelDirs {
		if !md.IsDir() {
			continue
		}
		modelID := md.Name()
		versionDirs, err := os.ReadDir(filepath.Join(cacheDir, modelID))
		if err != nil {
			continue
		}
		for _, vd := range versionDirs {
			if !vd.IsDir() {
				continue
			}
			l := Layout{CacheDir: cacheDir, ModelID: modelID, Version: vd.Name()}
			if err := gcVersionDir(l); err != nil {
				return err
			}
		}
	}
	return nil
}

func gcVersionDir(l Layout) error {
	if err := os.RemoveAll(l.StageDir()); err != nil {
		return err
	}
	entries, err := os.ReadDir(l.VersionDir())
	if err != nil {
		return err
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), tmpPrefix) {
			if err := os.Remove(filepath.Join(l.VersionDir(), e.Name())); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
	}
	if !l.IsReady() {
		// Incomplete install left no sentinel; leave the directory in
		// place (another install may resume into it) but it is invisible
		// to ListReadyVersions/ActiveVersion until a sentinel appears.
		return nil
	}
	return nil
}
