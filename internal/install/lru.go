package install

import (
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// versionRecord is the bookkeeping entry kept for each ready, installed
// (modelId, version) so EvictUntilFits can find the least-recently-used
// candidate. Generalizes the teacher's evict.go in-memory
// "pick LRU idle instance" scan from live Instances to on-disk versions.
// Records live in memory only: they are not persisted, so versions are
// tracked only once Touch has been called for them in this process.
type versionRecord struct {
	ModelID   string
	Version   string
	SizeBytes int64
	LastUsed  time.Time
}

// Evictor tracks ready version directories and removes the
// least-recently-used one once cumulative size crosses a threshold,
// never touching the currently activated version (§4.1 "Versioning & LRU").
type Evictor struct {
	cacheDir  string
	threshold int64
	cache     *lru.Cache[string, versionRecord]
}

// NewEvictor builds an Evictor whose tracking cache has a fixed capacity of
// 100000 records (eviction decisions are driven by thresholdBytes, not by
// cache capacity); past that capacity Touch drops the oldest record.
func NewEvictor(cacheDir string, thresholdBytes int64) (*Evictor, error) {
	c, err := lru.New[string, versionRecord](100000)
	if err != nil {
		return nil, err
	}
	return &Evictor{cacheDir: cacheDir, threshold: thresholdBytes, cache: c}, nil
}

func recordKey(modelID, version string) string { return modelID + "@" + version }

// Touch records/refreshes the LastUsed timestamp for a ready version.
func (e *Evictor) Touch(modelID, version string, sizeBytes int64) {
	e.cache.Add(recordKey(modelID, version), versionRecord{
		ModelID:   modelID,
		Version:   version,
		SizeBytes: sizeBytes,
		LastUsed:  time.Now(),
	})
}

// Forget removes bookkeeping for a version that no longer exists on disk.
func (e *Evictor) Forget(modelID, version string) {
	e.cache.Remove(recordKey(modelID, version))
}

// EvictUntilFits removes least-recently-used ready versions (skipping the
// active one for each model) until total tracked size is back at or below
// the threshold, or nothing further can be evicted.
func (e *Evictor) EvictUntilFits() error {
	for e.totalSize() > e.threshold {
		victim, ok := e.pickLRU()
		if !ok {
			return nil
		}
		if err := os.RemoveAll(filepath.Join(e.cacheDir, victim.ModelID, victim.Version)); err != nil {
			return err
		}
		e.Forget(victim.ModelID, victim.Version)
	}
	return nil
}

func (e *Evictor) totalSize() int64 {
	var total int64
	for _, k := range e.cache.Keys() {
		if v, ok := e.cache.Peek(k); ok {
			total += v.SizeBytes
		}
	}
	return total
}

func (e *Evictor) pickLRU() (versionRecord, bool) {
	var lruRec versionRecord
	found := false
	for _, k := range e.cache.Keys() {
		v, ok := e.cache.Peek(k)
		if !ok {
			continue
		}
		active, _ := ActiveVersion(e.cacheDir, v.ModelID)
		if active == v.Version {
			continue
		}
		if !found || v.LastUsed.Before(lruRec.LastUsed) {
			lruRec = v
			found = true
		}
	}
	return lruRec, found
}
