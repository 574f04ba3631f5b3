package install

import (
	"os"
	"testing"
	"time"
)

func mustReadyVersion(t *testing.T, dir, modelID, version string) Layout {
	t.Helper()
	l := Layout{CacheDir: dir, ModelID: modelID, Version: version}
	if err := os.MkdirAll(l.VersionDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := l.writeReadySentinel(); err != nil {
		t.Fatal(err)
	}
	return l
}

func TestEvictUntilFits_NeverRemovesActiveVersion(t *testing.T) {
	dir := t.TempDir()
	mustReadyVersion(t, dir, "m1", "1.0.0")
	mustReadyVersion(t, dir, "m1", "2.0.0")
	if err := Activate(dir, "m1", "1.0.0"); err != nil {
		t.Fatal(err)
	}

	ev, err := NewEvictor(dir, 100)
	if err != nil {
		t.Fatal(err)
	}
	ev.Touch("m1", "1.0.0", 1000)
	time.Sleep(time.Millisecond)
	ev.Touch("m1", "2.0.0", 1000)

	if err := ev.EvictUntilFits(); err != nil {
		t.Fatal(err)
	}

	if !(Layout{CacheDir: dir, ModelID: "m1", Version: "1.0.0"}.IsReady()) {
		t.Fatalf("active version must survive eviction")
	}
}

func TestEvictUntilFits_RemovesLeastRecentlyUsed(t *testing.T) {
	dir := t.TempDir()
	mustReadyVersion(t, dir, "m1", "1.0.0")
	mustReadyVersion(t, dir, "m1", "2.0.0")

	ev, err := NewEvictor(dir, 1500)
	if err != nil {
		t.Fatal(err)
	}
	ev.Touch("m1", "1.0.0", 1000)
	time.Sleep(time.Millisecond)
	ev.Touch("m1", "2.0.0", 1000)

	if err := ev.EvictUntilFits(); err != nil {
		t.Fatal(err)
	}

	if (Layout{CacheDir: dir, ModelID: "m1", Version: "1.0.0"}.IsReady()) {
		t.Fatalf("least-recently-used version should have been evicted")
	}
	if !(Layout{CacheDir: dir, ModelID: "m1", Version: "2.0.0"}.IsReady()) {
		t.Fatalf("most-recently-used version should remain")
	}
}
