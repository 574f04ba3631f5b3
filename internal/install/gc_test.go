package install

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGCOrphans_RemovesTmpAndStage(t *testing.T) {
	dir := t.TempDir()
	l := Layout{CacheDir: dir, ModelID: "m1", Version: "1.0.0"}
	if err := os.MkdirAll(l.StageDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(l.VersionDir(), "model.gguf.tmp.abc123"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(l.VersionDir(), "model.gguf"), []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := GCOrphans(dir); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(l.StageDir()); !os.IsNotExist(err) {
		t.Fatalf("expected stage dir removed")
	}
	entries, _ := os.ReadDir(l.VersionDir())
	for _, e := range entries {
		if e.Name() != "model.gguf" {
			t.Fatalf("unexpected leftover entry: %s", e.Name())
		}
	}
	if l.IsReady() {
		t.Fatalf("directory without sentinel must remain not-ready")
	}
}

func TestListReadyVersions_IgnoresIncompleteDirs(t *testing.T) {
	dir := t.TempDir()
	ready := Layout{CacheDir: dir, ModelID: "m1", Version: "1.0.0"}
	incomplete := Layout{CacheDir: dir, ModelID: "m1", Version: "2.0.0"}
	os.MkdirAll(ready.VersionDir(), 0o755)
	os.MkdirAll(incomplete.VersionDir(), 0o755)
	if err := ready.writeReadySentinel(); err != nil {
		t.Fatal(err)
	}

	versions, err := ListReadyVersions(dir, "m1")
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 1 || versions[0] != "1.0.0" {
		t.Fatalf("expected only [1.0.0], got %v", versions)
	}
}
