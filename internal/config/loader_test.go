package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "addr: :9999\nmanifest_path: /tmp/manifest.json\ncache_dir: /tmp/cache\neviction_threshold_mb: 4096\nmax_total_concurrent: 6\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.ManifestPath != "/tmp/manifest.json" || cfg.CacheDir != "/tmp/cache" || cfg.EvictionThresholdMB != 4096 || cfg.MaxTotalConcurrent != 6 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","manifest_path":"/m/manifest.json","cache_dir":"/m/cache","eviction_threshold_mb":2048,"max_total_concurrent":4}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.ManifestPath != "/m/manifest.json" || cfg.CacheDir != "/m/cache" || cfg.EvictionThresholdMB != 2048 || cfg.MaxTotalConcurrent != 4 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\nmanifest_path=\"/x/manifest.json\"\ncache_dir=\"/x/cache\"\neviction_threshold_mb=1024\nmax_total_concurrent=2\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.ManifestPath != "/x/manifest.json" || cfg.CacheDir != "/x/cache" || cfg.EvictionThresholdMB != 1024 || cfg.MaxTotalConcurrent != 2 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}
