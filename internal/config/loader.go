package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`

	// ManifestPath points at the model manifest document (§3, §6).
	ManifestPath string `json:"manifest_path" yaml:"manifest_path" toml:"manifest_path"`
	// CacheDir is the install pipeline's root on-disk layout (§4.1).
	CacheDir string `json:"cache_dir" yaml:"cache_dir" toml:"cache_dir"`
	// EvictionThresholdMB caps cumulative ready-version size before LRU
	// eviction runs (§4.1 "Versioning & LRU").
	EvictionThresholdMB int64 `json:"eviction_threshold_mb" yaml:"eviction_threshold_mb" toml:"eviction_threshold_mb"`

	// MaxTotalConcurrent bounds the scheduler's worker pool (§4.3).
	MaxTotalConcurrent int `json:"max_total_concurrent" yaml:"max_total_concurrent" toml:"max_total_concurrent"`
	// QueueCaps overrides the default per-task-type concurrency caps.
	QueueCaps map[string]int `json:"queue_caps" yaml:"queue_caps" toml:"queue_caps"`

	// DownloadTimeoutSeconds bounds a single artifact fetch.
	DownloadTimeoutSeconds int `json:"download_timeout_seconds" yaml:"download_timeout_seconds" toml:"download_timeout_seconds"`

	// HostPlatform overrides runtime.GOOS for selection decisions
	// (§4.2); empty means probe the live host.
	HostPlatform string `json:"host_platform" yaml:"host_platform" toml:"host_platform"`

	// ArtifactBaseURL is the registry root artifacts are fetched from;
	// install.URLSource joins it with {modelId}/{version}/{artifact.Path}.
	ArtifactBaseURL string `json:"artifact_base_url" yaml:"artifact_base_url" toml:"artifact_base_url"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil { return cfg, err }
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil { return cfg, err }
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil { return cfg, err }
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
