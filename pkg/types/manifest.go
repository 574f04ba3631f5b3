// Package types holds the typed data plane shared across the runtime:
// the manifest model, install/selection/stream schemas, and the HTTP
// wire types built on top of them.
package types

import (
	"encoding/json"
	"time"
)

// ModelType enumerates the task families a ModelItem can serve.
type ModelType string

const (
	ModelTypeLLM            ModelType = "llm"
	ModelTypeEmbedding      ModelType = "embedding"
	ModelTypeOCR            ModelType = "ocr"
	ModelTypeSTT            ModelType = "stt"
	ModelTypeTTS            ModelType = "tts"
	ModelTypeClassification ModelType = "classification"
	ModelTypeCustom         ModelType = "custom"
)

// ArtifactRole enumerates what purpose an artifact serves within a ModelItem.
type ArtifactRole string

const (
	RoleModel     ArtifactRole = "model"
	RoleTokenizer ArtifactRole = "tokenizer"
	RoleConfig    ArtifactRole = "config"
	RoleVocab     ArtifactRole = "vocab"
	RoleAdapter   ArtifactRole = "adapter"
)

// Artifact is one file referenced by a manifest entry.
// example: tinyllama-q4.gguf
type Artifact struct {
	Name string       `json:"name"`
	Role ArtifactRole `json:"role"`
	// Format is a free-form content format tag (e.g. "gguf", "onnx", "json",
	// "zip"). The install pipeline treats "zip"/"tar.gz" specially as archives.
	Format string `json:"format"`
	// Path is relative to the model/version directory.
	Path string `json:"path"`
	// Size is the expected byte count, used for progress computation.
	Size int64 `json:"size"`
	// SHA256 is lowercase hex of the expected 32-byte digest.
	SHA256 string `json:"sha256"`
	// Extra preserves unknown fields for non-lossy round-trip (Design Notes:
	// Dynamic JSON).
	Extra map[string]any `json:"-"`
}

var artifactKnownKeys = map[string]bool{
	"name": true, "role": true, "format": true, "path": true, "size": true, "sha256": true,
}

// UnmarshalJSON decodes the known Artifact fields, then captures any
// remaining top-level keys into Extra so a manifest round-trips non-
// lossily even when a newer manifest schema adds fields this build
// doesn't know about yet (Design Notes: "Dynamic JSON").
func (a *Artifact) UnmarshalJSON(b []byte) error {
	type shadow Artifact
	var s shadow
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*a = Artifact(s)
	return captureExtra(b, artifactKnownKeys, &a.Extra)
}

// captureExtra decodes raw into a map, strips keys already consumed by
// typed fields, and stores whatever remains in *extra (nil if nothing
// remains), so callers round-trip unknown manifest fields without
// guessing their shape ahead of time.
func captureExtra(raw []byte, known map[string]bool, extra *map[string]any) error {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return err
	}
	var leftover map[string]any
	for k, v := range all {
		if known[k] {
			continue
		}
		if leftover == nil {
			leftover = make(map[string]any)
		}
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return err
		}
		leftover[k] = decoded
	}
	*extra = leftover
	return nil
}

// IsArchive reports whether this artifact must be extracted after verify.
func (a Artifact) IsArchive() bool {
	switch a.Format {
	case "zip", "tar.gz", "tgz", "tar":
		return true
	default:
		return false
	}
}

// GenerationConfig carries default sampling parameters shipped with a model.
type GenerationConfig struct {
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"topP,omitempty"`
	TopK          int     `json:"topK,omitempty"`
	MaxTokens     int     `json:"maxTokens,omitempty"`
	RepeatPenalty float64 `json:"repeatPenalty,omitempty"`
}

// ContextLadder is the fixed, reproducible set of context-length rungs the
// downgrade ladder may fall through (§4.2). Order matters: highest first.
var ContextLadder = []int{8192, 4096, 2048}

// ModelItem is one entry in a Manifest.
type ModelItem struct {
	ID      string    `json:"id"`
	Type    ModelType `json:"type"`
	Version string    `json:"version"` // semver

	// BackendHints is an ordered preference list, not a commutative set.
	BackendHints []string `json:"backendHints"`
	// Platforms is the set of platform tags this item supports.
	Platforms []string `json:"platforms"`

	MinSDKVersion     map[string]string `json:"minSdkVersion,omitempty"`     // platform -> version
	MinBackendVersion map[string]string `json:"minBackendVersion,omitempty"` // backend -> version

	Quantization            string            `json:"quantization,omitempty"`
	ContextLength           int               `json:"contextLength,omitempty"`
	RopeScaling             string            `json:"ropeScaling,omitempty"`
	RopeTheta                float64           `json:"ropeTheta,omitempty"`
	DefaultGenerationConfig *GenerationConfig `json:"defaultGenerationConfig,omitempty"`
	ChatTemplate            string            `json:"chatTemplate,omitempty"`
	SpecialTokens           map[string]string `json:"specialTokens,omitempty"`

	// Variants lists quantization candidates explicitly authored into the
	// manifest; the downgrade ladder's quantization dimension may only try
	// these (§4.2 — "runtime string guessing is forbidden").
	Variants []string `json:"variants,omitempty"`
	// MaxGPULayers bounds the gpuLayers downgrade dimension.
	MaxGPULayers int `json:"maxGpuLayers,omitempty"`
	// RequiredMemoryMB is the estimated resident memory needed at the
	// item's default (undowngraded) configuration.
	RequiredMemoryMB int `json:"requiredMemoryMb,omitempty"`

	RequiredArtifacts []Artifact `json:"requiredArtifacts"`
	OptionalArtifacts []Artifact `json:"optionalArtifacts,omitempty"`

	Extra map[string]any `json:"-"`
}

var modelItemKnownKeys = map[string]bool{
	"id": true, "type": true, "version": true, "backendHints": true, "platforms": true,
	"minSdkVersion": true, "minBackendVersion": true, "quantization": true, "contextLength": true,
	"ropeScaling": true, "ropeTheta": true, "defaultGenerationConfig": true, "chatTemplate": true,
	"specialTokens": true, "variants": true, "maxGpuLayers": true, "requiredMemoryMb": true,
	"requiredArtifacts": true, "optionalArtifacts": true,
}

// UnmarshalJSON decodes the known ModelItem fields, then captures any
// remaining top-level keys into Extra (Design Notes: "Dynamic JSON").
func (m *ModelItem) UnmarshalJSON(b []byte) error {
	type shadow ModelItem
	var s shadow
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*m = ModelItem(s)
	return captureExtra(b, modelItemKnownKeys, &m.Extra)
}

// Key returns the single-flight / on-disk-layout identity of this item.
func (m ModelItem) Key() string { return m.ID + "@" + m.Version }

// SupportsPlatform reports whether tag is in the item's platform set.
func (m ModelItem) SupportsPlatform(tag string) bool {
	for _, p := range m.Platforms {
		if p == tag {
			return true
		}
	}
	return false
}

// Manifest is the root document describing all installable models.
type Manifest struct {
	SchemaVersion  string      `json:"schemaVersion"`
	ContentVersion string      `json:"contentVersion"`
	GeneratedAt    time.Time   `json:"generatedAt"` // RFC 3339 UTC
	Items          []ModelItem `json:"items"`

	Extra map[string]any `json:"-"`
}

var manifestKnownKeys = map[string]bool{
	"schemaVersion": true, "contentVersion": true, "generatedAt": true, "items": true,
}

// UnmarshalJSON decodes the known Manifest fields, then captures any
// remaining top-level keys into Extra (Design Notes: "Dynamic JSON").
func (m *Manifest) UnmarshalJSON(b []byte) error {
	type shadow Manifest
	var s shadow
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*m = Manifest(s)
	return captureExtra(b, manifestKnownKeys, &m.Extra)
}

// ByID returns the item with the given id, if present.
func (m *Manifest) ByID(id string) (ModelItem, bool) {
	for _, it := range m.Items {
		if it.ID == id {
			return it, true
		}
	}
	return ModelItem{}, false
}
