// Package manifest parses and validates the declarative model manifest
// (§3, §6) and provides typed lookups over the resulting immutable
// structure. Grounded on the teacher's internal/registry/loader.go (file
// discovery idiom) and internal/config/loader.go (format-by-extension
// decode idiom), generalized from a directory-of-gguf-files scan to a
// single JSON manifest document.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"modelrt/internal/coreerr"
	"modelrt/pkg/types"
)

// Load reads and validates a manifest file at path. Unknown top-level
// fields are ignored per §6; Manifest.Extra/ModelItem.Extra preserve them
// for non-lossy round-trip per the Design Notes ("Dynamic JSON").
func Load(path string) (*types.Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(b)
}

// Parse validates raw JSON bytes into a Manifest, enforcing invariants
// I1-I4. A failing invariant returns INVALID_MODEL_FORMAT — per §7, this
// is the one category of error that may abort the process at parse time.
func Parse(b []byte) (*types.Manifest, error) {
	var m types.Manifest
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&m); err != nil {
		return nil, coreerr.InvalidModelFormat("malformed JSON: " + err.Error())
	}
	if err := Validate(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks invariants I1-I4 against a parsed Manifest.
func Validate(m *types.Manifest) error {
	seen := make(map[string]bool, len(m.Items))
	for _, it := range m.Items {
		// I1: ids unique per manifest.
		if seen[it.ID] {
			return coreerr.InvalidModelFormat(fmt.Sprintf("duplicate model id %q", it.ID))
		}
		seen[it.ID] = true

		if len(it.RequiredArtifacts) == 0 {
			return coreerr.InvalidModelFormat(fmt.Sprintf("model %q has no required artifacts", it.ID))
		}
		// I2: every required artifact has non-empty sha256.
		for _, a := range it.RequiredArtifacts {
			if a.SHA256 == "" {
				return coreerr.InvalidModelFormat(fmt.Sprintf("model %q artifact %q missing sha256", it.ID, a.Name))
			}
		}
		// I3: contextLength, when present, is one of the ladder rungs.
		if it.ContextLength != 0 && !inLadder(it.ContextLength) {
			return coreerr.InvalidModelFormat(fmt.Sprintf("model %q contextLength %d not in downgrade ladder", it.ID, it.ContextLength))
		}
		// I4: backendHints[i] names a backend the selector knows.
		for _, hint := range it.BackendHints {
			if !knownBackends[hint] {
				return coreerr.InvalidModelFormat(fmt.Sprintf("model %q backend hint %q is unknown", it.ID, hint))
			}
		}
	}
	return nil
}

// knownBackends is the closed set of backend tags the selector recognizes
// (§4.2 decision order refers to "a backend the selector knows").
var knownBackends = map[string]bool{
	"llama.cpp": true,
	"onnx":      true,
	"tflite":    true,
	"whisper":   true,
	"vosk":      true,
	"mediapipe": true,
}

func inLadder(v int) bool {
	for _, rung := range types.ContextLadder {
		if rung == v {
			return true
		}
	}
	return false
}
