package manifest

import (
	"testing"

	"modelrt/internal/coreerr"
)

func validItemJSON() string {
	return `{
		"schemaVersion": "1",
		"contentVersion": "2026-01-01",
		"generatedAt": "2026-01-01T00:00:00Z",
		"items": [
			{
				"id": "llama3.1-8b-q4km",
				"type": "llm",
				"version": "1.0.0",
				"backendHints": ["llama.cpp"],
				"platforms": ["desktop"],
				"contextLength": 8192,
				"requiredArtifacts": [
					{"name": "model.gguf", "role": "model", "format": "gguf", "path": "model.gguf", "size": 100, "sha256": "aa"}
				]
			}
		]
	}`
}

func TestParseValidManifest(t *testing.T) {
	m, err := Parse([]byte(validItemJSON()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	item, ok := m.ByID("llama3.1-8b-q4km")
	if !ok {
		t.Fatalf("expected to find item by id")
	}
	if item.ContextLength != 8192 {
		t.Fatalf("unexpected contextLength: %d", item.ContextLength)
	}
}

func TestParseRejectsDuplicateIDs(t *testing.T) {
	raw := `{"items": [
		{"id": "a", "requiredArtifacts": [{"name":"m","sha256":"aa"}]},
		{"id": "a", "requiredArtifacts": [{"name":"m","sha256":"bb"}]}
	]}`
	_, err := Parse([]byte(raw))
	if !coreerr.IsInvalidModelFormat(err) {
		t.Fatalf("expected INVALID_MODEL_FORMAT, got %v", err)
	}
}

func TestParseRejectsMissingSHA256(t *testing.T) {
	raw := `{"items": [{"id": "a", "requiredArtifacts": [{"name":"m","sha256":""}]}]}`
	_, err := Parse([]byte(raw))
	if !coreerr.IsInvalidModelFormat(err) {
		t.Fatalf("expected INVALID_MODEL_FORMAT for empty sha256, got %v", err)
	}
}

func TestParseRejectsBadContextLength(t *testing.T) {
	raw := `{"items": [{"id": "a", "contextLength": 3000, "requiredArtifacts": [{"name":"m","sha256":"aa"}]}]}`
	_, err := Parse([]byte(raw))
	if !coreerr.IsInvalidModelFormat(err) {
		t.Fatalf("expected INVALID_MODEL_FORMAT for off-ladder contextLength, got %v", err)
	}
}

func TestParseRejectsUnknownBackendHint(t *testing.T) {
	raw := `{"items": [{"id": "a", "backendHints": ["magic"], "requiredArtifacts": [{"name":"m","sha256":"aa"}]}]}`
	_, err := Parse([]byte(raw))
	if !coreerr.IsInvalidModelFormat(err) {
		t.Fatalf("expected INVALID_MODEL_FORMAT for unknown backend hint, got %v", err)
	}
}

func TestParseRejectsEmptyRequiredArtifacts(t *testing.T) {
	raw := `{"items": [{"id": "a", "requiredArtifacts": []}]}`
	_, err := Parse([]byte(raw))
	if !coreerr.IsInvalidModelFormat(err) {
		t.Fatalf("expected INVALID_MODEL_FORMAT for empty requiredArtifacts, got %v", err)
	}
}
