package types

import (
	"encoding/json"
	"testing"
)

func TestManifestUnmarshal_CapturesUnknownTopLevelKeys(t *testing.T) {
	raw := `{
		"schemaVersion": "1",
		"contentVersion": "2026.08.01",
		"items": [],
		"publisher": "acme"
	}`
	var m Manifest
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.SchemaVersion != "1" || m.ContentVersion != "2026.08.01" {
		t.Fatalf("known fields not decoded: %+v", m)
	}
	if got := m.Extra["publisher"]; got != "acme" {
		t.Fatalf("expected Extra[publisher]=acme, got %v", m.Extra)
	}
}

func TestModelItemUnmarshal_CapturesUnknownTopLevelKeys(t *testing.T) {
	raw := `{
		"id": "tinyllama",
		"type": "llm",
		"version": "1.0.0",
		"requiredArtifacts": [{"name": "m.gguf", "sha256": "aa", "extraField": 7}],
		"experimentalFlag": true
	}`
	var item ModelItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if item.ID != "tinyllama" || item.Version != "1.0.0" {
		t.Fatalf("known fields not decoded: %+v", item)
	}
	if got := item.Extra["experimentalFlag"]; got != true {
		t.Fatalf("expected Extra[experimentalFlag]=true, got %v", item.Extra)
	}
	if len(item.RequiredArtifacts) != 1 {
		t.Fatalf("expected one artifact, got %d", len(item.RequiredArtifacts))
	}
	if got := item.RequiredArtifacts[0].Extra["extraField"]; got != float64(7) {
		t.Fatalf("expected nested artifact Extra[extraField]=7, got %v", item.RequiredArtifacts[0].Extra)
	}
}

func TestArtifactUnmarshal_NoUnknownKeysLeavesExtraNil(t *testing.T) {
	raw := `{"name": "m.gguf", "sha256": "aa"}`
	var a Artifact
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a.Extra != nil {
		t.Fatalf("expected nil Extra when no unknown keys present, got %v", a.Extra)
	}
}
