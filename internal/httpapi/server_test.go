package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"modelrt/internal/adapter"
	"modelrt/internal/install"
	"modelrt/internal/scheduler"
	"modelrt/internal/stream"
	"modelrt/pkg/types"
)

func testManifest() *types.Manifest {
	return &types.Manifest{
		SchemaVersion:  "1",
		ContentVersion: "2026.08.01",
		Items: []types.ModelItem{
			{
				ID: "llama3-8b", Type: types.ModelTypeLLM, Version: "1.0.0",
				Platforms:     []string{"linux", "darwin"},
				ContextLength: 8192,
				Variants:      []string{"q4_0"},
				Quantization:  "q4_0",
				RequiredMemoryMB: 4096,
				RequiredArtifacts: []types.Artifact{
					{Name: "model.gguf", Role: types.RoleModel, Format: "gguf", Path: "model.gguf"},
				},
			},
		},
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, _ := newTestServiceWithDir(t)
	return svc
}

func newTestServiceWithDir(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	pipeline := install.NewPipeline(dir, stubSource{}, nil)
	sched := scheduler.New(scheduler.Config{MaxTotalConcurrent: 2})
	reg := adapter.NewRegistry()
	reg.Register(&fakeLLMBackend{})
	probeFn := func() (types.CapabilityProbe, error) {
		return types.CapabilityProbe{
			Platform: "linux", CPUCores: 8, TotalMemoryMB: 16000, AvailableMemoryMB: 8000,
		}, nil
	}
	return NewService(testManifest(), pipeline, sched, reg, probeFn), dir
}

type stubSource struct{}

func (stubSource) URL(item types.ModelItem, a types.Artifact) string { return "http://unused" }

type fakeLLMBackend struct{}

func (f *fakeLLMBackend) Name() string { return "llama.cpp" }
func (f *fakeLLMBackend) Load(ctx context.Context, p adapter.Params) error { return nil }
func (f *fakeLLMBackend) Unload(ctx context.Context) error                { return nil }
func (f *fakeLLMBackend) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1}, nil
}
func (f *fakeLLMBackend) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return "", nil
}
func (f *fakeLLMBackend) Generate(ctx context.Context, req adapter.GenerateRequest, onToken func(stream.RawToken)) error {
	onToken(stream.RawToken{Text: "hello "})
	onToken(stream.RawToken{Text: "world"})
	return nil
}

func TestListModels(t *testing.T) {
	svc := newTestService(t)
	mux := NewMux(svc)
	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	models, ok := body["models"].([]any)
	if !ok || len(models) != 1 {
		t.Fatalf("expected one model, got %+v", body)
	}
}

func TestGetModel_NotFound(t *testing.T) {
	svc := newTestService(t)
	mux := NewMux(svc)
	req := httptest.NewRequest(http.MethodGet, "/v1/models/does-not-exist", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSelect_ReturnsDecision(t *testing.T) {
	svc := newTestService(t)
	mux := NewMux(svc)
	req := httptest.NewRequest(http.MethodPost, "/v1/models/llama3-8b/select", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var report types.SelectionReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.FinalDecision.Backend != "llama.cpp" {
		t.Fatalf("unexpected backend: %+v", report.FinalDecision)
	}
}

func TestGenerate_StreamsNDJSON(t *testing.T) {
	svc, dir := newTestServiceWithDir(t)
	l := install.Layout{CacheDir: dir, ModelID: "llama3-8b", Version: "1.0.0"}
	if err := os.MkdirAll(l.VersionDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(l.ArtifactPath(types.Artifact{Path: "model.gguf"}), []byte("stub"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(l.ReadyPath(), []byte("ready"), 0o644); err != nil {
		t.Fatal(err)
	}
	mux := NewMux(svc)
	body := `{"modelId":"llama3-8b","prompt":"hi"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK && w.Code != 0 {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
	if w.Body.Len() == 0 {
		t.Fatalf("expected NDJSON body, got empty response")
	}
}

func TestStatusEndpoint(t *testing.T) {
	svc := newTestService(t)
	mux := NewMux(svc)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	svc := newTestService(t)
	mux := NewMux(svc)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", w.Code)
	}

	w2 := httptest.NewRecorder()
	mux.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w2.Code != http.StatusOK {
		t.Fatalf("expected readyz 200 once manifest is loaded, got %d", w2.Code)
	}
}
