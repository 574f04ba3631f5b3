package adapter

import (
	"context"
	"testing"

	"modelrt/internal/stream"
)

type fakeBackend struct {
	name string
}

func (f *fakeBackend) Name() string                                  { return f.name }
func (f *fakeBackend) Load(ctx context.Context, p Params) error       { return nil }
func (f *fakeBackend) Unload(ctx context.Context) error               { return nil }
func (f *fakeBackend) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0}, nil
}
func (f *fakeBackend) Transcribe(ctx context.Context, audio []byte) (string, error) { return "", nil }
func (f *fakeBackend) Generate(ctx context.Context, req GenerateRequest, onToken func(stream.RawToken)) error {
	onToken(stream.RawToken{Text: "hi"})
	return nil
}

func TestRegistry_LookupKnownAndUnknown(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeBackend{name: "llama.cpp"})

	b, ok := r.Lookup("llama.cpp")
	if !ok || b.Name() != "llama.cpp" {
		t.Fatalf("expected to find llama.cpp backend")
	}

	if _, ok := r.Lookup("onnx"); ok {
		t.Fatalf("onnx should not be registered")
	}
}

func TestRegistry_InstalledBackendNames(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeBackend{name: "llama.cpp"})
	r.Register(&fakeBackend{name: "onnx"})

	names := r.InstalledBackendNames()
	if len(names) != 2 {
		t.Fatalf("expected 2 registered backends, got %d", len(names))
	}
}
