// Package adapter defines the narrow Backend Adapter interface (§6, C7)
// consumed by inference backends (llama.cpp, ONNX Runtime, Whisper, Vosk),
// none of which this module implements — numeric inference is explicitly
// out of scope (§1: "the core orchestrates them"). Grounded on the
// teacher's internal/manager/adapter_iface.go (the InferenceAdapter
// interface contract it defines ahead of the concrete llama.cpp adapters),
// generalized from one hardcoded llama.cpp-shaped method set to the
// model-type-agnostic shape SPEC_FULL.md names.
package adapter

import (
	"context"

	"modelrt/internal/stream"
)

// Params carries the selector's FinalDecision plus the installed model
// path into a backend call.
type Params struct {
	ModelPath    string
	Backend      string
	Provider     string
	Threads      int
	GPULayers    int
	ContextLen   int
	Quantization string
}

// GenerateRequest is the normalized request a Backend satisfies for LLM
// tasks. Generate streams RawToken values to onToken until the backend
// signals completion or ctx is cancelled.
type GenerateRequest struct {
	Prompt        string
	MaxTokens     int
	Temperature   float64
	TopP          float64
	TopK          int
	Stop          []string
	Seed          int64
	RepeatPenalty float64
}

// Backend is the narrow capability interface every inference adapter
// implements. A caller holding no Backend (no installed runtime matched
// the selector's decision) must never synthesize one — the selector's
// RUNTIME_NOT_AVAILABLE already captures that failure; there is no
// default/no-op Backend implementation in this package.
type Backend interface {
	// Name identifies the backend for logging/selection bookkeeping
	// (e.g. "llama.cpp", "onnx", "whisper").
	Name() string

	// Load prepares params.ModelPath for inference under params, returning
	// once the backend is ready to accept Generate/Embed/Transcribe calls.
	Load(ctx context.Context, params Params) error

	// Unload releases any resources Load acquired.
	Unload(ctx context.Context) error

	// Generate drives an LLM request, invoking onToken for every produced
	// token; it returns once generation completes, is cancelled via ctx,
	// or errors.
	Generate(ctx context.Context, req GenerateRequest, onToken func(stream.RawToken)) error

	// Embed produces a fixed-size embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Transcribe produces text from audio bytes (STT backends).
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Registry resolves a backend name to its Backend implementation. Callers
// (the scheduler's task Execute thunks) look up by the selector's
// FinalDecision.Backend; an unregistered name means the selector and the
// process's installed-backend set have drifted, and httpapi.Service
// reports it as RUNTIME_NOT_AVAILABLE.
type Registry struct {
	backends map[string]Backend
}

func NewRegistry() *Registry { return &Registry{backends: make(map[string]Backend)} }

func (r *Registry) Register(b Backend) { r.backends[b.Name()] = b }

func (r *Registry) Lookup(name string) (Backend, bool) {
	b, ok := r.backends[name]
	return b, ok
}

// InstalledBackendNames reports the names of the backends this registry
// knows, for CapabilityProbe.InstalledBackends construction. Version strings are not
// tracked here; callers that need version gating populate
// CapabilityProbe.InstalledBackends themselves from the adapter's own
// reported build metadata.
func (r *Registry) InstalledBackendNames() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	return names
}
