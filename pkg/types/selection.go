package types

// Candidate is one (backend, provider) pair the selector considered,
// accepted or rejected, with reason codes — the audit trail consumers
// display when selection fails (§4.2).
type Candidate struct {
	Backend  string   `json:"backend"`
	Provider string   `json:"provider"`
	Accepted bool     `json:"accepted"`
	Reasons  []string `json:"reasons,omitempty"`
}

// DowngradeStep records one applied step of the downgrade ladder.
type DowngradeStep struct {
	Dimension string `json:"dimension"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// FinalDecision is the selector's terminal outcome.
type FinalDecision struct {
	Backend     string `json:"backend,omitempty"`
	Provider    string `json:"provider,omitempty"`
	Threads     int    `json:"threads,omitempty"`
	GPULayers   int    `json:"gpuLayers,omitempty"`
	ContextLen  int    `json:"contextLength,omitempty"`
	Quantization string `json:"quantization,omitempty"`
	// Error is set when no fit could be found, even after downgrade.
	Error *Error `json:"error,omitempty"`
}

// SelectionReport is the diagnostic returned whenever the selector runs,
// success or failure (§6).
type SelectionReport struct {
	RequestID      string          `json:"requestId"`
	ModelID        string          `json:"modelId"`
	Candidates     []Candidate     `json:"candidates"`
	DowngradeSteps []DowngradeStep `json:"downgradeSteps"`
	FinalDecision  FinalDecision   `json:"finalDecision"`
}

// AcceleratorInfo describes one hardware-acceleration path a host exposes.
type AcceleratorInfo struct {
	Name    string `json:"name"`    // e.g. "coreml", "nnapi", "cuda", "metal"
	Backend string `json:"backend"` // which backend this accelerator applies to
	Stable  bool   `json:"stable"`
}

// CapabilityProbe carries host facts the selector consumes. It is
// produced by probing (cmd/modelrtd probes for every selection), or supplied by the caller on
// platforms the core cannot probe itself (mobile NNAPI/CoreML — §11.1 of
// the expanded spec; the core never reaches into platform bindings).
type CapabilityProbe struct {
	Platform          string
	CPUCores          int
	TotalMemoryMB     int
	AvailableMemoryMB int
	InstalledBackends map[string]string // backend -> version
	Accelerators      []AcceleratorInfo
}

// SelectionHints are optional caller-supplied overrides/preferences.
type SelectionHints struct {
	PreferredBackend  string
	PreferredProvider string
	MaxThreads        int
}
