package types

// InferRequest represents an LLM inference request payload. No route
// decodes it: POST /v1/generate decodes its own body (modelId plus the
// sampling fields and stop), takes its timeout from ?timeoutSeconds, and
// always streams NDJSON; stream, priority and timeoutMs are not read.
type InferRequest struct {
	// Prompt text to generate a completion for.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt"`
	// If true, stream results as NDJSON StreamEvents; otherwise a single
	// NonStreamResult is returned.
	// example: true
	Stream bool `json:"stream,omitempty"`
	// Maximum number of new tokens to generate.
	// example: 128
	MaxTokens int `json:"maxTokens,omitempty"`
	// Sampling temperature (higher = more random).
	// example: 0.7
	Temperature float64 `json:"temperature,omitempty"`
	// Nucleus sampling probability.
	// example: 0.9
	TopP float64 `json:"topP,omitempty"`
	// Top-K sampling: limit candidates to top K tokens.
	// example: 40
	TopK int `json:"topK,omitempty"`
	// Stop sequences. Generation stops when any sequence is matched
	// (cross-chunk, §4.4).
	// example: ["\n\nUser:"]
	Stop []string `json:"stop,omitempty"`
	// Random seed for reproducibility; 0 lets the backend choose.
	Seed int64 `json:"seed,omitempty"`
	// Repeat penalty applied by supporting backends.
	RepeatPenalty float64 `json:"repeatPenalty,omitempty"`
	// Priority controls scheduler ordering within this request's queue.
	Priority int `json:"priority,omitempty"`
	// TimeoutMs, if set, arms a per-task timeout (§4.3).
	TimeoutMs int64 `json:"timeoutMs,omitempty"`
}

// ErrorResponse is a consistent JSON error payload for HTTP failures.
type ErrorResponse struct {
	Error      string         `json:"error"`
	Code       ErrorCode      `json:"code,omitempty"`
	HTTPStatus int            `json:"status"`
	Retriable  bool           `json:"retriable,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// ModelsResponse wraps the list of items returned by GET /v1/models.
type ModelsResponse struct {
	Items []ModelItem `json:"models"`
}

// StatusResponse describes a process-wide view of the scheduler, active
// installs, and manifest freshness. No route returns it: GET /status
// responds with a map holding scheduler, ready, manifestVersion and
// modelCount.
type StatusResponse struct {
	ManifestContentVersion string         `json:"manifestContentVersion"`
	InstalledVersions      []InstalledRef `json:"installedVersions"`
	InstallsInProgress     int            `json:"installsInProgress"`
	Scheduler              SchedulerStats `json:"scheduler"`
	UptimeSeconds          int64          `json:"uptimeSeconds"`
	ServerTimeUnix         int64          `json:"serverTimeUnix"`
}

// InstalledRef names one on-disk installed (modelId, version), plus
// whether it's the activated version for that model.
type InstalledRef struct {
	ModelID  string `json:"modelId"`
	Version  string `json:"version"`
	Active   bool   `json:"active"`
	SizeMB   int64  `json:"sizeMb"`
	LastUsed int64  `json:"lastUsedUnix"`
}
