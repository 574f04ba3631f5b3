package selector

import (
	"strconv"
	"strings"

	"modelrt/internal/coreerr"
	"modelrt/pkg/types"
)

// fitWithDowngrade checks item against probe at its default configuration,
// and if that doesn't fit, walks the fixed downgrade ladder — quantization,
// contextLength, threads, gpuLayers, each dimension tried at most once, in
// that order (§4.2 "Downgrade ladder — reproducible"). Every configuration
// that fails the fit check is recorded both as a DowngradeStep (what
// changed) and as a rejected Candidate carrying an INSUFFICIENT_MEMORY
// reason (§4.2 step 4 "audit trail consumers display when selection
// fails"), not just the successful terminal one.
func fitWithDowngrade(item types.ModelItem, probe types.CapabilityProbe, hints types.SelectionHints, backend, provider string) (types.FinalDecision, []types.DowngradeStep, []types.Candidate, *coreerr.CoreError) {
	cfg := defaultCandidate(item, probe, hints)
	var steps []types.DowngradeStep
	var candidates []types.Candidate

	if fits(cfg, probe) {
		return toDecision(backend, provider, cfg), steps, candidates, nil
	}
	candidates = append(candidates, rejectedCandidate(backend, provider, cfg, probe))

	// quantization: only variants explicitly listed in the manifest.
	for _, v := range item.Variants {
		if v == cfg.quantization {
			continue
		}
		trial := cfg
		trial.quantization = v
		steps = append(steps, types.DowngradeStep{Dimension: "quantization", From: cfg.quantization, To: v})
		if fits(trial, probe) {
			return toDecision(backend, provider, trial), steps, candidates, nil
		}
		candidates = append(candidates, rejectedCandidate(backend, provider, trial, probe))
		cfg = trial
	}

	// contextLength: fixed ladder, skip rungs above the model's own value.
	for _, rung := range types.ContextLadder {
		if rung >= cfg.contextLength {
			continue
		}
		trial := cfg
		trial.contextLength = rung
		steps = append(steps, types.DowngradeStep{
			Dimension: "contextLength",
			From:      strconv.Itoa(cfg.contextLength), To: strconv.Itoa(rung),
		})
		if fits(trial, probe) {
			return toDecision(backend, provider, trial), steps, candidates, nil
		}
		candidates = append(candidates, rejectedCandidate(backend, provider, trial, probe))
		cfg = trial
	}

	// threads: bounded [1, cpuCores], default max(1, cpuCores-1).
	minThreads := 1
	if cfg.threads > minThreads {
		trial := cfg
		trial.threads = minThreads
		steps = append(steps, types.DowngradeStep{
			Dimension: "threads",
			From:      strconv.Itoa(cfg.threads), To: strconv.Itoa(minThreads),
		})
		if fits(trial, probe) {
			return toDecision(backend, provider, trial), steps, candidates, nil
		}
		candidates = append(candidates, rejectedCandidate(backend, provider, trial, probe))
		cfg = trial
	}

	// gpuLayers: under memory pressure, drop directly to 0.
	if cfg.gpuLayers > 0 {
		trial := cfg
		trial.gpuLayers = 0
		steps = append(steps, types.DowngradeStep{
			Dimension: "gpuLayers",
			From:      strconv.Itoa(cfg.gpuLayers), To: "0",
		})
		if fits(trial, probe) {
			return toDecision(backend, provider, trial), steps, candidates, nil
		}
		candidates = append(candidates, rejectedCandidate(backend, provider, trial, probe))
		cfg = trial
	}

	return types.FinalDecision{}, steps, candidates, coreerr.RuntimeNotAvailable("no configuration fits host capability", len(steps)+1)
}

// rejectedCandidate records a (backend, provider) pair the fit check turned
// down at cfg, carrying the coreerr.InsufficientMemory taxonomy reason so
// audit-trail consumers can see why, not just that a downgrade happened.
func rejectedCandidate(backend, provider string, cfg candidateConfig, probe types.CapabilityProbe) types.Candidate {
	err := coreerr.InsufficientMemory(estimateMB(cfg), probe.AvailableMemoryMB)
	return types.Candidate{
		Backend:  backend,
		Provider: provider,
		Accepted: false,
		Reasons:  []string{string(err.Code()), err.Error()},
	}
}

// candidateConfig is the selector's internal working configuration across
// downgrade dimensions.
type candidateConfig struct {
	quantization     string
	baseQuantization string // item.Quantization: what requiredMB was measured at
	contextLength    int
	threads          int
	gpuLayers        int
	requiredMB       int
}

func defaultCandidate(item types.ModelItem, probe types.CapabilityProbe, hints types.SelectionHints) candidateConfig {
	threads := maxInt(1, probe.CPUCores-1)
	if hints.MaxThreads > 0 && hints.MaxThreads < threads {
		threads = hints.MaxThreads
	}
	ctxLen := item.ContextLength
	if ctxLen == 0 {
		ctxLen = types.ContextLadder[0]
	}
	return candidateConfig{
		quantization:     item.Quantization,
		baseQuantization: item.Quantization,
		contextLength:    ctxLen,
		threads:          threads,
		gpuLayers:        item.MaxGPULayers,
		requiredMB:       item.RequiredMemoryMB,
	}
}

// fits reports whether cfg's estimated memory requirement is within the
// host's available memory. contextLength and the quantization ratio scale
// the baseline estimate, matching how the teacher's estimateVRAMMB scales a
// flat per-model cost by configuration knobs; threads and gpuLayers are
// range-checked here but do not enter the estimate.
func fits(cfg candidateConfig, probe types.CapabilityProbe) bool {
	if cfg.threads < 1 || cfg.threads > maxInt(1, probe.CPUCores) {
		return false
	}
	if cfg.gpuLayers < 0 || (cfg.requiredMB > 0 && cfg.gpuLayers > 0 && probe.AvailableMemoryMB <= 0) {
		return false
	}
	return estimateMB(cfg) <= probe.AvailableMemoryMB
}

func estimateMB(cfg candidateConfig) int {
	if cfg.requiredMB == 0 {
		return 0
	}
	base := cfg.requiredMB
	ctxFactor := float64(cfg.contextLength) / float64(types.ContextLadder[0])
	quantRatio := quantBitsPerWeight(cfg.quantization) / quantBitsPerWeight(cfg.baseQuantization)
	return int(float64(base) * quantRatio * (0.5 + 0.5*ctxFactor))
}

// quantBitsPerWeight approximates GGUF k-quant storage cost, grounded on the
// per-type bits-per-weight noted in ollama's x/ml/backend/mlx/quant.go block
// comments (Q6_K "effectively 6.5625 bits per weight", Q4_K "effectively 4.5
// bits per weight"). requiredMB scales by
// the ratio between a trial quantization's bpw and the manifest's declared
// (baseline) quantization's bpw, so the quantization downgrade rung actually
// shrinks the memory estimate instead of being a pure audit-only step.
// Unrecognized strings fall back to the Q4_K_M rung, the most common default.
func quantBitsPerWeight(name string) float64 {
	switch strings.ToUpper(name) {
	case "F32":
		return 32
	case "F16", "BF16":
		return 16
	case "Q8_0":
		return 8.5
	case "Q6_K":
		return 6.5625
	case "Q5_K_M", "Q5_K_S", "Q5_0", "Q5_1":
		return 5.5
	case "Q4_K_M", "Q4_K_S", "Q4_0", "Q4_1":
		return 4.5
	case "Q3_K_M", "Q3_K_S", "Q3_K_L":
		return 3.5
	case "Q2_K":
		return 2.5625
	default:
		return 4.5
	}
}

func toDecision(backend, provider string, cfg candidateConfig) types.FinalDecision {
	return types.FinalDecision{
		Backend:      backend,
		Provider:     provider,
		Threads:      cfg.threads,
		GPULayers:    cfg.gpuLayers,
		ContextLen:   cfg.contextLength,
		Quantization: cfg.quantization,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
