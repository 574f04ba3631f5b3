// Package selector implements the runtime selector (§4.2, C4): a pure
// function of (manifest item, capability probe, hints) that walks a fixed
// decision order and, on resource pressure, a reproducible downgrade
// ladder, producing a fully audited SelectionReport. Grounded on the
// teacher's internal/manager (estimateVRAMMB budget-fit idiom, config.go
// defaulting idiom), generalized from "pick one model to load" to a
// multi-dimension backend/provider/downgrade decision.
package selector

import (
	"fmt"

	"github.com/google/uuid"

	"modelrt/internal/coreerr"
	"modelrt/pkg/types"
)

// defaultBackend returns the model-type fallback used when no
// backendHints entry matches (§4.2 step 2).
func defaultBackend(t types.ModelType, platform string) string {
	if platform == "mobile" || platform == "android" || platform == "ios" {
		return "onnx"
	}
	switch t {
	case types.ModelTypeLLM:
		return "llama.cpp"
	default:
		return "onnx"
	}
}

// Select runs the fixed decision order against item for the given
// probe and hints, returning a complete SelectionReport regardless of
// success or failure.
func Select(item types.ModelItem, probe types.CapabilityProbe, hints types.SelectionHints) types.SelectionReport {
	report := types.SelectionReport{
		RequestID: uuid.NewString(),
		ModelID:   item.ID,
	}

	// Step 1: platform / SDK / backend-version filter.
	if !item.SupportsPlatform(probe.Platform) {
		report.FinalDecision = failDecision(coreerr.UnsupportedPlatform(item.ID, probe.Platform))
		return report
	}
	if minSDK, ok := item.MinSDKVersion[probe.Platform]; ok {
		report.Candidates = append(report.Candidates, types.Candidate{
			Backend: "(platform)", Accepted: true,
			Reasons: []string{fmt.Sprintf("minSdkVersion %s required for %s", minSDK, probe.Platform)},
		})
	}

	// Step 2: walk backendHints left-to-right; first installed + valid wins.
	backend := ""
	for _, hint := range item.BackendHints {
		version, installed := probe.InstalledBackends[hint]
		if minVer, ok := item.MinBackendVersion[hint]; ok && installed && version < minVer {
			report.Candidates = append(report.Candidates, types.Candidate{
				Backend: hint, Accepted: false,
				Reasons: []string{fmt.Sprintf("installed version %s below required %s", version, minVer)},
			})
			continue
		}
		if !installed {
			report.Candidates = append(report.Candidates, types.Candidate{
				Backend: hint, Accepted: false, Reasons: []string{"backend not installed"},
			})
			continue
		}
		backend = hint
		report.Candidates = append(report.Candidates, types.Candidate{Backend: hint, Accepted: true})
		break
	}
	if backend == "" {
		backend = defaultBackend(item.Type, probe.Platform)
		report.Candidates = append(report.Candidates, types.Candidate{
			Backend: backend, Accepted: true, Reasons: []string{"no backendHints matched; used type default"},
		})
	}
	if hints.PreferredBackend != "" {
		backend = hints.PreferredBackend
	}

	// Step 3: prefer stable hardware acceleration for the chosen backend,
	// CPU recorded as fallback candidate.
	provider := "cpu"
	for _, acc := range probe.Accelerators {
		if acc.Backend == backend && acc.Stable {
			provider = acc.Name
			report.Candidates = append(report.Candidates, types.Candidate{Backend: backend, Provider: acc.Name, Accepted: true})
			break
		}
	}
	report.Candidates = append(report.Candidates, types.Candidate{Backend: backend, Provider: "cpu", Accepted: provider == "cpu"})
	if hints.PreferredProvider != "" {
		provider = hints.PreferredProvider
	}

	// Step 4: resource-fit check, running the downgrade ladder on failure.
	decision, steps, resourceCandidates, fitErr := fitWithDowngrade(item, probe, hints, backend, provider)
	report.DowngradeSteps = steps
	report.Candidates = append(report.Candidates, resourceCandidates...)
	if fitErr != nil {
		report.FinalDecision = failDecision(fitErr)
		return report
	}
	report.FinalDecision = decision
	return report
}

func failDecision(err *coreerr.CoreError) types.FinalDecision {
	return types.FinalDecision{Error: err.AsWire()}
}
