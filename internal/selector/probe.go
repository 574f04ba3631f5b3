package selector

import (
	"runtime"

	"github.com/jaypipes/ghw"

	"modelrt/pkg/types"
)

// ProbeHost builds a CapabilityProbe from live host facts using ghw's
// CPU/memory detection (§11.1 of the expanded spec); cmd/modelrtd calls it
// afresh for every selection on desktop. Mobile platforms
// supply their own probe via NNAPI/CoreML bindings the core never reaches
// into, so this function is desktop-only; callers on mobile construct
// types.CapabilityProbe directly.
func ProbeHost(installedBackends map[string]string, accelerators []types.AcceleratorInfo) (types.CapabilityProbe, error) {
	probe := types.CapabilityProbe{
		Platform:          runtime.GOOS,
		InstalledBackends: installedBackends,
		Accelerators:      accelerators,
	}

	cpuInfo, err := ghw.CPU()
	if err != nil {
		return probe, err
	}
	probe.CPUCores = int(cpuInfo.TotalCores)

	memInfo, err := ghw.Memory()
	if err != nil {
		return probe, err
	}
	const mib = 1024 * 1024
	probe.TotalMemoryMB = int(memInfo.TotalPhysicalBytes / mib)
	probe.AvailableMemoryMB = int(memInfo.TotalUsableBytes / mib)

	return probe, nil
}
