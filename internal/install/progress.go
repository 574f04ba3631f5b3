package install

import (
	"time"

	"modelrt/pkg/types"
)

// coalescer decides when a downloading-phase byte count is worth emitting
// as an InstallProgress event: at least every 500ms of wall time or every
// whole percent of receivedBytes/totalBytes, whichever comes sooner
// (§4.1 "Progress event rule").
type coalescer struct {
	interval   time.Duration
	lastEmit   time.Time
	lastPct    int
	totalBytes int64
}

func newCoalescer(totalBytes int64) *coalescer {
	return &coalescer{interval: 500 * time.Millisecond, totalBytes: totalBytes}
}

func (c *coalescer) shouldEmit(received int64, now time.Time) bool {
	if c.lastEmit.IsZero() {
		c.lastEmit = now
		c.lastPct = pctOf(received, c.totalBytes)
		return true
	}
	if now.Sub(c.lastEmit) >= c.interval {
		c.lastEmit = now
		c.lastPct = pctOf(received, c.totalBytes)
		return true
	}
	pct := pctOf(received, c.totalBytes)
	if pct != c.lastPct {
		c.lastEmit = now
		c.lastPct = pct
		return true
	}
	return false
}

func pctOf(received, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(float64(received) / float64(total) * 100)
}

// progressOf builds a phase's normalized progress fraction. Downloading
// is the only phase computed from received/total; verifying and
// extracting always report progress=1.0 of their own phase (§4.1).
func progressOf(phase types.InstallPhase, received, total int64) float64 {
	switch phase {
	case types.PhaseDownloading:
		if total <= 0 {
			return 0
		}
		return float64(received) / float64(total)
	case types.PhaseVerifying, types.PhaseExtracting:
		return 1.0
	default:
		return 0
	}
}
