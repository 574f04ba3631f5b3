package types

// InstallPhase is one state of the install state machine (§4.1).
type InstallPhase string

const (
	PhaseIdle        InstallPhase = "idle"
	PhaseDownloading InstallPhase = "downloading"
	PhaseVerifying   InstallPhase = "verifying"
	PhaseExtracting  InstallPhase = "extracting"
	PhaseReady       InstallPhase = "ready"
	PhaseFailed      InstallPhase = "failed"
	PhaseCancelled   InstallPhase = "cancelled"
)

// Terminal reports whether phase is one of the three terminal states.
func (p InstallPhase) Terminal() bool {
	switch p {
	case PhaseReady, PhaseFailed, PhaseCancelled:
		return true
	default:
		return false
	}
}

// InstallState is the per-(modelId,version) record owned exclusively by the
// install worker driving that key (§3).
type InstallState struct {
	ModelID       string
	Version       string
	Phase         InstallPhase
	ReceivedBytes int64
	TotalBytes    int64
	RequestID     string
	Error         *Error
}

// InstallProgress is one event in an install's lazy progress sequence.
type InstallProgress struct {
	RequestID     string       `json:"requestId"`
	ModelID       string       `json:"modelId"`
	Version       string       `json:"version"`
	Phase         InstallPhase `json:"phase"`
	ReceivedBytes int64        `json:"receivedBytes"`
	TotalBytes    int64        `json:"totalBytes"`
	// Progress is in [0,1], computed from the downloading phase alone;
	// verifying/extracting report 1.0 for their own phase (§4.1).
	Progress    float64 `json:"progress"`
	CurrentFile string  `json:"currentFile,omitempty"`
	Error       *Error  `json:"error,omitempty"`
}

// Terminal reports whether this event is the stream's terminal event.
func (p InstallProgress) Terminal() bool { return p.Phase.Terminal() }
