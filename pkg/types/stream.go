package types

// StreamEventType enumerates the four StreamEvent shapes (§3, §4.4).
type StreamEventType string

const (
	StreamDelta   StreamEventType = "delta"
	StreamMetrics StreamEventType = "metrics"
	StreamFinish  StreamEventType = "finish"
	StreamError   StreamEventType = "error"
)

// FinishReason is the closed domain for a stream's terminal reason. No
// other value is valid on the wire (§4.4).
type FinishReason string

const (
	FinishEOS    FinishReason = "eos"
	FinishLength FinishReason = "length"
	FinishStop   FinishReason = "stop"
	FinishCancel FinishReason = "cancel"
	FinishError  FinishReason = "error"
)

// GenerationStats accompanies Metrics and Finish events.
type GenerationStats struct {
	PromptTokens        int     `json:"promptTokens"`
	CompletionTokens    int     `json:"completionTokens"`
	TimeToFirstTokenMs  *int64  `json:"timeToFirstTokenMs,omitempty"`
	MsPerToken          *float64 `json:"msPerToken,omitempty"`
}

// StreamEvent is one event in an LLM request's normalized event stream.
// Every event shares (RequestID, Sequence); exactly one field set below is
// populated per the event's Type.
type StreamEvent struct {
	RequestID string          `json:"requestId"`
	Sequence  int64           `json:"sequence"`
	Type      StreamEventType `json:"eventType"`

	// delta
	DeltaText *string `json:"deltaText,omitempty"`
	TokenIDs  []int   `json:"tokenIds,omitempty"`

	// metrics / finish
	Stats *GenerationStats `json:"stats,omitempty"`

	// finish / error
	FinishReason FinishReason `json:"finishReason,omitempty"`

	// error
	Error *Error `json:"error,omitempty"`
}

// NonStreamResult is the parallel non-streaming schema: concatenating all
// delta.deltaText in sequence and carrying the terminal finishReason/stats
// must losslessly reproduce it (§4.4).
type NonStreamResult struct {
	Text         string          `json:"text"`
	FinishReason FinishReason    `json:"finishReason"`
	Stats        GenerationStats `json:"stats"`
}
