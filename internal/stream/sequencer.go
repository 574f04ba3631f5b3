package stream

import (
	"strings"
	"time"

	"modelrt/pkg/types"
)

// RawToken is what a Backend Adapter (C7) hands the sequencer per
// generation step, before normalization into the wire StreamEvent schema.
type RawToken struct {
	Text    string
	TokenID int
}

// Sequencer normalizes a backend's raw token stream into the wire event
// schema: strictly increasing sequence numbers, cross-chunk stop
// matching, and exactly one terminal event per requestId (§4.4).
type Sequencer struct {
	requestID string
	stop      *StopMatcher
	seq       int64

	promptTokens     int
	completionTokens int
	firstTokenAt     *time.Time
	startedAt        time.Time
	finished         bool

	text strings.Builder
}

func NewSequencer(requestID string, promptTokens int, stopStrings []string) *Sequencer {
	return &Sequencer{
		requestID:    requestID,
		stop:         NewStopMatcher(stopStrings),
		promptTokens: promptTokens,
		startedAt:    time.Now(),
	}
}

// Delta processes one raw token, returning the StreamEvent to forward (if
// any) and whether the stream has now reached its terminal event.
func (s *Sequencer) Delta(tok RawToken) (ev *types.StreamEvent, terminal bool) {
	if s.finished {
		return nil, true
	}
	if s.firstTokenAt == nil {
		now := time.Now()
		s.firstTokenAt = &now
	}
	s.completionTokens++

	emit, stopped := s.stop.Feed(tok.Text)
	if emit != "" {
		s.text.WriteString(emit)
	}

	if stopped {
		s.finished = true
		return s.finishEvent(types.FinishStop), true
	}

	s.seq++
	deltaText := emit
	return &types.StreamEvent{
		RequestID: s.requestID,
		Sequence:  s.seq,
		Type:      types.StreamDelta,
		DeltaText: &deltaText,
		TokenIDs:  []int{tok.TokenID},
	}, false
}

// Finish closes the stream with reason (eos, length, or cancel — stop is
// only reached via Delta's internal match). Any text still buffered in the
// stop matcher (no match possible now that the stream has ended) is
// flushed and returned as a final delta event, ahead of the finish event,
// so streamed deltas and Result stay a lossless projection of each other
// (§4.4) even when stopStrings are set.
func (s *Sequencer) Finish(reason types.FinishReason) []*types.StreamEvent {
	if s.finished {
		return nil
	}
	var events []*types.StreamEvent
	if tail := s.stop.Flush(); tail != "" {
		s.text.WriteString(tail)
		s.seq++
		events = append(events, &types.StreamEvent{
			RequestID: s.requestID,
			Sequence:  s.seq,
			Type:      types.StreamDelta,
			DeltaText: &tail,
			TokenIDs:  nil,
		})
	}
	s.finished = true
	return append(events, s.finishEvent(reason))
}

// Error closes the stream with a terminal Error event.
func (s *Sequencer) Error(err *types.Error) *types.StreamEvent {
	if s.finished {
		return nil
	}
	s.finished = true
	s.seq++
	return &types.StreamEvent{
		RequestID:    s.requestID,
		Sequence:     s.seq,
		Type:         types.StreamError,
		FinishReason: types.FinishError,
		Error:        err,
	}
}

func (s *Sequencer) finishEvent(reason types.FinishReason) *types.StreamEvent {
	s.seq++
	stats := s.statsSnapshot()
	return &types.StreamEvent{
		RequestID:    s.requestID,
		Sequence:     s.seq,
		Type:         types.StreamFinish,
		FinishReason: reason,
		Stats:        &stats,
	}
}

func (s *Sequencer) statsSnapshot() types.GenerationStats {
	stats := types.GenerationStats{
		PromptTokens:     s.promptTokens,
		CompletionTokens: s.completionTokens,
	}
	if s.firstTokenAt != nil {
		ms := s.firstTokenAt.Sub(s.startedAt).Milliseconds()
		stats.TimeToFirstTokenMs = &ms
	}
	if s.completionTokens > 0 {
		msPer := float64(time.Since(s.startedAt).Milliseconds()) / float64(s.completionTokens)
		stats.MsPerToken = &msPer
	}
	return stats
}

// Result returns the lossless non-streaming projection built from every
// delta emitted so far plus the terminal reason/stats (§4.4).
func (s *Sequencer) Result(reason types.FinishReason) types.NonStreamResult {
	return types.NonStreamResult{
		Text:         s.text.String(),
		FinishReason: reason,
		Stats:        s.statsSnapshot(),
	}
}
