package stream

import (
	"testing"

	"modelrt/pkg/types"
)

func TestSequencer_SequenceStrictlyIncreasing(t *testing.T) {
	s := NewSequencer("req1", 10, nil)
	var lastSeq int64
	for i := 0; i < 5; i++ {
		ev, terminal := s.Delta(RawToken{Text: "a", TokenID: i})
		if terminal {
			t.Fatalf("unexpected terminal")
		}
		if ev.Sequence <= lastSeq {
			t.Fatalf("sequence not strictly increasing: %d after %d", ev.Sequence, lastSeq)
		}
		lastSeq = ev.Sequence
	}
	events := s.Finish(types.FinishEOS)
	fin := events[len(events)-1]
	if fin.Sequence <= lastSeq {
		t.Fatalf("finish sequence must exceed last delta sequence")
	}
}

func TestSequencer_StopReasonOnMatch(t *testing.T) {
	s := NewSequencer("req1", 5, []string{"STOP"})
	var fin *types.StreamEvent
	for _, chunk := range []string{"hello ", "wor", "ld STOP trailing"} {
		ev, terminal := s.Delta(RawToken{Text: chunk})
		if terminal {
			fin = ev
			break
		}
	}
	if fin == nil || fin.FinishReason != types.FinishStop {
		t.Fatalf("expected finish(stop), got %+v", fin)
	}
}

func TestSequencer_NonStreamResultLosslessProjection(t *testing.T) {
	s := NewSequencer("req1", 3, nil)
	var text string
	for _, chunk := range []string{"ab", "cd", "ef"} {
		ev, _ := s.Delta(RawToken{Text: chunk})
		if ev.DeltaText != nil {
			text += *ev.DeltaText
		}
	}
	s.Finish(types.FinishEOS)
	result := s.Result(types.FinishEOS)
	if result.Text != text {
		t.Fatalf("non-stream text %q does not match concatenated deltas %q", result.Text, text)
	}
	if result.FinishReason != types.FinishEOS {
		t.Fatalf("unexpected finish reason: %s", result.FinishReason)
	}
}

// TestSequencer_FinishFlushesRetainedTailAsDelta exercises a real stop
// string that never matches: the StopMatcher holds back len(stop)-1 bytes
// after every Feed, so the streamed deltas alone are short of Result.Text
// until Finish's flushed tail is folded back in as a delta event.
func TestSequencer_FinishFlushesRetainedTailAsDelta(t *testing.T) {
	s := NewSequencer("req1", 3, []string{"STOP"})
	var streamed string
	for _, chunk := range []string{"hello ", "wor", "ld"} {
		ev, terminal := s.Delta(RawToken{Text: chunk})
		if terminal {
			t.Fatalf("unexpected terminal match")
		}
		if ev.DeltaText != nil {
			streamed += *ev.DeltaText
		}
	}
	events := s.Finish(types.FinishEOS)
	if len(events) != 2 {
		t.Fatalf("expected a flushed tail delta plus the finish event, got %d events", len(events))
	}
	tailEv := events[0]
	if tailEv.Type != types.StreamDelta || tailEv.DeltaText == nil {
		t.Fatalf("expected first finish event to be a delta carrying the retained tail, got %+v", tailEv)
	}
	streamed += *tailEv.DeltaText
	finEv := events[1]
	if finEv.Type != types.StreamFinish || finEv.Sequence <= tailEv.Sequence {
		t.Fatalf("expected finish event to follow the tail delta with a higher sequence, got %+v", finEv)
	}
	result := s.Result(types.FinishEOS)
	if result.Text != streamed {
		t.Fatalf("non-stream text %q does not match streamed deltas + flushed tail %q", result.Text, streamed)
	}
	if result.Text != "hello world" {
		t.Fatalf("expected full text %q, got %q", "hello world", result.Text)
	}
}

func TestSequencer_ErrorIsTerminal(t *testing.T) {
	s := NewSequencer("req1", 0, nil)
	werr := &types.Error{Code: types.CodeTaskTimeout, Message: "boom"}
	ev := s.Error(werr)
	if ev.Type != types.StreamError || ev.FinishReason != types.FinishError {
		t.Fatalf("unexpected error event: %+v", ev)
	}
	if s.Finish(types.FinishEOS) != nil {
		t.Fatalf("stream must not emit further events after terminal")
	}
}
