// Package stream implements the LLM stream protocol (§4.4, C6): a
// strictly-sequenced StreamEvent producer with cross-chunk stop-string
// matching and a lossless non-streaming projection. Grounded on the
// teacher's internal/manager/inference.go NDJSON flush idiom, rewritten
// around a byte-exact rolling-buffer matcher rather than the teacher's
// per-chunk buffer-clearing (flagged as a correctness bug: it drops the
// retained tail needed to catch matches straddling chunk boundaries).
package stream

import "strings"

// StopMatcher retains the minimal rolling buffer needed to detect a
// configured stop string even when it straddles two chunks, emitting
// everything else as soon as it is provably not part of a future match
// (§4.4 "Cross-chunk stop matching"). Unlike a buffer that resets on every
// chunk, it always keeps max(len(s) for s in stopStrings)-1 bytes pending.
type StopMatcher struct {
	stops     []string
	maxKeep   int
	buf       strings.Builder
	matched   bool
	matchText string
}

// NewStopMatcher builds a matcher for the given ordered stop strings.
// The match that starts earliest in the text wins; when two strings match
// at the same position, the one configured first wins (§4.4).
func NewStopMatcher(stops []string) *StopMatcher {
	maxKeep := 0
	for _, s := range stops {
		if len(s)-1 > maxKeep {
			maxKeep = len(s) - 1
		}
	}
	return &StopMatcher{stops: stops, maxKeep: maxKeep}
}

// Feed appends chunk to the rolling buffer and returns (emit, stopped).
// emit is the text now safe to flush as a delta; stopped becomes true when
// a configured stop string is found — on that call emit is the text up to
// (not including) the match. Every later Feed returns ("", true), and
// Flush returns "" once a match has been found.
func (m *StopMatcher) Feed(chunk string) (emit string, stopped bool) {
	if m.matched {
		return "", true
	}
	m.buf.WriteString(chunk)
	full := m.buf.String()

	if idx, which := m.firstMatch(full); idx >= 0 {
		m.matched = true
		m.matchText = m.stops[which]
		m.buf.Reset()
		return full[:idx], true
	}

	if len(full) <= m.maxKeep {
		return "", false
	}
	cut := len(full) - m.maxKeep
	emit = full[:cut]
	m.buf.Reset()
	m.buf.WriteString(full[cut:])
	return emit, false
}

// Flush returns any text still buffered with no stop match possible — call
// once the upstream token source is exhausted without a match.
func (m *StopMatcher) Flush() string {
	if m.matched {
		return ""
	}
	out := m.buf.String()
	m.buf.Reset()
	return out
}

// Matched reports whether a stop string has been found, and which.
func (m *StopMatcher) Matched() (string, bool) { return m.matchText, m.matched }

func (m *StopMatcher) firstMatch(text string) (idx int, which int) {
	bestIdx := -1
	bestWhich := -1
	for i, s := range m.stops {
		if s == "" {
			continue
		}
		if j := strings.Index(text, s); j >= 0 {
			if bestIdx == -1 || j < bestIdx {
				bestIdx = j
				bestWhich = i
			}
		}
	}
	return bestIdx, bestWhich
}
