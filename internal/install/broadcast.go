package install

import (
	"sync"

	"modelrt/pkg/types"
)

// broadcaster fans a single install's InstallProgress sequence out to every
// subscriber sharing that install (§4.1: "the later submitter receives the
// same progress stream and terminal outcome"). Subscribers that join after
// some events have already fired still receive every event from the point
// they subscribed onward, plus the replayed terminal event if the install
// has already finished.
type broadcaster struct {
	mu       sync.Mutex
	subs     []chan types.InstallProgress
	done     chan struct{}
	terminal types.InstallProgress
	closed   bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{done: make(chan struct{})}
}

// subscribe returns a channel delivering future events. The channel holds
// 16 events; a non-terminal event published while it is full is dropped
// for this subscriber, while the terminal event is always delivered.
// Callers MUST drain it until it closes.
func (b *broadcaster) subscribe() <-chan types.InstallProgress {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan types.InstallProgress, 16)
	if b.closed {
		ch <- b.terminal
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// publish delivers ev to every current subscriber. The owning install
// worker is the sole publisher for a given key, so no external lock is
// needed beyond the one guarding subs/closed here.
func (b *broadcaster) publish(ev types.InstallProgress) {
	b.mu.Lock()
	defer b.mu.Unlock()
	terminal := ev.Terminal()
	for _, ch := range b.subs {
		if terminal {
			// P1 guarantees exactly one terminal event per subscriber; a
			// saturated buffer must not cost it the close, so this send
			// blocks rather than drops. Well-behaved callers already drain
			// their channel per subscribe's contract.
			ch <- ev
			continue
		}
		select {
		case ch <- ev:
		default:
			// slow subscriber; drop rather than block the installer.
		}
	}
	if terminal {
		b.terminal = ev
		b.closed = true
		for _, ch := range b.subs {
			close(ch)
		}
		close(b.done)
	}
}
