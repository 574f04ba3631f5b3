package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"modelrt/pkg/types"
)

func waitForStatus(t *testing.T, tk *Task, want types.TaskStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if tk.Status() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for status %s, got %s", want, tk.Status())
}

func TestSubmit_CompletesSuccessfully(t *testing.T) {
	s := New(Config{MaxTotalConcurrent: 4})
	tk := &Task{ID: "t1", Type: types.TaskLLM, Execute: func(ctx context.Context) (any, error) {
		return "ok", nil
	}}
	s.Submit(tk)
	waitForStatus(t, tk, types.TaskCompleted)
	result, errw := tk.Result()
	if errw != nil {
		t.Fatalf("unexpected error: %+v", errw)
	}
	if result != "ok" {
		t.Fatalf("unexpected result: %v", result)
	}
}

func TestPerTypeQueueCapEnforced(t *testing.T) {
	s := New(Config{MaxTotalConcurrent: 8})
	var concurrent int32
	var maxSeen int32
	release := make(chan struct{})

	for i := 0; i < 3; i++ {
		tk := &Task{ID: string(rune('a' + i)), Type: types.TaskLLM, Execute: func(ctx context.Context) (any, error) {
			n := atomic.AddInt32(&concurrent, 1)
			for {
				old := atomic.LoadInt32(&maxSeen)
				if n <= old || atomic.CompareAndSwapInt32(&maxSeen, old, n) {
					break
				}
			}
			<-release
			atomic.AddInt32(&concurrent, -1)
			return nil, nil
		}}
		s.Submit(tk)
	}
	time.Sleep(200 * time.Millisecond)
	close(release)
	time.Sleep(200 * time.Millisecond)

	if atomic.LoadInt32(&maxSeen) > 1 {
		t.Fatalf("LLM queue cap is 1, observed %d concurrent", maxSeen)
	}
}

func TestCancelPendingTaskNeverRuns(t *testing.T) {
	s := New(Config{MaxTotalConcurrent: 1})
	blocker := &Task{ID: "blocker", Type: types.TaskLLM, Execute: func(ctx context.Context) (any, error) {
		time.Sleep(300 * time.Millisecond)
		return nil, nil
	}}
	s.Submit(blocker)
	time.Sleep(20 * time.Millisecond)

	ran := false
	pending := &Task{ID: "pending", Type: types.TaskLLM, Execute: func(ctx context.Context) (any, error) {
		ran = true
		return nil, nil
	}}
	s.Submit(pending)

	if !s.Cancel("pending") {
		t.Fatalf("expected cancel of pending task to succeed")
	}
	waitForStatus(t, pending, types.TaskCancelled)
	time.Sleep(400 * time.Millisecond)
	if ran {
		t.Fatalf("cancelled pending task must never run")
	}
}

func TestCancelRunningCancellableTask(t *testing.T) {
	s := New(Config{MaxTotalConcurrent: 4})
	started := make(chan struct{})
	tk := &Task{ID: "t1", Type: types.TaskOCR, Cancellable: true, Execute: func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	s.Submit(tk)
	<-started
	if !s.Cancel("t1") {
		t.Fatalf("expected cancellation of running cancellable task to be accepted")
	}
	waitForStatus(t, tk, types.TaskCancelled)
}

func TestTaskTimeout(t *testing.T) {
	s := New(Config{MaxTotalConcurrent: 4})
	tk := &Task{ID: "t1", Type: types.TaskLLM, Timeout: 30 * time.Millisecond, Execute: func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	s.Submit(tk)
	waitForStatus(t, tk, types.TaskTimeout)
}

func TestStatsSnapshot(t *testing.T) {
	s := New(Config{MaxTotalConcurrent: 4})
	tk := &Task{ID: "t1", Type: types.TaskEmbedding, Execute: func(ctx context.Context) (any, error) {
		return nil, nil
	}}
	s.Submit(tk)
	waitForStatus(t, tk, types.TaskCompleted)
	stats := s.Stats()
	if stats.TotalSubmitted != 1 || stats.TotalCompleted != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
