// Package scheduler implements the task scheduler (§4.3, C5): a single
// dispatcher owning many producers' submissions, admitting work onto an
// internal worker pool bounded by a total concurrency cap and per-type
// queue caps, with cooperative cancellation, per-task timeout, and a
// broadcast lifecycle event stream. Grounded on the teacher's
// internal/manager/queue_admission.go (channel-based slot reservation with
// timeout idiom) and events.go (event bus idiom), generalized from one
// model's single admission gate to N independently-capped type queues
// dispatched by priority.
package scheduler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"modelrt/internal/coreerr"
	"modelrt/pkg/types"
)

// Config tunes a Scheduler's concurrency caps.
type Config struct {
	MaxTotalConcurrent int
	QueueCaps          map[types.TaskType]int // overrides defaultQueueCaps per type
}

// Scheduler dispatches Tasks submitted across any number of producers onto
// a bounded worker pool, honoring per-type queue caps and priority+FIFO
// ordering within each type.
type Scheduler struct {
	maxTotal int
	caps     map[types.TaskType]int

	mu      sync.Mutex
	queues  map[types.TaskType]*priorityQueue
	running map[types.TaskType]int
	byID    map[string]*Task
	stats   types.SchedulerStats

	totalRunning int
	wakeCh       chan struct{}

	events   chan types.TaskEvent
	eventsMu sync.Mutex
	subs     []chan types.TaskEvent

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a Scheduler and starts its dispatch loop.
func New(cfg Config) *Scheduler {
	caps := make(map[types.TaskType]int, len(defaultQueueCaps))
	for k, v := range defaultQueueCaps {
		caps[k] = v
	}
	for k, v := range cfg.QueueCaps {
		caps[k] = v
	}
	maxTotal := cfg.MaxTotalConcurrent
	if maxTotal <= 0 {
		maxTotal = 8
	}

	ctx, cancel := context.WithCancel(context.Background())
	eg, egCtx := errgroup.WithContext(ctx)
	s := &Scheduler{
		maxTotal: maxTotal,
		caps:     caps,
		queues:   make(map[types.TaskType]*priorityQueue),
		running:  make(map[types.TaskType]int),
		byID:     make(map[string]*Task),
		wakeCh:   make(chan struct{}, 1),
		group:    eg,
		ctx:      egCtx,
		cancel:   cancel,
	}
	for t := range caps {
		s.queues[t] = newPriorityQueue()
	}
	go s.dispatchLoop()
	return s
}

// Submit enqueues t as pending and returns immediately; the dispatcher
// admits it onto the worker pool once both its type queue and the total
// concurrency cap allow.
func (s *Scheduler) Submit(t *Task) {
	t.status = types.TaskPending
	t.submitted = time.Now()

	s.mu.Lock()
	q, ok := s.queues[t.Type]
	if !ok {
		q = newPriorityQueue()
		s.queues[t.Type] = q
	}
	q.push(t)
	s.byID[t.ID] = t
	s.stats.TotalSubmitted++
	s.stats.Pending++
	s.mu.Unlock()

	s.publish(types.TaskEvent{Type: types.EventSubmitted, TaskID: t.ID, Timestamp: t.submitted})
	s.wake()
}

// Cancel attempts to cancel taskId (§4.3 "Cancellation"). Returns true if
// the cancellation was accepted (pending tasks never run; running
// cancellable tasks receive a cooperative signal). Non-cancellable running
// tasks refuse and return false.
func (s *Scheduler) Cancel(taskID string) bool {
	s.mu.Lock()
	t, ok := s.byID[taskID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if t.status == types.TaskPending {
		if q, ok := s.queues[t.Type]; ok {
			q.remove(t)
		}
		t.status = types.TaskCancelled
		t.finished = time.Now()
		s.stats.Pending--
		s.stats.TotalCancelled++
		s.mu.Unlock()
		s.publish(types.TaskEvent{Type: types.EventCancelled, TaskID: taskID, Timestamp: time.Now()})
		return true
	}
	if t.status == types.TaskRunning {
		if !t.Cancellable || t.cancel == nil {
			s.mu.Unlock()
			return false
		}
		cancel := t.cancel
		s.mu.Unlock()
		cancel()
		return true
	}
	s.mu.Unlock()
	return false
}

// Task returns the submitted Task by ID, for status/result polling by
// transports that don't keep their own reference around (e.g. an HTTP
// handler restarted between submit and poll requests).
func (s *Scheduler) Task(taskID string) (*Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[taskID]
	return t, ok
}

// Stats returns a read-consistent snapshot of scheduler counters.
func (s *Scheduler) Stats() types.SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.stats
	snap.Running = s.totalRunning
	return snap
}

// Events returns a channel of scheduler lifecycle events. Subscribers
// should drain promptly; slow subscribers miss events rather than stall
// dispatch.
func (s *Scheduler) Events() <-chan types.TaskEvent {
	ch := make(chan types.TaskEvent, 64)
	s.eventsMu.Lock()
	s.subs = append(s.subs, ch)
	s.eventsMu.Unlock()
	return ch
}

func (s *Scheduler) publish(ev types.TaskEvent) {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Scheduler) wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// Shutdown stops admitting new work and waits for running tasks to finish.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan error, 1)
	go func() { done <- s.group.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) dispatchLoop() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.wakeCh:
			s.admitReady()
		case <-ticker.C:
			s.admitReady()
		}
	}
}

func (s *Scheduler) admitReady() {
	for {
		t := s.tryAdmitOne()
		if t == nil {
			return
		}
		s.startTask(t)
	}
}

func (s *Scheduler) tryAdmitOne() *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.totalRunning >= s.maxTotal {
		return nil
	}
	for taskType, q := range s.queues {
		if q.len() == 0 {
			continue
		}
		typeCap := s.caps[taskType]
		if typeCap > 0 && s.running[taskType] >= typeCap {
			continue
		}
		t := q.pop()
		s.running[taskType]++
		s.totalRunning++
		s.stats.Pending--
		return t
	}
	return nil
}

func (s *Scheduler) startTask(t *Task) {
	taskCtx, cancel := context.WithCancel(s.ctx)
	t.cancel = cancel
	t.status = types.TaskRunning
	t.started = time.Now()
	s.publish(types.TaskEvent{Type: types.EventStarted, TaskID: t.ID, Timestamp: t.started})

	var timer *time.Timer
	if t.Timeout > 0 {
		timer = time.AfterFunc(t.Timeout, func() {
			s.mu.Lock()
			timedOut := t.status == types.TaskRunning
			if timedOut {
				t.status = types.TaskTimeout
			}
			s.mu.Unlock()
			if timedOut {
				cancel()
			}
		})
	}

	s.group.Go(func() error {
		result, err := t.Execute(taskCtx)
		if timer != nil {
			timer.Stop()
		}
		s.finishTask(t, result, err, taskCtx)
		return nil
	})
}

func (s *Scheduler) finishTask(t *Task, result any, err error, taskCtx context.Context) {
	s.mu.Lock()
	s.running[t.Type]--
	s.totalRunning--

	finalStatus := t.status // may already be TASK_TIMEOUT, set by the timer
	var wireErr *types.Error
	switch {
	case finalStatus == types.TaskTimeout:
		wireErr = coreerr.TaskTimeout(t.ID).AsWire()
	case err != nil && taskCtx.Err() != nil:
		finalStatus = types.TaskCancelled
		wireErr = coreerr.TaskCancelled(t.ID).AsWire()
	case err != nil:
		finalStatus = types.TaskFailed
		if ce, ok := err.(*coreerr.CoreError); ok {
			wireErr = ce.AsWire()
		} else {
			wireErr = coreerr.DownloadFailed(t.ID, err).AsWire()
		}
	default:
		finalStatus = types.TaskCompleted
	}
	t.status = finalStatus
	t.result = result
	t.err = wireErr
	t.finished = time.Now()

	switch finalStatus {
	case types.TaskCompleted:
		s.stats.TotalCompleted++
	case types.TaskFailed:
		s.stats.TotalFailed++
	case types.TaskCancelled:
		s.stats.TotalCancelled++
	case types.TaskTimeout:
		s.stats.TotalTimeout++
	}
	s.mu.Unlock()

	evType := types.EventCompleted
	switch finalStatus {
	case types.TaskFailed:
		evType = types.EventFailed
	case types.TaskCancelled:
		evType = types.EventCancelled
	case types.TaskTimeout:
		evType = types.EventTimeout
	}
	s.publish(types.TaskEvent{Type: evType, TaskID: t.ID, Timestamp: t.finished, Error: wireErr})
	s.wake()
}
