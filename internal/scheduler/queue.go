package scheduler

import (
	"container/heap"

	"modelrt/pkg/types"
)

// priorityQueue orders pending tasks by descending priority, ties broken
// FIFO by submission order (§4.3 "Ordering").
type priorityQueue struct {
	items []*Task
	seq   map[*Task]int64
	next  int64
}

func newPriorityQueue() *priorityQueue {
	return &priorityQueue{seq: make(map[*Task]int64)}
}

func (q *priorityQueue) push(t *Task) {
	q.seq[t] = q.next
	q.next++
	heap.Push(heapAdapter{q}, t)
}

func (q *priorityQueue) pop() *Task {
	if len(q.items) == 0 {
		return nil
	}
	t := heap.Pop(heapAdapter{q}).(*Task)
	delete(q.seq, t)
	return t
}

func (q *priorityQueue) remove(t *Task) bool {
	for i, cand := range q.items {
		if cand == t {
			q.items = append(q.items[:i], q.items[i+1:]...)
			delete(q.seq, t)
			heap.Init(heapAdapter{q})
			return true
		}
	}
	return false
}

func (q *priorityQueue) len() int { return len(q.items) }

// heapAdapter implements container/heap.Interface over priorityQueue
// without exposing heap internals on the public type.
type heapAdapter struct{ q *priorityQueue }

func (h heapAdapter) Len() int { return len(h.q.items) }
func (h heapAdapter) Less(i, j int) bool {
	a, b := h.q.items[i], h.q.items[j]
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return h.q.seq[a] < h.q.seq[b]
}
func (h heapAdapter) Swap(i, j int) { h.q.items[i], h.q.items[j] = h.q.items[j], h.q.items[i] }
func (h heapAdapter) Push(x any)    { h.q.items = append(h.q.items, x.(*Task)) }
func (h heapAdapter) Pop() any {
	old := h.q.items
	n := len(old)
	t := old[n-1]
	h.q.items = old[:n-1]
	return t
}

// defaultQueueCaps is the per-task-type concurrency cap table (§4.3).
var defaultQueueCaps = map[types.TaskType]int{
	types.TaskLLM:       1,
	types.TaskOCR:       2,
	types.TaskSTT:       2,
	types.TaskTTS:       1,
	types.TaskEmbedding: 2,
	types.TaskDownload:  3,
	types.TaskVerify:    2,
}
