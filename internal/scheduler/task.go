package scheduler

import (
	"context"
	"time"

	"modelrt/pkg/types"
)

// Task is (id, type, priority, resourceType, execute thunk, optional
// timeout, cancellable, mutable status, optional result/error, timestamps)
// per §3. It is created by the submitter and uniquely owned by the
// scheduler from submit to terminal status.
type Task struct {
	ID           string
	Type         types.TaskType
	Priority     int
	ResourceType types.ResourceType
	Execute      func(ctx context.Context) (any, error)
	Timeout      time.Duration
	Cancellable  bool

	status    types.TaskStatus
	result    any
	err       *types.Error
	submitted time.Time
	started   time.Time
	finished  time.Time

	cancel context.CancelFunc
}

// Status returns the task's current lifecycle status.
func (t *Task) Status() types.TaskStatus { return t.status }

// Result returns the task's result and structured error, valid once
// Status().Terminal() is true.
func (t *Task) Result() (any, *types.Error) { return t.result, t.err }
