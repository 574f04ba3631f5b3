package types

import "time"

// TaskType distinguishes scheduler queues (§4.3). Each has its own cap.
type TaskType string

const (
	TaskLLM        TaskType = "llm"
	TaskOCR        TaskType = "ocr"
	TaskSTT        TaskType = "stt"
	TaskTTS        TaskType = "tts"
	TaskEmbedding  TaskType = "embedding"
	TaskDownload   TaskType = "download"
	TaskVerify     TaskType = "verify"
)

// ResourceType is advisory metadata for queue assignment and reporting; it
// is not a scheduling key by itself (§4.3).
type ResourceType string

const (
	ResourceCPUBound ResourceType = "cpuBound"
	ResourceGPUBound ResourceType = "gpuBound"
	ResourceIOBound  ResourceType = "ioBound"
)

// TaskStatus is the lifecycle status of a scheduled Task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
	TaskTimeout   TaskStatus = "timeout"
)

// Terminal reports whether status is one of the scheduler's terminal states.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskCompleted, TaskFailed, TaskCancelled, TaskTimeout:
		return true
	default:
		return false
	}
}

// TaskEventType enumerates the scheduler's broadcast lifecycle events.
type TaskEventType string

const (
	EventSubmitted TaskEventType = "submitted"
	EventStarted   TaskEventType = "started"
	EventCompleted TaskEventType = "completed"
	EventFailed    TaskEventType = "failed"
	EventCancelled TaskEventType = "cancelled"
	EventTimeout   TaskEventType = "timeout"
)

// TaskEvent is one scheduler lifecycle notification (§6).
type TaskEvent struct {
	Type      TaskEventType `json:"type"`
	TaskID    string        `json:"taskId"`
	Timestamp time.Time     `json:"timestamp"`
	Error     *Error        `json:"error,omitempty"`
}

// SchedulerStats are read-consistent snapshot counters (§4.3).
type SchedulerStats struct {
	TotalSubmitted uint64 `json:"totalSubmitted"`
	TotalCompleted uint64 `json:"totalCompleted"`
	TotalFailed    uint64 `json:"totalFailed"`
	TotalCancelled uint64 `json:"totalCancelled"`
	TotalTimeout   uint64 `json:"totalTimeout"`
	Running        int    `json:"running"`
	Pending        int    `json:"pending"`
}
