package jobqueue

import "time"

// JobState is the lifecycle state of a generation job. Transitions are
// Queued -> Running -> {Succeeded, Failed}; the terminal states never change
// again.
type JobState string

const (
	// StateQueued means the job waits for a worker.
	StateQueued JobState = "queued"
	// StateRunning means a worker claimed the job.
	StateRunning JobState = "running"
	// StateSucceeded means the artifact was generated and persisted.
	StateSucceeded JobState = "succeeded"
	// StateFailed means processing failed; Error carries the cause.
	StateFailed JobState = "failed"
)

// Terminal reports whether the state is final.
func (s JobState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// GenerationJob is one document generation request. It is created on submit
// and mutated only by the worker that claims it.
type GenerationJob struct {
	ID          string            `json:"id"`
	TemplateID  string            `json:"template_id"`
	Values      map[string]string `json:"values"`      // placeholder name -> raw value
	State       JobState          `json:"state"`
	ResultPath  string            `json:"result_path"` // artifact path once succeeded
	Error       string            `json:"error"`       // failure payload once failed
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at"`
}

// QueueError is a sentinel error type for queue conditions.
type QueueError string

// Error implements the error interface.
func (e QueueError) Error() string { return string(e) }

var (
	// ErrJobNotFound means the job id is unknown.
	ErrJobNotFound = QueueError("job not found")
	// ErrQueueClosed means the queue no longer accepts submissions.
	ErrQueueClosed = QueueError("queue closed")
	// ErrQueueFull means the backlog is at capacity.
	ErrQueueFull = QueueError("queue full")
	// ErrJobNotCancelable means the job already left the Queued state.
	ErrJobNotCancelable = QueueError("job is not cancelable")
)
