package jobqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MemoryQueue is the in-process queue: a bounded channel of job ids consumed
// FIFO by a fixed pool of workers. Job records live in a map guarded by a
// mutex; the map is the only state shared between workers.
type MemoryQueue struct {
	processor Processor
	logger    *logrus.Logger

	mu      sync.RWMutex
	jobs    map[string]*GenerationJob
	backlog chan string

	closeOnce sync.Once
	closed    bool
	wg        sync.WaitGroup
}

// NewMemoryQueue creates the queue and starts its worker pool.
func NewMemoryQueue(cfg *Config, processor Processor, logger *logrus.Logger) *MemoryQueue {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 256
	}

	q := &MemoryQueue{
		processor: processor,
		logger:    logger,
		jobs:      make(map[string]*GenerationJob),
		backlog:   make(chan string, capacity),
	}

	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.worker(i)
	}

	return q
}

// Submit enqueues a generation request.
func (q *MemoryQueue) Submit(_ context.Context, templateID string, values map[string]string) (string, error) {
	job := &GenerationJob{
		ID:         uuid.New().String(),
		TemplateID: templateID,
		Values:     values,
		State:      StateQueued,
		CreatedAt:  time.Now(),
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return "", ErrQueueClosed
	}
	q.jobs[job.ID] = job
	q.mu.Unlock()

	select {
	case q.backlog <- job.ID:
	default:
		q.mu.Lock()
		delete(q.jobs, job.ID)
		q.mu.Unlock()
		return "", ErrQueueFull
	}

	q.logger.WithFields(logrus.Fields{
		"job_id":      job.ID,
		"template_id": templateID,
	}).Info("Generation job enqueued")

	return job.ID, nil
}

// Poll returns a snapshot of the job's current state.
func (q *MemoryQueue) Poll(_ context.Context, jobID string) (*GenerationJob, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}

	snapshot := *job
	return &snapshot, nil
}

// Cancel drops a job that is still queued. The backlog entry stays behind;
// workers skip ids whose job already left the Queued state.
func (q *MemoryQueue) Cancel(_ context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	if job.State != StateQueued {
		return ErrJobNotCancelable
	}

	now := time.Now()
	job.State = StateFailed
	job.Error = "cancelled before execution"
	job.CompletedAt = &now
	return nil
}

// Close stops intake, lets workers drain the backlog and waits for them.
func (q *MemoryQueue) Close() error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()

		close(q.backlog)
		q.wg.Wait()
	})
	return nil
}

// worker pulls job ids FIFO and processes each one fully before the next.
func (q *MemoryQueue) worker(id int) {
	defer q.wg.Done()

	for jobID := range q.backlog {
		q.mu.Lock()
		job, ok := q.jobs[jobID]
		if !ok || job.State != StateQueued {
			// Cancelled or dropped while queued.
			q.mu.Unlock()
			continue
		}
		now := time.Now()
		job.State = StateRunning
		job.StartedAt = &now
		claimed := *job
		q.mu.Unlock()

		resultPath, err := q.runProcessor(&claimed)

		q.mu.Lock()
		done := time.Now()
		job.CompletedAt = &done
		if err != nil {
			job.State = StateFailed
			job.Error = err.Error()
		} else {
			job.State = StateSucceeded
			job.ResultPath = resultPath
		}
		q.mu.Unlock()

		if err != nil {
			q.logger.WithError(err).WithFields(logrus.Fields{
				"job_id": jobID,
				"worker": id,
			}).Error("Generation job failed")
		} else {
			q.logger.WithFields(logrus.Fields{
				"job_id": jobID,
				"worker": id,
				"result": resultPath,
			}).Info("Generation job succeeded")
		}
	}
}

// runProcessor isolates a job's failure: an error or panic marks the job
// Failed without taking the worker down.
func (q *MemoryQueue) runProcessor(job *GenerationJob) (resultPath string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	if q.processor == nil {
		return "", fmt.Errorf("no processor configured")
	}
	return q.processor(context.Background(), job)
}
