package jobqueue

import (
	"context"
	"time"
)

// Processor runs one generation job to completion and returns the stored
// artifact path. It is invoked by exactly one worker per job; the document
// it mutates is owned by that job alone.
type Processor func(ctx context.Context, job *GenerationJob) (resultPath string, err error)

// Queue decouples generation requests from the request path. Jobs are pulled
// FIFO by a bounded pool of workers; one job's failure never affects another
// or the pool itself.
type Queue interface {
	// Submit enqueues a generation request and returns its job id.
	Submit(ctx context.Context, templateID string, values map[string]string) (string, error)

	// Poll returns the current snapshot of a job.
	Poll(ctx context.Context, jobID string) (*GenerationJob, error)

	// Cancel drops a job that no worker has claimed yet. Running and
	// terminal jobs cannot be cancelled.
	Cancel(ctx context.Context, jobID string) error

	// Close stops intake, drains queued jobs and waits for workers.
	Close() error
}

// Config holds queue settings shared by the implementations.
type Config struct {
	// Workers bounds the number of concurrently processed jobs.
	Workers int
	// Capacity bounds the backlog of queued jobs (memory queue only).
	Capacity int
	// RedisAddr, RedisPassword, RedisDB configure the redis-backed queue.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// RetryDelay spaces retries of transient redis failures.
	RetryDelay time.Duration
}

// DefaultConfig returns sensible pool defaults.
func DefaultConfig() *Config {
	return &Config{
		Workers:    4,
		Capacity:   256,
		RedisAddr:  "localhost:6379",
		RetryDelay: time.Minute,
	}
}
