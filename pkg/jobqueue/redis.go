package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// taskTypeGenerate is the asynq task type carrying a job id.
	taskTypeGenerate = "document:generate"
	// jobKeyPrefix namespaces job records in redis.
	jobKeyPrefix = "generation:job:"
	// defaultJobExpiry keeps finished job records around for polling.
	defaultJobExpiry = 7 * 24 * time.Hour
)

// RedisQueue is the redis-backed queue for multi-process deployments: asynq
// distributes the work, and job records live in redis so any process can
// poll them.
type RedisQueue struct {
	client      *asynq.Client
	server      *asynq.Server
	redisClient *redis.Client
	processor   Processor
	cfg         *Config
	logger      *logrus.Logger
}

// NewRedisQueue connects to redis and prepares the queue. Call Start to run
// the worker side; a submit-only process can skip it.
func NewRedisQueue(cfg *Config, processor Processor, logger *logrus.Logger) (*RedisQueue, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisQueue{
		client:      asynq.NewClient(redisOpt),
		redisClient: redisClient,
		processor:   processor,
		cfg:         cfg,
		logger:      logger,
	}, nil
}

// Start launches the asynq worker server. Concurrency is bounded by
// cfg.Workers, matching the memory queue's pool semantics.
func (q *RedisQueue) Start() error {
	workers := q.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	q.server = asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     q.cfg.RedisAddr,
			Password: q.cfg.RedisPassword,
			DB:       q.cfg.RedisDB,
		},
		asynq.Config{
			Concurrency: workers,
			RetryDelayFunc: func(n int, e error, t *asynq.Task) time.Duration {
				return q.cfg.RetryDelay
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(taskTypeGenerate, q.handleGenerate)

	if err := q.server.Start(mux); err != nil {
		return fmt.Errorf("failed to start asynq server: %w", err)
	}
	q.logger.WithField("workers", workers).Info("Generation worker pool started")
	return nil
}

// Submit stores the job record and enqueues an asynq task pointing at it.
func (q *RedisQueue) Submit(ctx context.Context, templateID string, values map[string]string) (string, error) {
	job := &GenerationJob{
		ID:         uuid.New().String(),
		TemplateID: templateID,
		Values:     values,
		State:      StateQueued,
		CreatedAt:  time.Now(),
	}

	if err := q.saveJob(ctx, job); err != nil {
		return "", fmt.Errorf("failed to save job to redis: %w", err)
	}

	task := asynq.NewTask(taskTypeGenerate, []byte(job.ID))
	if _, err := q.client.EnqueueContext(ctx, task, asynq.MaxRetry(0)); err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}

	q.logger.WithFields(logrus.Fields{
		"job_id":      job.ID,
		"template_id": templateID,
	}).Info("Generation job enqueued")

	return job.ID, nil
}

// Poll returns the stored snapshot of a job.
func (q *RedisQueue) Poll(ctx context.Context, jobID string) (*GenerationJob, error) {
	return q.loadJob(ctx, jobID)
}

// Cancel marks a still-queued job as dropped. The asynq task may still fire;
// the handler skips jobs that already left the Queued state.
func (q *RedisQueue) Cancel(ctx context.Context, jobID string) error {
	job, err := q.loadJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.State != StateQueued {
		return ErrJobNotCancelable
	}

	now := time.Now()
	job.State = StateFailed
	job.Error = "cancelled before execution"
	job.CompletedAt = &now
	return q.saveJob(ctx, job)
}

// Close shuts down the worker server and both redis connections.
func (q *RedisQueue) Close() error {
	if q.server != nil {
		q.server.Shutdown()
	}
	if err := q.client.Close(); err != nil {
		return err
	}
	return q.redisClient.Close()
}

// handleGenerate is the asynq handler: claim, process, record the terminal
// state. Processing failures are captured into the job record and never
// returned to asynq, so a bad job is not retried or requeued.
func (q *RedisQueue) handleGenerate(ctx context.Context, task *asynq.Task) error {
	jobID := string(task.Payload())

	job, err := q.loadJob(ctx, jobID)
	if err != nil {
		q.logger.WithError(err).WithField("job_id", jobID).Error("Failed to load job for processing")
		return nil
	}
	if job.State != StateQueued {
		q.logger.WithFields(logrus.Fields{
			"job_id": jobID,
			"state":  job.State,
		}).Debug("Skipping job that already left the queue")
		return nil
	}

	now := time.Now()
	job.State = StateRunning
	job.StartedAt = &now
	if err := q.saveJob(ctx, job); err != nil {
		q.logger.WithError(err).WithField("job_id", jobID).Error("Failed to claim job")
		return nil
	}

	resultPath, procErr := q.runProcessor(ctx, job)

	done := time.Now()
	job.CompletedAt = &done
	if procErr != nil {
		job.State = StateFailed
		job.Error = procErr.Error()
		q.logger.WithError(procErr).WithField("job_id", jobID).Error("Generation job failed")
	} else {
		job.State = StateSucceeded
		job.ResultPath = resultPath
	}

	if err := q.saveJob(ctx, job); err != nil {
		q.logger.WithError(err).WithField("job_id", jobID).Error("Failed to record job outcome")
	}
	return nil
}

func (q *RedisQueue) runProcessor(ctx context.Context, job *GenerationJob) (resultPath string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	if q.processor == nil {
		return "", fmt.Errorf("no processor configured")
	}
	return q.processor(ctx, job)
}

func (q *RedisQueue) saveJob(ctx context.Context, job *GenerationJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return q.redisClient.Set(ctx, jobKeyPrefix+job.ID, data, defaultJobExpiry).Err()
}

func (q *RedisQueue) loadJob(ctx context.Context, jobID string) (*GenerationJob, error) {
	data, err := q.redisClient.Get(ctx, jobKeyPrefix+jobID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to load job from redis: %w", err)
	}

	var job GenerationJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}
