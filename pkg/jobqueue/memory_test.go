package jobqueue

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestMemoryQueueProcessesJob(t *testing.T) {
	processor := func(_ context.Context, job *GenerationJob) (string, error) {
		return "out/" + job.ID + ".docx", nil
	}
	q := NewMemoryQueue(&Config{Workers: 2, Capacity: 8}, processor, testLogger())

	ctx := context.Background()
	jobID, err := q.Submit(ctx, "tpl-1", map[string]string{"client_name": "Ada"})
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	require.NoError(t, q.Close())

	job, err := q.Poll(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, job.State)
	assert.Equal(t, "out/"+jobID+".docx", job.ResultPath)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.CompletedAt)
}

// TestMemoryQueueAllJobsReachTerminalState submits 50 jobs against a
// 4-worker pool and verifies every one ends Succeeded or Failed with none
// stuck Queued or Running.
func TestMemoryQueueAllJobsReachTerminalState(t *testing.T) {
	var processed int64
	processor := func(_ context.Context, job *GenerationJob) (string, error) {
		atomic.AddInt64(&processed, 1)
		if strings.HasSuffix(job.TemplateID, "3") {
			return "", fmt.Errorf("synthetic failure for %s", job.TemplateID)
		}
		return "out/" + job.ID + ".docx", nil
	}
	q := NewMemoryQueue(&Config{Workers: 4, Capacity: 64}, processor, testLogger())

	ctx := context.Background()
	var jobIDs []string
	for i := 0; i < 50; i++ {
		jobID, err := q.Submit(ctx, fmt.Sprintf("tpl-%d", i), nil)
		require.NoError(t, err)
		jobIDs = append(jobIDs, jobID)
	}

	require.NoError(t, q.Close())

	succeeded, failed := 0, 0
	for _, jobID := range jobIDs {
		job, err := q.Poll(ctx, jobID)
		require.NoError(t, err)
		require.True(t, job.State.Terminal(), "job %s stuck in %s", jobID, job.State)
		switch job.State {
		case StateSucceeded:
			succeeded++
		case StateFailed:
			assert.NotEmpty(t, job.Error)
			failed++
		}
	}

	assert.Equal(t, 50, succeeded+failed)
	assert.Equal(t, 5, failed, "templates ending in 3 fail")
	assert.Equal(t, int64(50), atomic.LoadInt64(&processed))
}

// TestMemoryQueueFailureIsolation verifies a panicking job is captured as
// Failed without killing the worker that ran it.
func TestMemoryQueueFailureIsolation(t *testing.T) {
	processor := func(_ context.Context, job *GenerationJob) (string, error) {
		if job.TemplateID == "boom" {
			panic("formatter exploded")
		}
		return "ok", nil
	}
	q := NewMemoryQueue(&Config{Workers: 1, Capacity: 8}, processor, testLogger())

	ctx := context.Background()
	badID, err := q.Submit(ctx, "boom", nil)
	require.NoError(t, err)
	goodID, err := q.Submit(ctx, "fine", nil)
	require.NoError(t, err)

	require.NoError(t, q.Close())

	bad, err := q.Poll(ctx, badID)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, bad.State)
	assert.Contains(t, bad.Error, "panicked")

	good, err := q.Poll(ctx, goodID)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, good.State, "the worker survived the panic")
}

func TestMemoryQueueCancel(t *testing.T) {
	release := make(chan struct{})
	processor := func(_ context.Context, _ *GenerationJob) (string, error) {
		<-release
		return "ok", nil
	}
	// One worker, so the second job stays queued while the first blocks.
	q := NewMemoryQueue(&Config{Workers: 1, Capacity: 8}, processor, testLogger())

	ctx := context.Background()
	firstID, err := q.Submit(ctx, "tpl-a", nil)
	require.NoError(t, err)
	secondID, err := q.Submit(ctx, "tpl-b", nil)
	require.NoError(t, err)

	// Wait for the worker to claim the first job.
	require.Eventually(t, func() bool {
		job, err := q.Poll(ctx, firstID)
		return err == nil && job.State == StateRunning
	}, time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, q.Cancel(ctx, firstID), ErrJobNotCancelable)
	assert.NoError(t, q.Cancel(ctx, secondID))
	assert.ErrorIs(t, q.Cancel(ctx, "missing"), ErrJobNotFound)

	close(release)
	require.NoError(t, q.Close())

	second, err := q.Poll(ctx, secondID)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, second.State)
	assert.Equal(t, "cancelled before execution", second.Error)
}

func TestMemoryQueueSubmitAfterClose(t *testing.T) {
	q := NewMemoryQueue(&Config{Workers: 1, Capacity: 1}, func(context.Context, *GenerationJob) (string, error) {
		return "", nil
	}, testLogger())
	require.NoError(t, q.Close())

	_, err := q.Submit(context.Background(), "tpl", nil)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestMemoryQueuePollUnknownJob(t *testing.T) {
	q := NewMemoryQueue(DefaultConfig(), nil, testLogger())
	defer q.Close()

	_, err := q.Poll(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}
