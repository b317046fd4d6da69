/**
 * Scan job enqueuer
 *
 * Used by the HTTP API's async endpoint: assigns a job ID, marks the
 * job queued in the status store, and hands the task to asynq.
 */

package queue

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	apperrors "github.com/veridoc/mrzscan/internal/errors"
)

// Enqueuer submits scan jobs to the queue.
type Enqueuer struct {
	client    *asynq.Client
	status    *StatusStore
	queueName string
}

// NewEnqueuer creates an enqueuer sharing the worker's queue and
// status store settings.
func NewEnqueuer(redisURL, queueName string, status *StatusStore) (*Enqueuer, error) {
	redisOpt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if queueName == "" {
		queueName = "mrzscan:jobs"
	}
	return &Enqueuer{
		client:    asynq.NewClient(redisOpt),
		status:    status,
		queueName: queueName,
	}, nil
}

// Enqueue submits one scan job and returns its job ID.
func (e *Enqueuer) Enqueue(ctx context.Context, job *ScanJob) (string, error) {
	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}

	task, err := NewScanTask(job)
	if err != nil {
		return "", apperrors.NewQueueFailedError(job.JobID, err)
	}

	if err := e.status.Set(ctx, &JobStatus{
		JobID:    job.JobID,
		Status:   JobStatusQueued,
		Filename: job.Filename,
	}); err != nil {
		return "", apperrors.NewQueueFailedError(job.JobID, err)
	}

	if _, err := e.client.EnqueueContext(ctx, task, asynq.Queue(e.queueName), asynq.MaxRetry(2)); err != nil {
		return "", apperrors.NewQueueFailedError(job.JobID, err)
	}
	return job.JobID, nil
}

// Close releases the asynq client.
func (e *Enqueuer) Close() error {
	return e.client.Close()
}
