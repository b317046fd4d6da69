/**
 * Queue consumer for the MRZ scan worker
 *
 * Consumes scan jobs from the Redis-backed queue via asynq, runs the
 * search engine, and publishes the result envelope to the status
 * store. Per-job faults are reported through the status store; a
 * NOT_FOUND scan is a completed job, not a failed one.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	apperrors "github.com/veridoc/mrzscan/internal/errors"
	"github.com/veridoc/mrzscan/internal/logging"
	"github.com/veridoc/mrzscan/internal/scanner"
)

// Consumer handles scan job consumption from the Redis queue.
type Consumer struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	scanner *scanner.Scanner
	status  *StatusStore
	config  *ConsumerConfig
	log     *logging.Logger
}

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	RedisURL    string
	QueueName   string
	Concurrency int
	ScanTimeout int64 // milliseconds
}

// NewConsumer creates a new queue consumer.
func NewConsumer(cfg *ConsumerConfig, sc *scanner.Scanner, status *StatusStore, log *logging.Logger) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if sc == nil {
		return nil, fmt.Errorf("scanner is required")
	}
	if status == nil {
		return nil, fmt.Errorf("status store is required")
	}
	if cfg.QueueName == "" {
		cfg.QueueName = "mrzscan:jobs"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if log == nil {
		log = logging.NewLogger("queue")
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				cfg.QueueName: 10,
				"default":     1,
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				// Exponential backoff: 5s, 10s, 20s, capped at a minute
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error("task processing error", "type", task.Type(), "error", err)
			}),
		},
	)

	mux := asynq.NewServeMux()

	consumer := &Consumer{
		server:  server,
		mux:     mux,
		scanner: sc,
		status:  status,
		config:  cfg,
		log:     log,
	}

	mux.HandleFunc(TypeScanDocument, consumer.handleScanDocument)

	return consumer, nil
}

// Start starts the queue consumer.
func (c *Consumer) Start() error {
	c.log.Info("starting queue consumer", "concurrency", c.config.Concurrency, "queue", c.config.QueueName)

	go func() {
		if err := c.server.Run(c.mux); err != nil {
			c.log.Error("queue consumer stopped unexpectedly", "error", err)
		}
	}()

	return nil
}

// Stop stops the queue consumer gracefully.
func (c *Consumer) Stop() error {
	c.log.Info("stopping queue consumer")
	c.server.Shutdown()
	return nil
}

// handleScanDocument processes one queued scan job.
func (c *Consumer) handleScanDocument(ctx context.Context, task *asynq.Task) error {
	startTime := time.Now()

	var job ScanJob
	if err := json.Unmarshal(task.Payload(), &job); err != nil {
		return fmt.Errorf("failed to unmarshal scan job: %w", err)
	}

	c.log.Info("scan job started", "job", job.JobID, "filename", job.Filename, "size", len(job.FileData))

	if err := c.status.Set(ctx, &JobStatus{
		JobID:    job.JobID,
		Status:   JobStatusProcessing,
		Filename: job.Filename,
	}); err != nil {
		c.log.Warn("failed to mark job processing", "job", job.JobID, "error", err)
	}

	timeout := 300000 * time.Millisecond
	if c.config.ScanTimeout > 0 {
		timeout = time.Duration(c.config.ScanTimeout) * time.Millisecond
	}
	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := c.scanner.Scan(scanCtx, &scanner.Request{
		Filename:      job.Filename,
		Data:          job.FileData,
		StartPage:     job.StartPage,
		StartPageOnly: job.StartPageOnly,
		MaxPages:      job.MaxPages,
	})

	duration := time.Since(startTime)

	if err != nil {
		if scanCtx.Err() == context.DeadlineExceeded {
			c.log.Warn("scan job timed out", "job", job.JobID, "elapsed", duration)
			timeoutErr := apperrors.NewScanTimeoutError(job.JobID, timeout, err)
			c.failJob(ctx, &job, timeoutErr.ToMap())
			return fmt.Errorf("scan timeout: %w", timeoutErr)
		}

		// Unreadable input never becomes readable; report and drop
		// instead of retrying.
		c.log.Warn("scan job failed", "job", job.JobID, "elapsed", duration, "error", err)
		c.failJob(ctx, &job, scanner.ErrorEnvelope(err, duration.Seconds()))
		if apperrors.HasCode(err, apperrors.ErrorUnreadableDocument) {
			return fmt.Errorf("unreadable document: %v: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	c.log.Info("scan job completed", "job", job.JobID, "status", result.Status, "elapsed", duration)

	if err := c.status.Set(ctx, &JobStatus{
		JobID:    job.JobID,
		Status:   JobStatusCompleted,
		Filename: job.Filename,
		Result:   scanner.Envelope(result),
	}); err != nil {
		c.log.Warn("failed to store job result", "job", job.JobID, "error", err)
	}

	return nil
}

// failJob records a failed job in the status store.
func (c *Consumer) failJob(ctx context.Context, job *ScanJob, result map[string]interface{}) {
	if err := c.status.Set(ctx, &JobStatus{
		JobID:    job.JobID,
		Status:   JobStatusFailed,
		Filename: job.Filename,
		Result:   result,
	}); err != nil {
		c.log.Warn("failed to mark job failed", "job", job.JobID, "error", err)
	}
}
