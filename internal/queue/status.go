/**
 * Job status store
 *
 * Keeps per-job status and the final result envelope in Redis under a
 * TTL. This is transient job state for polling clients, not a result
 * archive; entries expire on their own.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// JobStatus is the stored state of one scan job.
type JobStatus struct {
	JobID     string                 `json:"jobId"`
	Status    string                 `json:"status"`
	Filename  string                 `json:"filename,omitempty"`
	Result    map[string]interface{} `json:"result,omitempty"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// StatusStore reads and writes job status records.
type StatusStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStatusStore connects to Redis and verifies the connection.
func NewStatusStore(redisURL, prefix string, ttl time.Duration) (*StatusStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if prefix == "" {
		prefix = "mrzscan:jobs"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &StatusStore{client: client, prefix: prefix, ttl: ttl}, nil
}

// Set writes a job status record, refreshing its TTL.
func (s *StatusStore) Set(ctx context.Context, status *JobStatus) error {
	status.UpdatedAt = time.Now()
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal job status: %w", err)
	}
	if err := s.client.Set(ctx, s.key(status.JobID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store job status: %w", err)
	}
	return nil
}

// Get fetches a job status record; ok is false when the job is unknown
// or expired.
func (s *StatusStore) Get(ctx context.Context, jobID string) (*JobStatus, bool, error) {
	data, err := s.client.Get(ctx, s.key(jobID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch job status: %w", err)
	}

	var status JobStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal job status: %w", err)
	}
	return &status, true, nil
}

// Close releases the Redis connection.
func (s *StatusStore) Close() error {
	return s.client.Close()
}

func (s *StatusStore) key(jobID string) string {
	return fmt.Sprintf("%s:status:%s", s.prefix, jobID)
}
