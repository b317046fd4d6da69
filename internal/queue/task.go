/**
 * Scan task payloads
 *
 * One task type flows through the queue: an MRZ scan of an uploaded
 * document. The file travels inline in the payload; scan jobs are
 * short-lived and documents are size-capped at the API edge.
 */

package queue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeScanDocument is the asynq task type for MRZ scans.
const TypeScanDocument = "mrz:scan"

// ScanJob is the queued scan request. FileData is base64-encoded by
// encoding/json automatically.
type ScanJob struct {
	JobID         string `json:"jobId"`
	Filename      string `json:"filename"`
	FileData      []byte `json:"fileData"`
	StartPage     int    `json:"startPage,omitempty"`
	StartPageOnly bool   `json:"startPageOnly,omitempty"`
	MaxPages      int    `json:"maxPages,omitempty"`
}

// NewScanTask wraps a scan job into an asynq task.
func NewScanTask(job *ScanJob) (*asynq.Task, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scan job: %w", err)
	}
	return asynq.NewTask(TypeScanDocument, payload), nil
}

// Job statuses published to the status store.
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)
