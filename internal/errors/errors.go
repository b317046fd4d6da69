package errors

import (
	"errors"
	"fmt"
	"time"
)

/**
 * Custom error types for the MRZ scan worker
 *
 * Only document-level unreadability is fatal to a scan; render and
 * recognizer faults stay local to one candidate and never carry a
 * scan-level error code out of the engine.
 */

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Scan errors
	ErrorUnreadableDocument ErrorCode = "UNREADABLE_DOCUMENT"
	ErrorRenderFailed       ErrorCode = "RENDER_FAILED"
	ErrorRecognizerFailed   ErrorCode = "RECOGNIZER_FAILED"
	ErrorScanTimeout        ErrorCode = "SCAN_TIMEOUT"

	// Queue errors
	ErrorQueueFailed ErrorCode = "QUEUE_FAILED"
)

// ScanError represents a structured scan error
type ScanError struct {
	Code      ErrorCode
	Message   string
	JobID     string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *ScanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScanError) Unwrap() error {
	return e.Cause
}

// Factory functions for common errors

func NewUnreadableDocumentError(filename string, cause error) *ScanError {
	return &ScanError{
		Code:      ErrorUnreadableDocument,
		Message:   fmt.Sprintf("Input is not a decodable image or PDF: %s", filename),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"filename": filename,
		},
		Cause: cause,
	}
}

func NewRenderFailedError(page int, dpi int, cause error) *ScanError {
	return &ScanError{
		Code:      ErrorRenderFailed,
		Message:   fmt.Sprintf("Failed to rasterize page %d at %d DPI", page, dpi),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"page": page,
			"dpi":  dpi,
		},
		Cause: cause,
	}
}

func NewRecognizerFailedError(cause error) *ScanError {
	return &ScanError{
		Code:      ErrorRecognizerFailed,
		Message:   "Recognizer reported an internal fault",
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewScanTimeoutError(jobID string, duration time.Duration, cause error) *ScanError {
	return &ScanError{
		Code:      ErrorScanTimeout,
		Message:   fmt.Sprintf("Scan timed out after %v", duration),
		JobID:     jobID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"timeout_duration": duration.String(),
		},
		Cause: cause,
	}
}

func NewQueueFailedError(jobID string, cause error) *ScanError {
	return &ScanError{
		Code:      ErrorQueueFailed,
		Message:   "Failed to enqueue or update scan job",
		JobID:     jobID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// HasCode reports whether err is (or wraps) a ScanError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var se *ScanError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// ToMap converts error to map for job status reporting
func (e *ScanError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
