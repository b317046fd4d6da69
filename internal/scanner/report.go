/**
 * Result envelopes
 *
 * Builds the caller-facing JSON shapes shared by the CLI, the HTTP API
 * and the queue worker:
 *   success -> {"status":"success","data":{...},"processing_time_seconds":n}
 *   failure -> {"status":"failure","message":...}
 *   error   -> {"status":"error","message":...}
 */

package scanner

import (
	"math"

	"github.com/veridoc/mrzscan/internal/search"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusError   = "error"
)

// Envelope converts a terminal search result into the serializable
// response map.
func Envelope(res *search.Result) map[string]interface{} {
	elapsed := roundSeconds(res.ElapsedSeconds)

	switch res.Status {
	case search.StatusSuccess:
		data := make(map[string]interface{}, len(res.Outcome.Fields)+5)
		for k, v := range res.Outcome.Fields {
			data[k] = v
		}
		data["raw_text"] = res.Outcome.RawText
		data["page_number"] = res.PageNumber
		data["total_pages"] = res.TotalPages
		data["rotation"] = int(res.Outcome.Candidate.Rotation)
		data["quality_tier"] = res.Outcome.Candidate.Tier.String()
		return map[string]interface{}{
			"status":                  StatusSuccess,
			"data":                    data,
			"processing_time_seconds": elapsed,
		}
	case search.StatusAborted:
		return map[string]interface{}{
			"status":                  StatusError,
			"message":                 "Scan aborted before the search space was exhausted.",
			"total_pages":             res.TotalPages,
			"processing_time_seconds": elapsed,
		}
	default:
		return map[string]interface{}{
			"status":                  StatusFailure,
			"message":                 "Could not find any valid MRZ data after trying all pages and rotations.",
			"total_pages":             res.TotalPages,
			"processing_time_seconds": elapsed,
		}
	}
}

// ErrorEnvelope is the shape for scans that never started, such as
// unreadable input.
func ErrorEnvelope(err error, elapsedSeconds float64) map[string]interface{} {
	return map[string]interface{}{
		"status":                  StatusError,
		"message":                 err.Error(),
		"processing_time_seconds": roundSeconds(elapsedSeconds),
	}
}

// roundSeconds keeps two decimal places, matching the documented
// result schema.
func roundSeconds(s float64) float64 {
	return math.Round(s*100) / 100
}
