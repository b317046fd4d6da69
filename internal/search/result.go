/**
 * Result aggregation
 *
 * Converts the executor's terminal state into the structured result
 * handed to callers. Results are terminal: built once, never mutated.
 */

package search

import "time"

// State is the terminal state of a search run.
type State int

const (
	StateSucceeded State = iota
	StateExhausted
	StateAborted
)

// Status is the caller-facing verdict.
type Status string

const (
	StatusSuccess  Status = "SUCCESS"
	StatusNotFound Status = "NOT_FOUND"
	StatusAborted  Status = "ABORTED"
)

// Result is the terminal outcome of one search. TotalPages and
// ElapsedSeconds are populated even on NOT_FOUND so a caller can tell
// a degenerate document from a thorough but unsuccessful search.
type Result struct {
	Status  Status
	Outcome *Outcome

	// PageNumber is 1-based for user-facing output; 0 when no page won.
	PageNumber int

	// TotalPages is the true document page count, which may exceed the
	// number of pages the search examined under a page cap.
	TotalPages int

	ElapsedSeconds float64

	// Evaluations counts recognizer attempts across the whole search.
	Evaluations int
}

// Finalize builds the terminal result for a search run.
func Finalize(state State, outcome *Outcome, totalPages int, elapsed time.Duration) *Result {
	res := &Result{
		TotalPages:     totalPages,
		ElapsedSeconds: elapsed.Seconds(),
	}
	switch state {
	case StateSucceeded:
		res.Status = StatusSuccess
		res.Outcome = outcome
		res.PageNumber = outcome.Candidate.Page + 1
	case StateAborted:
		res.Status = StatusAborted
	default:
		res.Status = StatusNotFound
	}
	return res
}
