/**
 * Search executor
 *
 * Drives candidate groups against the recognizer, sequentially for
 * small documents and with a bounded worker pool for larger ones.
 * First success wins: the winner cell is claimed at most once, the
 * shared context is cancelled, and in-flight workers abandon their
 * remaining rotations at the next cooperative check. Per-candidate
 * render or recognizer failures are absorbed; only document-level
 * unreadability (surfaced before the executor runs) aborts a scan.
 */

package search

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veridoc/mrzscan/internal/logging"
)

// Engine runs searches over a planned candidate space.
type Engine struct {
	cfg    Config
	rotate RotateFunc
	log    *logging.Logger
}

// NewEngine creates a search engine. rotate derives rotation variants
// from a rendered page; it must not modify its input.
func NewEngine(cfg Config, rotate RotateFunc, log *logging.Logger) *Engine {
	if cfg.ParallelThreshold <= 0 {
		cfg.ParallelThreshold = DefaultConfig().ParallelThreshold
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = DefaultConfig().MaxWorkers
	}
	if cfg.FastDPI <= 0 {
		cfg.FastDPI = DefaultConfig().FastDPI
	}
	if cfg.NormalDPI <= 0 {
		cfg.NormalDPI = DefaultConfig().NormalDPI
	}
	if log == nil {
		log = logging.NewLogger("search")
	}
	return &Engine{cfg: cfg, rotate: rotate, log: log}
}

// winner is the single commit point of a search. The first claim wins;
// every later claim is rejected so a slower worker can never replace
// the recorded outcome.
type winner struct {
	mu      sync.Mutex
	claimed bool
	outcome *Outcome
}

// claim records the outcome if no other worker has committed yet.
func (w *winner) claim(o *Outcome) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.claimed {
		return false
	}
	w.claimed = true
	w.outcome = o
	return true
}

// get returns the committed outcome, or nil when nothing was claimed.
func (w *winner) get() *Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.outcome
}

// done reports whether a winner exists. Workers consult it between
// candidate attempts so abandoned groups return promptly.
func (w *winner) done() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.claimed
}

// Run executes the plan and always returns a terminal result. The
// caller's context doubles as the external deadline: if it expires
// before a winner is committed the result status is ABORTED rather
// than NOT_FOUND.
func (e *Engine) Run(ctx context.Context, src Source, rec Recognizer, groups []Group) *Result {
	start := time.Now()

	w := &winner{}
	var evaluations atomic.Int64

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if len(groups) >= e.cfg.ParallelThreshold {
		e.runParallel(runCtx, cancel, src, rec, groups, w, &evaluations)
	} else {
		e.runSequential(runCtx, cancel, src, rec, groups, w, &evaluations)
	}

	elapsed := time.Since(start)
	state := StateExhausted
	if w.done() {
		state = StateSucceeded
	} else if ctx.Err() != nil {
		state = StateAborted
	}

	result := Finalize(state, w.get(), src.TotalPages(), elapsed)
	result.Evaluations = int(evaluations.Load())

	e.log.Info("search finished",
		"status", result.Status,
		"pages_examined", src.PageCount(),
		"total_pages", result.TotalPages,
		"evaluations", result.Evaluations,
		"elapsed", elapsed,
	)
	return result
}

// runSequential evaluates groups one after another in plan order.
// Small documents skip the worker pool because dispatch overhead
// exceeds any gain.
func (e *Engine) runSequential(ctx context.Context, cancel context.CancelFunc, src Source, rec Recognizer, groups []Group, w *winner, evaluations *atomic.Int64) {
	for _, group := range groups {
		if ctx.Err() != nil || w.done() {
			return
		}
		e.searchGroup(ctx, cancel, src, rec, group, w, evaluations)
	}
}

// runParallel dispatches groups in plan order onto a bounded pool.
// Completion order across workers is unspecified; the winner cell is
// the only ordering guarantee callers get.
func (e *Engine) runParallel(ctx context.Context, cancel context.CancelFunc, src Source, rec Recognizer, groups []Group, w *winner, evaluations *atomic.Int64) {
	limit := e.cfg.MaxWorkers
	if len(groups) < limit {
		limit = len(groups)
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for _, group := range groups {
		group := group
		g.Go(func() error {
			// No new work once a winner exists or the deadline fired.
			if ctx.Err() != nil || w.done() {
				return nil
			}
			e.searchGroup(ctx, cancel, src, rec, group, w, evaluations)
			return nil
		})
	}
	// Workers never return errors; failures are absorbed per candidate.
	_ = g.Wait()
}

// searchGroup runs one page's candidates in order on a single worker.
// The page is rendered once per resolution and rotation variants are
// derived copies, so two candidates never touch the same pixels.
func (e *Engine) searchGroup(ctx context.Context, cancel context.CancelFunc, src Source, rec Recognizer, group Group, w *winner, evaluations *atomic.Int64) {
	rendered := make(map[int]image.Image, 2)
	failed := make(map[int]bool, 2)

	for _, cand := range group.Candidates {
		if ctx.Err() != nil || w.done() {
			return
		}

		dpi := e.cfg.DPIFor(cand.Tier)
		if failed[dpi] {
			continue
		}
		page, ok := rendered[dpi]
		if !ok {
			var err error
			page, err = src.Render(ctx, cand.Page, dpi)
			if err != nil {
				// A page that cannot be rasterized fails only its own
				// candidates; the search moves on.
				e.log.Warn("page render failed", "page", cand.Page, "dpi", dpi, "error", err)
				failed[dpi] = true
				continue
			}
			rendered[dpi] = page
		}

		img := page
		if cand.Rotation != RotationNone && e.rotate != nil {
			img = e.rotate(page, cand.Rotation)
		}

		evaluations.Add(1)
		outcome, err := rec.Recognize(ctx, img, cand.Tier)
		if err != nil {
			e.log.Warn("recognizer failed", "candidate", cand.String(), "error", err)
			continue
		}
		if outcome == nil || !outcome.Found {
			continue
		}

		outcome.Candidate = cand
		if w.claim(outcome) {
			e.log.Info("winner committed", "candidate", cand.String())
			cancel()
		}
		return
	}
}
