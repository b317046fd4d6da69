/**
 * Candidate model for the MRZ page search
 *
 * A candidate is one (page, rotation, quality tier) combination the
 * executor may hand to the recognizer. Candidates are immutable: the
 * plan builder creates them, the executor consumes each exactly once.
 */

package search

import (
	"context"
	"fmt"
	"image"
)

// Rotation is a page rotation in degrees. Positive values rotate
// counter-clockwise, matching the usual raster convention.
type Rotation int

const (
	RotationNone Rotation = 0
	RotationCW   Rotation = -90
	RotationCCW  Rotation = 90
	RotationFlip Rotation = 180
)

// DefaultRotations is the three-way rotation order used when the
// configuration does not override it. 0 degrees comes first because it
// is by far the most common orientation; -90 before 90 because scanned
// passports are usually pre-rotated clockwise.
var DefaultRotations = []Rotation{RotationNone, RotationCW, RotationCCW}

// Tier selects the render resolution and recognition settings for one
// attempt. The fast tier trades accuracy for speed and is only used on
// the hinted page.
type Tier int

const (
	TierNormal Tier = iota
	TierFast
)

// String returns the tier name for logging and result metadata.
func (t Tier) String() string {
	if t == TierFast {
		return "fast"
	}
	return "normal"
}

// Candidate is a single recognition attempt: one page at one rotation
// with one quality tier.
type Candidate struct {
	Page     int
	Rotation Rotation
	Tier     Tier
}

// String formats the candidate for log lines.
func (c Candidate) String() string {
	return fmt.Sprintf("page=%d rotation=%d tier=%s", c.Page, c.Rotation, c.Tier)
}

// Group holds all candidates belonging to one page. The executor
// dispatches groups; within a group candidates run in order on the
// same worker because a rotation is cheap next to a recognition pass.
type Group struct {
	Page       int
	Candidates []Candidate
}

// Outcome is the recognizer's verdict for one candidate. Fields is an
// opaque MRZ record: the engine never inspects it, only forwards it.
type Outcome struct {
	Found     bool
	Fields    map[string]string
	RawText   string
	Candidate Candidate
}

// Source produces rasterized page images for one document. PageCount
// is the number of pages the search may examine (bounded by the page
// cap); TotalPages is the true document page count, which can be
// larger. Rendered images are read-only once returned and safe for
// concurrent readers.
type Source interface {
	Render(ctx context.Context, page int, dpi int) (image.Image, error)
	PageCount() int
	TotalPages() int
}

// Recognizer attempts MRZ extraction on one page image. It must be
// idempotent and side-effect-free on the supplied image. A nil error
// with Found=false means the page simply has no readable MRZ.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, tier Tier) (*Outcome, error)
}

// RotateFunc derives a rotated copy of a page image. The source image
// is never modified.
type RotateFunc func(img image.Image, rotation Rotation) image.Image

// Config carries the tunables the engine consumes. It is an explicit
// struct rather than package state so tests can run varied
// configurations in parallel.
type Config struct {
	// Rotations is the ordered rotation set tried for every page.
	Rotations []Rotation

	// FastDPI and NormalDPI are the render resolutions per tier.
	FastDPI   int
	NormalDPI int

	// ParallelThreshold is the page-group count at which the executor
	// switches from sequential to parallel dispatch.
	ParallelThreshold int

	// MaxWorkers bounds parallel dispatch.
	MaxWorkers int
}

// DefaultConfig mirrors the production defaults: 200/300 DPI tiers,
// parallel dispatch from three pages, at most four workers.
func DefaultConfig() Config {
	return Config{
		Rotations:         DefaultRotations,
		FastDPI:           200,
		NormalDPI:         300,
		ParallelThreshold: 3,
		MaxWorkers:        4,
	}
}

// DPIFor returns the render resolution for a tier.
func (c Config) DPIFor(tier Tier) int {
	if tier == TierFast {
		return c.FastDPI
	}
	return c.NormalDPI
}
