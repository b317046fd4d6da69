/**
 * Scan orchestration
 *
 * Ties the page source, plan builder, executor and recognizer together
 * for one document scan. Per-request options (start page, page cap,
 * sequential mode) override the process-wide defaults from the
 * configuration.
 */

package scanner

import (
	"context"
	"image"

	"github.com/veridoc/mrzscan/internal/config"
	"github.com/veridoc/mrzscan/internal/document"
	"github.com/veridoc/mrzscan/internal/logging"
	"github.com/veridoc/mrzscan/internal/mrz"
	"github.com/veridoc/mrzscan/internal/search"
)

// Request describes one scan. StartPage is 1-based to match the
// user-facing API; zero means no hint.
type Request struct {
	Filename string
	Data     []byte

	// StartPage is the page expected to hold the MRZ, 1-based.
	StartPage int

	// StartPageOnly restricts the search to the hinted page.
	StartPageOnly bool

	// MaxPages overrides the configured page cap; zero keeps the default.
	MaxPages int

	// Sequential disables parallel dispatch regardless of page count.
	Sequential bool
}

// Scanner runs MRZ searches over input documents.
type Scanner struct {
	cfg        *config.Config
	recognizer search.Recognizer
	log        *logging.Logger
}

// NewScanner builds a scanner from the loaded configuration.
func NewScanner(cfg *config.Config, log *logging.Logger) *Scanner {
	if log == nil {
		log = logging.NewLogger("scanner")
	}
	rec := mrz.NewRecognizer(mrz.Config{
		Language:  cfg.OCRLanguage,
		FastPSM:   cfg.OCRPSMModeFast,
		NormalPSM: cfg.OCRPSMMode,
	}, log)
	return &Scanner{cfg: cfg, recognizer: rec, log: log}
}

// NewScannerWithRecognizer injects a recognizer; tests use stubs.
func NewScannerWithRecognizer(cfg *config.Config, rec search.Recognizer, log *logging.Logger) *Scanner {
	if log == nil {
		log = logging.NewLogger("scanner")
	}
	return &Scanner{cfg: cfg, recognizer: rec, log: log}
}

// Scan searches the document for an MRZ and always returns a terminal
// result unless the input bytes are not a decodable image or PDF.
func (s *Scanner) Scan(ctx context.Context, req *Request) (*search.Result, error) {
	pageCap := s.cfg.MaxPagesDefault
	if req.MaxPages > 0 {
		pageCap = req.MaxPages
	}

	src, err := document.Open(req.Filename, req.Data, document.Options{
		PageCap:      pageCap,
		MaxDimension: s.cfg.MaxImageDimension,
		TempDir:      s.cfg.TempDir,
	}, s.log)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	s.log.Info("scan started",
		"filename", req.Filename,
		"pages", src.PageCount(),
		"total_pages", src.TotalPages(),
		"start_page", req.StartPage,
	)

	hint := search.NoHint
	if req.StartPage > 0 {
		hint = req.StartPage - 1
	}

	rotations := make([]search.Rotation, 0, len(s.cfg.Rotations))
	for _, r := range s.cfg.Rotations {
		rotations = append(rotations, search.Rotation(r))
	}

	groups := search.BuildPlan(src.PageCount(), hint, rotations)
	if req.StartPageOnly && hint >= 0 && hint < src.PageCount() && len(groups) > 0 {
		groups = groups[:1]
	}

	engineCfg := search.Config{
		Rotations:         rotations,
		FastDPI:           s.cfg.PDFDPIFast,
		NormalDPI:         s.cfg.PDFDPI,
		ParallelThreshold: s.cfg.ParallelThreshold,
		MaxWorkers:        s.cfg.MaxWorkers,
	}
	if req.Sequential {
		// A threshold above any plan size keeps dispatch single-threaded.
		engineCfg.ParallelThreshold = len(groups) + 1
	}

	engine := search.NewEngine(engineCfg, rotate, s.log)
	return engine.Run(ctx, src, s.recognizer, groups), nil
}

// rotate adapts the document transform to the engine's contract.
func rotate(img image.Image, rotation search.Rotation) image.Image {
	return document.Rotate(img, int(rotation))
}
