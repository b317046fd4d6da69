/**
 * Page sources
 *
 * A Source turns raw document bytes into rasterized page images on
 * demand. A plain image is a one-page source; a PDF renders pages lazily
 * at the resolution the executor asks for, capped by the configured
 * page limit. TotalPages always reports the true document page count so
 * callers can tell "not found within the examined pages" from
 * "document has no more pages".
 */

package document

import (
	"bytes"
	"context"
	"fmt"
	"image"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	apperrors "github.com/veridoc/mrzscan/internal/errors"
	"github.com/veridoc/mrzscan/internal/logging"
)

// Options configures a page source.
type Options struct {
	// PageCap bounds how many PDF pages may be examined; 0 means all.
	PageCap int

	// MaxDimension caps either axis of a rendered page before OCR.
	MaxDimension int

	// TempDir is used by render backends that need files on disk.
	TempDir string
}

// Source produces rasterized pages for one document.
type Source interface {
	Render(ctx context.Context, page int, dpi int) (image.Image, error)
	PageCount() int
	TotalPages() int
	Close() error
}

// Open decodes the document header and returns the matching source.
// Unrecognized bytes fail with an UNREADABLE_DOCUMENT error before any
// search work begins.
func Open(name string, data []byte, opts Options, log *logging.Logger) (Source, error) {
	if log == nil {
		log = logging.NewLogger("document")
	}

	format := DetectFormat(data)
	switch {
	case format == FormatPDF:
		return openPDF(name, data, opts, log)
	case format.IsImage():
		return openImage(name, data, opts)
	default:
		return nil, apperrors.NewUnreadableDocumentError(name, fmt.Errorf("unrecognized format"))
	}
}

// imageSource is a single decoded raster image.
type imageSource struct {
	img image.Image
}

func openImage(name string, data []byte, opts Options) (Source, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewUnreadableDocumentError(name, err)
	}
	return &imageSource{img: Downscale(img, opts.MaxDimension)}, nil
}

// Render returns the decoded image; resolution is fixed by the input
// file, so dpi is ignored.
func (s *imageSource) Render(_ context.Context, page int, _ int) (image.Image, error) {
	if page != 0 {
		return nil, fmt.Errorf("image source has a single page, requested %d", page)
	}
	return s.img, nil
}

func (s *imageSource) PageCount() int  { return 1 }
func (s *imageSource) TotalPages() int { return 1 }
func (s *imageSource) Close() error    { return nil }

// pdfSource renders PDF pages through an ordered backend chain.
type pdfSource struct {
	data       []byte
	backends   []renderBackend
	opts       Options
	pageCount  int
	totalPages int
	log        *logging.Logger
}

func openPDF(name string, data []byte, opts Options, log *logging.Logger) (Source, error) {
	backends := availableBackends(opts.TempDir)
	if len(backends) == 0 {
		return nil, apperrors.NewUnreadableDocumentError(name, fmt.Errorf("no PDF render backend available"))
	}

	total := 0
	var lastErr error
	for _, b := range backends {
		n, err := b.pageCount(data)
		if err != nil {
			lastErr = err
			continue
		}
		total = n
		break
	}
	if total <= 0 {
		return nil, apperrors.NewUnreadableDocumentError(name, lastErr)
	}

	capped := total
	if opts.PageCap > 0 && opts.PageCap < capped {
		capped = opts.PageCap
	}

	return &pdfSource{
		data:       data,
		backends:   backends,
		opts:       opts,
		pageCount:  capped,
		totalPages: total,
		log:        log,
	}, nil
}

// Render rasterizes one page at the requested resolution, trying each
// backend in order until one succeeds.
func (s *pdfSource) Render(ctx context.Context, page int, dpi int) (image.Image, error) {
	if page < 0 || page >= s.pageCount {
		return nil, fmt.Errorf("page %d out of range [0,%d)", page, s.pageCount)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var lastErr error
	for _, b := range s.backends {
		img, err := b.render(ctx, s.data, page, dpi)
		if err != nil {
			s.log.Warn("render backend failed", "backend", b.name(), "page", page, "error", err)
			lastErr = err
			continue
		}
		return Downscale(img, s.opts.MaxDimension), nil
	}
	return nil, apperrors.NewRenderFailedError(page, dpi, lastErr)
}

func (s *pdfSource) PageCount() int  { return s.pageCount }
func (s *pdfSource) TotalPages() int { return s.totalPages }
func (s *pdfSource) Close() error    { return nil }
