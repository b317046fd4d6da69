/**
 * PDF render backends
 *
 * MuPDF (go-fitz) is the primary backend; pdftoppm from poppler-utils
 * is the fallback when a malformed document trips MuPDF up. Backends
 * open their own document handle per render so concurrent page workers
 * never share mutable rasterizer state.
 */

package document

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	_ "image/png"

	"github.com/gen2brain/go-fitz"
)

// renderBackend rasterizes one PDF page. Implementations must be safe
// for concurrent use.
type renderBackend interface {
	name() string
	pageCount(data []byte) (int, error)
	render(ctx context.Context, data []byte, page int, dpi int) (image.Image, error)
}

// availableBackends returns the backend chain in preference order.
func availableBackends(tempDir string) []renderBackend {
	backends := []renderBackend{fitzBackend{}}
	if _, err := exec.LookPath("pdftoppm"); err == nil {
		backends = append(backends, popplerBackend{tempDir: tempDir})
	}
	return backends
}

// fitzBackend renders through MuPDF.
type fitzBackend struct{}

func (fitzBackend) name() string { return "mupdf" }

func (fitzBackend) pageCount(data []byte) (int, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return 0, fmt.Errorf("mupdf open failed: %w", err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

func (fitzBackend) render(ctx context.Context, data []byte, page int, dpi int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("mupdf open failed: %w", err)
	}
	defer doc.Close()

	img, err := doc.ImageDPI(page, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("mupdf render page %d failed: %w", page, err)
	}
	return img, nil
}

// popplerBackend shells out to pdftoppm.
type popplerBackend struct {
	tempDir string
}

func (popplerBackend) name() string { return "poppler" }

func (b popplerBackend) pageCount(data []byte) (int, error) {
	path, cleanup, err := b.writeTemp(data)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	out, err := exec.Command("pdfinfo", path).Output()
	if err != nil {
		return 0, fmt.Errorf("pdfinfo failed: %w", err)
	}
	return parsePDFInfoPages(out)
}

func (b popplerBackend) render(ctx context.Context, data []byte, page int, dpi int) (image.Image, error) {
	path, cleanup, err := b.writeTemp(data)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	prefix := path + "-render"
	// pdftoppm numbers pages from 1
	pageNum := strconv.Itoa(page + 1)
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-r", strconv.Itoa(dpi),
		"-f", pageNum,
		"-l", pageNum,
		path, prefix,
	)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w", err)
	}

	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no output for page %d", page)
	}
	defer func() {
		for _, m := range matches {
			os.Remove(m)
		}
	}()

	f, err := os.Open(matches[0])
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode pdftoppm output: %w", err)
	}
	return img, nil
}

func (b popplerBackend) writeTemp(data []byte) (string, func(), error) {
	dir := b.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, "mrzscan-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp PDF: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", nil, fmt.Errorf("failed to write temp PDF: %w", err)
	}
	f.Close()
	return path, func() { os.Remove(path) }, nil
}

// parsePDFInfoPages extracts the "Pages:" line from pdfinfo output.
func parsePDFInfoPages(out []byte) (int, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		var n int
		if _, err := fmt.Sscanf(scanner.Text(), "Pages: %d", &n); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("pdfinfo output has no page count")
}
