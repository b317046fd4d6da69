/**
 * MRZ recognizer
 *
 * Wraps Tesseract (gosseract) behind the search engine's Recognizer
 * contract. Each attempt runs a short fallback chain: the full page
 * first, then the bottom band where the MRZ sits on the common passport
 * layout. The fast tier uses sparse-text segmentation for speed; the
 * normal tier uses uniform-block segmentation for accuracy.
 *
 * The recognizer is idempotent and never writes to the supplied image.
 */

package mrz

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/veridoc/mrzscan/internal/document"
	"github.com/veridoc/mrzscan/internal/logging"
	"github.com/veridoc/mrzscan/internal/search"
)

// mrzCharset is the full MRZ alphabet. Restricting Tesseract to it
// removes most lookalike confusions (O/0, I/1) up front.
const mrzCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789<"

// bottomBandFraction is the slice of the page retried when the full
// page yields no MRZ.
const bottomBandFraction = 0.3

// Config holds recognizer settings.
type Config struct {
	// Language is the Tesseract language pack; the dedicated "mrz"
	// pack when installed, "eng" otherwise.
	Language string

	// FastPSM and NormalPSM are Tesseract page segmentation modes per
	// quality tier.
	FastPSM   int
	NormalPSM int
}

// Recognizer attempts MRZ extraction from page images.
type Recognizer struct {
	cfg Config
	log *logging.Logger
}

// NewRecognizer creates a recognizer. Zero-valued settings fall back
// to production defaults.
func NewRecognizer(cfg Config, log *logging.Logger) *Recognizer {
	if cfg.Language == "" {
		cfg.Language = "mrz"
	}
	if cfg.FastPSM <= 0 {
		cfg.FastPSM = 11
	}
	if cfg.NormalPSM <= 0 {
		cfg.NormalPSM = 6
	}
	if log == nil {
		log = logging.NewLogger("mrz")
	}
	return &Recognizer{cfg: cfg, log: log}
}

// Recognize runs OCR over the candidate image and parses any MRZ lines
// found. A page without a readable MRZ returns Found=false and a nil
// error; only OCR-level faults surface as errors.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image, tier search.Tier) (*search.Outcome, error) {
	psm := r.cfg.NormalPSM
	if tier == search.TierFast {
		psm = r.cfg.FastPSM
	}

	regions := []struct {
		name string
		img  image.Image
	}{
		{"full", img},
		{"bottom_band", document.BottomBand(img, bottomBandFraction)},
	}

	var lastErr error
	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := r.ocr(region.img, psm)
		if err != nil {
			r.log.Debug("ocr failed", "region", region.name, "error", err)
			lastErr = err
			continue
		}

		lines := ExtractLines(text)
		if len(lines) == 0 {
			continue
		}
		if record, raw, ok := Parse(lines); ok {
			r.log.Debug("mrz parsed", "region", region.name, "type", record["mrz_type"])
			return &search.Outcome{Found: true, Fields: record, RawText: raw}, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all OCR regions failed: %w", lastErr)
	}
	return &search.Outcome{Found: false}, nil
}

// ocr runs one Tesseract pass restricted to the MRZ alphabet.
func (r *Recognizer) ocr(img image.Image, psm int) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.cfg.Language); err != nil {
		return "", fmt.Errorf("failed to set language %q: %w", r.cfg.Language, err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(psm)); err != nil {
		return "", fmt.Errorf("failed to set PSM %d: %w", psm, err)
	}
	if err := client.SetWhitelist(mrzCharset); err != nil {
		return "", fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract OCR failed: %w", err)
	}
	return text, nil
}
