package document

import (
	"image"
	"image/color"
	"testing"
)

var mark = color.RGBA{R: 255, A: 255}

// markedImage is 4x2 with a red pixel in the top-left corner.
func markedImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.SetRGBA(0, 0, mark)
	return img
}

func isMark(c color.Color) bool {
	r, g, b, a := c.RGBA()
	mr, mg, mb, ma := mark.RGBA()
	return r == mr && g == mg && b == mb && a == ma
}

func TestRotateDimensions(t *testing.T) {
	src := markedImage()
	tests := []struct {
		degrees int
		wantW   int
		wantH   int
		markX   int
		markY   int
	}{
		{90, 2, 4, 0, 3},  // counter-clockwise: top-left lands bottom-left
		{-90, 2, 4, 1, 0}, // clockwise: top-left lands top-right
		{180, 4, 2, 3, 1}, // half-turn: top-left lands bottom-right
	}
	for _, tt := range tests {
		dst := Rotate(src, tt.degrees)
		b := dst.Bounds()
		if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
			t.Errorf("Rotate(%d): dims %dx%d, want %dx%d", tt.degrees, b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			continue
		}
		if !isMark(dst.At(tt.markX, tt.markY)) {
			t.Errorf("Rotate(%d): marker not at (%d,%d)", tt.degrees, tt.markX, tt.markY)
		}
	}
}

func TestRotateZeroIsIdentity(t *testing.T) {
	src := markedImage()
	if dst := Rotate(src, 0); dst != image.Image(src) {
		t.Error("Rotate(0) must return the input unchanged")
	}
	if dst := Rotate(src, 45); dst != image.Image(src) {
		t.Error("non right-angle rotation must return the input unchanged")
	}
}

func TestRotateDoesNotModifySource(t *testing.T) {
	src := markedImage()
	Rotate(src, 90)
	if !isMark(src.At(0, 0)) {
		t.Error("source image was modified by rotation")
	}
}

func TestDownscale(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 800, 200))
	dst := Downscale(src, 400)

	b := dst.Bounds()
	if b.Dx() != 400 || b.Dy() != 100 {
		t.Errorf("dims %dx%d, want 400x100", b.Dx(), b.Dy())
	}
}

func TestDownscaleWithinBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 50))
	if dst := Downscale(src, 100); dst != image.Image(src) {
		t.Error("image within bounds must be returned as-is")
	}
	if dst := Downscale(src, 0); dst != image.Image(src) {
		t.Error("non-positive limit must disable downscaling")
	}
}

func TestDownscalePortrait(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 300, 600))
	dst := Downscale(src, 300)

	b := dst.Bounds()
	if b.Dy() != 300 || b.Dx() != 150 {
		t.Errorf("dims %dx%d, want 150x300", b.Dx(), b.Dy())
	}
}

func TestBottomBand(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	// Mark a pixel inside the bottom 30 percent.
	src.SetRGBA(50, 90, mark)

	band := BottomBand(src, 0.3)
	b := band.Bounds()
	if b.Dx() != 100 || b.Dy() != 30 {
		t.Fatalf("band dims %dx%d, want 100x30", b.Dx(), b.Dy())
	}
	// Row 90 of the source is row 20 of the band.
	if !isMark(band.At(50, 20)) {
		t.Error("marker not carried into the band")
	}
}

func TestBottomBandInvalidFraction(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for _, f := range []float64{0, -0.5, 1, 1.5} {
		if dst := BottomBand(src, f); dst != image.Image(src) {
			t.Errorf("fraction %f must return the input unchanged", f)
		}
	}
}
