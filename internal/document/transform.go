/**
 * Raster transforms
 *
 * Rotation variants and downscaling are derived copies; the source
 * image is never written to, so renders stay safe for concurrent
 * readers.
 */

package document

import (
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Rotate returns a copy of img rotated by the given right-angle amount
// in degrees: 90 counter-clockwise, -90 clockwise, 180 half-turn. Any
// other value returns img unchanged.
func Rotate(img image.Image, degrees int) image.Image {
	b := img.Bounds()
	w := float64(b.Dx())
	h := float64(b.Dy())

	var dst *image.RGBA
	var m f64.Aff3
	switch degrees {
	case 90:
		dst = image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
		m = f64.Aff3{0, 1, 0, -1, 0, w}
	case -90:
		dst = image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
		m = f64.Aff3{0, -1, h, 1, 0, 0}
	case 180:
		dst = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		m = f64.Aff3{-1, 0, w, 0, -1, h}
	default:
		return img
	}

	// Nearest neighbor is lossless for right-angle rotations.
	draw.NearestNeighbor.Transform(dst, m, img, b, draw.Src, nil)
	return dst
}

// Downscale shrinks img so neither axis exceeds maxDim, preserving
// aspect ratio. Images already within bounds are returned as-is. Very
// large renders slow OCR down far more than the resample costs.
func Downscale(img image.Image, maxDim int) image.Image {
	if maxDim <= 0 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	largest := w
	if h > largest {
		largest = h
	}
	if largest <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(largest)
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// BottomBand copies the bottom fraction of img. The MRZ sits in the
// bottom band of the common passport layout, so the recognizer retries
// there when the full page yields nothing.
func BottomBand(img image.Image, fraction float64) image.Image {
	if fraction <= 0 || fraction >= 1 {
		return img
	}
	b := img.Bounds()
	top := b.Min.Y + int(float64(b.Dy())*(1-fraction))
	region := image.Rect(b.Min.X, top, b.Max.X, b.Max.Y)

	dst := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Copy(dst, image.Point{}, img, region, draw.Src, nil)
	return dst
}
