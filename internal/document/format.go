/**
 * Input format detection
 *
 * Sniffs magic bytes instead of trusting filenames or caller-supplied
 * MIME types; uploads routinely arrive as application/octet-stream.
 */

package document

import "bytes"

// Format is the detected input document format.
type Format string

const (
	FormatPDF     Format = "pdf"
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatTIFF    Format = "tiff"
	FormatBMP     Format = "bmp"
	FormatUnknown Format = "unknown"
)

// DetectFormat identifies the document format from its magic bytes.
func DetectFormat(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}

	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return FormatPDF
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return FormatJPEG
	case bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47}):
		return FormatPNG
	case bytes.HasPrefix(data, []byte{0x49, 0x49, 0x2A, 0x00}),
		bytes.HasPrefix(data, []byte{0x4D, 0x4D, 0x00, 0x2A}):
		return FormatTIFF
	case bytes.HasPrefix(data, []byte{0x42, 0x4D}):
		return FormatBMP
	}
	return FormatUnknown
}

// IsImage reports whether the format is a single-page raster image.
func (f Format) IsImage() bool {
	switch f {
	case FormatJPEG, FormatPNG, FormatTIFF, FormatBMP:
		return true
	}
	return false
}
